package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"content-cache-api/internal/cache"
	"content-cache-api/internal/content"
	"content-cache-api/internal/realtime"
	"content-cache-api/internal/wordpress"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// newRouter runs against an unconfigured upstream, so every read is served from fallback content.
func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	hub := realtime.NewHub()
	svc := content.NewService(
		cache.New(nil, nil, cache.Options{Coalesce: true}),
		wordpress.NewClient(wordpress.Config{}),
		content.Options{Events: hub},
	)
	return SetupRoutes(Dependencies{Content: svc, Hub: hub, AdminUsername: "admin"})
}

func serve(r *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := serve(newRouter(), http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"persistentEnabled":false`)
	require.Contains(t, w.Body.String(), `"upstreamConfigured":false`)
}

func TestPublicRoutes_ServeFallbackContent(t *testing.T) {
	r := newRouter()
	for _, target := range []string{
		"/api/posts",
		"/api/posts/habit-stacking",
		"/api/search?q=sleep",
		"/api/categories",
		"/api/categories/mindset/posts",
		"/api/featured",
	} {
		w := serve(r, http.MethodGet, target)
		require.Equal(t, http.StatusOK, w.Code, target)
		require.NotEmpty(t, w.Header().Get("Cache-Control"), target)
	}
}

func TestPosts_FallbackPage(t *testing.T) {
	w := serve(newRouter(), http.MethodGet, "/api/posts?first=2")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Posts    []map[string]any   `json:"posts"`
		PageInfo wordpress.PageInfo `json:"pageInfo"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Posts, 2)
	require.Equal(t, "fallback:2", resp.PageInfo.EndCursor)
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	r := newRouter()
	require.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/admin/cache/stats").Code)
	require.Equal(t, http.StatusUnauthorized, serve(r, http.MethodDelete, "/api/admin/cache").Code)
	require.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/api/admin/cache/warmup").Code)
}

func TestPreflight(t *testing.T) {
	w := serve(newRouter(), http.MethodOptions, "/api/posts")
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
