package handlers

import (
	"context"
	"net/http"
	"strconv"

	"content-cache-api/internal/cache"
	"content-cache-api/internal/content"
	"content-cache-api/internal/formatter"
	"content-cache-api/internal/wordpress"

	"github.com/gin-gonic/gin"
)

// ContentReader is the read side of content.Service. Results belong to the caller.
type ContentReader interface {
	AllPosts(ctx context.Context, first int, after string) wordpress.PostsPage
	PostBySlug(ctx context.Context, slug string) (*wordpress.RawPost, bool)
	SearchPosts(ctx context.Context, term string, first int) []wordpress.RawPost
	PostsByCategory(ctx context.Context, slug string, first int) []wordpress.RawPost
	Categories(ctx context.Context) []wordpress.Category
	FeaturedPosts(ctx context.Context, count int) []wordpress.RawPost
}

// PostHandler serves the public read API.
type PostHandler struct {
	content ContentReader
}

func NewPostHandler(reader ContentReader) *PostHandler {
	return &PostHandler{content: reader}
}

// queryInt reads an integer query param; anything unparsable becomes 0 and
// the service substitutes its default.
func queryInt(c *gin.Context, name string) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return n
}

// setCacheHeaders lets browsers and CDNs keep a response as long as the memory tier would.
func setCacheHeaders(c *gin.Context, policy cache.Policy) {
	c.Header("Cache-Control", "public, max-age="+strconv.Itoa(int(policy.MemoryTTL.Seconds())))
}

// GetPosts handles GET /api/posts?first=&after=
func (h *PostHandler) GetPosts(c *gin.Context) {
	page := h.content.AllPosts(c.Request.Context(), queryInt(c, "first"), c.Query("after"))
	setCacheHeaders(c, content.PolicyAllPosts)
	c.JSON(http.StatusOK, gin.H{
		"posts":    formatter.FormatAll(page.Posts),
		"pageInfo": page.PageInfo,
	})
}

// GetPostBySlug handles GET /api/posts/:slug
func (h *PostHandler) GetPostBySlug(c *gin.Context) {
	post, ok := h.content.PostBySlug(c.Request.Context(), c.Param("slug"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Post not found",
		})
		return
	}
	setCacheHeaders(c, content.PolicySinglePost)
	c.JSON(http.StatusOK, formatter.Format(*post))
}

// SearchPosts handles GET /api/search?q=&first=
func (h *PostHandler) SearchPosts(c *gin.Context) {
	term := c.Query("q")
	posts := h.content.SearchPosts(c.Request.Context(), term, queryInt(c, "first"))
	setCacheHeaders(c, content.PolicySearch)
	c.JSON(http.StatusOK, gin.H{
		"query": term,
		"posts": formatter.FormatAll(posts),
	})
}

// GetCategories handles GET /api/categories
func (h *PostHandler) GetCategories(c *gin.Context) {
	categories := h.content.Categories(c.Request.Context())
	for i := range categories {
		categories[i].Name = formatter.DecodeEntities(categories[i].Name)
	}
	setCacheHeaders(c, content.PolicyCategories)
	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
	})
}

// GetCategoryPosts handles GET /api/categories/:slug/posts?first=
func (h *PostHandler) GetCategoryPosts(c *gin.Context) {
	slug := c.Param("slug")
	posts := h.content.PostsByCategory(c.Request.Context(), slug, queryInt(c, "first"))
	setCacheHeaders(c, content.PolicyAllPosts)
	c.JSON(http.StatusOK, gin.H{
		"category": slug,
		"posts":    formatter.FormatAll(posts),
	})
}

// GetFeatured handles GET /api/featured?count=
func (h *PostHandler) GetFeatured(c *gin.Context) {
	posts := h.content.FeaturedPosts(c.Request.Context(), queryInt(c, "count"))
	setCacheHeaders(c, content.PolicyFeatured)
	c.JSON(http.StatusOK, gin.H{
		"posts": formatter.FormatAll(posts),
	})
}
