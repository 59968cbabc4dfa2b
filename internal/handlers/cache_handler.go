package handlers

import (
	"context"
	"log"
	"net/http"

	"content-cache-api/internal/content"

	"github.com/gin-gonic/gin"
)

// CacheAdmin is the maintenance side of content.Service.
type CacheAdmin interface {
	Stats(ctx context.Context) content.CacheStats
	ClearAll(ctx context.Context) int
	Warmup(ctx context.Context) <-chan struct{}
}

type CacheHandler struct {
	admin CacheAdmin
}

func NewCacheHandler(admin CacheAdmin) *CacheHandler {
	return &CacheHandler{admin: admin}
}

// GetStats handles GET /api/admin/cache/stats
func (h *CacheHandler) GetStats(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, h.admin.Stats(c.Request.Context()))
}

// ClearCache handles DELETE /api/admin/cache
func (h *CacheHandler) ClearCache(c *gin.Context) {
	removed := h.admin.ClearAll(c.Request.Context())
	log.Printf("cache cleared by %s", c.GetString("username"))
	c.JSON(http.StatusOK, gin.H{
		"message": "Cache cleared",
		"removed": removed,
	})
}

// Warmup handles POST /api/admin/cache/warmup. The warm-up outlives the request.
func (h *CacheHandler) Warmup(c *gin.Context) {
	h.admin.Warmup(context.WithoutCancel(c.Request.Context()))
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Cache warm-up started",
	})
}
