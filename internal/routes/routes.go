package routes

import (
	"content-cache-api/internal/content"
	"content-cache-api/internal/handlers"
	"content-cache-api/internal/middleware"
	"content-cache-api/internal/realtime"

	"github.com/gin-gonic/gin"
)

// Dependencies are the collaborators the HTTP surface is built over.
type Dependencies struct {
	Content           *content.Service
	Hub               *realtime.Hub
	AdminUsername     string
	AdminPasswordHash string
	// UpstreamConfigured is reported by /health.
	UpstreamConfigured bool
}

func SetupRoutes(deps Dependencies) *gin.Engine {
	ginRouter := gin.Default()

	// CORS middleware (for frontend integration)
	ginRouter.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":             "ok",
			"message":            "Content cache API is running",
			"upstreamConfigured": deps.UpstreamConfigured,
			"persistentEnabled":  deps.Content.Orchestrator().Persistent().Available(),
		})
	})

	posts := handlers.NewPostHandler(deps.Content)
	cacheAdmin := handlers.NewCacheHandler(deps.Content)
	events := handlers.NewEventsHandler(deps.Hub)
	login := handlers.NewAuthHandler(deps.AdminUsername, deps.AdminPasswordHash)

	// Public routes (no authentication required)
	api := ginRouter.Group("/api")
	{
		api.GET("/posts", posts.GetPosts)
		api.GET("/posts/:slug", posts.GetPostBySlug)
		api.GET("/search", posts.SearchPosts)
		api.GET("/categories", posts.GetCategories)
		api.GET("/categories/:slug/posts", posts.GetCategoryPosts)
		api.GET("/featured", posts.GetFeatured)
		api.POST("/admin/login", login.Login)
	}

	// Admin routes (admin token required)
	admin := api.Group("/admin")
	admin.Use(middleware.JWTAuthMiddleware())
	{
		admin.GET("/cache/stats", cacheAdmin.GetStats)
		admin.DELETE("/cache", cacheAdmin.ClearCache)
		admin.POST("/cache/warmup", cacheAdmin.Warmup)
		admin.GET("/cache/events", events.Stream)
	}

	return ginRouter
}
