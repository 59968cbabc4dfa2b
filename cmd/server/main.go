package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"content-cache-api/internal/cache"
	"content-cache-api/internal/config"
	"content-cache-api/internal/content"
	"content-cache-api/internal/database"
	"content-cache-api/internal/realtime"
	"content-cache-api/internal/routes"
	"content-cache-api/internal/wordpress"

	"gorm.io/gorm/logger"
)

const sweepInterval = 10 * time.Minute

func main() {
	cfg := config.Load()
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Persistent tier: SQLite when a path is configured, otherwise memory only
	var persistent cache.PersistentStore = cache.NoopStore{}
	var sqlStore *cache.SQLStore
	if cfg.CacheDBPath != "" {
		db, err := database.Open(cfg.CacheDBPath, logger.Warn)
		if err != nil {
			log.Fatal("Failed to open cache database: ", err)
		}
		sqlStore = cache.NewSQLStore(db, cache.SQLOptions{
			Namespace:  cfg.CacheNamespace,
			MaxEntries: cfg.CacheMaxEntries,
			Logger:     slogger,
		})
		persistent = sqlStore
	} else {
		log.Println("CACHE_DB_PATH not set; persistent cache tier disabled")
	}

	memory := cache.NewMemoryStore[string, any]()
	orch := cache.New(memory, persistent, cache.Options{Coalesce: cfg.CacheCoalesce, Logger: slogger})

	upstream := wordpress.NewClient(wordpress.Config{
		Endpoint:  cfg.WordPressURL,
		AuthToken: cfg.WordPressToken,
		Timeout:   cfg.UpstreamTimeout,
		Logger:    slogger,
	})
	if !upstream.Configured() {
		log.Println("WORDPRESS_API_URL missing or placeholder; serving fallback content")
	}

	hub := realtime.NewHub()
	svc := content.NewService(orch, upstream, content.Options{
		Logger:      slogger,
		Events:      hub,
		WarmupDelay: cfg.WarmupDelay,
	})

	ctx := context.Background()
	svc.Warmup(ctx)
	go sweep(ctx, memory, sqlStore)

	ginRoutes := routes.SetupRoutes(routes.Dependencies{
		Content:            svc,
		Hub:                hub,
		AdminUsername:      cfg.AdminUsername,
		AdminPasswordHash:  cfg.AdminPasswordHash,
		UpstreamConfigured: upstream.Configured(),
	})

	log.Printf("Server starting on port %s", cfg.Port)
	log.Println("API endpoints:")
	log.Println("  GET    /health")
	log.Println("  GET    /api/posts")
	log.Println("  GET    /api/posts/:slug")
	log.Println("  GET    /api/search")
	log.Println("  GET    /api/categories")
	log.Println("  GET    /api/categories/:slug/posts")
	log.Println("  GET    /api/featured")
	log.Println("  POST   /api/admin/login")
	log.Println("  GET    /api/admin/cache/stats")
	log.Println("  DELETE /api/admin/cache")
	log.Println("  POST   /api/admin/cache/warmup")
	log.Println("  GET    /api/admin/cache/events")

	if err := ginRoutes.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

// sweep drops expired entries from both tiers on a fixed interval.
func sweep(ctx context.Context, memory *cache.MemoryStore[string, any], store *cache.SQLStore) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			memory.PurgeExpired()
			if store != nil {
				if n := store.Cleanup(ctx); n > 0 {
					log.Printf("removed %d expired persistent cache entries", n)
				}
			}
		}
	}
}
