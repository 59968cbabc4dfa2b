// Package config reads the service settings from the environment.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"content-cache-api/internal/cache"
	"content-cache-api/internal/content"
	"content-cache-api/internal/wordpress"
)

type Config struct {
	Port string

	WordPressURL    string
	WordPressToken  string
	UpstreamTimeout time.Duration

	// CacheDBPath selects the SQLite persistent tier; empty disables it.
	CacheDBPath     string
	CacheNamespace  string
	CacheMaxEntries int
	CacheCoalesce   bool
	WarmupDelay     time.Duration

	AdminUsername     string
	AdminPasswordHash string
}

// Load reads every setting, falling back to development defaults.
func Load() Config {
	return Config{
		Port:              listenAddr(getEnv("PORT", "8008")),
		WordPressURL:      getEnv("WORDPRESS_API_URL", ""),
		WordPressToken:    getEnv("WORDPRESS_AUTH_TOKEN", ""),
		UpstreamTimeout:   getEnvDuration("UPSTREAM_TIMEOUT", wordpress.DefaultTimeout),
		CacheDBPath:       getEnv("CACHE_DB_PATH", ""),
		CacheNamespace:    getEnv("CACHE_NAMESPACE", cache.DefaultNamespace),
		CacheMaxEntries:   getEnvInt("CACHE_MAX_ENTRIES", 500),
		CacheCoalesce:     getEnvBool("CACHE_COALESCE", true),
		WarmupDelay:       getEnvDuration("WARMUP_DELAY", content.DefaultWarmupDelay),
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
	}
}

// listenAddr accepts both "8008" and ":8008".
func listenAddr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("ignoring %s=%q: %v", key, v, err)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("ignoring %s=%q: %v", key, v, err)
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("ignoring %s=%q: %v", key, v, err)
		return fallback
	}
	return d
}
