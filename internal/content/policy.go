package content

import (
	"time"

	"content-cache-api/internal/cache"
)

// Cache policies per resource type. Search is the most volatile,
// the category catalog the least.
var (
	PolicyAllPosts = cache.Policy{
		Name:          "all-posts",
		MemoryTTL:     5 * time.Minute,
		PersistentTTL: 30 * time.Minute,
		Revalidate:    time.Hour,
	}
	PolicyFeatured = cache.Policy{
		Name:          "featured",
		MemoryTTL:     10 * time.Minute,
		PersistentTTL: time.Hour,
		Revalidate:    2 * time.Hour,
	}
	PolicyCategories = cache.Policy{
		Name:          "categories",
		MemoryTTL:     30 * time.Minute,
		PersistentTTL: 6 * time.Hour,
		Revalidate:    24 * time.Hour,
	}
	PolicySinglePost = cache.Policy{
		Name:          "single-post",
		MemoryTTL:     10 * time.Minute,
		PersistentTTL: time.Hour,
		Revalidate:    time.Hour,
	}
	PolicySearch = cache.Policy{
		Name:          "search",
		MemoryTTL:     2 * time.Minute,
		PersistentTTL: 5 * time.Minute,
		Revalidate:    5 * time.Minute,
	}
)

// Key prefixes, one per accessor.
const (
	prefixPosts         = "posts"
	prefixPost          = "post"
	prefixSearch        = "search"
	prefixCategoryPosts = "category_posts"
	prefixCategories    = "categories"
	prefixFeatured      = "featured"
)

const (
	DefaultPageSize      = 12
	MaxPageSize          = 100
	DefaultFeaturedCount = 3
	MaxFeaturedCount     = 12
)

func clamp(n, def, limit int) int {
	if n <= 0 {
		return def
	}
	if n > limit {
		return limit
	}
	return n
}
