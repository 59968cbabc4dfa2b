// Package content exposes the blog resources through the multi-tier cache.
// Accessors never fail: upstream trouble degrades to built-in fallback content.
package content

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"content-cache-api/internal/cache"
	"content-cache-api/internal/wordpress"

	platformerrors "github.com/jmgilman/go/errors"
)

// Fetcher is the upstream surface the service reads through.
// *wordpress.Client satisfies it.
type Fetcher interface {
	AllPosts(ctx context.Context, first int, after string, policy cache.Policy) (wordpress.PostsPage, error)
	PostBySlug(ctx context.Context, slug string, policy cache.Policy) (*wordpress.RawPost, error)
	SearchPosts(ctx context.Context, term string, first int, policy cache.Policy) ([]wordpress.RawPost, error)
	PostsByCategory(ctx context.Context, category string, first int, policy cache.Policy) ([]wordpress.RawPost, error)
	Categories(ctx context.Context, policy cache.Policy) ([]wordpress.Category, error)
	FeaturedPosts(ctx context.Context, count int, policy cache.Policy) ([]wordpress.RawPost, error)
}

// Publisher receives cache events. *realtime.Hub satisfies it.
type Publisher interface {
	Broadcast(topic string, message []byte)
}

// EventsTopic is the topic cache events are published on.
const EventsTopic = "cache"

const DefaultWarmupDelay = 2 * time.Second

type Options struct {
	Logger      *slog.Logger
	Events      Publisher
	WarmupDelay time.Duration
}

// Service resolves blog resources through an orchestrator.
// Accessor results are copies; callers may modify them without touching the cache.
type Service struct {
	cache       *cache.Orchestrator
	upstream    Fetcher
	logger      *slog.Logger
	events      Publisher
	warmupDelay time.Duration
}

func NewService(orch *cache.Orchestrator, upstream Fetcher, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	delay := opts.WarmupDelay
	if delay < 0 {
		delay = 0
	}
	return &Service{
		cache:       orch,
		upstream:    upstream,
		logger:      logger,
		events:      opts.Events,
		warmupDelay: delay,
	}
}

// Orchestrator returns the underlying cache.
func (s *Service) Orchestrator() *cache.Orchestrator { return s.cache }

// postSlot wraps the single-post result so "not found" can be cached too.
type postSlot struct {
	Post *wordpress.RawPost `json:"post"`
}

func (s *Service) fetchAllPosts(ctx context.Context, first int, after string) (wordpress.PostsPage, error) {
	key := cache.BuildKey(prefixPosts, cache.Params{"first": first, "after": after})
	return cache.Resolve(ctx, s.cache, key, PolicyAllPosts, func(ctx context.Context) (wordpress.PostsPage, error) {
		return s.upstream.AllPosts(ctx, first, after, PolicyAllPosts)
	})
}

func (s *Service) fetchPostBySlug(ctx context.Context, slug string) (postSlot, error) {
	key := cache.BuildKey(prefixPost, cache.Params{"slug": slug})
	return cache.Resolve(ctx, s.cache, key, PolicySinglePost, func(ctx context.Context) (postSlot, error) {
		post, err := s.upstream.PostBySlug(ctx, slug, PolicySinglePost)
		return postSlot{Post: post}, err
	})
}

func (s *Service) fetchSearch(ctx context.Context, term string, first int) ([]wordpress.RawPost, error) {
	key := cache.BuildKey(prefixSearch, cache.Params{"search": strings.ToLower(term), "first": first})
	return cache.Resolve(ctx, s.cache, key, PolicySearch, func(ctx context.Context) ([]wordpress.RawPost, error) {
		return s.upstream.SearchPosts(ctx, term, first, PolicySearch)
	})
}

func (s *Service) fetchByCategory(ctx context.Context, slug string, first int) ([]wordpress.RawPost, error) {
	key := cache.BuildKey(prefixCategoryPosts, cache.Params{"category": slug, "first": first})
	return cache.Resolve(ctx, s.cache, key, PolicyAllPosts, func(ctx context.Context) ([]wordpress.RawPost, error) {
		return s.upstream.PostsByCategory(ctx, slug, first, PolicyAllPosts)
	})
}

func (s *Service) fetchCategories(ctx context.Context) ([]wordpress.Category, error) {
	key := cache.BuildKey(prefixCategories, nil)
	return cache.Resolve(ctx, s.cache, key, PolicyCategories, func(ctx context.Context) ([]wordpress.Category, error) {
		return s.upstream.Categories(ctx, PolicyCategories)
	})
}

func (s *Service) fetchFeatured(ctx context.Context, count int) ([]wordpress.RawPost, error) {
	key := cache.BuildKey(prefixFeatured, cache.Params{"count": count})
	return cache.Resolve(ctx, s.cache, key, PolicyFeatured, func(ctx context.Context) ([]wordpress.RawPost, error) {
		return s.upstream.FeaturedPosts(ctx, count, PolicyFeatured)
	})
}

// AllPosts returns one page of posts. first is clamped to 1..MaxPageSize.
func (s *Service) AllPosts(ctx context.Context, first int, after string) wordpress.PostsPage {
	first = clamp(first, DefaultPageSize, MaxPageSize)
	page, err := s.fetchAllPosts(ctx, first, after)
	if err != nil {
		s.degraded("all-posts", err)
		return fallbackPostsPage(first, after)
	}
	return wordpress.PostsPage{Posts: clonePosts(page.Posts), PageInfo: page.PageInfo}
}

// PostBySlug returns the post and whether it exists.
func (s *Service) PostBySlug(ctx context.Context, slug string) (*wordpress.RawPost, bool) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, false
	}
	slot, err := s.fetchPostBySlug(ctx, slug)
	if err != nil {
		s.degraded("single-post", err, slog.String("slug", slug))
		return fallbackPostBySlug(slug)
	}
	if slot.Post == nil {
		return nil, false
	}
	post := clonePost(*slot.Post)
	return &post, true
}

// SearchPosts runs a search. A blank term short-circuits to an empty result.
func (s *Service) SearchPosts(ctx context.Context, term string, first int) []wordpress.RawPost {
	term = strings.TrimSpace(term)
	if term == "" {
		return []wordpress.RawPost{}
	}
	first = clamp(first, DefaultPageSize, MaxPageSize)
	posts, err := s.fetchSearch(ctx, term, first)
	if err != nil {
		s.degraded("search", err, slog.String("term", term))
		return fallbackSearch(term, first)
	}
	return clonePosts(posts)
}

func (s *Service) PostsByCategory(ctx context.Context, slug string, first int) []wordpress.RawPost {
	slug = strings.TrimSpace(slug)
	first = clamp(first, DefaultPageSize, MaxPageSize)
	posts, err := s.fetchByCategory(ctx, slug, first)
	if err != nil {
		s.degraded("category-posts", err, slog.String("category", slug))
		return fallbackByCategory(slug, first)
	}
	return clonePosts(posts)
}

func (s *Service) Categories(ctx context.Context) []wordpress.Category {
	cats, err := s.fetchCategories(ctx)
	if err != nil {
		s.degraded("categories", err)
		return fallbackCategoryList()
	}
	return append([]wordpress.Category{}, cats...)
}

// FeaturedPosts returns up to count featured posts, count clamped to 1..MaxFeaturedCount.
func (s *Service) FeaturedPosts(ctx context.Context, count int) []wordpress.RawPost {
	count = clamp(count, DefaultFeaturedCount, MaxFeaturedCount)
	posts, err := s.fetchFeatured(ctx, count)
	if err != nil {
		s.degraded("featured", err)
		return fallbackFeatured(count)
	}
	return clonePosts(posts)
}

func (s *Service) degraded(resource string, err error, attrs ...any) {
	attrs = append(attrs,
		slog.String("resource", resource),
		slog.String("code", string(platformerrors.GetCode(err))),
		slog.Any("error", err),
	)
	s.logger.Warn("serving fallback content", attrs...)
}
