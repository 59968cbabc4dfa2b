package content

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"content-cache-api/internal/cache"
	"content-cache-api/internal/testutil"
	"content-cache-api/internal/wordpress"

	"github.com/stretchr/testify/require"
)

// fakeFetcher counts upstream calls and serves canned data, or fails every call when err is set.
type fakeFetcher struct {
	calls atomic.Int32
	err   error
	gate  chan struct{}
	posts []wordpress.RawPost
	cats  []wordpress.Category
}

func (f *fakeFetcher) hit(ctx context.Context) error {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func (f *fakeFetcher) AllPosts(ctx context.Context, first int, _ string, _ cache.Policy) (wordpress.PostsPage, error) {
	if err := f.hit(ctx); err != nil {
		return wordpress.PostsPage{}, err
	}
	n := min(first, len(f.posts))
	return wordpress.PostsPage{Posts: f.posts[:n], PageInfo: wordpress.PageInfo{HasNextPage: n < len(f.posts), EndCursor: "c1"}}, nil
}

func (f *fakeFetcher) PostBySlug(ctx context.Context, slug string, _ cache.Policy) (*wordpress.RawPost, error) {
	if err := f.hit(ctx); err != nil {
		return nil, err
	}
	for _, p := range f.posts {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeFetcher) SearchPosts(ctx context.Context, _ string, _ int, _ cache.Policy) ([]wordpress.RawPost, error) {
	if err := f.hit(ctx); err != nil {
		return nil, err
	}
	return f.posts, nil
}

func (f *fakeFetcher) PostsByCategory(ctx context.Context, _ string, _ int, _ cache.Policy) ([]wordpress.RawPost, error) {
	if err := f.hit(ctx); err != nil {
		return nil, err
	}
	return f.posts, nil
}

func (f *fakeFetcher) Categories(ctx context.Context, _ cache.Policy) ([]wordpress.Category, error) {
	if err := f.hit(ctx); err != nil {
		return nil, err
	}
	return f.cats, nil
}

func (f *fakeFetcher) FeaturedPosts(ctx context.Context, count int, _ cache.Policy) ([]wordpress.RawPost, error) {
	if err := f.hit(ctx); err != nil {
		return nil, err
	}
	return wordpress.PickFeatured(f.posts, count), nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []string
}

func (p *recordingPublisher) Broadcast(topic string, message []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, topic+" "+string(message))
}

func (p *recordingPublisher) all() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.messages...)
}

func upstreamPosts() []wordpress.RawPost {
	return []wordpress.RawPost{
		{ID: "u1", Slug: "morning-pages", Title: "Morning Pages"},
		{ID: "u2", Slug: "cold-showers", Title: "Cold Showers", PostFields: &wordpress.PostFields{Featured: true}},
	}
}

func newService(t *testing.T, upstream Fetcher, events Publisher) (*Service, *cache.SQLStore) {
	t.Helper()
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	store := cache.NewSQLStore(db, cache.SQLOptions{})
	orch := cache.New(nil, store, cache.Options{Coalesce: true})
	return NewService(orch, upstream, Options{Events: events}), store
}

func TestAccessors_FallbackWhenUnconfigured(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, wordpress.NewClient(wordpress.Config{Endpoint: "https://your-site.example/graphql"}), nil)

	page := svc.AllPosts(ctx, 12, "")
	require.Len(t, page.Posts, len(fallbackPosts))
	require.False(t, page.PageInfo.HasNextPage)

	post, ok := svc.PostBySlug(ctx, "habit-stacking")
	require.True(t, ok)
	require.Equal(t, "fallback-2", post.ID)

	_, ok = svc.PostBySlug(ctx, "no-such-post")
	require.False(t, ok)

	found := svc.SearchPosts(ctx, "HABIT", 12)
	require.NotEmpty(t, found)
	for _, p := range found {
		require.Contains(t, p.Title+p.Excerpt, "abit")
	}

	byCat := svc.PostsByCategory(ctx, "productivity", 12)
	require.Len(t, byCat, 2)

	require.Len(t, svc.Categories(ctx), 4)

	featured := svc.FeaturedPosts(ctx, 3)
	require.Len(t, featured, 3)
	for _, p := range featured {
		require.True(t, p.PostFields.Featured)
	}

	// fallback data is never cached
	require.Zero(t, svc.Orchestrator().Memory().Len())
}

func TestAccessors_FallbackIsCopied(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, &fakeFetcher{err: wordpress.ErrUnavailable}, nil)

	first := svc.AllPosts(ctx, 1, "")
	first.Posts[0].Title = "mutated"
	first.Posts[0].PostFields.ReadTime = "99 min read"

	again := svc.AllPosts(ctx, 1, "")
	require.NotEqual(t, "mutated", again.Posts[0].Title)
	require.Equal(t, "4 min read", again.Posts[0].PostFields.ReadTime)
}

func TestAllPosts_FallbackPagination(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, &fakeFetcher{err: wordpress.ErrUnavailable}, nil)

	page := svc.AllPosts(ctx, 4, "")
	require.Len(t, page.Posts, 4)
	require.True(t, page.PageInfo.HasNextPage)
	require.Equal(t, "fallback:4", page.PageInfo.EndCursor)

	next := svc.AllPosts(ctx, 4, page.PageInfo.EndCursor)
	require.Len(t, next.Posts, 2)
	require.False(t, next.PageInfo.HasNextPage)

	foreign := svc.AllPosts(ctx, 4, "YXJyYXljb25uZWN0aW9uOjQy")
	require.NotNil(t, foreign.Posts)
	require.Empty(t, foreign.Posts)
}

func TestAllPosts_CachesAndPromotes(t *testing.T) {
	ctx := context.Background()
	up := &fakeFetcher{posts: upstreamPosts()}
	svc, store := newService(t, up, nil)

	page := svc.AllPosts(ctx, 12, "")
	require.Len(t, page.Posts, 2)
	require.Equal(t, int32(1), up.calls.Load())

	// a fresh memory tier over the same persistent rows simulates a restart
	restarted := NewService(cache.New(nil, store, cache.Options{Coalesce: true}), up, Options{})
	page = restarted.AllPosts(ctx, 12, "")
	require.Equal(t, "Morning Pages", page.Posts[0].Title)
	require.Equal(t, int32(1), up.calls.Load())
	require.Equal(t, int64(1), restarted.Orchestrator().Metrics().PersistentHits)

	_, ok := restarted.Orchestrator().Memory().Get("posts_after:|first:12")
	require.True(t, ok)
}

func TestAllPosts_ConcurrentCallsShareOneFetch(t *testing.T) {
	ctx := context.Background()
	up := &fakeFetcher{posts: upstreamPosts(), gate: make(chan struct{})}
	svc, _ := newService(t, up, nil)

	var wg sync.WaitGroup
	results := make([]wordpress.PostsPage, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = svc.AllPosts(ctx, 12, "")
		}()
	}

	require.Eventually(t, func() bool { return up.calls.Load() == 1 }, time.Second, time.Millisecond)
	// give the second caller time to join the in-flight fetch
	time.Sleep(20 * time.Millisecond)
	close(up.gate)
	wg.Wait()

	require.Equal(t, int32(1), up.calls.Load())
	require.Equal(t, results[0], results[1])
}

func TestPostBySlug_NotFoundIsCached(t *testing.T) {
	ctx := context.Background()
	up := &fakeFetcher{posts: upstreamPosts()}
	svc, _ := newService(t, up, nil)

	post, ok := svc.PostBySlug(ctx, "cold-showers")
	require.True(t, ok)
	require.Equal(t, "u2", post.ID)

	_, ok = svc.PostBySlug(ctx, "missing")
	require.False(t, ok)
	_, ok = svc.PostBySlug(ctx, "missing")
	require.False(t, ok)
	require.Equal(t, int32(2), up.calls.Load())

	_, ok = svc.PostBySlug(ctx, "  ")
	require.False(t, ok)
	require.Equal(t, int32(2), up.calls.Load())
}

func TestSearchPosts_BlankTermSkipsUpstream(t *testing.T) {
	up := &fakeFetcher{posts: upstreamPosts()}
	svc, _ := newService(t, up, nil)

	got := svc.SearchPosts(context.Background(), "   ", 12)
	require.NotNil(t, got)
	require.Empty(t, got)
	require.Zero(t, up.calls.Load())
	require.Zero(t, svc.Orchestrator().Memory().Len())
}

func TestSearchPosts_KeyIgnoresCase(t *testing.T) {
	ctx := context.Background()
	up := &fakeFetcher{posts: upstreamPosts()}
	svc, _ := newService(t, up, nil)

	svc.SearchPosts(ctx, "Habit", 12)
	svc.SearchPosts(ctx, "habit", 12)
	require.Equal(t, int32(1), up.calls.Load())
}

func TestAllPosts_ClampsFirst(t *testing.T) {
	ctx := context.Background()
	up := &fakeFetcher{posts: upstreamPosts()}
	svc, _ := newService(t, up, nil)

	svc.AllPosts(ctx, 0, "")
	svc.AllPosts(ctx, 12, "")
	require.Equal(t, int32(1), up.calls.Load())

	svc.AllPosts(ctx, 1000, "")
	require.True(t, svc.Orchestrator().Memory().Has("posts_after:|first:100"))
}

func TestAccessors_FailureIsNotCached(t *testing.T) {
	ctx := context.Background()
	up := &fakeFetcher{err: errors.New("boom")}
	svc, store := newService(t, up, nil)

	svc.Categories(ctx)
	svc.Categories(ctx)
	require.Equal(t, int32(2), up.calls.Load())
	require.Zero(t, store.Stats(ctx).Count)
}

func TestAllPosts_CancelledCallerDoesNotFailOthers(t *testing.T) {
	up := &fakeFetcher{posts: upstreamPosts(), gate: make(chan struct{})}
	svc, _ := newService(t, up, nil)

	firstCtx, cancel := context.WithCancel(context.Background())
	firstDone := make(chan wordpress.PostsPage, 1)
	go func() { firstDone <- svc.AllPosts(firstCtx, 12, "") }()
	require.Eventually(t, func() bool { return up.calls.Load() == 1 }, time.Second, time.Millisecond)

	secondDone := make(chan wordpress.PostsPage, 1)
	go func() { secondDone <- svc.AllPosts(context.Background(), 12, "") }()
	time.Sleep(20 * time.Millisecond)

	cancel()
	// the cancelled caller degrades on its own
	require.Equal(t, "fallback-1", (<-firstDone).Posts[0].ID)

	close(up.gate)
	second := <-secondDone
	require.Equal(t, "u1", second.Posts[0].ID)
	require.Equal(t, int32(1), up.calls.Load())
	require.True(t, svc.Orchestrator().Memory().Has("posts_after:|first:12"))
}

func TestAccessors_UnmatchedFallbackFiltersStillReturnPosts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, &fakeFetcher{err: wordpress.ErrUnavailable}, nil)

	byCat := svc.PostsByCategory(ctx, "nutrition", 12)
	require.Len(t, byCat, len(fallbackPosts))
	require.Equal(t, "fallback-1", byCat[0].ID)

	found := svc.SearchPosts(ctx, "meditation", 2)
	require.Len(t, found, 2)

	// a matching filter still narrows the result
	require.Len(t, svc.PostsByCategory(ctx, "wellness", 12), 1)
}

func TestAccessors_CachedResultsAreCopies(t *testing.T) {
	ctx := context.Background()
	up := &fakeFetcher{
		posts: upstreamPosts(),
		cats:  []wordpress.Category{{ID: "c1", Name: "Focus", Slug: "focus"}},
	}
	svc, _ := newService(t, up, nil)

	page := svc.AllPosts(ctx, 12, "")
	page.Posts[0].Title = "changed by caller"
	require.Equal(t, "Morning Pages", svc.AllPosts(ctx, 12, "").Posts[0].Title)

	featured := svc.FeaturedPosts(ctx, 3)
	featured[0].PostFields.Featured = false
	require.True(t, svc.FeaturedPosts(ctx, 3)[0].PostFields.Featured)

	post, ok := svc.PostBySlug(ctx, "morning-pages")
	require.True(t, ok)
	post.Title = "changed by caller"
	again, _ := svc.PostBySlug(ctx, "morning-pages")
	require.Equal(t, "Morning Pages", again.Title)

	cats := svc.Categories(ctx)
	cats[0].Name = "changed by caller"
	require.Equal(t, "Focus", svc.Categories(ctx)[0].Name)
}
