package content

import (
	"context"
	"testing"
	"time"

	"content-cache-api/internal/cache"
	"content-cache-api/internal/wordpress"

	"github.com/stretchr/testify/require"
)

func TestStats_ReportsBothTiers(t *testing.T) {
	ctx := context.Background()
	up := &fakeFetcher{posts: upstreamPosts(), cats: []wordpress.Category{{ID: "c1", Slug: "focus"}}}
	svc, _ := newService(t, up, nil)

	svc.Categories(ctx)
	svc.FeaturedPosts(ctx, 3)

	stats := svc.Stats(ctx)
	require.Equal(t, 2, stats.Memory.Count)
	require.Equal(t, []string{"categories_default", "featured_count:3"}, stats.Memory.Entries)
	require.Equal(t, 2, stats.Browser.Count)
	require.Greater(t, stats.Browser.SizeKB, 0.0)
	require.True(t, stats.PersistentEnabled)
	require.Equal(t, int64(2), stats.Counters.Fetches)
}

func TestStats_WithoutPersistentTier(t *testing.T) {
	svc := NewService(cache.New(nil, nil, cache.Options{}), &fakeFetcher{}, Options{})

	stats := svc.Stats(context.Background())
	require.False(t, stats.PersistentEnabled)
	require.Zero(t, stats.Browser.Count)
	require.NotNil(t, stats.Memory.Entries)
}

func TestClearAll_EmptiesEveryTier(t *testing.T) {
	ctx := context.Background()
	events := &recordingPublisher{}
	up := &fakeFetcher{posts: upstreamPosts()}
	svc, _ := newService(t, up, events)

	svc.AllPosts(ctx, 12, "")
	svc.SearchPosts(ctx, "habit", 5)
	require.Equal(t, 2, svc.Stats(ctx).Browser.Count)

	removed := svc.ClearAll(ctx)
	require.Equal(t, 2, removed)

	stats := svc.Stats(ctx)
	require.Zero(t, stats.Memory.Count)
	require.Zero(t, stats.Browser.Count)

	msgs := events.all()
	require.Len(t, msgs, 1)
	require.Contains(t, msgs[0], `cache {"memory":2,"persistent":2,"type":"cache_cleared","version":1}`)

	// the next read goes upstream again
	svc.AllPosts(ctx, 12, "")
	require.Equal(t, int32(3), up.calls.Load())
}

func TestWarmup_PopulatesLandingResources(t *testing.T) {
	ctx := context.Background()
	events := &recordingPublisher{}
	up := &fakeFetcher{posts: upstreamPosts(), cats: []wordpress.Category{{ID: "c1", Slug: "focus"}}}
	svc, _ := newService(t, up, events)

	select {
	case <-svc.Warmup(ctx):
	case <-time.After(2 * time.Second):
		t.Fatal("warm-up did not finish")
	}

	mem := svc.Orchestrator().Memory()
	require.True(t, mem.Has("posts_after:|first:12"))
	require.True(t, mem.Has("featured_count:3"))
	require.True(t, mem.Has("categories_default"))
	require.Equal(t, int32(3), up.calls.Load())

	msgs := events.all()
	require.Len(t, msgs, 1)
	require.Contains(t, msgs[0], `"type":"cache_warmed"`)
	require.Contains(t, msgs[0], `"complete":true`)

	// later reads are served from memory
	svc.AllPosts(ctx, 12, "")
	svc.Categories(ctx)
	require.Equal(t, int32(3), up.calls.Load())
}

func TestWarmup_FailuresAreSwallowed(t *testing.T) {
	events := &recordingPublisher{}
	svc, _ := newService(t, &fakeFetcher{err: wordpress.ErrUnavailable}, events)

	<-svc.Warmup(context.Background())

	require.Zero(t, svc.Orchestrator().Memory().Len())
	msgs := events.all()
	require.Len(t, msgs, 1)
	require.Contains(t, msgs[0], `"complete":false`)
}

func TestWarmup_StopsWhenContextEnds(t *testing.T) {
	up := &fakeFetcher{posts: upstreamPosts()}
	svc := NewService(cache.New(nil, nil, cache.Options{}), up, Options{WarmupDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := svc.Warmup(ctx)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("warm-up ignored cancellation")
	}
	require.Zero(t, up.calls.Load())
}
