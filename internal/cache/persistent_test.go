package cache

import (
	"context"
	"testing"
	"time"

	"content-cache-api/internal/models"
	"content-cache-api/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSQLStore(t *testing.T, opts SQLOptions) (*SQLStore, *gorm.DB) {
	t.Helper()
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	return NewSQLStore(db, opts), db
}

func rowCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.CacheRecord{}).Count(&n).Error)
	return n
}

func TestSQLStore_SetGet(t *testing.T) {
	ctx := context.Background()
	s, db := newSQLStore(t, SQLOptions{})

	s.Set(ctx, "posts_first:12", []byte(`{"posts":[1,2]}`), time.Hour)

	data, ok := s.Get(ctx, "posts_first:12")
	require.True(t, ok)
	require.JSONEq(t, `{"posts":[1,2]}`, string(data))

	var row models.CacheRecord
	require.NoError(t, db.First(&row).Error)
	require.Equal(t, "blog_cache_posts_first:12", row.CacheKey)
	require.Contains(t, row.Payload, `"version":1`)
}

func TestSQLStore_ExpiredEntryIsRemoved(t *testing.T) {
	advance := freezeClock(t)
	ctx := context.Background()
	s, db := newSQLStore(t, SQLOptions{})

	s.Set(ctx, "k", []byte(`"v"`), time.Minute)
	advance(time.Minute - time.Millisecond)
	_, ok := s.Get(ctx, "k")
	require.True(t, ok)

	advance(time.Millisecond)
	_, ok = s.Get(ctx, "k")
	require.False(t, ok)
	require.Zero(t, rowCount(t, db))
}

func TestSQLStore_CorruptEntryIsRemoved(t *testing.T) {
	ctx := context.Background()
	s, db := newSQLStore(t, SQLOptions{})
	require.NoError(t, db.Create(&models.CacheRecord{CacheKey: "blog_cache_bad", Payload: "{not json"}).Error)

	_, ok := s.Get(ctx, "bad")
	require.False(t, ok)
	require.Zero(t, rowCount(t, db))
}

func TestSQLStore_StaleVersionIsRemoved(t *testing.T) {
	ctx := context.Background()
	s, db := newSQLStore(t, SQLOptions{})
	payload := `{"data":"v","expires":9999999999999,"created":0,"version":0}`
	require.NoError(t, db.Create(&models.CacheRecord{CacheKey: "blog_cache_old", Payload: payload}).Error)

	_, ok := s.Get(ctx, "old")
	require.False(t, ok)
	require.Zero(t, rowCount(t, db))
}

func TestSQLStore_NonJSONWriteIsDropped(t *testing.T) {
	ctx := context.Background()
	s, db := newSQLStore(t, SQLOptions{})

	s.Set(ctx, "k", []byte("plain text"), time.Minute)
	require.Zero(t, rowCount(t, db))
}

func TestSQLStore_ClearKeepsOtherNamespaces(t *testing.T) {
	ctx := context.Background()
	s, db := newSQLStore(t, SQLOptions{})
	require.NoError(t, db.Create(&models.CacheRecord{CacheKey: "cart_session", Payload: "{}"}).Error)
	// "_" must not act as a LIKE wildcard
	require.NoError(t, db.Create(&models.CacheRecord{CacheKey: "blog-cacheXfoo", Payload: "{}"}).Error)

	s.Set(ctx, "a", []byte(`1`), time.Hour)
	s.Set(ctx, "b", []byte(`2`), time.Hour)

	require.Equal(t, 2, s.Clear(ctx))
	require.Equal(t, int64(2), rowCount(t, db))
	require.Zero(t, s.Stats(ctx).Count)
}

func TestSQLStore_Stats(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLStore(t, SQLOptions{Namespace: "diag"})

	require.Equal(t, PersistentStats{}, s.Stats(ctx))

	s.Set(ctx, "a", []byte(`{"title":"Habit stacking"}`), time.Hour)
	s.Set(ctx, "b", []byte(`[1,2,3]`), time.Hour)

	stats := s.Stats(ctx)
	require.Equal(t, 2, stats.Count)
	require.Greater(t, stats.SizeKB, 0.0)
}

func TestSQLStore_MaxEntriesEvictsOldest(t *testing.T) {
	advance := freezeClock(t)
	ctx := context.Background()
	s, _ := newSQLStore(t, SQLOptions{MaxEntries: 2})

	s.Set(ctx, "first", []byte(`1`), time.Hour)
	advance(time.Second)
	s.Set(ctx, "second", []byte(`2`), time.Hour)
	advance(time.Second)
	s.Set(ctx, "third", []byte(`3`), time.Hour)

	_, ok := s.Get(ctx, "first")
	require.False(t, ok)
	_, ok = s.Get(ctx, "second")
	require.True(t, ok)
	_, ok = s.Get(ctx, "third")
	require.True(t, ok)
}

func TestSQLStore_Cleanup(t *testing.T) {
	advance := freezeClock(t)
	ctx := context.Background()
	s, db := newSQLStore(t, SQLOptions{})

	s.Set(ctx, "short", []byte(`1`), time.Minute)
	s.Set(ctx, "long", []byte(`2`), time.Hour)
	advance(2 * time.Minute)

	require.Equal(t, 1, s.Cleanup(ctx))
	require.Equal(t, int64(1), rowCount(t, db))
}

func TestNoopStore(t *testing.T) {
	ctx := context.Background()
	var s PersistentStore = NoopStore{}

	s.Set(ctx, "k", []byte(`1`), time.Hour)
	_, ok := s.Get(ctx, "k")
	require.False(t, ok)
	require.False(t, s.Available())
	require.Zero(t, s.Clear(ctx))
	require.Equal(t, PersistentStats{}, s.Stats(ctx))
}
