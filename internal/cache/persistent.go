package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"content-cache-api/internal/models"

	"gorm.io/gorm"
)

// RecordVersion is the envelope format written by SQLStore.
// Records carrying any other version are discarded on read.
const RecordVersion = 1

// DefaultNamespace prefixes every physical key written by SQLStore.
const DefaultNamespace = "blog_cache"

// PersistentStats describes the persistent tier for diagnostics.
type PersistentStats struct {
	Count  int     `json:"count"`
	SizeKB float64 `json:"sizeKB"`
}

// PersistentStore is the slower tier that survives process restarts.
// Implementations never return errors: failures degrade to a miss or a dropped write.
type PersistentStore interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	// Clear removes every entry this store owns and reports how many were removed.
	Clear(ctx context.Context) int
	Stats(ctx context.Context) PersistentStats
	// Available reports whether writes actually persist anywhere.
	Available() bool
}

// record is the JSON envelope stored in models.CacheRecord.Payload.
type record struct {
	Data    json.RawMessage `json:"data"`
	Expires int64           `json:"expires"`
	Created int64           `json:"created"`
	Version int             `json:"version"`
}

// SQLOptions configures a SQLStore.
type SQLOptions struct {
	// Namespace is prepended to every cache key; defaults to DefaultNamespace.
	Namespace string
	// MaxEntries bounds the namespace; oldest entries are dropped first. Zero means unbounded.
	MaxEntries int
	Logger     *slog.Logger
}

// SQLStore keeps cache entries in a SQL table through gorm.
type SQLStore struct {
	db         *gorm.DB
	namespace  string
	maxEntries int
	logger     *slog.Logger
}

// NewSQLStore wraps a migrated database handle.
func NewSQLStore(db *gorm.DB, opts SQLOptions) *SQLStore {
	ns := opts.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLStore{
		db:         db,
		namespace:  ns,
		maxEntries: opts.MaxEntries,
		logger:     logger,
	}
}

func (s *SQLStore) physicalKey(key string) string {
	return s.namespace + "_" + key
}

// namespaced scopes a query to rows owned by this store.
func (s *SQLStore) namespaced(ctx context.Context) *gorm.DB {
	pattern := likeEscaper.Replace(s.namespace+"_") + "%"
	return s.db.WithContext(ctx).Model(&models.CacheRecord{}).Where("cache_key LIKE ? ESCAPE '\\'", pattern)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Get returns the stored payload. Missing, corrupt, expired and
// wrong-version entries all read as absent; the last three are deleted.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool) {
	physical := s.physicalKey(key)

	var row models.CacheRecord
	err := s.db.WithContext(ctx).Where("cache_key = ?", physical).First(&row).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("persistent cache read failed", slog.String("key", key), slog.Any("error", err))
		}
		return nil, false
	}

	var rec record
	if err := json.Unmarshal([]byte(row.Payload), &rec); err != nil {
		s.logger.Warn("discarding corrupt persistent cache entry", slog.String("key", key), slog.Any("error", err))
		s.Delete(ctx, key)
		return nil, false
	}
	if rec.Version != RecordVersion {
		s.logger.Debug("discarding persistent cache entry with stale format", slog.String("key", key), slog.Int("version", rec.Version))
		s.Delete(ctx, key)
		return nil, false
	}
	if now().UnixMilli() >= rec.Expires {
		s.Delete(ctx, key)
		return nil, false
	}
	if len(rec.Data) == 0 {
		s.Delete(ctx, key)
		return nil, false
	}
	return rec.Data, true
}

// Set writes data under the namespaced key. Write failures are logged and dropped.
func (s *SQLStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if !json.Valid(data) {
		s.logger.Warn("persistent cache write failure: payload is not JSON", slog.String("key", key))
		return
	}

	created := now()
	expires := created.Add(ttl)
	payload, err := json.Marshal(record{
		Data:    data,
		Expires: expires.UnixMilli(),
		Created: created.UnixMilli(),
		Version: RecordVersion,
	})
	if err != nil {
		s.logger.Warn("persistent cache write failure", slog.String("key", key), slog.Any("error", err))
		return
	}

	physical := s.physicalKey(key)
	row := models.CacheRecord{
		CacheKey:  physical,
		Payload:   string(payload),
		SizeBytes: len(physical) + len(payload),
		ExpiresMs: expires.UnixMilli(),
		CreatedMs: created.UnixMilli(),
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		s.logger.Warn("persistent cache write failure", slog.String("key", key), slog.Any("error", err))
		return
	}

	if s.maxEntries > 0 {
		s.enforceLimit(ctx)
	}
}

// enforceLimit drops the oldest rows once the namespace exceeds maxEntries.
func (s *SQLStore) enforceLimit(ctx context.Context) {
	var count int64
	if err := s.namespaced(ctx).Count(&count).Error; err != nil {
		s.logger.Warn("persistent cache count failed", slog.Any("error", err))
		return
	}
	excess := int(count) - s.maxEntries
	if excess <= 0 {
		return
	}

	var oldest []string
	if err := s.namespaced(ctx).Order("created_ms asc").Limit(excess).Pluck("cache_key", &oldest).Error; err != nil {
		s.logger.Warn("persistent cache eviction failed", slog.Any("error", err))
		return
	}
	if len(oldest) == 0 {
		return
	}
	if err := s.db.WithContext(ctx).Where("cache_key IN ?", oldest).Delete(&models.CacheRecord{}).Error; err != nil {
		s.logger.Warn("persistent cache eviction failed", slog.Any("error", err))
		return
	}
	s.logger.Debug("evicted persistent cache entries", slog.Int("count", len(oldest)))
}

// Delete removes a single entry.
func (s *SQLStore) Delete(ctx context.Context, key string) {
	err := s.db.WithContext(ctx).Where("cache_key = ?", s.physicalKey(key)).Delete(&models.CacheRecord{}).Error
	if err != nil {
		s.logger.Warn("persistent cache delete failed", slog.String("key", key), slog.Any("error", err))
	}
}

// Clear removes every row in this store's namespace; rows from other namespaces stay.
func (s *SQLStore) Clear(ctx context.Context) int {
	res := s.namespaced(ctx).Delete(&models.CacheRecord{})
	if res.Error != nil {
		s.logger.Warn("persistent cache clear failed", slog.Any("error", res.Error))
		return 0
	}
	return int(res.RowsAffected)
}

// Cleanup sweeps expired rows and reports how many were removed.
func (s *SQLStore) Cleanup(ctx context.Context) int {
	res := s.namespaced(ctx).Where("expires_ms <= ?", now().UnixMilli()).Delete(&models.CacheRecord{})
	if res.Error != nil {
		s.logger.Warn("persistent cache cleanup failed", slog.Any("error", res.Error))
		return 0
	}
	return int(res.RowsAffected)
}

// Stats counts rows in the namespace and their approximate size.
func (s *SQLStore) Stats(ctx context.Context) PersistentStats {
	var agg struct {
		Count int64
		Bytes int64
	}
	err := s.namespaced(ctx).Select("COUNT(*) AS count, COALESCE(SUM(size_bytes), 0) AS bytes").Scan(&agg).Error
	if err != nil {
		s.logger.Warn("persistent cache stats failed", slog.Any("error", err))
		return PersistentStats{}
	}
	return PersistentStats{
		Count:  int(agg.Count),
		SizeKB: math.Round(float64(agg.Bytes)/1024*100) / 100,
	}
}

// Available implements PersistentStore.
func (s *SQLStore) Available() bool { return true }

// NoopStore is the persistent tier when nothing durable is configured.
type NoopStore struct{}

func (NoopStore) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (NoopStore) Set(context.Context, string, []byte, time.Duration) {}
func (NoopStore) Delete(context.Context, string)                     {}
func (NoopStore) Clear(context.Context) int                          { return 0 }
func (NoopStore) Stats(context.Context) PersistentStats              { return PersistentStats{} }
func (NoopStore) Available() bool                                    { return false }

var (
	_ PersistentStore = (*SQLStore)(nil)
	_ PersistentStore = NoopStore{}
)
