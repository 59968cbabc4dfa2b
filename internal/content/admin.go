package content

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"content-cache-api/internal/cache"

	"golang.org/x/sync/errgroup"
)

type MemoryStats struct {
	Count   int      `json:"count"`
	Entries []string `json:"entries"`
}

// CacheStats is the diagnostic snapshot returned by Stats.
type CacheStats struct {
	Memory            MemoryStats           `json:"memory"`
	Browser           cache.PersistentStats `json:"browser"`
	PersistentEnabled bool                  `json:"persistentEnabled"`
	Counters          cache.Metrics         `json:"counters"`
}

// Stats reports what each tier currently holds. It never mutates either tier
// beyond the lazy eviction of expired memory entries.
func (s *Service) Stats(ctx context.Context) CacheStats {
	mem := s.cache.Memory()
	keys := cache.SortedKeys(mem)
	persistent := s.cache.Persistent()
	return CacheStats{
		Memory:            MemoryStats{Count: len(keys), Entries: keys},
		Browser:           persistent.Stats(ctx),
		PersistentEnabled: persistent.Available(),
		Counters:          s.cache.Metrics(),
	}
}

// ClearAll empties memory and every persistent entry in the namespace.
// It returns the number of persistent entries removed.
func (s *Service) ClearAll(ctx context.Context) int {
	memoryCount := s.cache.Memory().Len()
	removed := s.cache.Clear(ctx)
	s.logger.Info("cache cleared", slog.Int("memory", memoryCount), slog.Int("persistent", removed))
	s.publish(map[string]any{
		"type":       "cache_cleared",
		"memory":     memoryCount,
		"persistent": removed,
		"version":    1,
	})
	return removed
}

// Warmup preloads the landing-page resources in the background after the
// configured delay. The returned channel closes once warm-up is done or ctx ends.
// Failures are logged only.
func (s *Service) Warmup(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("cache warm-up panicked", slog.Any("panic", r))
			}
		}()

		if s.warmupDelay > 0 {
			timer := time.NewTimer(s.warmupDelay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
		}

		started := time.Now()
		// each resource warms independently; one failure does not cancel the others
		var g errgroup.Group
		g.Go(func() error {
			_, err := s.fetchAllPosts(ctx, DefaultPageSize, "")
			return err
		})
		g.Go(func() error {
			_, err := s.fetchFeatured(ctx, DefaultFeaturedCount)
			return err
		})
		g.Go(func() error {
			_, err := s.fetchCategories(ctx)
			return err
		})
		err := g.Wait()
		if err != nil {
			s.logger.Warn("cache warm-up incomplete", slog.Any("error", err))
		} else {
			s.logger.Info("cache warmed", slog.Duration("took", time.Since(started)))
		}

		s.publish(map[string]any{
			"type":     "cache_warmed",
			"complete": err == nil,
			"entries":  s.cache.Memory().Len(),
			"version":  1,
		})
	}()
	return done
}

func (s *Service) publish(event map[string]any) {
	if s.events == nil {
		return
	}
	b, err := json.Marshal(event)
	if err != nil {
		return
	}
	s.events.Broadcast(EventsTopic, b)
}
