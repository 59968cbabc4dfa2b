package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Options controls construction of an Orchestrator.
type Options struct {
	// Coalesce collapses concurrent misses for the same key into one fetch.
	Coalesce bool
	Logger   *slog.Logger
}

// Metrics is a point-in-time copy of the orchestrator counters.
type Metrics struct {
	MemoryHits     int64 `json:"memoryHits"`
	PersistentHits int64 `json:"persistentHits"`
	Misses         int64 `json:"misses"`
	Fetches        int64 `json:"fetches"`
	FetchErrors    int64 `json:"fetchErrors"`
	// Coalesced counts resolutions that took part in a shared fetch.
	Coalesced int64 `json:"coalesced"`
}

// Orchestrator resolves keys through memory, then the persistent tier,
// then the caller-supplied fetch, populating both tiers on the way back.
type Orchestrator struct {
	memory     *MemoryStore[string, any]
	persistent PersistentStore
	group      singleflight.Group
	coalesce   bool
	logger     *slog.Logger

	memoryHits     atomic.Int64
	persistentHits atomic.Int64
	misses         atomic.Int64
	fetches        atomic.Int64
	fetchErrors    atomic.Int64
	coalesced      atomic.Int64
}

// New builds an Orchestrator over the given tiers. A nil persistent store means NoopStore.
func New(memory *MemoryStore[string, any], persistent PersistentStore, opts Options) *Orchestrator {
	if memory == nil {
		memory = NewMemoryStore[string, any]()
	}
	if persistent == nil {
		persistent = NoopStore{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		memory:     memory,
		persistent: persistent,
		coalesce:   opts.Coalesce,
		logger:     logger,
	}
}

// Memory exposes the memory tier for introspection.
func (o *Orchestrator) Memory() *MemoryStore[string, any] { return o.memory }

// Persistent exposes the persistent tier for introspection.
func (o *Orchestrator) Persistent() PersistentStore { return o.persistent }

// Metrics returns the current counters.
func (o *Orchestrator) Metrics() Metrics {
	return Metrics{
		MemoryHits:     o.memoryHits.Load(),
		PersistentHits: o.persistentHits.Load(),
		Misses:         o.misses.Load(),
		Fetches:        o.fetches.Load(),
		FetchErrors:    o.fetchErrors.Load(),
		Coalesced:      o.coalesced.Load(),
	}
}

// Clear empties both tiers and returns how many persistent entries were removed.
func (o *Orchestrator) Clear(ctx context.Context) int {
	o.memory.Clear()
	return o.persistent.Clear(ctx)
}

// Resolve returns the value cached under key, or calls fetch and caches its result.
//
// Order: memory, then persistent (a hit is promoted into memory with
// policy.MemoryTTL), then fetch. A fetch error is returned unchanged and nothing
// is cached. With coalescing enabled, concurrent misses on one key share the
// fetch started by the first caller. The shared fetch is detached from that
// caller's cancellation; every caller returns early when its own ctx ends.
func Resolve[T any](ctx context.Context, o *Orchestrator, key string, policy Policy, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	if v, ok := o.memory.Get(key); ok {
		if typed, ok := v.(T); ok {
			o.memoryHits.Add(1)
			return typed, nil
		}
		// a different shape under the same key; drop it and resolve again
		o.memory.Delete(key)
	}

	if raw, ok := o.persistent.Get(ctx, key); ok {
		var typed T
		err := json.Unmarshal(raw, &typed)
		if err == nil {
			o.persistentHits.Add(1)
			o.memory.Set(key, typed, policy.MemoryTTL)
			return typed, nil
		}
		o.logger.Warn("discarding undecodable persistent cache entry", slog.String("key", key), slog.Any("error", err))
		o.persistent.Delete(ctx, key)
	}

	o.misses.Add(1)
	if !o.coalesce {
		return load(ctx, o, key, policy, fetch)
	}

	ch := o.group.DoChan(key, func() (any, error) {
		return load(context.WithoutCancel(ctx), o, key, policy, fetch)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res = <-ch:
	}
	if res.Shared {
		o.coalesced.Add(1)
	}
	if res.Err != nil {
		return zero, res.Err
	}
	typed, ok := res.Val.(T)
	if !ok {
		return zero, fmt.Errorf("cache: shared result for %q is %T, not %T", key, res.Val, zero)
	}
	return typed, nil
}

func load[T any](ctx context.Context, o *Orchestrator, key string, policy Policy, fetch func(context.Context) (T, error)) (T, error) {
	value, err := fetch(ctx)
	if err != nil {
		o.fetchErrors.Add(1)
		var zero T
		return zero, err
	}
	o.fetches.Add(1)

	o.memory.Set(key, value, policy.MemoryTTL)

	data, err := json.Marshal(value)
	if err != nil {
		o.logger.Warn("persistent cache write failure", slog.String("key", key), slog.Any("error", err))
		return value, nil
	}
	o.persistent.Set(ctx, key, data, policy.PersistentTTL)
	return value, nil
}
