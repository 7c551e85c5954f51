// Package cache holds the in-process copies of the point binary and stats
// document shared by every consumer for the life of the process.
package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/quake-globe-data/internal/domain"
	"github.com/couchcryptid/quake-globe-data/internal/observability"
)

// Loader supplies artifact data on a cache miss.
type Loader interface {
	LoadBinary() ([]byte, error)
	LoadStats() (domain.Stats, error)
}

// DataCache lazily loads the historic point binary and stats once per
// process and serves the cached copies afterwards. Concurrent first loads
// coalesce onto a single underlying fetch; a failed load clears the
// in-flight state so the next call retries instead of replaying a stale
// error. Entries never expire on their own — Reset is the only
// invalidation, and process construction is the only other lifecycle event.
//
// The mutex guards the cached values and the generation counter; loads run
// outside the lock via singleflight so they never block Peek callers.
type DataCache struct {
	loader  Loader
	metrics *observability.Metrics

	mu     sync.RWMutex
	binary []byte
	stats  *domain.Stats

	// generation increments on every Reset. A flight snapshots it before
	// loading and stores its result only if no Reset happened in between,
	// so an in-flight load can never repopulate the cache with pre-reset
	// artifacts.
	generation uint64

	group singleflight.Group
}

// New creates an empty DataCache backed by the given loader.
func New(loader Loader, metrics *observability.Metrics) *DataCache {
	return &DataCache{loader: loader, metrics: metrics}
}

// PeekBinary returns the cached binary without triggering a load.
func (c *DataCache) PeekBinary() ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.binary, c.binary != nil
}

// PeekStats returns the cached stats without triggering a load.
func (c *DataCache) PeekStats() (domain.Stats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stats == nil {
		return domain.Stats{}, false
	}
	return *c.stats, true
}

// Binary returns the point binary, loading it at most once regardless of
// how many callers arrive concurrently. A caller whose context is cancelled
// abandons its wait without cancelling the shared load for the others.
func (c *DataCache) Binary(ctx context.Context) ([]byte, error) {
	if buf, ok := c.PeekBinary(); ok {
		c.metrics.CacheLoads.WithLabelValues("binary", "hit").Inc()
		return buf, nil
	}

	ch := c.group.DoChan("binary", func() (any, error) {
		// Re-check: another flight may have populated the cache while we
		// waited on the group.
		if buf, ok := c.PeekBinary(); ok {
			return buf, nil
		}
		gen := c.currentGeneration()
		buf, err := c.loader.LoadBinary()
		if err != nil {
			c.metrics.CacheLoads.WithLabelValues("binary", "error").Inc()
			return nil, err
		}
		c.mu.Lock()
		if c.generation == gen {
			c.binary = buf
		}
		c.mu.Unlock()
		c.metrics.CacheLoads.WithLabelValues("binary", "load").Inc()
		return buf, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Stats returns the stats document with the same load semantics as Binary.
func (c *DataCache) Stats(ctx context.Context) (domain.Stats, error) {
	if stats, ok := c.PeekStats(); ok {
		c.metrics.CacheLoads.WithLabelValues("stats", "hit").Inc()
		return stats, nil
	}

	ch := c.group.DoChan("stats", func() (any, error) {
		if stats, ok := c.PeekStats(); ok {
			return stats, nil
		}
		gen := c.currentGeneration()
		stats, err := c.loader.LoadStats()
		if err != nil {
			c.metrics.CacheLoads.WithLabelValues("stats", "error").Inc()
			return domain.Stats{}, err
		}
		c.mu.Lock()
		if c.generation == gen {
			c.stats = &stats
		}
		c.mu.Unlock()
		c.metrics.CacheLoads.WithLabelValues("stats", "load").Inc()
		return stats, nil
	})

	select {
	case <-ctx.Done():
		return domain.Stats{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Stats{}, res.Err
		}
		return res.Val.(domain.Stats), nil
	}
}

// Reset drops the cached entries so the next access re-reads the artifacts.
// Called after a refresh rewrites them.
func (c *DataCache) Reset() {
	c.mu.Lock()
	c.binary = nil
	c.stats = nil
	// Invalidate in-flight loads started before the reset: their generation
	// snapshot no longer matches, so their write-back is discarded.
	c.generation++
	c.mu.Unlock()

	// Forget the keys so new callers start a fresh flight instead of joining
	// the invalidated one.
	c.group.Forget("binary")
	c.group.Forget("stats")
}

func (c *DataCache) currentGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}
