package merge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-globe-data/internal/domain"
	"github.com/couchcryptid/quake-globe-data/internal/encode"
	"github.com/couchcryptid/quake-globe-data/internal/observability"
)

// FeedFetcher retrieves the recent-event feature set from the live feed.
type FeedFetcher interface {
	FetchRecent(ctx context.Context) ([]domain.Feature, error)
}

// ArtifactStore persists and loads the historical catalog and its derived
// artifacts.
type ArtifactStore interface {
	LoadCatalog() (domain.Catalog, error)
	SaveCatalog(catalog domain.Catalog) error
	SaveBinary(buf []byte) error
	SaveStats(stats domain.Stats) error
}

// AddedPublisher announces newly admitted events to downstream consumers.
// Publishing is best-effort; a publish failure never rolls back a refresh.
type AddedPublisher interface {
	PublishAdded(ctx context.Context, features []domain.Feature) error
}

// Invalidator is notified after artifacts change on disk so in-process
// consumers drop their cached copies.
type Invalidator interface {
	Reset()
}

// Refresher runs the incremental update: fetch recent events, merge them
// into the historical catalog, re-encode the point binary, and persist the
// artifacts. It is the only mutating operation in the system.
type Refresher struct {
	fetcher   FeedFetcher
	store     ArtifactStore
	publisher AddedPublisher // nil disables publishing
	cache     Invalidator   // nil disables invalidation
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock

	// Serializes refresh runs; repeated invocations with an unchanged feed
	// are idempotent (added = 0, document unchanged).
	mu sync.Mutex
}

// NewRefresher creates a Refresher. publisher and cache may be nil.
func NewRefresher(
	fetcher FeedFetcher,
	store ArtifactStore,
	publisher AddedPublisher,
	cache Invalidator,
	logger *slog.Logger,
	metrics *observability.Metrics,
	clock clockwork.Clock,
) *Refresher {
	return &Refresher{
		fetcher:   fetcher,
		store:     store,
		publisher: publisher,
		cache:     cache,
		logger:    logger,
		metrics:   metrics,
		clock:     clock,
	}
}

// Refresh executes one fetch-merge-encode-persist cycle and reports the
// merge result. The persisted historical document is never touched unless
// the upstream fetch succeeds — the merge is all-or-nothing. Stats are
// persisted last so a crash mid-persist leaves a detectable (and
// recoverable) stale-stats state rather than a silently wrong one.
func (r *Refresher) Refresh(ctx context.Context) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.clock.Now()

	recent, err := r.fetcher.FetchRecent(ctx)
	if err != nil {
		r.metrics.RefreshRuns.WithLabelValues("fetch_error").Inc()
		return Result{}, fmt.Errorf("fetch recent events: %w", err)
	}

	catalog, err := r.store.LoadCatalog()
	if err != nil {
		r.metrics.RefreshRuns.WithLabelValues("load_error").Inc()
		return Result{}, fmt.Errorf("load historical catalog: %w", err)
	}

	merged, result := Merge(catalog.Features, recent)
	catalog.Features = merged

	events, report := domain.Normalize(merged)
	// The incremental path derives time bounds from the merged set on every
	// run; fixed corpus bounds are only for the one-shot converter.
	buf, stats := encode.Encode(events, domain.PointRadius, encode.DerivedRange())

	if err := r.store.SaveCatalog(catalog); err != nil {
		r.metrics.RefreshRuns.WithLabelValues("persist_error").Inc()
		return Result{}, fmt.Errorf("persist catalog: %w", err)
	}
	if err := r.store.SaveBinary(buf); err != nil {
		r.metrics.RefreshRuns.WithLabelValues("persist_error").Inc()
		return Result{}, fmt.Errorf("persist point binary: %w", err)
	}
	if err := r.store.SaveStats(stats); err != nil {
		r.metrics.RefreshRuns.WithLabelValues("persist_error").Inc()
		return Result{}, fmt.Errorf("persist stats: %w", err)
	}

	if r.cache != nil {
		r.cache.Reset()
	}

	r.observe(result, report, len(events), r.clock.Since(start).Seconds())

	if r.publisher != nil && len(result.AddedFeatures) > 0 {
		if err := r.publisher.PublishAdded(ctx, result.AddedFeatures); err != nil {
			// Artifacts are already persisted; downstream notification is
			// best-effort.
			r.logger.Warn("publish added events failed", "error", err, "added", result.Added)
			r.metrics.PublishErrors.Inc()
		}
	}

	r.logger.Info("refresh complete",
		"added", result.Added,
		"skipped", result.Skipped,
		"total", result.Total,
		"dropped", report.Dropped,
		"duration", r.clock.Since(start),
	)

	return result, nil
}

func (r *Refresher) observe(result Result, report domain.DropReport, points int, seconds float64) {
	r.metrics.RefreshRuns.WithLabelValues("success").Inc()
	r.metrics.EventsAdded.Add(float64(result.Added))
	r.metrics.EventsSkipped.Add(float64(result.Skipped))
	r.metrics.RecordsDropped.Add(float64(report.Dropped))
	r.metrics.MagnitudesDefaulted.Add(float64(report.DefaultedMagnitude))
	r.metrics.RefreshDuration.Observe(seconds)
	r.metrics.EncodedPoints.Set(float64(points))
}
