// Package usgs fetches recent earthquake events from a USGS GeoJSON
// summary feed. Feed responses are untrusted and fully re-validated
// downstream.
package usgs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/quake-globe-data/internal/domain"
	"github.com/couchcryptid/quake-globe-data/internal/observability"
)

// Client retrieves the weekly feed. It implements merge.FeedFetcher.
type Client struct {
	feedURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a feed client with the given endpoint and timeout.
func NewClient(feedURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// FetchRecent downloads and decodes the feed's feature collection. Any
// network failure or non-success status aborts with a descriptive error and
// no partial result.
func (c *Client) FetchRecent(ctx context.Context) ([]domain.Feature, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("feed error: status %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed response: %w", err)
	}
	c.metrics.FeedRequestDuration.Observe(time.Since(start).Seconds())

	catalog, dropped, err := domain.DecodeCatalog(data)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		c.logger.Warn("feed contains undecodable features", "dropped", dropped)
	}

	c.logger.Debug("feed fetched", "features", len(catalog.Features), "duration", time.Since(start))
	return catalog.Features, nil
}
