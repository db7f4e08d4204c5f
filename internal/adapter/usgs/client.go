package usgs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/observability"
)

// maxErrorBody bounds how much of a failed response is echoed into the error.
const maxErrorBody = 512

// Client implements domain.FeedSource against a USGS GeoJSON summary feed.
type Client struct {
	feedURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a feed client. A zero timeout leaves cancellation to the
// caller's context.
func NewClient(feedURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// FetchFeed issues a single GET for the feed and returns the body. It does not retry.
func (c *Client) FetchFeed(ctx context.Context) ([]byte, error) {
	start := time.Now()
	body, err := c.doRequest(ctx)
	c.metrics.FeedFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	c.metrics.FeedRequests.WithLabelValues("success").Inc()
	c.logger.Debug("feed fetched", "url", c.feedURL, "bytes", len(body), "duration", time.Since(start))
	return body, nil
}

func (c *Client) doRequest(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("feed error: status %d: %s", resp.StatusCode, excerpt)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	return body, nil
}
