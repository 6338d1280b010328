package noaa

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/space-weather-etl/internal/domain"
	"github.com/go-resty/resty/v2"
)

const userAgent = "space-weather-etl/1.0 (+https://github.com/couchcryptid/space-weather-etl)"

// Client fetches raw feed payloads over HTTP. It performs no retries; a
// failed fetch is reported once and the caller degrades.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewClient creates a fetch client whose requests time out after timeout.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json, application/rss+xml, application/xml;q=0.9, */*;q=0.8")
	return &Client{http: c, logger: logger}
}

// Fetch returns the body of url. Network errors, timeouts and non-2xx
// responses are returned as *domain.FetchError.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}

	if !resp.IsSuccess() {
		return nil, &domain.FetchError{
			URL:        url,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("unexpected response: %s", resp.Status()),
		}
	}

	c.logger.Debug("feed fetched", "url", url, "bytes", len(resp.Body()), "elapsed", time.Since(start))
	return resp.Body(), nil
}
