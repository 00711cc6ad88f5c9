package httpclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Browser-like defaults; several feeds and news sites reject vanilla Go
// user agents.
var defaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
}

// Client wraps resty with the shared headers and timeout used by every
// outbound page and feed request.
type Client struct {
	resty *resty.Client
}

// New builds a client with the given per-request timeout.
func New(timeout time.Duration) *Client {
	rc := resty.New().
		SetTimeout(timeout).
		SetHeaders(defaultHeaders)
	return &Client{resty: rc}
}

// Get fetches the URL and returns the raw response body. Non-2xx statuses
// are errors.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.resty.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get %s: status %s", url, resp.Status())
	}
	return resp.Body(), nil
}
