// Package fetch provides the outbound HTTP client shared by the crawl and
// enrichment stages: identifying User-Agent, a bounded per-request timeout,
// and context cancellation so aborting a request aborts in-flight fetches.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// UserAgent identifies the crawler on every outbound request.
const UserAgent = "bylines/1.0 (author article collector)"

// acceptHeader covers the response kinds the pipeline parses: HTML listing
// and article pages, JSON listing endpoints, and XML feeds.
const acceptHeader = "text/html,application/xhtml+xml,application/json,application/xml;q=0.9,*/*;q=0.8"

// maxBodyBytes caps how much of a response body is read. Listing and article
// pages stay far below this; the cap guards against pathological responses.
const maxBodyBytes = 4 << 20

// Client fetches pages with a bounded per-request timeout.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a client with the given per-request timeout. A zero
// timeout falls back to 12 seconds; an unbounded fetch is a resource leak
// waiting for a stalled server.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// Get fetches url and returns the response body. Non-2xx statuses are
// errors. The context bounds the whole fetch in addition to the client
// timeout, so cancelling the enclosing request aborts the call.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
