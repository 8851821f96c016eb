package extractor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	UserAgent      = "parkwork/1.0 (github.com/mkoster/parkwork)"
	DefaultTimeout = 30 * time.Second
	// DefaultDelay is the minimum spacing between requests to the same
	// host. These are small community sites; be gentle.
	DefaultDelay = 2 * time.Second

	maxRetries = 3
)

// Client is the shared HTTP fetch helper used by every extractor. It
// enforces a per-host minimum delay and retries transient failures with
// exponential backoff. Safe for use from a single ETL goroutine; the mutex
// only guards against accidental concurrent reuse.
type Client struct {
	http  *http.Client
	delay time.Duration
	// retryInterval seeds the backoff; tests shrink it.
	retryInterval time.Duration

	mu      sync.Mutex
	lastHit map[string]time.Time
}

// NewClient creates a fetch client with the given request timeout and
// per-host delay. Zero values select the defaults.
func NewClient(timeout, delay time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if delay < 0 {
		delay = DefaultDelay
	}
	return &Client{
		http:          &http.Client{Timeout: timeout},
		delay:         delay,
		retryInterval: 500 * time.Millisecond,
		lastHit:       make(map[string]time.Time),
	}
}

// Get fetches a URL and returns the response body. Server errors and
// network failures are retried; client errors (4xx) are not.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	if err := c.throttle(ctx, rawURL); err != nil {
		return nil, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInterval

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("User-Agent", UserAgent)
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", rawURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("fetching %s: status %d", rawURL, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("fetching %s: status %d", rawURL, resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading %s: %w", rawURL, err)
		}
		return nil
	}

	err := backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, maxRetries), ctx))
	if err != nil {
		return nil, err
	}
	return body, nil
}

// throttle sleeps until the per-host delay since the last request to this
// host has elapsed.
func (c *Client) throttle(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("cannot extract host from URL: %q", rawURL)
	}

	c.mu.Lock()
	last, seen := c.lastHit[u.Host]
	c.mu.Unlock()

	if seen {
		if wait := c.delay - time.Since(last); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	c.mu.Lock()
	c.lastHit[u.Host] = time.Now()
	c.mu.Unlock()
	return nil
}
