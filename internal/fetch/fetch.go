// Package fetch is the shared "give me this JSON or tell me it failed"
// collaborator for data providers: bounded retries with exponential backoff,
// a per-request timeout, and a process-wide in-memory TTL cache keyed by URL
// so repeated basket builds inside a window do not re-hit upstream APIs.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultTTL     = 12 * time.Hour
	defaultTimeout = 10 * time.Second
	defaultRetries = 3
	userAgent      = "metior/1.0 (+metior.app)"
)

// retryableStatus lists upstream statuses worth another attempt. Anything
// else fails immediately.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Options tunes one fetch. Zero values take the defaults above.
type Options struct {
	Params   url.Values
	CacheKey string
	TTL      time.Duration
	Timeout  time.Duration
	Retries  int
}

type cacheEntry struct {
	body    []byte
	expires time.Time
}

// Client performs cached, retried GETs. The zero value is not usable; use New.
type Client struct {
	http *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
	now   func() time.Time
}

func New() *Client {
	return &Client{
		http:  &http.Client{},
		cache: make(map[string]cacheEntry),
		now:   time.Now,
	}
}

// SetTransport swaps the underlying HTTP transport, used by tests to stub
// upstream APIs.
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.http.Transport = rt
}

// JSON fetches a URL and decodes the response body into out.
func (c *Client) JSON(ctx context.Context, rawURL string, opts Options, out any) error {
	body, err := c.Get(ctx, rawURL, opts)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

// Get fetches a URL with retry and caching and returns the raw body.
func (c *Client) Get(ctx context.Context, rawURL string, opts Options) ([]byte, error) {
	full := rawURL
	if len(opts.Params) > 0 {
		full = rawURL + "?" + opts.Params.Encode()
	}
	key := opts.CacheKey
	if key == "" {
		key = full
	}

	if body, ok := c.cached(key); ok {
		return body, nil
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := opts.Retries
	if retries <= 0 {
		retries = defaultRetries
	}

	op := func() ([]byte, error) {
		return c.doOnce(ctx, full, timeout)
	}
	body, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(retries)+1),
	)
	if err != nil {
		return nil, err
	}

	c.store(key, body, ttl)
	return body, nil
}

func (c *Client) doOnce(ctx context.Context, fullURL string, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		statusErr := fmt.Errorf("fetch failed %d: %s", resp.StatusCode, string(body))
		if retryableStatus[resp.StatusCode] {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	return io.ReadAll(resp.Body)
}

// cached returns a live entry and evicts expired ones on read.
func (c *Client) cached(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expires) {
		delete(c.cache, key)
		return nil, false
	}
	return entry.body, true
}

func (c *Client) store(key string, body []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{body: body, expires: c.now().Add(ttl)}
}
