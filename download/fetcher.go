package download

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pithecene-io/emotes/iox"
)

// DefaultTimeout is the default per-fetch timeout.
const DefaultTimeout = 30 * time.Second

// DefaultMaxBytes bounds a single asset payload.
const DefaultMaxBytes = 8 << 20

// Fetcher retrieves a remote asset. One call is one network attempt.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// HTTPConfig configures HTTPFetcher.
type HTTPConfig struct {
	// Timeout is the per-request timeout (default 30s).
	Timeout time.Duration
	// MaxBytes bounds the response body (default 8 MiB).
	MaxBytes int64
	// UserAgent is sent on every request when set.
	UserAgent string
	// Transport overrides the HTTP round tripper (tests).
	Transport http.RoundTripper
}

// HTTPFetcher fetches assets with a single GET.
type HTTPFetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

// NewHTTPFetcher creates an HTTP fetcher.
func NewHTTPFetcher(cfg HTTPConfig) *HTTPFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		maxBytes:  cfg.MaxBytes,
		userAgent: cfg.UserAgent,
	}
}

// Fetch GETs url and returns the body. Non-2xx responses yield *StatusError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer iox.DrainClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	data, err := iox.ReadAllLimit(resp.Body, f.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyBody
	}
	return data, nil
}

// Close releases idle connections.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// Verify HTTPFetcher implements Fetcher.
var _ Fetcher = (*HTTPFetcher)(nil)
