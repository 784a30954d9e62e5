// Package fetch performs outbound requests to score sources. Every request
// passes a robots.txt check and waits on a per-domain rate limiter first.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/fortuna/livescore/internal/logging"
)

const (
	// DefaultUserAgent identifies the service to source operators.
	DefaultUserAgent = "LivescoreBot/1.0 (+https://github.com/fortuna/livescore)"

	DefaultTimeout = 15 * time.Second
	DefaultSpacing = 2 * time.Second

	maxBodyBytes = 8 << 20
)

// ErrDisallowed is returned when robots.txt forbids the URL for our agent.
var ErrDisallowed = errors.New("fetch: disallowed by robots.txt")

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Code)
}

// Fetcher returns the raw body at a URL.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Options configures an HTTPFetcher.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	// Spacing is the minimum gap between requests to one host.
	Spacing time.Duration
	Client  *http.Client
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Spacing < 0 {
		o.Spacing = 0
	}
	if o.Client == nil {
		o.Client = &http.Client{Timeout: o.Timeout}
	}
	return o
}

// HTTPFetcher is the plain HTTP implementation.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	guard     *Guard
	logger    *slog.Logger
}

// NewHTTP builds an HTTPFetcher with its own robots cache and limiter.
func NewHTTP(opts Options) *HTTPFetcher {
	opts = opts.withDefaults()
	return &HTTPFetcher{
		client:    opts.Client,
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
		guard:     NewGuard(opts.Client, opts.UserAgent, opts.Spacing),
		logger:    logging.OrDiscard(opts.Logger),
	}
}

// Guard exposes the robots/rate gate so other fetchers can share it.
func (f *HTTPFetcher) Guard() *Guard {
	return f.guard
}

// Reset clears cached robots rules and rate limiter state.
func (f *HTTPFetcher) Reset() {
	f.guard.Reset()
}

// Get fetches rawURL after the robots and rate checks.
func (f *HTTPFetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: parse url: %w", err)
	}
	if err := f.guard.Admit(ctx, u); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", u.Host, err)
	}

	f.logger.Debug("fetched",
		logging.FieldURL, u.String(),
		"status", resp.StatusCode,
		"bytes", len(body),
		logging.FieldDurationMS, time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: u.String(), Code: resp.StatusCode}
	}
	return body, nil
}
