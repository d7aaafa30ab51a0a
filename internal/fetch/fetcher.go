// Package fetch retrieves raw pages for the scrapers. All backends report
// failures as *NetworkError so callers can tell transport problems apart
// from extraction problems.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	BackendHTTP    = "http"
	BackendColly   = "colly"
	BackendBrowser = "browser"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	Close() error
}

type DebugLogger interface {
	Debugf(string, ...any)
}

type Options struct {
	Backend          string
	Timeout          time.Duration
	UserAgent        string
	Cookie           string
	CookieFile       string
	Retries          int
	RetryBackoff     time.Duration
	RequestInterval  time.Duration
	Parallelism      int
	CloudflareBypass bool
	Transport        http.RoundTripper
	DebugLogger      DebugLogger
}

func (o Options) userAgent() string {
	return PickUserAgent(o.UserAgent)
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return 30 * time.Second
	}
	return o.Timeout
}

// New builds the fetcher selected by opts.Backend. Every backend honours
// Retries; colly paces requests through its limit rule, the other two
// through a shared RateLimiter.
func New(opts Options) (Fetcher, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendHTTP:
		return NewHTTPFetcher(opts)
	case BackendColly:
		f, err := NewCollyFetcher(opts)
		if err != nil {
			return nil, err
		}
		return withRetry(f, opts.retryPolicy(nil)), nil
	case BackendBrowser:
		f, err := NewBrowserFetcher(opts)
		if err != nil {
			return nil, err
		}
		return withRetry(f, opts.retryPolicy(NewRateLimiter(opts.RequestInterval))), nil
	default:
		return nil, fmt.Errorf("unknown fetcher backend %q (want %s, %s or %s)",
			opts.Backend, BackendHTTP, BackendColly, BackendBrowser)
	}
}

func (o Options) retryPolicy(limiter *RateLimiter) RetryPolicy {
	return RetryPolicy{
		Attempts: 1 + max(0, o.Retries),
		Backoff:  o.RetryBackoff,
		Limiter:  limiter,
	}
}

// NetworkError covers timeouts, DNS failures and non-2xx responses.
type NetworkError struct {
	URL    string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.Status)
	}
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func PickUserAgent(override string) string {
	if override != "" {
		return override
	}

	return DefaultUserAgent
}

func nopDebug(l DebugLogger) DebugLogger {
	if l == nil {
		return discard{}
	}
	return l
}

type discard struct{}

func (discard) Debugf(string, ...any) {}
