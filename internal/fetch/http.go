package fetch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
)

func NewHTTPClient(opts Options) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	var baseTransport http.RoundTripper
	if opts.Transport != nil {
		baseTransport = opts.Transport
	} else {
		baseTransport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxConnsPerHost:     100,
			MaxIdleConnsPerHost: 100,
			ForceAttemptHTTP2:   true,
		}
	}

	if opts.CloudflareBypass {
		baseTransport = cloudflarebp.AddCloudFlareByPass(baseTransport)
	}

	log := nopDebug(opts.DebugLogger)
	client := &http.Client{
		Timeout: opts.timeout(),
		Transport: roundTripper{
			base:         baseTransport,
			ua:           opts.userAgent(),
			cookieHeader: joinCookies(opts.Cookie, opts.CookieFile),
			log:          log,
		},
		Jar: jar,
	}

	log.Debugf("HTTP client initialized (timeout=%s, ua=%q, cookieFile=%q, cloudflare=%t)",
		client.Timeout, opts.userAgent(), opts.CookieFile, opts.CloudflareBypass)

	return client, nil
}

type roundTripper struct {
	base         http.RoundTripper
	ua           string
	cookieHeader string
	log          DebugLogger
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if rt.ua != "" {
		req.Header.Set("User-Agent", rt.ua)
	}

	if rt.cookieHeader != "" && req.Header.Get("Cookie") == "" {
		req.Header.Set("Cookie", rt.cookieHeader)
	}

	rt.log.Debugf("HTTP %s %s", req.Method, req.URL.String())

	return rt.base.RoundTrip(req)
}

// joinCookies merges the inline cookie string with the first non-empty
// line of the cookie file.
func joinCookies(inline, file string) string {
	s := strings.TrimSpace(inline)
	if file == "" {
		return s
	}

	b, err := os.ReadFile(file)
	if err != nil {
		return s
	}

	sc := bufio.NewScanner(strings.NewReader(string(b)))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if s == "" {
			return line
		}
		return s + "; " + line
	}

	return s
}

// HTTPFetcher is the default backend. It makes a single attempt per page
// unless Options.Retries asks for more.
type HTTPFetcher struct {
	client *http.Client
	policy RetryPolicy
}

func NewHTTPFetcher(opts Options) (*HTTPFetcher, error) {
	client, err := NewHTTPClient(opts)
	if err != nil {
		return nil, err
	}

	return &HTTPFetcher{
		client: client,
		policy: opts.retryPolicy(NewRateLimiter(opts.RequestInterval)),
	}, nil
}

func (f *HTTPFetcher) Client() *http.Client {
	return f.client
}

func (f *HTTPFetcher) Fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &NetworkError{URL: target, Err: err}
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/*;q=0.8,*/*;q=0.7")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := DoWithRetry(ctx, f.client, req, f.policy)
	if err != nil {
		return nil, &NetworkError{URL: target, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &NetworkError{
			URL:    target,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: target, Err: fmt.Errorf("read body: %w", err)}
	}

	return body, nil
}

func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
