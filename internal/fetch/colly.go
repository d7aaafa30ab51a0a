package fetch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gocolly/colly/v2"
)

// CollyFetcher routes page loads through a colly collector so the
// per-domain limit rule paces every worker.
type CollyFetcher struct {
	collector *colly.Collector
	cookie    string
	log       DebugLogger
}

func NewCollyFetcher(opts Options) (*CollyFetcher, error) {
	c := colly.NewCollector(
		colly.UserAgent(opts.userAgent()),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(opts.timeout())

	if opts.Transport != nil {
		c.WithTransport(opts.Transport)
	}

	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: max(1, opts.Parallelism),
		Delay:       opts.RequestInterval,
	}); err != nil {
		return nil, fmt.Errorf("colly limit rule: %w", err)
	}

	return &CollyFetcher{
		collector: c,
		cookie:    joinCookies(opts.Cookie, opts.CookieFile),
		log:       nopDebug(opts.DebugLogger),
	}, nil
}

func (f *CollyFetcher) Fetch(ctx context.Context, target string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &NetworkError{URL: target, Err: err}
	}

	// Clones share the backend and its limits but not callbacks.
	c := f.collector.Clone()
	c.Context = ctx

	var (
		body   []byte
		status int
		cbErr  error
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		if f.cookie != "" {
			r.Headers.Set("Cookie", f.cookie)
		}
		f.log.Debugf("COLLY %s %s", r.Method, r.URL.String())
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		cbErr = err
	})

	visitErr := c.Visit(target)
	c.Wait()

	if err := ctx.Err(); err != nil {
		return nil, &NetworkError{URL: target, Err: err}
	}

	if cbErr == nil {
		cbErr = visitErr
	}
	if cbErr != nil {
		if status < 200 || status >= 300 {
			return nil, &NetworkError{URL: target, Status: status, Err: cbErr}
		}
		return nil, &NetworkError{URL: target, Err: cbErr}
	}
	if status < 200 || status >= 300 {
		return nil, &NetworkError{URL: target, Status: status, Err: fmt.Errorf("unexpected status %s", http.StatusText(status))}
	}

	return body, nil
}

func (f *CollyFetcher) Close() error {
	return nil
}
