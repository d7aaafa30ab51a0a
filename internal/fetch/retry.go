package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"
)

const maxRetryAfter = time.Minute

type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
	Limiter  *RateLimiter
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// DoWithRetry executes req, retrying transport errors, 429 and 5xx
// responses with linear backoff. The last response is returned as is
// once attempts run out, so the caller sees the real status.
func DoWithRetry(ctx context.Context, c *http.Client, req *http.Request, p RetryPolicy) (*http.Response, error) {
	attempts := max(1, p.Attempts)
	backoff := p.backoff()

	var lastErr error
	for i := 1; i <= attempts; i++ {
		if err := p.Limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.Do(req.Clone(ctx))
		if err == nil && !retryable(resp.StatusCode) {
			return resp, nil
		}
		if i == attempts {
			return resp, err
		}

		wait := backoff * time.Duration(i)
		if err != nil {
			lastErr = err
		} else {
			if ra := retryAfter(resp); ra > 0 {
				wait = ra
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, lastErr
}

func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}

	var wait time.Duration
	if seconds, err := strconv.Atoi(header); err == nil {
		wait = time.Duration(seconds) * time.Second
	} else if t, err := http.ParseTime(header); err == nil {
		wait = time.Until(t)
	}

	return min(wait, maxRetryAfter)
}

func (p RetryPolicy) backoff() time.Duration {
	if p.Backoff <= 0 {
		return 500 * time.Millisecond
	}
	return p.Backoff
}

// retryFetcher gives backends without their own retry loop the same
// policy as the http backend: transport failures, 429 and 5xx are retried.
type retryFetcher struct {
	Fetcher
	policy RetryPolicy
}

func withRetry(f Fetcher, p RetryPolicy) Fetcher {
	return &retryFetcher{Fetcher: f, policy: p}
}

func (r *retryFetcher) Fetch(ctx context.Context, target string) ([]byte, error) {
	attempts := max(1, r.policy.Attempts)

	var lastErr error
	for i := 1; i <= attempts; i++ {
		if err := r.policy.Limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{URL: target, Err: err}
		}

		body, err := r.Fetcher.Fetch(ctx, target)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if i == attempts || !transient(ctx, err) {
			break
		}

		timer := time.NewTimer(r.policy.backoff() * time.Duration(i))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &NetworkError{URL: target, Err: ctx.Err()}
		case <-timer.C:
		}
	}

	return nil, lastErr
}

func transient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var nerr *NetworkError
	if !errors.As(err, &nerr) {
		return false
	}
	return nerr.Status == 0 || retryable(nerr.Status)
}
