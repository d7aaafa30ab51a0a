package fetch

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

var chromeCandidates = []string{
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

// BrowserFetcher renders pages in headless Chromium. Use it for sources
// that build the chapter text with JavaScript or sit behind a challenge page.
type BrowserFetcher struct {
	browser *rod.Browser
	ua      string
	log     DebugLogger
}

func NewBrowserFetcher(opts Options) (*BrowserFetcher, error) {
	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Leakless(false).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("mute-audio")

	for _, path := range chromeCandidates {
		if _, err := os.Stat(path); err == nil {
			l = l.Bin(path)
			break
		}
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &BrowserFetcher{
		browser: browser,
		ua:      opts.userAgent(),
		log:     nopDebug(opts.DebugLogger),
	}, nil
}

func (f *BrowserFetcher) Fetch(ctx context.Context, target string) ([]byte, error) {
	f.log.Debugf("BROWSER GET %s", target)

	page, err := f.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, &NetworkError{URL: target, Err: fmt.Errorf("open tab: %w", err)}
	}
	defer func() {
		_ = page.Close()
	}()

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.ua}); err != nil {
		return nil, &NetworkError{URL: target, Err: fmt.Errorf("set user agent: %w", err)}
	}

	// Network stays enabled until the body has been read.
	restore := page.EnableDomain(&proto.NetworkEnable{})
	defer restore()

	var doc *proto.NetworkResponseReceived
	waitDoc := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		doc = e
		return true
	})

	if err := page.Navigate(target); err != nil {
		return nil, &NetworkError{URL: target, Err: err}
	}
	waitDoc()
	if err := ctx.Err(); err != nil {
		return nil, &NetworkError{URL: target, Err: err}
	}
	if doc == nil || doc.Response == nil {
		return nil, &NetworkError{URL: target, Err: fmt.Errorf("no document response")}
	}
	if err := checkDocument(target, doc.Response); err != nil {
		return nil, err
	}

	if err := page.WaitLoad(); err != nil {
		return nil, &NetworkError{URL: target, Err: err}
	}

	// Images and other non-HTML resources come back as sent, not as the
	// viewer page Chromium wraps them in.
	if !isHTML(doc.Response.MIMEType) {
		res, err := proto.NetworkGetResponseBody{RequestID: doc.RequestID}.Call(page)
		if err != nil {
			return nil, &NetworkError{URL: target, Err: fmt.Errorf("read body: %w", err)}
		}
		return decodeBody(res)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &NetworkError{URL: target, Err: err}
	}

	return []byte(html), nil
}

func checkDocument(target string, resp *proto.NetworkResponse) error {
	if resp.Status < 200 || resp.Status >= 300 {
		return &NetworkError{
			URL:    target,
			Status: resp.Status,
			Err:    fmt.Errorf("unexpected status %d %s", resp.Status, resp.StatusText),
		}
	}
	return nil
}

func isHTML(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return mimeType == "" || strings.HasPrefix(mimeType, "text/html") || strings.HasPrefix(mimeType, "application/xhtml")
}

func decodeBody(res *proto.NetworkGetResponseBodyResult) ([]byte, error) {
	if !res.Base64Encoded {
		return []byte(res.Body), nil
	}
	return base64.StdEncoding.DecodeString(res.Body)
}

func (f *BrowserFetcher) Close() error {
	return f.browser.Close()
}
