package fetcher

import (
	"context"
	"net/http"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/ramkansal/autoquote/pkg/plugin"
)

// BrowserFetcher uses Rod (headless Chrome) as an alternate transport for
// sites that answer plain HTTP clients with an interstitial. Only the final
// HTML snapshot is handed to the extractors.
type BrowserFetcher struct {
	browser     *rod.Browser
	timeout     time.Duration
	pageTimeout time.Duration
	userAgent   string
	language    string
}

// BrowserFetcherConfig holds configuration for the browser fetcher.
type BrowserFetcherConfig struct {
	Timeout        time.Duration
	PageTimeout    time.Duration
	UserAgent      string
	AcceptLanguage string
}

// NewBrowserFetcher launches a headless browser and connects to it.
func NewBrowserFetcher(cfg BrowserFetcherConfig) (*BrowserFetcher, error) {
	u, err := launcher.New().
		Headless(true).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Launch()
	if err != nil {
		return nil, err
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	pageTimeout := cfg.PageTimeout
	if pageTimeout == 0 {
		pageTimeout = 15 * time.Second
	}

	return &BrowserFetcher{
		browser:     browser,
		timeout:     timeout,
		pageTimeout: pageTimeout,
		userAgent:   cfg.UserAgent,
		language:    cfg.AcceptLanguage,
	}, nil
}

func (f *BrowserFetcher) Name() string { return "browser" }

func (f *BrowserFetcher) Fetch(ctx context.Context, targetURL string) (*plugin.PageData, error) {
	start := time.Now()

	page := &plugin.PageData{
		URL:         targetURL,
		FinalURL:    targetURL,
		FetcherUsed: "browser",
		FetchedAt:   start,
	}

	rodPage, err := f.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		page.FetchDuration = time.Since(start)
		return page, &plugin.TransportError{URL: targetURL, Err: err}
	}
	defer rodPage.Close()

	rodPage = rodPage.Context(ctx).Timeout(f.timeout)

	if f.userAgent != "" {
		_ = rodPage.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      f.userAgent,
			AcceptLanguage: f.language,
		})
	}

	// Capture the document response status while navigating.
	var status int
	wait := rodPage.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type == proto.NetworkResourceTypeDocument {
			status = e.Response.Status
			return true
		}
		return false
	})

	if err := rodPage.Navigate(targetURL); err != nil {
		page.FetchDuration = time.Since(start)
		return page, &plugin.TransportError{URL: targetURL, Err: err}
	}
	wait()

	// A page that never settles still has usable HTML.
	_ = rodPage.WaitStable(f.pageTimeout)

	if info, err := rodPage.Info(); err == nil {
		page.FinalURL = info.URL
	}

	page.StatusCode = status
	if page.StatusCode == 0 {
		page.StatusCode = http.StatusOK
	}
	page.Headers = make(http.Header)
	page.ContentType = "text/html"

	html, err := rodPage.HTML()
	if err != nil {
		page.FetchDuration = time.Since(start)
		return page, &plugin.TransportError{URL: targetURL, Err: err}
	}
	page.RawHTML = html
	page.ResponseSize = len(html)
	page.FetchDuration = time.Since(start)

	if page.StatusCode < 200 || page.StatusCode >= 300 {
		return page, &plugin.TransportError{URL: targetURL, StatusCode: page.StatusCode}
	}
	return page, nil
}

func (f *BrowserFetcher) Close() error {
	if f.browser != nil {
		return f.browser.Close()
	}
	return nil
}
