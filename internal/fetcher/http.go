// Package fetcher retrieves listing pages and structured search results.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ramkansal/autoquote/pkg/plugin"
)

// ErrInvalidProxy is returned by NewHTTPFetcher for a proxy it cannot use.
var ErrInvalidProxy = errors.New("invalid proxy")

// HTTPFetcher uses Colly for plain HTTP page fetching.
type HTTPFetcher struct {
	collector *colly.Collector
	headers   map[string]string
	randomUA  bool
}

// HTTPFetcherConfig holds configuration for the HTTP fetcher.
type HTTPFetcherConfig struct {
	UserAgent       string
	RandomUserAgent bool
	Timeout         time.Duration
	MaxResponseSize int
	Proxy           string
	Headers         map[string]string
	Transport       http.RoundTripper
}

// NewHTTPFetcher creates a new Colly-based HTTP fetcher. Redirects are
// followed and every non-2xx response is reported as a *plugin.TransportError.
func NewHTTPFetcher(cfg HTTPFetcherConfig) (*HTTPFetcher, error) {
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)

	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	if cfg.Timeout > 0 {
		c.SetRequestTimeout(cfg.Timeout)
	}
	if cfg.MaxResponseSize > 0 {
		c.MaxBodySize = cfg.MaxResponseSize
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if cfg.Proxy != "" {
		proxied, err := withProxy(transport, cfg.Proxy)
		if err != nil {
			return nil, err
		}
		transport = proxied
	}
	// Set last: colly's own SetProxy would be replaced by this transport.
	c.WithTransport(otelhttp.NewTransport(transport))

	return &HTTPFetcher{collector: c, headers: cfg.Headers, randomUA: cfg.RandomUserAgent}, nil
}

// withProxy returns a copy of base that routes every request through
// rawProxy. HTTP, HTTPS and SOCKS5 proxies are accepted.
func withProxy(base http.RoundTripper, rawProxy string) (http.RoundTripper, error) {
	u, err := url.Parse(strings.TrimSpace(rawProxy))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidProxy, rawProxy, err)
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("%w %q: unsupported scheme %q", ErrInvalidProxy, rawProxy, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w %q: missing host", ErrInvalidProxy, rawProxy)
	}

	t, ok := base.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("%w: transport %T cannot be proxied", ErrInvalidProxy, base)
	}
	t = t.Clone()
	t.Proxy = http.ProxyURL(u)
	return t, nil
}

func (f *HTTPFetcher) Name() string { return "http" }

func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL string) (*plugin.PageData, error) {
	start := time.Now()

	page := &plugin.PageData{
		URL:         targetURL,
		FinalURL:    targetURL,
		FetcherUsed: "http",
		FetchedAt:   start,
	}

	// Clone the collector for this individual fetch so we get clean state.
	// Clones carry no callbacks, so extensions are attached here.
	c := f.collector.Clone()
	c.Context = ctx
	if f.randomUA {
		extensions.RandomUserAgent(c)
	}

	c.OnRequest(func(r *colly.Request) {
		for k, v := range f.headers {
			r.Headers.Set(k, v)
		}
	})

	c.OnResponse(func(r *colly.Response) {
		page.StatusCode = r.StatusCode
		page.RawHTML = string(r.Body)
		page.ResponseSize = len(r.Body)
		page.FinalURL = r.Request.URL.String()
		page.ContentType = r.Headers.Get("Content-Type")
		page.Headers = r.Headers.Clone()
	})

	var fetchErr error
	c.OnError(func(r *colly.Response, err error) {
		te := &plugin.TransportError{URL: targetURL, Err: err}
		if r != nil {
			te.StatusCode = r.StatusCode
			page.StatusCode = r.StatusCode
			if r.Request != nil {
				page.FinalURL = r.Request.URL.String()
			}
		}
		fetchErr = te
	})

	err := c.Visit(targetURL)
	c.Wait()
	page.FetchDuration = time.Since(start)

	if fetchErr != nil {
		return page, fetchErr
	}
	if err != nil {
		return page, &plugin.TransportError{URL: targetURL, Err: err}
	}
	if page.StatusCode < 200 || page.StatusCode >= 300 {
		return page, &plugin.TransportError{URL: targetURL, StatusCode: page.StatusCode}
	}
	return page, nil
}

func (f *HTTPFetcher) Close() error {
	return nil
}

// ParseHeaders converts "Key: Value" strings into a header map.
func ParseHeaders(lines []string) map[string]string {
	out := make(map[string]string, len(lines))
	for _, h := range lines {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) == 2 {
			out[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return out
}
