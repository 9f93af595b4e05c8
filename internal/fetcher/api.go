package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ramkansal/autoquote/pkg/plugin"
)

// SearchAPI queries the marketplace's public structured search endpoint:
//
//	GET {base}/sites/{site}/search?q=...&limit=...
//	  -> {"results":[{title, permalink, currency_id, price, attributes}]}
type SearchAPI struct {
	baseURL   string
	site      string
	client    *http.Client
	userAgent string
}

// SearchAPIConfig holds configuration for the search API client.
type SearchAPIConfig struct {
	BaseURL   string
	Site      string
	UserAgent string
	Timeout   time.Duration
	Transport http.RoundTripper
}

type searchResponse struct {
	Results []plugin.APIItem `json:"results"`
}

// NewSearchAPI creates a search API client.
func NewSearchAPI(cfg SearchAPIConfig) (*SearchAPI, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("search api: base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("search api: invalid base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &SearchAPI{
		baseURL:   strings.TrimRight(base, "/"),
		site:      cfg.Site,
		client:    &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(transport)},
		userAgent: cfg.UserAgent,
	}, nil
}

// Search returns up to limit items matching term. Transport failures and
// non-2xx statuses are reported as *plugin.TransportError.
func (a *SearchAPI) Search(ctx context.Context, term string, limit int) ([]plugin.APIItem, error) {
	q := url.Values{}
	q.Set("q", term)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u := fmt.Sprintf("%s/sites/%s/search?%s", a.baseURL, url.PathEscape(a.site), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &plugin.TransportError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &plugin.TransportError{URL: u, StatusCode: resp.StatusCode}
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if limit > 0 && len(out.Results) > limit {
		out.Results = out.Results[:limit]
	}
	return out.Results, nil
}
