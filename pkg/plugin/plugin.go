// Package plugin defines the public types and collaborator interfaces of
// autoquote. External tools can import this package to plug in their own
// fetchers, search backends, or output writers without forking the project.
package plugin

import (
	"context"
	"net/http"
	"time"
)

// ---------- Core Data Types ----------

// PageData represents a fetched page as handed to the extractors.
type PageData struct {
	URL           string        `json:"url"`
	FinalURL      string        `json:"final_url"`
	StatusCode    int           `json:"status_code"`
	Headers       http.Header   `json:"-"`
	RawHTML       string        `json:"-"`
	ContentType   string        `json:"content_type"`
	FetchedAt     time.Time     `json:"fetched_at"`
	FetchDuration time.Duration `json:"fetch_duration"`
	FetcherUsed   string        `json:"fetcher_used"`
	ResponseSize  int           `json:"response_size"`
}

// Listing is one normalized vehicle listing.
//
// PriceDisplay is always set ("N/A" when the card carried no usable price).
// PriceBase is nil only when no currency pattern matched.
type Listing struct {
	Title        string   `json:"title"`
	PriceDisplay string   `json:"price"`
	PriceBase    *float64 `json:"price_base"`
	Link         *string  `json:"link"`
	Year         *string  `json:"year"`
	Mileage      *string  `json:"mileage"`
	Trim         *string  `json:"trim"`
}

// SearchOutcome is the aggregated result of one search.
type SearchOutcome struct {
	Term           string    `json:"term"`
	Tier           string    `json:"tier"`
	Listings       []Listing `json:"listings"`
	AverageBase    float64   `json:"average_base"`
	AverageForeign float64   `json:"average_foreign"`
}

// ListingDetail holds the fields read from a single listing page.
type ListingDetail struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

// APIItem is one result of the structured search endpoint.
type APIItem struct {
	Title      string         `json:"title"`
	Permalink  string         `json:"permalink"`
	CurrencyID string         `json:"currency_id"`
	Price      *float64       `json:"price"`
	Attributes []APIAttribute `json:"attributes"`
}

// APIAttribute is a single id/value attribute attached to an APIItem.
type APIAttribute struct {
	ID        string `json:"id"`
	ValueName string `json:"value_name"`
}

// Attr returns the value of the first attribute whose id is in ids.
func (it APIItem) Attr(ids ...string) string {
	for _, id := range ids {
		for _, a := range it.Attributes {
			if a.ID == id && a.ValueName != "" {
				return a.ValueName
			}
		}
	}
	return ""
}

// ---------- Plugin Interfaces ----------

// Fetcher defines how pages are retrieved.
type Fetcher interface {
	// Name returns a human-readable identifier for this fetcher.
	Name() string

	// Fetch retrieves the page at the given URL. A non-success status is
	// reported as a *TransportError.
	Fetch(ctx context.Context, url string) (*PageData, error)

	// Close releases any resources held by the fetcher.
	Close() error
}

// ListingAPI is a structured search backend queried when scraping fails.
type ListingAPI interface {
	Search(ctx context.Context, term string, limit int) ([]APIItem, error)
}

// OutputWriter defines how results are persisted.
type OutputWriter interface {
	// Name returns a human-readable identifier for this writer.
	Name() string

	// WriteOutcome records a search outcome (called incrementally).
	WriteOutcome(outcome *SearchOutcome) error

	// WriteDetail records a single listing page.
	WriteDetail(detail *ListingDetail) error

	// Finalize flushes everything written so far.
	Finalize() error
}

// StringPtr returns nil for the empty string, otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
