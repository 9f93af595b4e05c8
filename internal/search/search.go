// Package search runs a vehicle query through the fallback tiers and
// aggregates the winning tier's listings.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ramkansal/autoquote/internal/config"
	"github.com/ramkansal/autoquote/internal/extractor"
	"github.com/ramkansal/autoquote/internal/price"
	"github.com/ramkansal/autoquote/pkg/plugin"
)

const tracerName = "github.com/ramkansal/autoquote/internal/search"

// Searcher is the core engine that orchestrates fetching, extraction and
// aggregation for one configuration. It holds no per-search state and is
// safe for concurrent use.
type Searcher struct {
	cfg    *config.Config
	pages  plugin.Fetcher
	api    plugin.ListingAPI
	cards  *extractor.CardExtractor
	gate   *extractor.InterstitialDetector
	detail *extractor.DetailExtractor
	prices *price.Parser
	log    logrus.FieldLogger
	tracer trace.Tracer
}

// Option customizes a Searcher.
type Option func(*Searcher)

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Searcher) { s.log = l }
}

// WithCardExtractor replaces the card field extractor.
func WithCardExtractor(e *extractor.CardExtractor) Option {
	return func(s *Searcher) { s.cards = e }
}

// New creates a Searcher. pages serves the scrape tiers and api the API
// tiers; either may be nil, in which case its tiers yield nothing.
func New(cfg *config.Config, pages plugin.Fetcher, api plugin.ListingAPI, opts ...Option) *Searcher {
	s := &Searcher{
		cfg:    cfg,
		pages:  pages,
		api:    api,
		cards:  extractor.NewCardExtractor(),
		gate:   extractor.NewInterstitialDetector(cfg.GatePhrases...),
		detail: extractor.NewDetailExtractor(),
		prices: price.NewParser(price.Rate(cfg.ExchangeRate)),
		log:    logrus.StandardLogger(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs q through the tiers in order and returns the first non-empty
// result.
//
// When every tier comes back empty the error wraps plugin.ErrNotFound. If
// every tier failed at the transport level the last *plugin.TransportError
// is returned instead, so callers can tell an unreachable site from a
// search with no matches.
func (s *Searcher) Search(ctx context.Context, q plugin.Query) (*plugin.SearchOutcome, error) {
	q = q.Normalize()
	term := q.Term()
	if term == "" {
		return nil, plugin.ErrEmptyQuery
	}

	ctx, span := s.tracer.Start(ctx, "search", trace.WithAttributes(attribute.String("search.term", term)))
	defer span.End()

	var (
		attempted     int
		transportOnly = true
		lastTransport error
	)
	for _, t := range plan(q) {
		tierTerm := t.term(q)
		if tierTerm == "" {
			continue
		}
		trim := plugin.StringPtr(q.Trim)
		if t.relaxed {
			trim = nil
		}

		listings, err := s.runTier(ctx, t, tierTerm, trim)
		attempted++
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if len(listings) > 0 {
			outcome := aggregate(tierTerm, t.name, listings, s.prices.Rate())
			span.SetAttributes(attribute.String("search.tier", t.name), attribute.Int("search.listings", len(listings)))
			return outcome, nil
		}
		if plugin.IsTransport(err) {
			lastTransport = err
		} else {
			transportOnly = false
		}
	}

	if attempted > 0 && transportOnly && lastTransport != nil {
		span.SetStatus(codes.Error, lastTransport.Error())
		return nil, fmt.Errorf("search %q: %w", term, lastTransport)
	}
	span.SetStatus(codes.Error, plugin.ErrNotFound.Error())
	return nil, fmt.Errorf("%w for %q", plugin.ErrNotFound, term)
}

// Listing fetches a single listing page and reads its detail fields.
// Transport failures are returned as *plugin.TransportError; a page missing
// any field yields an error wrapping plugin.ErrNotFound.
func (s *Searcher) Listing(ctx context.Context, rawURL string) (*plugin.ListingDetail, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, plugin.ErrEmptyQuery
	}
	if s.pages == nil {
		return nil, &plugin.TransportError{URL: rawURL, Err: errors.New("no page fetcher configured")}
	}

	ctx, span := s.tracer.Start(ctx, "listing", trace.WithAttributes(attribute.String("listing.url", rawURL)))
	defer span.End()

	page, err := s.pages.Fetch(ctx, rawURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	doc, err := extractor.ParseDocument(page)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %w", plugin.ErrNotFound, err)
	}
	detail, err := s.detail.Extract(doc)
	if err != nil {
		s.log.WithFields(logrus.Fields{"url": rawURL, "error": err}).Debug("listing page incomplete")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	detail.URL = page.FinalURL
	if detail.URL == "" {
		detail.URL = rawURL
	}
	return detail, nil
}

// Close releases the page fetcher.
func (s *Searcher) Close() error {
	if s.pages != nil {
		return s.pages.Close()
	}
	return nil
}

// SearchURL builds the results-page URL for term: the listing base followed
// by the term with spaces replaced by '-'.
func SearchURL(base, term string) string {
	slug := strings.Join(strings.Fields(term), "-")
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(slug)
}
