package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ramkansal/autoquote/internal/extractor"
	"github.com/ramkansal/autoquote/internal/price"
	"github.com/ramkansal/autoquote/pkg/plugin"
)

// Source selects how a tier obtains listings.
type Source string

const (
	SourceScrape Source = "scrape"
	SourceAPI    Source = "api"
)

// Tier names as reported in SearchOutcome.Tier.
const (
	TierScrape        = "scrape"
	TierAPI           = "api"
	TierScrapeRelaxed = "scrape-relaxed"
	TierAPIRelaxed    = "api-relaxed"
)

var errNoSource = errors.New("source not configured")

// tier is one step of the fallback chain.
type tier struct {
	name    string
	source  Source
	term    func(plugin.Query) string
	relaxed bool
}

func fullTerm(q plugin.Query) string    { return q.Term() }
func relaxedTerm(q plugin.Query) string { return q.RelaxedTerm() }

// plan returns the tiers to try for q, in order. The relaxed tiers only
// exist when q carries a trim.
func plan(q plugin.Query) []tier {
	tiers := []tier{
		{name: TierScrape, source: SourceScrape, term: fullTerm},
		{name: TierAPI, source: SourceAPI, term: fullTerm},
	}
	if q.Trim != "" {
		tiers = append(tiers,
			tier{name: TierScrapeRelaxed, source: SourceScrape, term: relaxedTerm, relaxed: true},
			tier{name: TierAPIRelaxed, source: SourceAPI, term: relaxedTerm, relaxed: true},
		)
	}
	return tiers
}

// runTier executes one tier. Errors are informational: the caller treats
// any error the same as an empty result and moves on.
func (s *Searcher) runTier(ctx context.Context, t tier, term string, trim *string) ([]plugin.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "tier."+t.name, trace.WithAttributes(
		attribute.String("tier.source", string(t.source)),
		attribute.String("tier.term", term),
	))
	defer span.End()

	var (
		listings []plugin.Listing
		err      error
	)
	switch t.source {
	case SourceScrape:
		listings, err = s.scrape(ctx, term, trim)
	case SourceAPI:
		listings, err = s.queryAPI(ctx, term, trim)
	default:
		err = fmt.Errorf("tier %s: unknown source %q", t.name, t.source)
	}

	entry := s.log.WithFields(logrus.Fields{
		"tier":     t.name,
		"term":     term,
		"listings": len(listings),
	})
	span.SetAttributes(attribute.Int("tier.listings", len(listings)))
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		entry.WithField("reason", reason(err)).WithError(err).Info("tier yielded nothing")
	case len(listings) == 0:
		entry.WithField("reason", "empty").Info("tier yielded nothing")
	default:
		entry.Info("tier succeeded")
	}
	return listings, err
}

// reason classifies a tier error for logging.
func reason(err error) string {
	switch {
	case errors.Is(err, plugin.ErrBlocked):
		return "blocked"
	case plugin.IsTransport(err):
		return "transport"
	case errors.Is(err, errNoSource):
		return "unconfigured"
	default:
		return "error"
	}
}

// scrape fetches the results page for term and extracts its cards.
func (s *Searcher) scrape(ctx context.Context, term string, trim *string) ([]plugin.Listing, error) {
	if s.pages == nil {
		return nil, errNoSource
	}
	target := SearchURL(s.cfg.ListingURL, term)
	page, err := s.pages.Fetch(ctx, target)
	if err != nil {
		return nil, err
	}
	doc, err := extractor.ParseDocument(page)
	if err != nil {
		return nil, err
	}
	if s.gate.IsBlocked(doc) {
		return nil, fmt.Errorf("%s: %w", target, plugin.ErrBlocked)
	}

	pageURL := page.FinalURL
	if pageURL == "" {
		pageURL = target
	}
	cards := extractor.FindCards(doc, s.cfg.MaxCards)
	return s.extractCards(ctx, pageURL, cards, trim), nil
}

// queryAPI maps structured search results to listings. Prices arrive typed,
// so no text parsing is involved.
func (s *Searcher) queryAPI(ctx context.Context, term string, trim *string) ([]plugin.Listing, error) {
	if s.api == nil {
		return nil, errNoSource
	}
	items, err := s.api.Search(ctx, term, s.cfg.APILimit)
	if err != nil {
		return nil, err
	}

	listings := make([]plugin.Listing, 0, len(items))
	for _, it := range items {
		if it.Title == "" && it.Price == nil {
			continue
		}
		l := plugin.Listing{
			Title:        it.Title,
			PriceDisplay: price.NotAvailable,
			Link:         plugin.StringPtr(it.Permalink),
			Year:         plugin.StringPtr(it.Attr("VEHICLE_YEAR", "YEAR")),
			Mileage:      plugin.StringPtr(it.Attr("KILOMETERS", "KILOMETER")),
			Trim:         trim,
		}
		if it.Price != nil {
			amount, display := s.prices.Structured(it.CurrencyID, *it.Price)
			l.PriceBase = &amount
			l.PriceDisplay = display
		}
		listings = append(listings, l)
	}
	return listings, nil
}
