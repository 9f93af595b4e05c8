package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ramkansal/autoquote/internal/extractor"
	"github.com/ramkansal/autoquote/internal/price"
	"github.com/ramkansal/autoquote/pkg/plugin"
)

// errGateCard marks a card whose link leads into the registration flow.
var errGateCard = errors.New("card links to registration")

// cardResult is the per-card outcome. Exactly one of listing or err is set.
type cardResult struct {
	listing plugin.Listing
	err     error
}

// extractCards turns cards into listings in document order. Cards are
// processed in parallel; a failing card is dropped without affecting the
// others.
func (s *Searcher) extractCards(ctx context.Context, pageURL string, cards []*goquery.Selection, trim *string) []plugin.Listing {
	results := make([]cardResult, len(cards))

	var g errgroup.Group
	g.SetLimit(max(s.cfg.Workers, 1))
	for i, card := range cards {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].err = err
				return nil
			}
			results[i].listing, results[i].err = s.buildListing(pageURL, card, trim)
			return nil
		})
	}
	_ = g.Wait()

	listings := make([]plugin.Listing, 0, len(results))
	discarded := 0
	for i, r := range results {
		if r.err != nil {
			discarded++
			s.log.WithFields(logrus.Fields{"card": i, "reason": r.err}).Debug("card discarded")
			continue
		}
		listings = append(listings, r.listing)
	}
	if discarded > 0 {
		s.log.WithFields(logrus.Fields{"cards": len(cards), "discarded": discarded}).Debug("cards extracted")
	}
	return listings
}

// buildListing maps one card to a listing.
//
// A card is kept when it has a title or a parseable price. A titled card
// whose price text is unparseable keeps that text as its display and has
// no base amount.
func (s *Searcher) buildListing(pageURL string, card *goquery.Selection, trim *string) (l plugin.Listing, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("card panicked: %v", r)
		}
	}()

	f := s.cards.Extract(card)
	link := extractor.ResolveLink(pageURL, f.Link)
	if link != "" && extractor.IsGateLink(link) {
		return l, errGateCard
	}
	if f.Title == "" && f.PriceText == "" {
		return l, fmt.Errorf("%w: title and price", plugin.ErrMissingField)
	}

	l = plugin.Listing{
		Title:        f.Title,
		PriceDisplay: price.NotAvailable,
		Link:         plugin.StringPtr(link),
		Year:         plugin.StringPtr(f.Year),
		Mileage:      plugin.StringPtr(f.Mileage),
		Trim:         trim,
	}
	if f.PriceText == "" {
		return l, nil
	}

	amount, display, ok := s.prices.Parse(f.PriceText)
	if !ok {
		if f.Title == "" {
			return plugin.Listing{}, fmt.Errorf("%w: price %q", plugin.ErrUnparseable, f.PriceText)
		}
		l.PriceDisplay = display
		return l, nil
	}
	l.PriceBase = &amount
	l.PriceDisplay = display
	return l, nil
}
