// Package extractor pulls listing fields out of marketplace HTML whose markup
// changes often. Each field is located by an ordered list of strategies; the
// first strategy that yields a value wins.
package extractor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/ramkansal/autoquote/pkg/plugin"
)

// cardSelector is the union of the card containers seen across layouts.
var cardSelector = cascadia.MustCompile(
	"div.andes-card, li.ui-search-layout__item, div.ui-search-result__wrapper, div.poly-card",
)

// CardFields are the raw values read from one card. Empty means not found.
type CardFields struct {
	Title     string
	Link      string
	PriceText string
	Year      string
	Mileage   string
}

// CardExtractor runs the field strategies over listing cards.
type CardExtractor struct {
	titles []TitleStrategy
	prices []TextStrategy
}

// NewCardExtractor creates an extractor with the built-in strategies.
func NewCardExtractor() *CardExtractor {
	return &CardExtractor{
		titles: DefaultTitleStrategies,
		prices: DefaultPriceStrategies,
	}
}

// WithTitleStrategies returns a copy using the given title strategies.
func (e *CardExtractor) WithTitleStrategies(s ...TitleStrategy) *CardExtractor {
	c := *e
	c.titles = s
	return &c
}

// WithPriceStrategies returns a copy using the given price strategies.
func (e *CardExtractor) WithPriceStrategies(s ...TextStrategy) *CardExtractor {
	c := *e
	c.prices = s
	return &c
}

// Extract reads every field from card. It never fails as a whole: a strategy
// that panics counts as a miss and the next one is tried.
func (e *CardExtractor) Extract(card *goquery.Selection) CardFields {
	var f CardFields

	for _, s := range e.titles {
		title, href, err := runTitle(s, card)
		if err != nil || title == "" {
			continue
		}
		f.Title, f.Link = title, href
		break
	}

	for _, s := range e.prices {
		txt, err := runText(s, card)
		if err != nil || txt == "" {
			continue
		}
		f.PriceText = txt
		break
	}

	text, err := safeText(card)
	if err == nil {
		f.Year = yearFromText(text)
		f.Mileage = mileageFromText(text)
	}
	return f
}

func runTitle(s TitleStrategy, card *goquery.Selection) (title, href string, err error) {
	defer recoverInto(&err, s.Name)
	title, href = s.Find(card)
	return title, href, nil
}

func runText(s TextStrategy, card *goquery.Selection) (txt string, err error) {
	defer recoverInto(&err, s.Name)
	return s.Find(card), nil
}

func safeText(card *goquery.Selection) (txt string, err error) {
	defer recoverInto(&err, "visible-text")
	return visibleText(card), nil
}

func recoverInto(err *error, name string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("strategy %s: %v", name, r)
	}
}

// FindCards returns up to limit cards in document order. A limit <= 0
// returns every card.
func FindCards(doc *goquery.Document, limit int) []*goquery.Selection {
	sel := doc.FindMatcher(cardSelector)
	n := sel.Length()
	if limit > 0 && n > limit {
		n = limit
	}
	cards := make([]*goquery.Selection, 0, n)
	for i := 0; i < n; i++ {
		cards = append(cards, sel.Eq(i))
	}
	return cards
}

// ParseDocument parses the HTML of a fetched page.
func ParseDocument(page *plugin.PageData) (*goquery.Document, error) {
	if page == nil || page.RawHTML == "" {
		return nil, errors.New("empty page")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.RawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", page.URL, err)
	}
	return doc, nil
}
