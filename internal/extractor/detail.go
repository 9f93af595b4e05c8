package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/ramkansal/autoquote/internal/price"
	"github.com/ramkansal/autoquote/pkg/plugin"
)

var (
	selDetailTitle    = cascadia.MustCompile(".ui-pdp-title")
	selDetailSubtitle = cascadia.MustCompile(".ui-pdp-subtitle")
	selDetailPrice    = cascadia.MustCompile(".andes-money-amount")
)

// DetailExtractor reads title, description and price from a listing page.
type DetailExtractor struct{}

func NewDetailExtractor() *DetailExtractor { return &DetailExtractor{} }

// Extract returns the listing detail. Partial records are never returned:
// if any field is missing the error wraps plugin.ErrNotFound and
// plugin.ErrMissingField.
func (e *DetailExtractor) Extract(doc *goquery.Document) (*plugin.ListingDetail, error) {
	d := &plugin.ListingDetail{
		Title:       visibleText(doc.FindMatcher(selDetailTitle).First()),
		Description: visibleText(doc.FindMatcher(selDetailSubtitle).First()),
		Price:       detailPrice(doc.Selection),
	}

	var missing []string
	if d.Title == "" {
		missing = append(missing, "title")
	}
	if d.Description == "" {
		missing = append(missing, "description")
	}
	if d.Price == "" {
		missing = append(missing, "price")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %w: %s", plugin.ErrNotFound, plugin.ErrMissingField, strings.Join(missing, ", "))
	}
	return d, nil
}

// detailPrice prefers the composed price container and falls back to the
// split symbol/fraction markup.
func detailPrice(root *goquery.Selection) string {
	if node := root.FindMatcher(selDetailPrice).First(); node.Length() > 0 {
		if txt := visibleText(node); txt != "" {
			return txt
		}
	}
	fraction := visibleText(root.FindMatcher(selPriceFrac).First())
	if fraction == "" {
		return ""
	}
	symbol := visibleText(root.FindMatcher(selPriceSymbol).First())
	if symbol == "" {
		symbol = price.BaseMarker
	}
	return symbol + " " + fraction
}
