package extractor

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/ramkansal/autoquote/internal/price"
)

// TitleStrategy locates a listing title and its link inside one card.
type TitleStrategy struct {
	Name string
	Find func(card *goquery.Selection) (title, href string)
}

// TextStrategy locates one text field inside one card.
type TextStrategy struct {
	Name string
	Find func(card *goquery.Selection) string
}

var (
	selTitleNode    = cascadia.MustCompile(".poly-component__title")
	selAnchor       = cascadia.MustCompile("a")
	selSearchLink   = cascadia.MustCompile("a.ui-search-result__content-wrapper, a.ui-search-link")
	selAnyHref      = cascadia.MustCompile("a[href]")
	selPriceSymbol  = cascadia.MustCompile(".andes-money-amount__currency-symbol, .price-tag-symbol")
	selPriceFrac    = cascadia.MustCompile(".andes-money-amount__fraction, .price-tag-fraction, .ui-search-price__fraction")
	selAriaLabel    = cascadia.MustCompile("[aria-label]")
	selItempropCost = cascadia.MustCompile(`[itemprop="price"], meta[itemprop="price"]`)

	// Known price containers, most specific layout first.
	priceContainers = []cascadia.Selector{
		cascadia.MustCompile(".andes-money-amount"),
		cascadia.MustCompile(".price-tag-amount"),
		cascadia.MustCompile(".ui-search-price__part"),
		cascadia.MustCompile(".ui-search-price__second-line"),
	}

	yearPattern    = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	mileagePattern = regexp.MustCompile(`(?i)\d[\d.,]*\s*km\b`)
	numericPattern = regexp.MustCompile(`\d`)
)

// DefaultTitleStrategies are tried in order until one yields visible text.
var DefaultTitleStrategies = []TitleStrategy{
	{Name: "title-class", Find: titleFromTitleNode},
	{Name: "search-link", Find: titleFromSearchLink},
	{Name: "first-anchor", Find: titleFromFirstAnchor},
}

// DefaultPriceStrategies are tried in order until one yields price text.
var DefaultPriceStrategies = []TextStrategy{
	{Name: "container", Find: priceFromContainers},
	{Name: "symbol-fraction", Find: priceFromSymbolFraction},
	{Name: "aria-label", Find: priceFromAriaLabel},
	{Name: "itemprop", Find: priceFromItemprop},
	{Name: "full-text", Find: priceFromFullText},
}

func titleFromTitleNode(card *goquery.Selection) (string, string) {
	node := card.FindMatcher(selTitleNode).First()
	title := visibleText(node)
	if title == "" {
		return "", ""
	}
	return title, attr(node.FindMatcher(selAnchor).First(), "href")
}

func titleFromSearchLink(card *goquery.Selection) (string, string) {
	a := card.FindMatcher(selSearchLink).First()
	return visibleText(a), attr(a, "href")
}

func titleFromFirstAnchor(card *goquery.Selection) (string, string) {
	a := card.FindMatcher(selAnyHref).First()
	return visibleText(a), attr(a, "href")
}

func priceFromContainers(card *goquery.Selection) string {
	for _, m := range priceContainers {
		node := card.FindMatcher(m).First()
		if node.Length() == 0 {
			continue
		}
		if txt := visibleText(node); price.HasMarker(txt) {
			return txt
		}
	}
	return ""
}

// priceFromSymbolFraction handles markup that splits the currency symbol and
// the amount into sibling spans. A missing symbol defaults to the base marker.
func priceFromSymbolFraction(card *goquery.Selection) string {
	fraction := card.FindMatcher(selPriceFrac).First()
	if fraction.Length() == 0 {
		return ""
	}
	symbol := visibleText(card.FindMatcher(selPriceSymbol).First())
	if symbol == "" {
		symbol = price.BaseMarker
	}
	return symbol + " " + visibleText(fraction)
}

func priceFromAriaLabel(card *goquery.Selection) string {
	var found string
	card.FindMatcher(selAriaLabel).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if v := attr(el, "aria-label"); price.HasMarker(v) {
			found = v
			return false
		}
		return true
	})
	return found
}

func priceFromItemprop(card *goquery.Selection) string {
	node := card.FindMatcher(selItempropCost).First()
	if node.Length() == 0 {
		return ""
	}
	content := attr(node, "content")
	if content == "" {
		content = visibleText(node)
	}
	if !numericPattern.MatchString(content) {
		return ""
	}
	return price.BaseMarker + " " + content
}

func priceFromFullText(card *goquery.Selection) string {
	return price.MarkerPattern.FindString(visibleText(card))
}

// yearFromText returns the first plausible model year (1900-2099).
func yearFromText(text string) string {
	return yearPattern.FindString(text)
}

// mileageFromText returns the first number followed by a "km" unit.
func mileageFromText(text string) string {
	return mileagePattern.FindString(text)
}
