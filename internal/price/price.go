// Package price turns marketplace price text into amounts in the base currency.
package price

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// ForeignMarker is the canonical prefix for foreign-currency displays.
	ForeignMarker = "US$"
	// BaseMarker is the canonical prefix for base-currency displays.
	BaseMarker = "$"
	// NotAvailable is the display used when a listing has no usable price.
	NotAvailable = "N/A"
)

var (
	foreignPattern = regexp.MustCompile(`(?:US\$|U\$S)\s*([\d.,]+)`)
	basePattern    = regexp.MustCompile(`\$\s*([\d.,]+)`)

	// MarkerPattern matches any recognized currency marker followed by digits.
	MarkerPattern = regexp.MustCompile(`(?:US\$|U\$S|\$)\s*[\d.,]+`)

	nonDigit = regexp.MustCompile(`\D`)

	// German grouping uses '.' for thousands at every magnitude.
	grouper = message.NewPrinter(language.German)
)

// Rate is the amount of base currency per one unit of foreign currency.
type Rate float64

// ToBase converts foreign units to the base currency.
func (r Rate) ToBase(foreign float64) float64 { return foreign * float64(r) }

// ToForeign converts a base amount back to foreign units.
func (r Rate) ToForeign(base float64) float64 {
	if r == 0 || base == 0 {
		return 0
	}
	return base / float64(r)
}

// Parser parses raw price text. The zero value is not usable; see NewParser.
type Parser struct {
	rate Rate
}

// NewParser creates a parser bound to a fixed exchange rate.
func NewParser(rate Rate) *Parser {
	return &Parser{rate: rate}
}

// Rate returns the exchange rate the parser converts with.
func (p *Parser) Rate() Rate { return p.rate }

// Parse returns the amount in base currency and a canonical display string.
// When no currency pattern matches, ok is false and display is the input
// unchanged.
func (p *Parser) Parse(text string) (amount float64, display string, ok bool) {
	t := strings.TrimSpace(strings.ReplaceAll(text, "\u00a0", " "))

	// Foreign first: some layouts embed a base-equivalent next to it.
	if units, found := matchUnits(foreignPattern, t); found {
		return p.rate.ToBase(float64(units)), FormatForeign(units), true
	}
	if units, found := matchUnits(basePattern, t); found {
		return float64(units), FormatBase(units), true
	}
	return 0, text, false
}

// matchUnits applies re and strips separators from its numeric group.
func matchUnits(re *regexp.Regexp, s string) (int64, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	digits := nonDigit.ReplaceAllString(m[1], "")
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Structured converts a price that arrives already typed (currency code plus
// numeric amount), as the search API returns it.
func (p *Parser) Structured(currencyID string, amount float64) (float64, string) {
	units := int64(amount)
	if strings.EqualFold(currencyID, "USD") {
		return p.rate.ToBase(amount), FormatForeign(units)
	}
	return amount, FormatBase(units)
}

// FormatForeign renders foreign units as "US$ 10.500".
func FormatForeign(units int64) string {
	return ForeignMarker + " " + Group(units)
}

// FormatBase renders a base amount as "$ 1.234.567".
func FormatBase(units int64) string {
	return BaseMarker + " " + Group(units)
}

// Group formats n with '.' as the thousands separator.
func Group(n int64) string {
	return grouper.Sprintf("%d", n)
}

// HasMarker reports whether s contains a currency marker followed by digits.
func HasMarker(s string) bool {
	return MarkerPattern.MatchString(s)
}
