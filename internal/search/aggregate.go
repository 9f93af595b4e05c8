package search

import (
	"github.com/ramkansal/autoquote/internal/price"
	"github.com/ramkansal/autoquote/pkg/plugin"
)

// aggregate builds the outcome for the winning tier. Listings without a
// base price count toward neither the sum nor the divisor.
func aggregate(term, tierName string, listings []plugin.Listing, rate price.Rate) *plugin.SearchOutcome {
	var (
		sum float64
		n   int
	)
	for _, l := range listings {
		if l.PriceBase == nil {
			continue
		}
		sum += *l.PriceBase
		n++
	}

	out := &plugin.SearchOutcome{
		Term:     term,
		Tier:     tierName,
		Listings: listings,
	}
	if n > 0 {
		out.AverageBase = sum / float64(n)
		out.AverageForeign = rate.ToForeign(out.AverageBase)
	}
	return out
}
