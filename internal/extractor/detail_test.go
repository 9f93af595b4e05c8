package extractor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramkansal/autoquote/pkg/plugin"
)

func TestDetailExtract(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		price string
	}{
		{
			name: "composed price container",
			html: `<div><h1 class="ui-pdp-title">Toyota Etios XLS</h1>
				<span class="ui-pdp-subtitle">2018 | 60.000 km</span>
				<span class="andes-money-amount"><span class="andes-money-amount__currency-symbol">$</span><span class="andes-money-amount__fraction">14.900.000</span></span></div>`,
			price: "$ 14.900.000",
		},
		{
			name: "symbol and fraction fallback",
			html: `<div><h1 class="ui-pdp-title">Toyota Etios XLS</h1>
				<span class="ui-pdp-subtitle">2018 | 60.000 km</span>
				<span class="price-tag-symbol">US$</span><span class="price-tag-fraction">11.200</span></div>`,
			price: "US$ 11.200",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDetailExtractor().Extract(mustDoc(t, tt.html))
			require.NoError(t, err)
			assert.Equal(t, "Toyota Etios XLS", d.Title)
			assert.Equal(t, "2018 | 60.000 km", d.Description)
			assert.Equal(t, tt.price, d.Price)
		})
	}
}

func TestDetailExtract_MissingFields(t *testing.T) {
	doc := mustDoc(t, `<div><h1 class="ui-pdp-title">Toyota Etios XLS</h1></div>`)

	d, err := NewDetailExtractor().Extract(doc)
	require.Error(t, err)
	assert.Nil(t, d)
	assert.True(t, errors.Is(err, plugin.ErrNotFound))
	assert.True(t, errors.Is(err, plugin.ErrMissingField))
	assert.Contains(t, err.Error(), "description, price")
}
