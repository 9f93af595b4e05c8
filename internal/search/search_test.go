package search

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramkansal/autoquote/internal/config"
	"github.com/ramkansal/autoquote/internal/extractor"
	"github.com/ramkansal/autoquote/pkg/plugin"
)

const resultsPage = `<html><body><ol>
	<div class="poly-card">
		<h3 class="poly-component__title"><a href="/MLA-1-toyota-corolla">Toyota Corolla XEi</a></h3>
		<span class="andes-money-amount">US$ 18.500</span>
		<span>2019 · 45.000 km</span>
	</div>
	<div class="poly-card">
		<h3 class="poly-component__title"><a href="https://auto.example.com/MLA-2">Toyota Corolla SEG</a></h3>
		<span class="andes-money-amount">$ 25.000.000</span>
	</div>
	<div class="poly-card">
		<h3 class="poly-component__title"><a href="/jms/mla/lgz/login?go=listado">Continuar</a></h3>
	</div>
	<div class="andes-card"><img src="banner.png"></div>
</ol></body></html>`

const emptyPage = `<html><body><p>No hay publicaciones que coincidan con tu búsqueda.</p></body></html>`

const gatePage = `<html><body><h1>¡Hola! Para continuar, ingresá a tu cuenta</h1>
	<a href="/registration?confirmation_url=https%3A%2F%2Flistado">Soy nuevo</a></body></html>`

type fakePages struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakePages) Name() string { return "fake" }

func (f *fakePages) Fetch(ctx context.Context, u string) (*plugin.PageData, error) {
	f.mu.Lock()
	f.calls = append(f.calls, u)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &plugin.TransportError{URL: u, Err: err}
	}
	if err, ok := f.errs[u]; ok {
		return nil, err
	}
	html, ok := f.pages[u]
	if !ok {
		return nil, &plugin.TransportError{URL: u, StatusCode: 404}
	}
	return &plugin.PageData{URL: u, FinalURL: u, StatusCode: 200, RawHTML: html}, nil
}

func (f *fakePages) Close() error { return nil }

type fakeAPI struct {
	mu    sync.Mutex
	items map[string][]plugin.APIItem
	err   error
	terms []string
}

func (f *fakeAPI) Search(_ context.Context, term string, limit int) ([]plugin.APIItem, error) {
	f.mu.Lock()
	f.terms = append(f.terms, term)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	items := f.items[term]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.ExchangeRate = 1000
	cfg.ListingURL = "https://listado.example.com/"
	return cfg
}

func newTestSearcher(pages plugin.Fetcher, api plugin.ListingAPI) (*Searcher, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return New(testConfig(), pages, api, WithLogger(logger)), hook
}

func floatPtr(f float64) *float64 { return &f }

var corollaQuery = plugin.Query{Brand: "Toyota", Model: "Corolla", Trim: "XEi"}

const (
	fullURL    = "https://listado.example.com/Toyota-Corolla-XEi"
	relaxedURL = "https://listado.example.com/Toyota-Corolla"
)

func TestSearch_ScrapeTier(t *testing.T) {
	pages := &fakePages{pages: map[string]string{fullURL: resultsPage}}
	api := &fakeAPI{}
	s, hook := newTestSearcher(pages, api)

	out, err := s.Search(context.Background(), corollaQuery)
	require.NoError(t, err)

	assert.Equal(t, TierScrape, out.Tier)
	assert.Equal(t, "Toyota Corolla XEi", out.Term)
	require.Len(t, out.Listings, 2)
	assert.Empty(t, api.terms)

	first := out.Listings[0]
	assert.Equal(t, "Toyota Corolla XEi", first.Title)
	assert.Equal(t, "US$ 18.500", first.PriceDisplay)
	assert.Equal(t, 18_500_000.0, *first.PriceBase)
	assert.Equal(t, "https://listado.example.com/MLA-1-toyota-corolla", *first.Link)
	assert.Equal(t, "2019", *first.Year)
	assert.Equal(t, "45.000 km", *first.Mileage)
	assert.Equal(t, "XEi", *first.Trim)

	second := out.Listings[1]
	assert.Equal(t, "Toyota Corolla SEG", second.Title)
	assert.Equal(t, "$ 25.000.000", second.PriceDisplay)
	assert.Nil(t, second.Year)

	assert.InDelta(t, 21_750_000.0, out.AverageBase, 0.001)
	assert.InDelta(t, 21_750.0, out.AverageForeign, 0.001)

	var tierLogged bool
	for _, e := range hook.AllEntries() {
		if e.Data["tier"] == TierScrape {
			tierLogged = true
			assert.Equal(t, 2, e.Data["listings"])
		}
	}
	assert.True(t, tierLogged)
}

func TestSearch_FallsBackToAPI(t *testing.T) {
	tests := []struct {
		name  string
		pages *fakePages
	}{
		{"zero cards", &fakePages{pages: map[string]string{fullURL: emptyPage}}},
		{"interstitial", &fakePages{pages: map[string]string{fullURL: gatePage}}},
		{"transport failure", &fakePages{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{items: map[string][]plugin.APIItem{
				"Toyota Corolla XEi": {
					{
						Title: "Toyota Corolla XEi CVT", Permalink: "https://auto.example.com/MLA-10",
						CurrencyID: "USD", Price: floatPtr(21_000),
						Attributes: []plugin.APIAttribute{{ID: "VEHICLE_YEAR", ValueName: "2020"}, {ID: "KILOMETERS", ValueName: "30000 km"}},
					},
					{Title: "Toyota Corolla XEi MT", CurrencyID: "ARS", Price: floatPtr(24_000_000)},
					{Title: "Toyota Corolla XEi consultar"},
				},
			}}
			s, _ := newTestSearcher(tt.pages, api)

			out, err := s.Search(context.Background(), corollaQuery)
			require.NoError(t, err)
			assert.Equal(t, TierAPI, out.Tier)
			require.Len(t, out.Listings, 3)
			for _, l := range out.Listings {
				require.NotNil(t, l.Trim)
				assert.Equal(t, "XEi", *l.Trim)
			}

			first := out.Listings[0]
			assert.Equal(t, "US$ 21.000", first.PriceDisplay)
			assert.Equal(t, 21_000_000.0, *first.PriceBase)
			assert.Equal(t, "2020", *first.Year)
			assert.Equal(t, "30000 km", *first.Mileage)
			assert.Equal(t, "$ 24.000.000", out.Listings[1].PriceDisplay)
			assert.Equal(t, "N/A", out.Listings[2].PriceDisplay)
			assert.Nil(t, out.Listings[2].PriceBase)
			assert.InDelta(t, 22_500_000.0, out.AverageBase, 0.001)
		})
	}
}

func TestSearch_RelaxedTierDropsTrim(t *testing.T) {
	pages := &fakePages{pages: map[string]string{relaxedURL: resultsPage}}
	api := &fakeAPI{}
	s, _ := newTestSearcher(pages, api)

	out, err := s.Search(context.Background(), corollaQuery)
	require.NoError(t, err)
	assert.Equal(t, TierScrapeRelaxed, out.Tier)
	assert.Equal(t, "Toyota Corolla", out.Term)
	require.NotEmpty(t, out.Listings)
	for _, l := range out.Listings {
		assert.Nil(t, l.Trim)
	}
	assert.Equal(t, []string{fullURL, relaxedURL}, pages.calls)
	assert.Equal(t, []string{"Toyota Corolla XEi"}, api.terms)
}

func TestSearch_RelaxedAPITier(t *testing.T) {
	pages := &fakePages{pages: map[string]string{fullURL: emptyPage, relaxedURL: gatePage}}
	api := &fakeAPI{items: map[string][]plugin.APIItem{
		"Toyota Corolla": {{Title: "Toyota Corolla GLi", CurrencyID: "ARS", Price: floatPtr(20_000_000)}},
	}}
	s, _ := newTestSearcher(pages, api)

	out, err := s.Search(context.Background(), corollaQuery)
	require.NoError(t, err)
	assert.Equal(t, TierAPIRelaxed, out.Tier)
	require.Len(t, out.Listings, 1)
	assert.Nil(t, out.Listings[0].Trim)
	assert.Equal(t, []string{"Toyota Corolla XEi", "Toyota Corolla"}, api.terms)
}

func TestSearch_NotFound(t *testing.T) {
	pages := &fakePages{pages: map[string]string{
		"https://listado.example.com/Toyota-Corolla": emptyPage,
	}}
	api := &fakeAPI{}
	s, _ := newTestSearcher(pages, api)

	_, err := s.Search(context.Background(), plugin.Query{Brand: "Toyota", Model: "Corolla"})
	require.ErrorIs(t, err, plugin.ErrNotFound)
	assert.False(t, plugin.IsTransport(err))
	assert.Len(t, pages.calls, 1, "no relaxed tier without a trim")
	assert.Len(t, api.terms, 1)
}

func TestSearch_AllTiersUnreachable(t *testing.T) {
	pages := &fakePages{}
	api := &fakeAPI{err: &plugin.TransportError{URL: "https://api.example.com", StatusCode: 503}}
	s, _ := newTestSearcher(pages, api)

	_, err := s.Search(context.Background(), corollaQuery)
	require.Error(t, err)
	assert.True(t, plugin.IsTransport(err))
	assert.NotErrorIs(t, err, plugin.ErrNotFound)
	assert.Len(t, pages.calls, 2)
	assert.Len(t, api.terms, 2)
}

func TestSearch_EmptyQuery(t *testing.T) {
	pages := &fakePages{}
	s, _ := newTestSearcher(pages, &fakeAPI{})

	_, err := s.Search(context.Background(), plugin.Query{Brand: "  "})
	assert.ErrorIs(t, err, plugin.ErrEmptyQuery)
	assert.Empty(t, pages.calls)
}

func TestSearch_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pages := &fakePages{pages: map[string]string{fullURL: resultsPage}}
	api := &fakeAPI{}
	s, _ := newTestSearcher(pages, api)

	_, err := s.Search(ctx, corollaQuery)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, pages.calls, 1)
	assert.Empty(t, api.terms)
}

func TestSearch_Idempotent(t *testing.T) {
	pages := &fakePages{pages: map[string]string{fullURL: resultsPage}}
	s, _ := newTestSearcher(pages, &fakeAPI{})

	first, err := s.Search(context.Background(), corollaQuery)
	require.NoError(t, err)
	second, err := s.Search(context.Background(), corollaQuery)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestSearch_PreservesDocumentOrder(t *testing.T) {
	html := `<ol>`
	titles := []string{"Alfa", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot", "Golf", "Hotel"}
	for _, title := range titles {
		html += `<div class="poly-card"><a href="/` + title + `">` + title + `</a><span class="andes-money-amount">$ 1.000</span></div>`
	}
	html += `</ol>`

	cfg := testConfig()
	cfg.Workers = 3
	pages := &fakePages{pages: map[string]string{"https://listado.example.com/Fiat": html}}
	s := New(cfg, pages, &fakeAPI{}, WithLogger(logrus.New()))

	out, err := s.Search(context.Background(), plugin.Query{Brand: "Fiat"})
	require.NoError(t, err)
	var got []string
	for _, l := range out.Listings {
		got = append(got, l.Title)
	}
	assert.Equal(t, titles, got)
}

func TestSearch_CardLimit(t *testing.T) {
	html := `<ol>`
	for i := 0; i < 20; i++ {
		html += `<div class="poly-card"><a href="/x">Fiat Uno</a><span class="andes-money-amount">$ 1.000</span></div>`
	}
	html += `</ol>`

	pages := &fakePages{pages: map[string]string{"https://listado.example.com/Fiat": html}}
	s, _ := newTestSearcher(pages, &fakeAPI{})

	out, err := s.Search(context.Background(), plugin.Query{Brand: "Fiat"})
	require.NoError(t, err)
	assert.Len(t, out.Listings, config.DefaultMaxCards)
}

func TestBuildListing(t *testing.T) {
	s, _ := newTestSearcher(&fakePages{}, &fakeAPI{})
	trim := plugin.StringPtr("GLX")

	tests := []struct {
		name    string
		html    string
		wantErr error
		title   string
		display string
		base    *float64
	}{
		{
			name:    "titled card with unparseable price keeps the raw text",
			html:    `<div class="poly-card"><a href="/MLA-9">Peugeot 208</a><span class="price-tag-fraction">consultar</span></div>`,
			title:   "Peugeot 208",
			display: "$ consultar",
		},
		{
			name:    "titled card without price",
			html:    `<div class="poly-card"><a href="/MLA-9">Peugeot 208</a></div>`,
			title:   "Peugeot 208",
			display: "N/A",
		},
		{
			name:    "untitled card with price",
			html:    `<div class="poly-card"><span class="andes-money-amount">$ 9.000.000</span></div>`,
			display: "$ 9.000.000",
			base:    floatPtr(9_000_000),
		},
		{
			name:    "untitled card with unparseable price",
			html:    `<div class="poly-card"><span class="price-tag-fraction">consultar</span></div>`,
			wantErr: plugin.ErrUnparseable,
		},
		{
			name:    "untitled and unpriced card",
			html:    `<div class="poly-card"><img src="x.png"></div>`,
			wantErr: plugin.ErrMissingField,
		},
		{
			name:    "registration link",
			html:    `<div class="poly-card"><a href="https://www.example.com/registration?go=1">Peugeot 208</a></div>`,
			wantErr: errGateCard,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := extractor.ParseDocument(&plugin.PageData{URL: "u", RawHTML: tt.html})
			require.NoError(t, err)
			cards := extractor.FindCards(doc, 0)
			require.Len(t, cards, 1)

			l, err := s.buildListing("https://listado.example.com/Peugeot", cards[0], trim)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.title, l.Title)
			assert.Equal(t, tt.display, l.PriceDisplay)
			assert.Equal(t, tt.base, l.PriceBase)
			assert.Equal(t, trim, l.Trim)
		})
	}
}

func TestAggregate(t *testing.T) {
	out := aggregate("t", TierAPI, []plugin.Listing{
		{PriceBase: floatPtr(1000)},
		{PriceBase: nil},
		{PriceBase: floatPtr(3000)},
	}, 1000)
	assert.Equal(t, 2000.0, out.AverageBase)
	assert.Equal(t, 2.0, out.AverageForeign)

	out = aggregate("t", TierAPI, []plugin.Listing{{Title: "x"}}, 1000)
	assert.Zero(t, out.AverageBase)
	assert.Zero(t, out.AverageForeign)
}

func TestListing(t *testing.T) {
	const detailURL = "https://auto.example.com/MLA-1"
	pages := &fakePages{
		pages: map[string]string{
			detailURL: `<div><h1 class="ui-pdp-title">Toyota Etios XLS</h1>
				<span class="ui-pdp-subtitle">2018 | 60.000 km</span>
				<span class="andes-money-amount">$ 14.900.000</span></div>`,
			"https://auto.example.com/MLA-2": `<div><h1 class="ui-pdp-title">Toyota Etios XLS</h1></div>`,
		},
		errs: map[string]error{"https://auto.example.com/MLA-3": &plugin.TransportError{URL: "https://auto.example.com/MLA-3", Err: errors.New("timeout")}},
	}
	s, _ := newTestSearcher(pages, nil)

	d, err := s.Listing(context.Background(), detailURL)
	require.NoError(t, err)
	assert.Equal(t, detailURL, d.URL)
	assert.Equal(t, "Toyota Etios XLS", d.Title)
	assert.Equal(t, "2018 | 60.000 km", d.Description)
	assert.Equal(t, "$ 14.900.000", d.Price)

	_, err = s.Listing(context.Background(), "https://auto.example.com/MLA-2")
	assert.ErrorIs(t, err, plugin.ErrNotFound)
	assert.ErrorIs(t, err, plugin.ErrMissingField)

	_, err = s.Listing(context.Background(), "https://auto.example.com/MLA-3")
	assert.True(t, plugin.IsTransport(err))

	_, err = s.Listing(context.Background(), " ")
	assert.ErrorIs(t, err, plugin.ErrEmptyQuery)
}

func TestSearchURL(t *testing.T) {
	assert.Equal(t, "https://listado.example.com/toyota-corolla-2019", SearchURL("https://listado.example.com/", "toyota  corolla 2019"))
	assert.Equal(t, "https://listado.example.com/peugeot-208-45000-km", SearchURL("https://listado.example.com", "peugeot 208 45000 km"))
	assert.Equal(t, "https://listado.example.com/citro%C3%ABn-c3", SearchURL("https://listado.example.com", "citroën c3"))
}

func TestPlan(t *testing.T) {
	names := func(ts []tier) []string {
		var out []string
		for _, t := range ts {
			out = append(out, t.name)
		}
		return out
	}
	assert.Equal(t, []string{TierScrape, TierAPI}, names(plan(plugin.Query{Brand: "Fiat"})))
	assert.Equal(t, []string{TierScrape, TierAPI, TierScrapeRelaxed, TierAPIRelaxed}, names(plan(corollaQuery)))
}
