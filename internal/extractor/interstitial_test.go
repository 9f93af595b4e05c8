package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const productCardsPage = `<html><body><ol>
	<li class="ui-search-layout__item"><div class="poly-card">
		<h3 class="poly-component__title"><a href="https://auto.example.com/MLA-1">Toyota Hilux SRV</a></h3>
		<span class="andes-money-amount">US$ 38.000</span>
	</div></li>
</ol></body></html>`

func TestIsBlocked(t *testing.T) {
	d := NewInterstitialDetector()

	tests := []struct {
		name string
		html string
		want bool
	}{
		{
			name: "registration confirmation link",
			html: `<div><a href="https://www.example.com/registration?confirmation_url=https%3A%2F%2Flistado">Continuar</a></div>`,
			want: true,
		},
		{
			name: "spanish gate phrase",
			html: `<main><h1>¡Hola! Para continuar, ingresá a tu cuenta</h1></main>`,
			want: true,
		},
		{
			name: "english gate phrase is case insensitive",
			html: `<main><button>Sign In</button></main>`,
			want: true,
		},
		{
			name: "phrase inside a script is not visible",
			html: `<main><script>var s = "sign in";</script><p>Resultados</p></main>`,
			want: false,
		},
		{
			name: "phrase inside longer words",
			html: `<div class="poly-card"><h3>Peugeot 208 design interior premium</h3><span>$ 20.000.000</span></div>`,
			want: false,
		},
		{
			name: "spanish phrase as a word prefix",
			html: `<p>Precio ingresado por el vendedor. Soy nuevos propietarios.</p>`,
			want: false,
		},
		{
			name: "phrase spans elements",
			html: `<main><span>Soy</span> <span>nuevo</span></main>`,
			want: true,
		},
		{
			name: "product cards only",
			html: productCardsPage,
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.IsBlocked(mustDoc(t, tt.html)))
		})
	}
}

func TestIsBlocked_CustomPhrases(t *testing.T) {
	d := NewInterstitialDetector("Verify You Are Human")
	assert.True(t, d.IsBlocked(mustDoc(t, `<p>Please verify you are human</p>`)))
	assert.False(t, d.IsBlocked(mustDoc(t, `<p>Sign in</p>`)))
	assert.False(t, d.IsBlocked(mustDoc(t, `<p>Unverify you are humane</p>`)))
}

func TestIsBlocked_NoPhrases(t *testing.T) {
	d := NewInterstitialDetector(" ", "")
	assert.False(t, d.IsBlocked(mustDoc(t, `<p>Sign in</p>`)))
	assert.True(t, d.IsBlocked(mustDoc(t, `<a href="/registration?confirmation_url=x">ok</a>`)))
}
