package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// DefaultGatePhrases are login/registration phrases that only appear on the
// anti-automation interstitial, in English and Rioplatense Spanish.
var DefaultGatePhrases = []string{
	"new here",
	"sign in",
	"create your account",
	"soy nuevo",
	"ingresá",
	"ingresa",
	"iniciá sesión",
	"inicia sesión",
	"creá tu cuenta",
	"crea tu cuenta",
}

var selRegistrationLink = cascadia.MustCompile(`a[href*="registration?confirmation_url="]`)

// InterstitialDetector classifies a page as a login gate or real content.
type InterstitialDetector struct {
	phrases *regexp.Regexp
}

// NewInterstitialDetector creates a detector. With no phrases given it uses
// DefaultGatePhrases.
func NewInterstitialDetector(phrases ...string) *InterstitialDetector {
	if len(phrases) == 0 {
		phrases = DefaultGatePhrases
	}
	return &InterstitialDetector{phrases: phrasePattern(phrases)}
}

// phrasePattern matches any phrase as whole words, case-insensitively. A
// word ends at any rune that is not a letter or digit, in any script.
func phrasePattern(phrases []string) *regexp.Regexp {
	alts := make([]string, 0, len(phrases))
	for _, p := range phrases {
		words := strings.Fields(p)
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		alts = append(alts, strings.Join(words, `\s+`))
	}
	if len(alts) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])(?:` + strings.Join(alts, "|") + `)(?:$|[^\p{L}\p{N}])`)
}

// IsBlocked reports whether doc is an interstitial. Either signal suffices:
// a registration-confirmation link, or a gate phrase in the visible text.
func (d *InterstitialDetector) IsBlocked(doc *goquery.Document) bool {
	if doc.FindMatcher(selRegistrationLink).Length() > 0 {
		return true
	}
	if d.phrases == nil {
		return false
	}
	return d.phrases.MatchString(visibleText(doc.Selection))
}
