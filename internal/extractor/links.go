package extractor

import (
	"net/url"
	"strings"
)

// gatePathMarkers identify links into the registration/login flow.
var gatePathMarkers = []string{"registration?", "/registration", "/login"}

// ResolveLink resolves a possibly relative href against the page URL.
// Fragments, javascript: and mailto: links resolve to "".
func ResolveLink(pageURL, href string) string {
	trimmed := strings.TrimSpace(href)
	if trimmed == "" ||
		strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "javascript:") ||
		strings.HasPrefix(trimmed, "mailto:") {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil || pageURL == "" {
		return trimmed
	}
	ref, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// IsGateLink reports whether link points into the registration/login flow.
func IsGateLink(link string) bool {
	lower := strings.ToLower(link)
	for _, m := range gatePathMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
