package plugin

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when every search tier came back empty, or
	// when a listing page lacks one of its required fields.
	ErrNotFound = errors.New("no listings found")

	// ErrBlocked marks a page classified as a login/registration interstitial.
	ErrBlocked = errors.New("interstitial page detected")

	// ErrUnparseable marks a field whose content did not match its format.
	ErrUnparseable = errors.New("unparseable field")

	// ErrMissingField marks a card or page missing required fields.
	ErrMissingField = errors.New("missing required field")

	// ErrEmptyQuery is returned when a query produces an empty search term.
	ErrEmptyQuery = errors.New("empty search query")
)

// TransportError reports a failed fetch: connection error, timeout, or a
// non-success status code.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d (%s)", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
