// Package output renders search outcomes and listing details.
package output

import (
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ramkansal/autoquote/internal/price"
	"github.com/ramkansal/autoquote/pkg/plugin"
)

// TextWriter writes results to a plain text file, mirroring the terminal
// output without color codes.
type TextWriter struct {
	path    string
	started time.Time
	lines   []string
	counts  summary
	mu      sync.Mutex
}

// NewTextWriter creates a new plain-text output writer.
func NewTextWriter(path string) *TextWriter {
	return &TextWriter{path: path, started: time.Now()}
}

func (w *TextWriter) Name() string { return "text" }

func (w *TextWriter) WriteOutcome(o *plugin.SearchOutcome) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.lines = append(w.lines, outcomeLines(o)...)
	w.counts.add(o)
	return nil
}

func (w *TextWriter) WriteDetail(d *plugin.ListingDetail) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.lines = append(w.lines, detailLines(d)...)
	w.counts.details++
	return nil
}

func (w *TextWriter) Finalize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var b strings.Builder

	b.WriteString("\n  AUTOQUOTE\n")
	b.WriteString("  Vehicle listing prices\n")
	b.WriteString("  " + strings.Repeat("-", 58) + "\n\n")
	fmt.Fprintf(&b, "  Started: %s\n\n", w.started.Format(time.RFC1123))

	for _, line := range w.lines {
		b.WriteString(line + "\n")
	}

	b.WriteString("\n  " + strings.Repeat("-", 50) + "\n")
	b.WriteString("  " + w.counts.String() + "\n\n")

	return os.WriteFile(w.path, []byte(b.String()), 0o644)
}

// ---------- shared formatting ----------

// summary counts what a writer has seen.
type summary struct {
	searches int
	listings int
	details  int
}

func (s *summary) add(o *plugin.SearchOutcome) {
	s.searches++
	s.listings += len(o.Listings)
}

func (s summary) String() string {
	return fmt.Sprintf("%d searches, %d listings, %d listing pages", s.searches, s.listings, s.details)
}

func outcomeLines(o *plugin.SearchOutcome) []string {
	lines := []string{fmt.Sprintf("  [%s] %s (%d listings)", o.Tier, o.Term, len(o.Listings))}
	for _, l := range o.Listings {
		lines = append(lines, "      +-- "+listingLine(l))
	}
	lines = append(lines, "      "+averagesLine(o))
	return lines
}

func detailLines(d *plugin.ListingDetail) []string {
	return []string{
		fmt.Sprintf("  [listing] %s", d.URL),
		"      title: " + d.Title,
		"      description: " + d.Description,
		"      price: " + d.Price,
	}
}

func listingLine(l plugin.Listing) string {
	title := l.Title
	if title == "" {
		title = "(untitled)"
	}
	parts := []string{title, l.PriceDisplay, orDash(l.Year), orDash(l.Mileage)}
	if l.Trim != nil {
		parts = append(parts, "trim "+*l.Trim)
	}
	if l.Link != nil {
		parts = append(parts, *l.Link)
	}
	return strings.Join(parts, " | ")
}

func averagesLine(o *plugin.SearchOutcome) string {
	return fmt.Sprintf("average: %s / %s", baseAmount(o.AverageBase), foreignAmount(o.AverageForeign))
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func baseAmount(v float64) string {
	return price.FormatBase(int64(math.Round(v)))
}

func foreignAmount(v float64) string {
	return price.FormatForeign(int64(math.Round(v)))
}
