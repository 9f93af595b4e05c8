package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ramkansal/autoquote/pkg/plugin"
)

// Terminal renders results as they arrive, with optional colors.
type Terminal struct {
	out    io.Writer
	counts summary

	cyan, green, yellow, red, dim *color.Color
}

// NewTerminal creates a terminal renderer writing to out.
func NewTerminal(out io.Writer, noColor bool) *Terminal {
	t := &Terminal{
		out:    out,
		cyan:   color.New(color.FgCyan),
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed),
		dim:    color.New(color.Faint),
	}
	if noColor {
		for _, c := range []*color.Color{t.cyan, t.green, t.yellow, t.red, t.dim} {
			c.DisableColor()
		}
	}
	return t
}

func (t *Terminal) Name() string { return "terminal" }

// Banner prints the program banner.
func (t *Terminal) Banner(version string) {
	fmt.Fprintln(t.out, t.cyan.Sprint("\n  autoquote"))
	fmt.Fprintf(t.out, "  %s  %s\n", t.dim.Sprint("Vehicle listing prices"), t.dim.Sprint("v"+version))
	fmt.Fprintf(t.out, "  %s\n", t.dim.Sprint(strings.Repeat("─", 58)))
}

func (t *Terminal) WriteOutcome(o *plugin.SearchOutcome) error {
	t.counts.add(o)

	fmt.Fprintf(t.out, "\n  %s [%s] %s %s\n",
		t.green.Sprint("●"),
		t.cyan.Sprint(o.Tier),
		o.Term,
		t.dim.Sprintf("(%d listings)", len(o.Listings)),
	)
	for _, l := range o.Listings {
		fmt.Fprintf(t.out, "      %s %s\n", t.dim.Sprint("├─"), t.listingLine(l))
	}
	fmt.Fprintf(t.out, "      %s %s / %s\n",
		t.dim.Sprint("average:"),
		t.yellow.Sprint(baseAmount(o.AverageBase)),
		t.yellow.Sprint(foreignAmount(o.AverageForeign)),
	)
	return nil
}

func (t *Terminal) WriteDetail(d *plugin.ListingDetail) error {
	t.counts.details++

	fmt.Fprintf(t.out, "\n  %s %s\n", t.green.Sprint("●"), d.URL)
	fmt.Fprintf(t.out, "      %s %s\n", t.dim.Sprint("title:"), d.Title)
	fmt.Fprintf(t.out, "      %s %s\n", t.dim.Sprint("description:"), d.Description)
	fmt.Fprintf(t.out, "      %s %s\n", t.dim.Sprint("price:"), t.yellow.Sprint(d.Price))
	return nil
}

// Finalize prints the closing summary.
func (t *Terminal) Finalize() error {
	fmt.Fprintf(t.out, "\n  %s\n", strings.Repeat("─", 50))
	fmt.Fprintf(t.out, "  %s %s\n\n", t.green.Sprint("✓"), t.counts.String())
	return nil
}

// Error prints a failure line.
func (t *Terminal) Error(err error) {
	fmt.Fprintf(t.out, "\n  %s %v\n\n", t.red.Sprint("ERROR:"), err)
}

// Saved reports an output file written by another writer.
func (t *Terminal) Saved(path string) {
	fmt.Fprintf(t.out, "  %s %s\n", t.dim.Sprint("Output:"), t.green.Sprint(path))
}

func (t *Terminal) listingLine(l plugin.Listing) string {
	title := l.Title
	if title == "" {
		title = t.dim.Sprint("(untitled)")
	}
	priceText := l.PriceDisplay
	if l.PriceBase != nil {
		priceText = t.yellow.Sprint(priceText)
	} else {
		priceText = t.dim.Sprint(priceText)
	}
	parts := []string{title, priceText, orDash(l.Year), orDash(l.Mileage)}
	if l.Trim != nil {
		parts = append(parts, t.dim.Sprint("trim "+*l.Trim))
	}
	if l.Link != nil {
		parts = append(parts, t.dim.Sprint(*l.Link))
	}
	return strings.Join(parts, " | ")
}
