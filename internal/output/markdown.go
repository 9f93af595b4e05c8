package output

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/nao1215/markdown"

	"github.com/ramkansal/autoquote/pkg/plugin"
)

// MarkdownWriter writes a Markdown report with one table per search.
type MarkdownWriter struct {
	path     string
	outcomes []*plugin.SearchOutcome
	details  []*plugin.ListingDetail
	mu       sync.Mutex
}

// NewMarkdownWriter creates a Markdown output writer.
func NewMarkdownWriter(path string) *MarkdownWriter {
	return &MarkdownWriter{path: path}
}

func (w *MarkdownWriter) Name() string { return "markdown" }

func (w *MarkdownWriter) WriteOutcome(o *plugin.SearchOutcome) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.outcomes = append(w.outcomes, o)
	return nil
}

func (w *MarkdownWriter) WriteDetail(d *plugin.ListingDetail) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.details = append(w.details, d)
	return nil
}

func (w *MarkdownWriter) Finalize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.Create(w.path)
	if err != nil {
		return err
	}
	defer f.Close()

	md := markdown.NewMarkdown(f)
	md.H1("Vehicle listing report")
	md.PlainText("")

	for _, o := range w.outcomes {
		writeOutcome(md, o)
	}
	if len(w.details) > 0 {
		writeDetails(md, w.details)
	}
	if len(w.outcomes) == 0 && len(w.details) == 0 {
		md.Note("Nothing was found.")
	}
	return md.Build()
}

func writeOutcome(md *markdown.Markdown, o *plugin.SearchOutcome) {
	md.H2(o.Term)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Tier", "`" + o.Tier + "`"},
			{"Listings", strconv.Itoa(len(o.Listings))},
			{"Average", baseAmount(o.AverageBase)},
			{"Average (foreign)", foreignAmount(o.AverageForeign)},
		},
	})
	md.PlainText("")

	rows := make([][]string, 0, len(o.Listings))
	priced := 0
	for _, l := range o.Listings {
		if l.PriceBase != nil {
			priced++
		}
		rows = append(rows, []string{l.Title, l.PriceDisplay, orDash(l.Year), orDash(l.Mileage), orDash(l.Trim), orDash(l.Link)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Title", "Price", "Year", "Mileage", "Trim", "Link"},
		Rows:   rows,
	})
	md.PlainText("")

	if priced == 0 {
		md.Warningf("No listing carried a usable price; the averages are zero.")
		md.PlainText("")
	} else if priced < len(o.Listings) {
		md.Note(fmt.Sprintf("%d of %d listings had no usable price and are left out of the averages.", len(o.Listings)-priced, len(o.Listings)))
		md.PlainText("")
	}
}

func writeDetails(md *markdown.Markdown, details []*plugin.ListingDetail) {
	md.H2("Listing pages")
	md.PlainText("")
	rows := make([][]string, 0, len(details))
	for _, d := range details {
		rows = append(rows, []string{d.Title, d.Description, d.Price, d.URL})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Title", "Description", "Price", "URL"},
		Rows:   rows,
	})
	md.PlainText("")
}
