package output

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/ramkansal/autoquote/pkg/plugin"
)

// JSONWriter collects results and writes them as one JSON document.
type JSONWriter struct {
	path string
	doc  jsonDocument
	mu   sync.Mutex
}

type jsonDocument struct {
	Searches []*plugin.SearchOutcome `json:"searches"`
	Details  []*plugin.ListingDetail `json:"details"`
}

// NewJSONWriter creates a JSON output writer.
func NewJSONWriter(path string) *JSONWriter {
	return &JSONWriter{
		path: path,
		doc: jsonDocument{
			Searches: []*plugin.SearchOutcome{},
			Details:  []*plugin.ListingDetail{},
		},
	}
}

func (w *JSONWriter) Name() string { return "json" }

func (w *JSONWriter) WriteOutcome(o *plugin.SearchOutcome) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.doc.Searches = append(w.doc.Searches, o)
	return nil
}

func (w *JSONWriter) WriteDetail(d *plugin.ListingDetail) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.doc.Details = append(w.doc.Details, d)
	return nil
}

func (w *JSONWriter) Finalize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.MarshalIndent(w.doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(w.path, append(data, '\n'), 0o644)
}
