package reporting

import (
	"fmt"
	"io"

	json "github.com/json-iterator/go"
)

// Report is the JSON document written by JSONReporter.
type Report struct {
	Summary   Summary          `json:"summary"`
	Scenarios []ScenarioResult `json:"scenarios"`
}

// JSONReporter writes a summary plus every scenario as one JSON document.
type JSONReporter struct {
	collector
	w io.WriteCloser
}

// NewJSONReporter takes ownership of w.
func NewJSONReporter(w io.WriteCloser) *JSONReporter {
	return &JSONReporter{w: w}
}

func (r *JSONReporter) Write(result ScenarioResult) error { return r.add(result) }

func (r *JSONReporter) Close() error {
	results, ok := r.drain()
	if !ok {
		return nil
	}
	if results == nil {
		results = []ScenarioResult{}
	}
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	werr := enc.Encode(Report{Summary: Summarize(results), Scenarios: results})
	cerr := r.w.Close()
	if werr != nil {
		return fmt.Errorf("failed to write json report: %w", werr)
	}
	return cerr
}
