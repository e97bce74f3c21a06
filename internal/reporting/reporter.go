// Package reporting writes the outcome of a suite run as JUnit XML or a JSON
// summary.
package reporting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Status is the final state of one scenario.
type Status string

const (
	StatusPassed    Status = "passed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusPending   Status = "pending"
	StatusUndefined Status = "undefined"
)

// ScenarioResult is one executed scenario.
type ScenarioResult struct {
	Feature  string        `json:"feature"`
	Name     string        `json:"name"`
	Tags     []string      `json:"tags,omitempty"`
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// Summary counts results by status.
type Summary struct {
	Total    int           `json:"total"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration_ns"`
}

// Summarize tallies results. Pending and undefined scenarios count as skipped.
func Summarize(results []ScenarioResult) Summary {
	var s Summary
	for _, r := range results {
		s.Total++
		s.Duration += r.Duration
		switch r.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		default:
			s.Skipped++
		}
	}
	return s
}

// Reporter defines the interface for writing suite results to an output.
type Reporter interface {
	// Write records a single scenario result. Safe for concurrent use.
	Write(result ScenarioResult) error
	// Close renders the report and closes any underlying resources.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// New creates a reporter for format ("junit" or "json") writing to
// outputPath. An empty path or "stdout" writes to standard output.
func New(format, outputPath string) (Reporter, error) {
	switch format {
	case "junit", "json":
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var writer io.WriteCloser
	if outputPath == "" || outputPath == "stdout" {
		writer = nopWriteCloser{os.Stdout}
	} else {
		if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create report directory for %s: %w", outputPath, err)
		}
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	if format == "junit" {
		return NewJUnitReporter(writer), nil
	}
	return NewJSONReporter(writer), nil
}

// collector buffers results until the report is rendered on Close.
type collector struct {
	mu      sync.Mutex
	results []ScenarioResult
	closed  bool
}

func (c *collector) add(r ScenarioResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.results = append(c.results, r)
	return nil
}

// drain marks the collector closed and returns what it holds. The second
// return is false if it was already closed.
func (c *collector) drain() ([]ScenarioResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, false
	}
	c.closed = true
	return c.results, true
}

// Multi fans every result out to each reporter.
func Multi(reporters ...Reporter) Reporter {
	return multi(reporters)
}

type multi []Reporter

func (m multi) Write(r ScenarioResult) error {
	var first error
	for _, rep := range m {
		if err := rep.Write(r); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m multi) Close() error {
	var first error
	for _, rep := range m {
		if err := rep.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
