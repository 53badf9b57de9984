package report

import (
	"io"
	"time"

	"github.com/Ferruolo/menuscan/internal/model"
)

// Writer renders crawl and batch results.
type Writer interface {
	// Write outputs a single crawl result.
	// Returns the number of bytes written and any error encountered.
	Write(result *model.CrawlResult) (int, error)

	// WriteBatch outputs the outcome of a batch run.
	WriteBatch(batch *BatchReport) (int, error)
}

// BatchEntry is one business in a batch report.
type BatchEntry struct {
	BusinessID string `json:"business_id"`
	Website    string `json:"website"`

	// Status is "done", "failed" or "skipped".
	Status string `json:"status"`

	Visited  int    `json:"visited"`
	Failures int    `json:"failures"`
	Partial  bool   `json:"partial,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// BatchReport summarizes a batch run.
type BatchReport struct {
	RunID   string        `json:"run_id"`
	Total   int           `json:"total"`
	Done    int           `json:"done"`
	Failed  int           `json:"failed"`
	Skipped int           `json:"skipped"`
	Elapsed time.Duration `json:"elapsed_ns"`
	Entries []BatchEntry  `json:"entries,omitempty"`
}

// MultiWriter sends each result to several Writers. Each Writer renders its
// own format.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the result to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(result *model.CrawlResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteBatch outputs the batch report to all configured Writers.
func (m *MultiWriter) WriteBatch(batch *BatchReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteBatch(batch)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText describes how a crawl ended.
func statusText(r *model.CrawlResult) string {
	switch r.State {
	case model.CrawlDrained:
		return "Complete"
	case model.CrawlAborted:
		return "ABORTED (partial results)"
	case model.CrawlTruncated:
		return "Page limit reached (partial results)"
	default:
		return "Running"
	}
}

// kindCounts counts processed pages per content kind, in first-seen order.
func kindCounts(r *model.CrawlResult) ([]string, map[string]int) {
	var order []string
	counts := make(map[string]int)
	for _, p := range r.Pages {
		if _, ok := counts[p.Kind]; !ok {
			order = append(order, p.Kind)
		}
		counts[p.Kind]++
	}
	return order, counts
}
