package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Ferruolo/menuscan/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// Output is plain ASCII with no color codes.
type SimpleWriter struct {
	baseWriter

	// showText appends the aggregated crawl text after the summary.
	showText bool

	// verbose lists every processed URL.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowText configures the writer to print the aggregated text.
func WithShowText(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showText = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the crawl result in human-readable format.
func (w *SimpleWriter) Write(result *model.CrawlResult) (int, error) {
	var sb strings.Builder

	writeRule(&sb, "=")
	sb.WriteString("                          MENUSCAN CRAWL\n")
	writeRule(&sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Website:        %s\n", result.SeedURL)
	if !result.StartedAt.IsZero() {
		fmt.Fprintf(&sb, "Crawl Date:     %s\n", result.StartedAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(&sb, "Duration:       %s\n", result.Duration().Round(1e6))
	fmt.Fprintf(&sb, "Pages Visited:  %d\n", result.Visited())
	fmt.Fprintf(&sb, "Text Length:    %d bytes\n", len(result.Text))
	fmt.Fprintf(&sb, "Status:         %s\n", statusText(result))
	sb.WriteString("\n")

	if order, counts := kindCounts(result); len(order) > 0 {
		writeSection(&sb, "CONTENT")
		for _, kind := range order {
			fmt.Fprintf(&sb, "  %-12s %d\n", kind+":", counts[kind])
		}
		sb.WriteString("\n")
	}

	if len(result.Failures) > 0 {
		writeSection(&sb, "FAILURES")
		for _, f := range result.Failures {
			fmt.Fprintf(&sb, "  [!] %s (%s)\n", f.URL, f.Stage)
			if w.verbose {
				fmt.Fprintf(&sb, "      %s\n", f.Error)
			}
		}
		sb.WriteString("\n")
	}

	if len(result.Skipped) > 0 {
		writeSection(&sb, "SKIPPED BY ROBOTS.TXT")
		for _, u := range result.Skipped {
			fmt.Fprintf(&sb, "  [-] %s\n", u)
		}
		sb.WriteString("\n")
	}

	if w.verbose && len(result.URLs) > 0 {
		writeSection(&sb, "VISITED URLS")
		for _, u := range result.URLs {
			fmt.Fprintf(&sb, "  [+] %s\n", u)
		}
		sb.WriteString("\n")
	}

	if w.showText {
		writeSection(&sb, "TEXT")
		sb.WriteString(result.Text)
		sb.WriteString("\n\n")
	}

	writeRule(&sb, "=")

	return io.WriteString(w.output, sb.String())
}

// WriteBatch outputs the batch report in human-readable format.
func (w *SimpleWriter) WriteBatch(batch *BatchReport) (int, error) {
	var sb strings.Builder

	writeRule(&sb, "=")
	sb.WriteString("                          MENUSCAN BATCH\n")
	writeRule(&sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Run ID:    %s\n", batch.RunID)
	fmt.Fprintf(&sb, "Elapsed:   %s\n", batch.Elapsed.Round(1e6))
	fmt.Fprintf(&sb, "Total:     %d\n", batch.Total)
	fmt.Fprintf(&sb, "Done:      %d\n", batch.Done)
	fmt.Fprintf(&sb, "Failed:    %d\n", batch.Failed)
	fmt.Fprintf(&sb, "Skipped:   %d\n", batch.Skipped)
	sb.WriteString("\n")

	if len(batch.Entries) > 0 {
		writeSection(&sb, "BUSINESSES")
		for _, e := range batch.Entries {
			fmt.Fprintf(&sb, "  [%s] %s %s (%d pages)\n", statusIndicator(e.Status), e.BusinessID, e.Website, e.Visited)
			if e.Detail != "" && (w.verbose || e.Status == "failed") {
				fmt.Fprintf(&sb, "      %s\n", e.Detail)
			}
		}
		sb.WriteString("\n")
	}

	writeRule(&sb, "=")

	return io.WriteString(w.output, sb.String())
}

func writeRule(sb *strings.Builder, ch string) {
	sb.WriteString(strings.Repeat(ch, 70))
	sb.WriteString("\n")
}

func writeSection(sb *strings.Builder, title string) {
	writeRule(sb, "-")
	sb.WriteString(title)
	sb.WriteString("\n")
	writeRule(sb, "-")
	sb.WriteString("\n")
}

// statusIndicator returns a visual indicator for a batch entry status.
func statusIndicator(status string) string {
	switch status {
	case "done":
		return "+"
	case "failed":
		return "!"
	case "skipped":
		return "-"
	default:
		return "?"
	}
}
