package report

import (
	"encoding/json"
	"io"

	"github.com/Ferruolo/menuscan/internal/model"
)

// JSONWriter outputs reports in JSON format.
// Field names follow the json tags on the model types.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// omitText drops the aggregated text, leaving only crawl metadata.
	omitText bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithOmitText drops the aggregated text from crawl results.
func WithOmitText(omit bool) JSONWriterOption {
	return func(w *JSONWriter) {
		w.omitText = omit
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the crawl result in JSON format.
func (w *JSONWriter) Write(result *model.CrawlResult) (int, error) {
	if w.omitText {
		trimmed := *result
		trimmed.Text = ""
		result = &trimmed
	}
	return w.writeJSON(result)
}

// WriteBatch outputs the batch report in JSON format.
func (w *JSONWriter) WriteBatch(batch *BatchReport) (int, error) {
	return w.writeJSON(batch)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport wraps a crawl result with the generating tool's version.
type JSONReport struct {
	// Version is the menuscan version that generated this report.
	Version string `json:"version"`

	// Result is the crawl result.
	Result *model.CrawlResult `json:"result"`
}

// FullJSONWriter outputs crawl results with a metadata wrapper.
type FullJSONWriter struct {
	*JSONWriter

	// version is the menuscan version string.
	version string
}

// NewFullJSONWriter creates a writer for crawl results with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the result wrapped with metadata.
func (w *FullJSONWriter) Write(result *model.CrawlResult) (int, error) {
	if w.omitText {
		trimmed := *result
		trimmed.Text = ""
		result = &trimmed
	}
	return w.writeJSON(&JSONReport{Version: w.version, Result: result})
}
