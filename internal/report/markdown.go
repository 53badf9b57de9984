package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/Ferruolo/menuscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// Partial and failed crawls are flagged with GitHub alert blocks.
type MarkdownWriter struct {
	baseWriter

	// showText appends the aggregated text inside a details block.
	showText bool
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMarkdownText includes the aggregated crawl text.
func WithMarkdownText(show bool) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.showText = show
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the crawl result in Markdown format.
func (w *MarkdownWriter) Write(result *model.CrawlResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Menuscan Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Website", "`" + result.SeedURL + "`"},
			{"Crawl Date", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", result.Duration().Round(1e6).String()},
			{"Pages Visited", strconv.Itoa(result.Visited())},
			{"Text Length", strconv.Itoa(len(result.Text)) + " bytes"},
			{"Status", statusText(result)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, result)
	w.writeContent(md, result)
	w.writePages(md, result)
	w.writeFailures(md, result)

	if w.showText && result.Text != "" {
		md.H2("Text")
		md.PlainText("")
		md.Details("Aggregated text", result.Text)
		md.PlainText("")
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteBatch outputs the batch report in Markdown format.
func (w *MarkdownWriter) WriteBatch(batch *BatchReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Menuscan Batch Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + batch.RunID + "`"},
			{"Elapsed", batch.Elapsed.Round(1e6).String()},
			{"Total", strconv.Itoa(batch.Total)},
			{"Done", strconv.Itoa(batch.Done)},
			{"Failed", strconv.Itoa(batch.Failed)},
			{"Skipped", strconv.Itoa(batch.Skipped)},
		},
	})
	md.PlainText("")

	if batch.Failed > 0 {
		md.Warningf("%d business(es) failed to crawl.", batch.Failed)
	} else {
		md.Tip("Every business crawled successfully.")
	}
	md.PlainText("")

	if len(batch.Entries) > 0 {
		md.H2("Businesses")
		md.PlainText("")

		rows := make([][]string, len(batch.Entries))
		for i, e := range batch.Entries {
			detail := e.Detail
			if detail == "" {
				detail = "-"
			}
			rows[i] = []string{
				e.BusinessID,
				truncateString(e.Website, 50),
				e.Status,
				strconv.Itoa(e.Visited),
				truncateString(detail, 60),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Business", "Website", "Status", "Pages", "Detail"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeAlert writes an alert describing how the crawl ended.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, result *model.CrawlResult) {
	switch {
	case result.State == model.CrawlAborted:
		md.Cautionf("The crawl was cut short after %d page(s). The text is partial.", result.Visited())
	case result.State == model.CrawlTruncated:
		md.Warningf("The page limit stopped the crawl after %d page(s). Some pages were not visited.", result.Visited())
	case len(result.Failures) > 0:
		md.Warningf("%d URL(s) could not be processed. See Failures below.", len(result.Failures))
	default:
		md.Tip("Every reachable page was processed.")
	}
	md.PlainText("")
}

// writeContent writes a mermaid pie chart of page kinds.
func (w *MarkdownWriter) writeContent(md *markdown.Markdown, result *model.CrawlResult) {
	order, counts := kindCounts(result)
	if len(order) == 0 {
		return
	}

	md.H2("Content")
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Pages by Content Kind"),
		piechart.WithShowData(true),
	)
	for _, kind := range order {
		chart.LabelAndIntValue(kind, uint64(counts[kind]))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writePages writes a table of processed pages.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, result *model.CrawlResult) {
	md.H2("Pages")
	md.PlainText("")

	if len(result.Pages) == 0 {
		md.PlainText("No pages processed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(result.Pages))
	for i, p := range result.Pages {
		title := p.Title
		if title == "" {
			title = "-"
		}
		status := "-"
		if p.StatusCode != 0 {
			status = strconv.Itoa(p.StatusCode)
		}
		text := strconv.Itoa(p.TextBytes)
		if p.Duplicate {
			text += " (dup)"
		}
		rows[i] = []string{
			truncateString(p.URL, 60),
			p.Kind,
			status,
			truncateString(title, 40),
			text,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Kind", "Status", "Title", "Text"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes the failed URLs.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, result *model.CrawlResult) {
	if len(result.Failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	rows := make([][]string, len(result.Failures))
	for i, f := range result.Failures {
		rows[i] = []string{truncateString(f.URL, 60), f.Stage, truncateString(f.Error, 80)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Stage", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [menuscan](https://github.com/Ferruolo/menuscan)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
