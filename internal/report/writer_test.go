package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Ferruolo/menuscan/internal/model"
)

// createTestResult creates a crawl result with sample data for testing.
func createTestResult() *model.CrawlResult {
	start := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	return &model.CrawlResult{
		SeedURL: "https://luigis.com/",
		Origin:  "https://luigis.com",
		Text:    "Luigi's\nMargherita 14\n\nError processing https://luigis.com/catering: fetch failed",
		URLs: []string{
			"https://luigis.com/",
			"https://luigis.com/menu.pdf",
			"https://luigis.com/catering",
		},
		Pages: []model.Page{
			{URL: "https://luigis.com/", Kind: "html", StatusCode: 200, Title: "Luigi's", TextBytes: 20, Links: 2},
			{URL: "https://luigis.com/menu.pdf", Kind: "pdf", StatusCode: 200, TextBytes: 15, Duplicate: true},
			{URL: "https://luigis.com/catering", Kind: "failed"},
		},
		Failures: []model.PageFailure{
			{URL: "https://luigis.com/catering", Stage: "fetch", Error: "fetch failed: status 503"},
		},
		Skipped:    []string{"https://luigis.com/admin"},
		State:      model.CrawlDrained,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
	}
}

func createTestBatch() *BatchReport {
	return &BatchReport{
		RunID:   "0b6c1f2e-run",
		Total:   3,
		Done:    1,
		Failed:  1,
		Skipped: 1,
		Elapsed: 2 * time.Second,
		Entries: []BatchEntry{
			{BusinessID: "luigis", Website: "https://luigis.com", Status: "done", Visited: 3},
			{BusinessID: "broken", Website: "https://broken.example", Status: "failed", Detail: "invalid seed"},
			{BusinessID: "dup", Website: "https://luigis.com/", Status: "skipped", Detail: "duplicate website in batch"},
		},
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(createTestResult())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}

		output := buf.String()
		for _, want := range []string{
			"MENUSCAN CRAWL",
			"https://luigis.com/",
			"Pages Visited:  3",
			"Status:         Complete",
			"html:",
			"[!] https://luigis.com/catering (fetch)",
			"[-] https://luigis.com/admin",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "Margherita") {
			t.Error("text should be hidden by default")
		}
		if strings.Contains(output, "status 503") {
			t.Error("failure detail should only appear in verbose mode")
		}
	})

	t.Run("verbose output lists urls and errors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true), WithShowText(true)).Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"VISITED URLS", "[+] https://luigis.com/menu.pdf", "status 503", "Margherita 14"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("aborted crawl is marked partial", func(t *testing.T) {
		t.Parallel()

		result := createTestResult()
		result.State = model.CrawlAborted

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "ABORTED (partial results)") {
			t.Error("expected aborted status")
		}
	})

	t.Run("truncated crawl is marked partial", func(t *testing.T) {
		t.Parallel()

		result := createTestResult()
		result.State = model.CrawlTruncated

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Page limit reached (partial results)") {
			t.Errorf("expected truncated status, got:\n%s", buf.String())
		}
	})

	t.Run("writes batch", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteBatch(createTestBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"MENUSCAN BATCH", "0b6c1f2e-run", "[+] luigis", "[!] broken", "invalid seed", "[-] dup"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "duplicate website in batch") {
			t.Error("skip detail should only appear in verbose mode")
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.CrawlResult
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.State != model.CrawlDrained || len(decoded.Failures) != 1 {
			t.Errorf("unexpected decoded result %+v", decoded)
		}
		if !strings.Contains(buf.String(), `"state":"drained"`) {
			t.Error("expected state to serialize by name")
		}
		if !strings.HasSuffix(buf.String(), "\n") {
			t.Error("expected trailing newline")
		}
	})

	t.Run("omit text keeps the caller's result intact", func(t *testing.T) {
		t.Parallel()

		result := createTestResult()
		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithOmitText(true)).Write(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "Margherita") {
			t.Error("expected text to be omitted")
		}
		if result.Text == "" {
			t.Error("original result must not be modified")
		}
	})

	t.Run("pretty print indents output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"seed_url\"") {
			t.Error("expected indented output")
		}
	})

	t.Run("custom indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithIndent(">", "\t")).WriteBatch(createTestBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), ">\t\"run_id\"") {
			t.Errorf("expected custom indentation, got %q", buf.String())
		}
	})
}

func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewFullJSONWriter(&buf, "v1.2.3").Write(createTestResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded JSONReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Version != "v1.2.3" {
		t.Errorf("expected version v1.2.3, got %s", decoded.Version)
	}
	if decoded.Result == nil || decoded.Result.SeedURL != "https://luigis.com/" {
		t.Errorf("unexpected wrapped result %+v", decoded.Result)
	}
}

// failingWriter is a Writer that always fails.
type failingWriter struct{}

func (failingWriter) Write(*model.CrawlResult) (int, error) { return 0, errors.New("write failed") }
func (failingWriter) WriteBatch(*BatchReport) (int, error)  { return 0, errors.New("write failed") }

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to every writer", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

		n, err := mw.Write(createTestResult())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("expected %d bytes, got %d", text.Len()+js.Len(), n)
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&after))

		if _, err := mw.WriteBatch(createTestBatch()); err == nil {
			t.Error("expected error")
		}
		if after.Len() != 0 {
			t.Error("writers after a failure should not run")
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes crawl report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Menuscan Crawl Report",
			"`https://luigis.com/`",
			"## Content",
			"```mermaid",
			"## Pages",
			"15 (dup)",
			"## Failures",
			"[!WARNING]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "## Text") {
			t.Error("text section should be off by default")
		}
	})

	t.Run("aborted crawl gets caution alert", func(t *testing.T) {
		t.Parallel()

		result := createTestResult()
		result.State = model.CrawlAborted

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf, WithMarkdownText(true)).Write(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "[!CAUTION]") {
			t.Error("expected caution alert for aborted crawl")
		}
		if !strings.Contains(output, "## Text") || !strings.Contains(output, "Margherita 14") {
			t.Error("expected text section")
		}
	})

	t.Run("empty crawl", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(&model.CrawlResult{SeedURL: "https://empty.example", State: model.CrawlDrained}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "No pages processed.") || !strings.Contains(output, "[!TIP]") {
			t.Errorf("unexpected output for empty crawl:\n%s", output)
		}
	})

	t.Run("writes batch report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteBatch(createTestBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"# Menuscan Batch Report", "## Businesses", "invalid seed", "[!WARNING]"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a longer string", 10, "this is..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := truncateString(tt.input, tt.maxLen); got != tt.expected {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
			}
		})
	}
}
