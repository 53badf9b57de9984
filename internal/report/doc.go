// Package report renders crawl results for people and tools.
//
// This package contains writers for different output formats:
//   - SimpleWriter: plain text for terminal display
//   - JSONWriter: structured JSON for downstream processing
//   - MarkdownWriter: Markdown for sharing crawl reviews
//
// The format is picked by --format through NewWriter. When --output names a
// file, a MultiWriter also sends a simple summary to the terminal.
package report
