package model

import (
	"fmt"
	"strings"
	"time"
)

// CrawlState is the lifecycle state of a crawl session.
type CrawlState int

const (
	// CrawlRunning means the session is still popping URLs.
	CrawlRunning CrawlState = iota

	// CrawlDrained means the frontier emptied and the session finished
	// normally.
	CrawlDrained

	// CrawlAborted means the session stopped early because its context was
	// cancelled or its time budget ran out. The result holds partial text.
	CrawlAborted

	// CrawlTruncated means the page limit stopped the session while URLs
	// were still pending. No error is reported.
	CrawlTruncated
)

// String returns the lowercase state name.
func (s CrawlState) String() string {
	switch s {
	case CrawlRunning:
		return "running"
	case CrawlDrained:
		return "drained"
	case CrawlAborted:
		return "aborted"
	case CrawlTruncated:
		return "truncated"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so states serialize by name.
func (s CrawlState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *CrawlState) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "running":
		*s = CrawlRunning
	case "drained":
		*s = CrawlDrained
	case "aborted":
		*s = CrawlAborted
	case "truncated":
		*s = CrawlTruncated
	default:
		return fmt.Errorf("unknown crawl state %q", text)
	}
	return nil
}

// CrawlResult is the outcome of crawling one restaurant site.
type CrawlResult struct {
	// SeedURL is the URL the crawl started from, after normalization.
	SeedURL string `json:"seed_url"`

	// Origin is the scheme://host of the seed. Links are judged internal
	// against it.
	Origin string `json:"origin"`

	// Text is the aggregated, deduplicated text of every processed page,
	// including inline annotations for URLs that failed.
	Text string `json:"text"`

	// URLs lists every distinct URL processed, in processing order.
	URLs []string `json:"urls"`

	// Pages holds per-URL details, parallel to URLs.
	Pages []Page `json:"pages,omitempty"`

	// Failures lists URLs whose fetch or extraction failed.
	Failures []PageFailure `json:"failures,omitempty"`

	// Skipped lists URLs excluded by robots.txt.
	Skipped []string `json:"skipped,omitempty"`

	// State is CrawlDrained for a completed crawl, CrawlAborted when it was
	// cut short and CrawlTruncated when the page limit ended it.
	State CrawlState `json:"state"`

	// StartedAt is when the session began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the session ended.
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the session ran.
func (r *CrawlResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Visited returns the number of distinct URLs processed.
func (r *CrawlResult) Visited() int {
	return len(r.URLs)
}

// Completed reports whether the frontier was fully drained.
func (r *CrawlResult) Completed() bool {
	return r.State == CrawlDrained
}

// PageFailure records a URL that could not be processed.
type PageFailure struct {
	// URL is the URL that failed.
	URL string `json:"url"`

	// Stage is where it failed: "fetch", "extract" or "ocr".
	Stage string `json:"stage"`

	// Error is the error message.
	Error string `json:"error"`
}

// Annotation returns the inline marker appended to the crawl text for this
// failure.
func (f PageFailure) Annotation() string {
	return fmt.Sprintf("\nError processing %s: %s", f.URL, f.Error)
}
