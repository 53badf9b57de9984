package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Ferruolo/menuscan/internal/extract"
	"github.com/Ferruolo/menuscan/internal/fetch"
	"github.com/Ferruolo/menuscan/internal/frontier"
	"github.com/Ferruolo/menuscan/internal/membership"
	"github.com/Ferruolo/menuscan/internal/metrics"
	"github.com/Ferruolo/menuscan/internal/model"
)

// DefaultBound sizes the membership filter of a session. The filter's
// expected entry count is DefaultBound/5.
const DefaultBound = 200

// Spider crawls restaurant websites.
//
// A Spider holds configuration only. Every call to Crawl builds a fresh
// session with its own frontier, membership filter and text accumulator, so
// one Spider can serve many sequential or concurrent crawls. The batch
// pipeline shares a single Spider across all of its workers.
type Spider struct {
	fetcher fetch.Fetcher
	html    *extract.HTMLExtractor
	pdf     *extract.PDFExtractor
	ocr     *extract.OCRExtractor

	// order selects breadth-first or depth-first traversal.
	order frontier.Order

	// bound sizes the membership filter: capacity = bound bits,
	// expected entries = bound/5.
	bound int

	// filterMode selects the filter's probing scheme.
	filterMode membership.Mode

	// allowedOrigins are extra origins treated as internal. Nil means
	// DefaultAllowedOrigin.
	allowedOrigins []string

	// reservationOrigins are widget origins recorded as citations and
	// never fetched.
	reservationOrigins []string

	// budget bounds the wall-clock length of one session. Zero disables it.
	budget time.Duration

	// delay is the time to wait between pops.
	delay time.Duration

	// maxPages stops a session after this many processed URLs. Zero means
	// the membership filter alone bounds the crawl.
	maxPages int

	// ignorePatterns and followPatterns filter URL paths at admission.
	ignorePatterns []string
	followPatterns []string

	// followImages enables OCR of images referenced by HTML pages.
	followImages bool

	// robots enables robots.txt checks for the base origin.
	robots bool

	logger  *slog.Logger
	metrics *metrics.Recorder
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithOrder sets the traversal order.
func WithOrder(order frontier.Order) SpiderOption {
	return func(s *Spider) {
		s.order = order
	}
}

// WithBound sets the crawl-size bound used to size the membership filter.
// Non-positive values keep the default.
func WithBound(bound int) SpiderOption {
	return func(s *Spider) {
		if bound > 0 {
			s.bound = bound
		}
	}
}

// WithFilterMode selects the membership filter's probing scheme.
func WithFilterMode(mode membership.Mode) SpiderOption {
	return func(s *Spider) {
		s.filterMode = mode
	}
}

// WithAllowedOrigins sets the extra origins treated as internal.
// An empty slice allows only the site's own origin.
func WithAllowedOrigins(origins []string) SpiderOption {
	return func(s *Spider) {
		s.allowedOrigins = append([]string{}, origins...)
	}
}

// WithReservationOrigins sets the widget origins whose URLs are recorded
// verbatim instead of fetched.
func WithReservationOrigins(origins []string) SpiderOption {
	return func(s *Spider) {
		s.reservationOrigins = append([]string{}, origins...)
	}
}

// WithBudget bounds the wall-clock duration of each session.
func WithBudget(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.budget = d
	}
}

// WithDelay sets the delay between requests.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithMaxPages caps the number of URLs processed per session.
func WithMaxPages(n int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = n
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "/gift-cards/*", "*.ics").
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns restricts crawling to URL paths matching at least one
// pattern. Empty means all paths are allowed.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// WithFollowImages enables or disables OCR of page images.
func WithFollowImages(enabled bool) SpiderOption {
	return func(s *Spider) {
		s.followImages = enabled
	}
}

// WithRecognizer sets the OCR engine used for images.
func WithRecognizer(r extract.Recognizer) SpiderOption {
	return func(s *Spider) {
		s.ocr = extract.NewOCRExtractor(r)
	}
}

// WithRobots enables robots.txt checks.
func WithRobots(enabled bool) SpiderOption {
	return func(s *Spider) {
		s.robots = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// WithMetrics records admissions, extractions and session outcomes.
func WithMetrics(m *metrics.Recorder) SpiderOption {
	return func(s *Spider) {
		s.metrics = m
	}
}

// NewSpider creates a Spider that fetches through f.
// f is either the retrying HTTP fetcher or the headless browser.
func NewSpider(f fetch.Fetcher, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:            f,
		html:               extract.NewHTMLExtractor(),
		pdf:                extract.NewPDFExtractor(),
		order:              frontier.BreadthFirst,
		bound:              DefaultBound,
		filterMode:         membership.ModeMultiProbe,
		reservationOrigins: []string{DefaultAllowedOrigin},
		followImages:       true,
		logger:             slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.ocr == nil {
		s.ocr = extract.NewOCRExtractor(nil, extract.WithOCRLogger(s.logger))
	}

	return s
}

// Crawl traverses the site at seedURL and returns its aggregated text and
// the distinct URLs processed.
//
// Per-URL failures never fail the crawl; they appear as inline annotations
// in the text and in the result's Failures. When ctx is cancelled or the
// time budget runs out, Crawl returns the partial result together with an
// error wrapping ErrCrawlAborted.
func (s *Spider) Crawl(ctx context.Context, seedURL string) (*model.CrawlResult, error) {
	seedURL = strings.TrimSpace(seedURL)
	seed, ok := Normalize(seedURL, seedURL)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeed, seedURL)
	}
	origin, ok := Origin(seed)
	if !ok || (!strings.HasPrefix(seed, "http://") && !strings.HasPrefix(seed, "https://")) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeed, seedURL)
	}

	if s.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.budget)
		defer cancel()
	}

	sess, err := s.newSession(seed, origin)
	if err != nil {
		return nil, err
	}

	err = sess.run(ctx)

	result := sess.finish()
	s.metrics.Session(result.State.String(), result.Duration())
	s.logger.Info("crawl finished",
		"seed", seed,
		"state", result.State.String(),
		"visited", len(result.URLs),
		"failures", len(result.Failures),
		"duration", result.Duration(),
	)

	return result, err
}

// expectedEntries derives the filter's expected entry count from the bound.
func expectedEntries(bound int) int {
	return max(bound/5, 1)
}
