package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/Ferruolo/menuscan/internal/fetch"
	"github.com/Ferruolo/menuscan/internal/frontier"
	"github.com/Ferruolo/menuscan/internal/membership"
)

// Default configuration values.
const (
	// DefaultTimeout bounds a single HTTP request including retries' individual
	// attempts. Restaurant sites behind page builders can be slow, so it is
	// generous.
	DefaultTimeout = 30 * time.Second

	// DefaultBudget bounds the wall-clock length of one site crawl.
	DefaultBudget = 10 * time.Minute

	// DefaultBound sizes the per-session membership filter.
	DefaultBound = 200

	// DefaultOrder is the traversal order.
	DefaultOrder = "bfs"

	// DefaultFilterMode is the membership filter probing scheme.
	DefaultFilterMode = "multi-probe"

	// DefaultBatchSize is the number of sites crawled concurrently in batch mode.
	DefaultBatchSize = 4

	// DefaultMaxAttempts is the total number of tries per fetch, matching the
	// three retries with backoff of the original scraper.
	DefaultMaxAttempts = 3

	// DefaultMaxBodySize limits the maximum response body size to read.
	// Menu PDFs and photos are larger than typical HTML pages.
	DefaultMaxBodySize = fetch.DefaultMaxBodySize

	// DefaultUserAgent is sent with every request. Many restaurant hosting
	// platforms reject non-browser agents.
	DefaultUserAgent = fetch.DefaultUserAgent

	// AppName is the application name used for XDG directory paths.
	AppName = "menuscan"
)

// Config holds all configuration options for menuscan.
// It is populated from CLI flags and the config file and passed through the
// application rather than kept in global state.
type Config struct {
	// Targets are seed URLs to crawl.
	Targets []string

	// ListFile is a "business_id,url" list for batch mode.
	ListFile string

	// ProxyURL routes all requests through an HTTP(S) or SOCKS5 proxy.
	// Empty means a direct connection.
	ProxyURL string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// Budget bounds the wall-clock duration of one site crawl. Zero disables it.
	Budget time.Duration

	// Bound sizes the per-session membership filter.
	Bound int

	// Order is the traversal order: "bfs" or "dfs".
	Order string

	// FilterMode is the membership filter scheme: "single-bit" or "multi-probe".
	FilterMode string

	// MaxPages caps the URLs processed per site. Zero means unlimited.
	MaxPages int

	// MaxAttempts is the total number of tries per fetch.
	MaxAttempts int

	// RateLimit caps requests per second per fetcher. Zero disables it.
	RateLimit float64

	// CrawlDelay is the delay between URLs within one session.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// Robots enables robots.txt checks.
	Robots bool

	// SkipImages disables OCR of images referenced by pages.
	SkipImages bool

	// UseBrowser renders pages with headless Chrome instead of plain HTTP.
	UseBrowser bool

	// ChromePath is the Chrome binary for UseBrowser. Empty lets chromedp
	// search the usual install locations.
	ChromePath string

	// TesseractPath is the tesseract binary. Empty means PATH lookup.
	TesseractPath string

	// OCRLanguage is the tesseract language code.
	OCRLanguage string

	// Verbose enables debug logging.
	Verbose bool

	// JSONLogs switches log output to JSON.
	JSONLogs bool

	// BatchSize is the number of concurrent crawls in batch mode.
	BatchSize int

	// MetricsAddr serves Prometheus metrics when set (e.g. ":9090").
	MetricsAddr string

	// ConfigFilePath is the path to the configuration file.
	// If empty, .menuscan is searched in the current directory and then in
	// the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the config file.
	SiteConfigs *File

	// JSONReport selects JSON report output.
	JSONReport bool

	// MarkdownReport selects Markdown report output.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory holding menuscan.db.
	// Defaults to XDG data directory (~/.local/share/menuscan on Linux).
	DBDir string

	// SaveToDB stores crawl results in the database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// The zero Config is not usable because several defaults are non-zero.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		Budget:      DefaultBudget,
		Bound:       DefaultBound,
		Order:       DefaultOrder,
		FilterMode:  DefaultFilterMode,
		MaxAttempts: DefaultMaxAttempts,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		BatchSize:   DefaultBatchSize,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for menuscan.
// On Linux: ~/.local/share/menuscan
// On macOS: ~/Library/Application Support/menuscan
// On Windows: %LOCALAPPDATA%\menuscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for menuscan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 && c.ListFile == "" {
		return ErrNoTarget
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Budget < 0 {
		return ErrInvalidBudget
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.Bound <= 0 {
		return ErrInvalidBound
	}

	if _, err := frontier.ParseOrder(c.Order); err != nil {
		return ErrInvalidOrder
	}

	if _, err := membership.ParseMode(c.FilterMode); err != nil {
		return ErrInvalidFilterMode
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.MaxAttempts < 1 {
		return ErrInvalidRetries
	}

	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	return nil
}

// TraversalOrder returns the parsed Order. Call Validate first.
func (c *Config) TraversalOrder() frontier.Order {
	o, _ := frontier.ParseOrder(c.Order)
	return o
}

// MembershipMode returns the parsed filter Mode. Call Validate first.
func (c *Config) MembershipMode() membership.Mode {
	m, err := membership.ParseMode(c.FilterMode)
	if err != nil {
		return membership.ModeMultiProbe
	}
	return m
}
