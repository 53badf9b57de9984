package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() to tell them apart.
var (
	// ErrNoTarget is returned when neither a seed URL nor a list file is given.
	ErrNoTarget = errors.New("no target specified: provide a website URL or use --list")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBudget is returned when the crawl budget is negative.
	// Zero disables the budget.
	ErrInvalidBudget = errors.New("invalid crawl budget: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidBound is returned when the crawl-size bound is not positive.
	ErrInvalidBound = errors.New("invalid bound: must be positive")

	// ErrInvalidOrder is returned for a traversal order other than bfs or dfs.
	ErrInvalidOrder = errors.New("invalid traversal order: must be bfs or dfs")

	// ErrInvalidFilterMode is returned for an unknown membership filter mode.
	ErrInvalidFilterMode = errors.New("invalid filter mode: must be single-bit or multi-probe")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRetries is returned when the attempt count is not positive.
	ErrInvalidRetries = errors.New("invalid max attempts: must be at least 1")

	// ErrInvalidRateLimit is returned when the request rate is negative.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")
)
