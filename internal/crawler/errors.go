package crawler

import "errors"

var (
	// ErrInvalidSeed is returned by Crawl when the seed is not an absolute
	// http(s) URL.
	ErrInvalidSeed = errors.New("invalid seed URL: expected absolute http(s) URL")

	// ErrCrawlAborted is returned alongside a partial result when the
	// session's context is cancelled or its time budget runs out.
	ErrCrawlAborted = errors.New("crawl aborted")
)
