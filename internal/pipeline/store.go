package pipeline

import (
	"context"
	"time"

	"github.com/Ferruolo/menuscan/internal/model"
)

// Crawler crawls one website. *crawler.Spider implements it.
type Crawler interface {
	Crawl(ctx context.Context, seedURL string) (*model.CrawlResult, error)
}

// ResultStore persists crawl results.
type ResultStore interface {
	SaveCrawlResult(ctx context.Context, businessID string, r *model.CrawlResult) error
}

// RecentChecker reports whether a business was crawled recently.
type RecentChecker interface {
	HasRecentCrawl(ctx context.Context, businessID string, within time.Duration) (bool, error)
}

// WorkQueue hands out batch jobs and records their outcome.
// NextPending returns nil, nil when the queue is drained.
type WorkQueue interface {
	NextPending(ctx context.Context) (*model.CrawlJob, error)
	MarkDone(ctx context.Context, seq int64) error
	MarkFailed(ctx context.Context, seq int64, cause error) error
}

// KeyValueStore records run metadata.
type KeyValueStore interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, bool, error)
}
