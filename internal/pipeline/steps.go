package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ferruolo/menuscan/internal/crawler"
)

// CrawlStep crawls the business website.
//
// A crawl that ran out of its time budget still yields a usable partial
// result; the step keeps it and succeeds. Only cancellation of the batch
// itself or an unusable seed fail the step.
type CrawlStep struct {
	crawler Crawler
	logger  *slog.Logger
}

// NewCrawlStep creates a CrawlStep.
func NewCrawlStep(c Crawler, logger *slog.Logger) *CrawlStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CrawlStep{crawler: c, logger: logger}
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl.
func (s *CrawlStep) Do(ctx context.Context, job *Job) error {
	result, err := s.crawler.Crawl(ctx, job.Business.Website)
	job.Result = result

	switch {
	case err == nil:
		return nil
	case errors.Is(err, crawler.ErrCrawlAborted) && ctx.Err() == nil && result != nil:
		s.logger.Warn("crawl budget exhausted, keeping partial text",
			"business_id", job.Business.ID,
			"visited", len(result.URLs),
		)
		return nil
	default:
		return fmt.Errorf("crawl %s: %w", job.Business.Website, err)
	}
}

// StoreStep saves the crawl result.
type StoreStep struct {
	store ResultStore
}

// NewStoreStep creates a StoreStep.
func NewStoreStep(store ResultStore) *StoreStep {
	return &StoreStep{store: store}
}

// Name returns the step name.
func (s *StoreStep) Name() string {
	return "store"
}

// Do saves job.Result. A job without a result is left alone.
func (s *StoreStep) Do(ctx context.Context, job *Job) error {
	if job.Result == nil {
		return nil
	}
	if err := s.store.SaveCrawlResult(ctx, job.Business.ID, job.Result); err != nil {
		return fmt.Errorf("store %s: %w", job.Business.ID, err)
	}
	return nil
}

// SkipRecentStep skips businesses crawled within a window.
type SkipRecentStep struct {
	checker RecentChecker
	within  time.Duration
}

// NewSkipRecentStep creates a SkipRecentStep.
func NewSkipRecentStep(checker RecentChecker, within time.Duration) *SkipRecentStep {
	return &SkipRecentStep{checker: checker, within: within}
}

// Name returns the step name.
func (s *SkipRecentStep) Name() string {
	return "skip_recent"
}

// Do marks the job skipped when the business has a recent result.
func (s *SkipRecentStep) Do(ctx context.Context, job *Job) error {
	recent, err := s.checker.HasRecentCrawl(ctx, job.Business.ID, s.within)
	if err != nil {
		return fmt.Errorf("check recent crawl: %w", err)
	}
	if recent {
		job.Skip(fmt.Sprintf("crawled within %s", s.within))
	}
	return nil
}
