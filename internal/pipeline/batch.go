package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Ferruolo/menuscan/internal/model"
)

// DefaultConcurrency is the number of businesses crawled at once.
const DefaultConcurrency = 4

// defaultSeedEstimate sizes the seed filter when the batch size is unknown.
const defaultSeedEstimate = 10000

// seedFalsePositiveRate is the seed filter's target false-positive rate.
const seedFalsePositiveRate = 0.0001

// reasonDuplicate is the skip reason for a website seen earlier in the run.
const reasonDuplicate = "duplicate website in batch"

// Summary describes a finished batch run.
type Summary struct {
	RunID      string
	Total      int
	Done       int
	Failed     int
	Skipped    int
	Duplicates int
	Elapsed    time.Duration
}

// BatchProcessor crawls many businesses concurrently, one fresh Pipeline per
// business.
// Work comes either from an in-memory list (Process) or from a WorkQueue
// (ProcessQueue).
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each business so that no
	// crawl state leaks between businesses.
	pipelineFactory func() *Pipeline

	concurrency int
	logger      *slog.Logger
	runs        KeyValueStore

	// seeds remembers the websites already handed out in this run.
	seeds   *bloom.BloomFilter
	seedsMu sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent crawls.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithRunStore records run start, finish and counts in kv.
func WithRunStore(kv KeyValueStore) BatchOption {
	return func(b *BatchProcessor) {
		b.runs = kv
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch crawls businesses concurrently and returns one Job per
// business in input order. Businesses whose website was already seen earlier
// in the list are skipped.
//
// The error is non-nil only when the batch was cancelled; per-business
// failures are recorded in the jobs.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, businesses []model.Business) ([]*Job, Summary, error) {
	runID := bp.startRun(ctx, len(businesses))
	start := time.Now()

	jobs := make([]*Job, len(businesses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, b := range businesses {
		job := &Job{RunID: runID, Business: b}
		jobs[i] = job

		if bp.seenSeed(b.Website) {
			job.Skip(reasonDuplicate)
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			bp.logger.Info("crawling business",
				"business_id", b.ID,
				"website", b.Website,
				"index", i+1,
				"total", len(businesses),
			)

			_ = bp.pipelineFactory().Execute(gctx, job) //nolint:errcheck // recorded in job.Err
			if gctx.Err() != nil {
				return gctx.Err()
			}
			bp.logJob(job)
			return nil
		})
	}

	err := g.Wait()

	summary := summarize(runID, jobs, time.Since(start))
	bp.finishRun(ctx, summary)
	return jobs, summary, err
}

// ProcessQueue drains q, crawling up to the concurrency limit at once.
// Jobs interrupted by cancellation are left running in the queue so that a
// later run can reset and resume them.
func (bp *BatchProcessor) ProcessQueue(ctx context.Context, q WorkQueue) (Summary, error) {
	runID := bp.startRun(ctx, 0)
	start := time.Now()

	var (
		mu   sync.Mutex
		jobs []*Job
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	var loopErr error
	for gctx.Err() == nil {
		cj, err := q.NextPending(gctx)
		if err != nil {
			loopErr = fmt.Errorf("failed to read work queue: %w", err)
			break
		}
		if cj == nil {
			break
		}

		job := &Job{RunID: runID, Seq: cj.Seq, Business: cj.Business}
		mu.Lock()
		jobs = append(jobs, job)
		mu.Unlock()

		if bp.seenSeed(job.Business.Website) {
			job.Skip(reasonDuplicate)
			if err := q.MarkDone(gctx, job.Seq); err != nil {
				loopErr = err
				break
			}
			continue
		}

		// g.Go blocks while the limit is reached, which keeps NextPending
		// from claiming more jobs than can run.
		g.Go(func() error {
			_ = bp.pipelineFactory().Execute(gctx, job) //nolint:errcheck // recorded in job.Err
			if gctx.Err() != nil {
				return gctx.Err()
			}
			bp.logJob(job)

			if job.Err != nil {
				if merr := q.MarkFailed(gctx, job.Seq, job.Err); merr != nil {
					return merr
				}
				return nil
			}
			return q.MarkDone(gctx, job.Seq)
		})
	}

	err := g.Wait()
	if err == nil {
		err = loopErr
	}
	if err == nil {
		err = ctx.Err()
	}

	mu.Lock()
	summary := summarize(runID, jobs, time.Since(start))
	mu.Unlock()
	bp.finishRun(ctx, summary)

	return summary, err
}

// seenSeed reports whether website was already handed out in this
// processor's lifetime, recording it if not.
func (bp *BatchProcessor) seenSeed(website string) bool {
	bp.seedsMu.Lock()
	defer bp.seedsMu.Unlock()

	if bp.seeds == nil {
		bp.seeds = bloom.NewWithEstimates(defaultSeedEstimate, seedFalsePositiveRate)
	}
	return bp.seeds.TestAndAddString(seedKey(website))
}

// seedKey reduces a website to the form used for duplicate detection:
// lowercase host, no "www.", no trailing slash, scheme ignored.
func seedKey(website string) string {
	s := strings.TrimSpace(website)
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimRight(s, "/"))
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	p := strings.TrimRight(u.EscapedPath(), "/")
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return host + p
}

func (bp *BatchProcessor) logJob(job *Job) {
	switch {
	case job.Err != nil:
		bp.logger.Warn("crawl failed",
			"business_id", job.Business.ID,
			"error", job.Err,
		)
	case job.Skipped:
		bp.logger.Info("crawl skipped",
			"business_id", job.Business.ID,
			"reason", job.SkipReason,
		)
	default:
		visited := 0
		if job.Result != nil {
			visited = len(job.Result.URLs)
		}
		bp.logger.Info("crawl completed",
			"business_id", job.Business.ID,
			"visited", visited,
			"elapsed", job.Elapsed,
		)
	}
}

func (bp *BatchProcessor) startRun(ctx context.Context, total int) string {
	runID := uuid.NewString()
	bp.logger.Info("starting batch processing",
		"run_id", runID,
		"total", total,
		"concurrency", bp.concurrency,
	)

	if bp.runs != nil {
		if err := bp.runs.Put(ctx, "run:"+runID+":started", time.Now().UTC().Format(time.RFC3339)); err != nil {
			bp.logger.Warn("failed to record run start", "run_id", runID, "error", err)
		}
		if err := bp.runs.Put(ctx, "last_run_id", runID); err != nil {
			bp.logger.Warn("failed to record run id", "run_id", runID, "error", err)
		}
	}
	return runID
}

func (bp *BatchProcessor) finishRun(ctx context.Context, s Summary) {
	bp.logger.Info("batch processing complete",
		"run_id", s.RunID,
		"total", s.Total,
		"done", s.Done,
		"failed", s.Failed,
		"skipped", s.Skipped,
		"elapsed", s.Elapsed,
	)

	if bp.runs == nil {
		return
	}
	// The run's own context may be cancelled; the record is still wanted.
	ctx = context.WithoutCancel(ctx)
	value := fmt.Sprintf("done=%d failed=%d skipped=%d elapsed=%s", s.Done, s.Failed, s.Skipped, s.Elapsed.Round(time.Millisecond))
	if err := bp.runs.Put(ctx, "run:"+s.RunID+":finished", value); err != nil {
		bp.logger.Warn("failed to record run summary", "run_id", s.RunID, "error", err)
	}
}

func summarize(runID string, jobs []*Job, elapsed time.Duration) Summary {
	s := Summary{RunID: runID, Total: len(jobs), Elapsed: elapsed}
	for _, j := range jobs {
		switch {
		case j.Skipped && j.SkipReason == reasonDuplicate:
			s.Duplicates++
			s.Skipped++
		case j.Skipped:
			s.Skipped++
		case j.Err != nil:
			s.Failed++
		case j.Result != nil:
			s.Done++
		}
	}
	return s
}
