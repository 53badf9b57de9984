package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ferruolo/menuscan/internal/config"
	"github.com/Ferruolo/menuscan/internal/database"
	"github.com/Ferruolo/menuscan/internal/model"
	"github.com/Ferruolo/menuscan/internal/pipeline"
	"github.com/Ferruolo/menuscan/internal/report"
)

// maxJobAttempts is how many runs may try a business before --retry-failed
// leaves it failed.
const maxJobAttempts = 3

// batchOptions are the batch-only flags.
type batchOptions struct {
	skipRecent  time.Duration
	retryFailed bool
}

// NewBatchCmd creates the batch command.
func NewBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Crawl a list of businesses with a resumable work queue",
		Long: `Batch reads a "business_id,url" CSV file, adds every business to the
work queue in the database and crawls them concurrently. Each result is
stored as soon as its crawl finishes.

An interrupted batch can be resumed by running the same command again:
businesses already done are not crawled twice, and crawls that were in
progress when the run stopped are started over.

Examples:
  # Crawl every business in the list, eight at a time
  menuscan batch --list businesses.csv --batch 8

  # Skip businesses crawled within the last week and expose metrics
  menuscan batch --list businesses.csv --skip-recent 168h --metrics-addr :9090

  # Give failed businesses another try
  menuscan batch --list businesses.csv --retry-failed`,
		Args: cobra.NoArgs,
		RunE: runBatchCmd,
	}

	addCrawlFlags(cmd)
	cmd.Flags().StringP("list", "l", "", "CSV file of business_id,url rows (required)")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize, "Number of concurrent crawls")
	cmd.Flags().Duration("skip-recent", 0, "Skip businesses crawled within this duration")
	cmd.Flags().Bool("retry-failed", false, "Re-queue failed businesses that have attempts left")
	_ = cmd.MarkFlagRequired("list")

	return cmd
}

// runBatchCmd executes the batch command.
func runBatchCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd, nil)
	if err != nil {
		return err
	}
	if cfg.ListFile, err = cmd.Flags().GetString("list"); err != nil {
		return err
	}
	if cfg.BatchSize, err = cmd.Flags().GetInt("batch"); err != nil {
		return err
	}
	cfg.SaveToDB = true

	var opts batchOptions
	if opts.skipRecent, err = cmd.Flags().GetDuration("skip-recent"); err != nil {
		return err
	}
	if opts.retryFailed, err = cmd.Flags().GetBool("retry-failed"); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := setupLogger(cmd)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runBatch(ctx, cfg, opts, cmd.OutOrStdout(), logger)
}

// runBatch enqueues the business list and drains the work queue.
func runBatch(ctx context.Context, cfg *config.Config, opts batchOptions, stdout io.Writer, logger *slog.Logger) error {
	businesses, err := readBusinessList(cfg.ListFile)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := prepareQueue(ctx, db, businesses, maxJobAttempts, opts.retryFailed, logger); err != nil {
		return err
	}

	recorder, stopMetrics, err := startMetrics(cfg.MetricsAddr, logger)
	if err != nil {
		return err
	}
	defer stopMetrics()

	sc, closeBrowser, err := newSiteCrawler(cfg, recorder, logger)
	if err != nil {
		return err
	}
	defer closeBrowser()

	factory := func() *pipeline.Pipeline {
		p := pipeline.New(pipeline.WithLogger(logger))
		if opts.skipRecent > 0 {
			p.AddStep(pipeline.NewSkipRecentStep(db, opts.skipRecent))
		}
		p.AddSteps(pipeline.NewCrawlStep(sc, logger), pipeline.NewStoreStep(db))
		return p
	}

	bp := pipeline.NewBatchProcessor(factory,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
		pipeline.WithRunStore(db),
	)

	fmt.Fprintf(os.Stderr, "Crawling %d businesses (concurrency: %d)...\n", len(businesses), cfg.BatchSize)
	summary, runErr := bp.ProcessQueue(ctx, db)

	cursor, err := db.Cursor(context.WithoutCancel(ctx))
	if err != nil {
		logger.Warn("failed to read queue cursor", "error", err)
	}
	logger.Info("batch finished", "run_id", summary.RunID, "cursor", cursor)

	w, closeOut, err := openReport(cfg, stdout, false, true)
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck // best effort on error paths

	if _, err := w.WriteBatch(queueReport(summary)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("batch interrupted after queue position %d; run the command again to resume", cursor)
		}
		return runErr
	}
	return closeOut()
}

// prepareQueue adds new businesses to the work queue and recovers jobs left
// over from earlier runs.
func prepareQueue(ctx context.Context, db *database.CrawlDB, businesses []model.Business, maxAttempts int, retryFailed bool, logger *slog.Logger) error {
	added, err := db.Enqueue(ctx, businesses)
	if err != nil {
		return fmt.Errorf("failed to enqueue businesses: %w", err)
	}

	resumed, err := db.ResetRunning(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset interrupted jobs: %w", err)
	}

	retried := 0
	if retryFailed {
		if retried, err = db.RetryFailed(ctx, maxAttempts); err != nil {
			return fmt.Errorf("failed to re-queue failed jobs: %w", err)
		}
	}

	counts, err := db.JobCounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count jobs: %w", err)
	}

	logger.Info("work queue ready",
		"added", added,
		"resumed", resumed,
		"retried", retried,
		"pending", counts[model.JobPending],
		"done", counts[model.JobDone],
		"failed", counts[model.JobFailed],
	)
	return nil
}

// queueReport converts a queue run summary into a report.
func queueReport(s pipeline.Summary) *report.BatchReport {
	return &report.BatchReport{
		RunID:   s.RunID,
		Total:   s.Total,
		Done:    s.Done,
		Failed:  s.Failed,
		Skipped: s.Skipped,
		Elapsed: s.Elapsed,
	}
}
