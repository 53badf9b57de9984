package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Ferruolo/menuscan/internal/config"
	"github.com/Ferruolo/menuscan/internal/crawler"
	"github.com/Ferruolo/menuscan/internal/database"
	"github.com/Ferruolo/menuscan/internal/model"
	"github.com/Ferruolo/menuscan/internal/pipeline"
	"github.com/Ferruolo/menuscan/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl one or more restaurant websites",
		Long: `Crawl traverses each website within its own origin and prints the
aggregated text of its pages, PDF menus and menu photos.

Examples:
  # Crawl a single site
  menuscan crawl https://luigis.com

  # Depth-first, stopping after 50 URLs
  menuscan crawl --order dfs --max-pages 50 https://luigis.com

  # Render JavaScript-heavy pages in headless Chrome
  menuscan crawl --browser https://luigis.com

  # Output JSON report to a file
  menuscan crawl --json -o out/luigis.json https://luigis.com

  # Crawl several sites, four at a time
  menuscan crawl --batch 4 https://luigis.com https://marios.com`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	addCrawlFlags(cmd)
	cmd.Flags().IntP("batch", "b", 1, "Number of concurrent crawls")
	cmd.Flags().Bool("summary", false, "Omit the aggregated text from the report")
	cmd.Flags().Bool("no-save", false, "Do not store results in the database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.BatchSize, err = cmd.Flags().GetInt("batch"); err != nil {
		return err
	}
	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return err
	}
	cfg.SaveToDB = !noSave

	summary, err := cmd.Flags().GetBool("summary")
	if err != nil {
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

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), !summary, logger)
}

// businessesFromTargets turns seed URLs into ad-hoc businesses keyed by
// their origin host.
func businessesFromTargets(targets []string) []model.Business {
	businesses := make([]model.Business, 0, len(targets))
	for _, t := range targets {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !strings.Contains(t, "://") {
			t = "https://" + t
		}
		id := t
		if origin, ok := crawler.Origin(t); ok {
			host := strings.ToLower(origin[strings.Index(origin, "://")+3:])
			id = strings.TrimPrefix(host, "www.")
		}
		businesses = append(businesses, model.Business{ID: id, Website: t})
	}
	return businesses
}

// runCrawl crawls cfg.Targets and writes one report per site.
func runCrawl(ctx context.Context, cfg *config.Config, stdout io.Writer, showText bool, logger *slog.Logger) error {
	businesses := businessesFromTargets(cfg.Targets)
	if len(businesses) == 0 {
		return config.ErrNoTarget
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

	var db *database.CrawlDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	factory := func() *pipeline.Pipeline {
		p := pipeline.New(pipeline.WithLogger(logger))
		p.AddStep(pipeline.NewCrawlStep(sc, logger))
		if db != nil {
			p.AddStep(pipeline.NewStoreStep(db))
		}
		return p
	}

	batchOpts := []pipeline.BatchOption{
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	}
	if db != nil {
		batchOpts = append(batchOpts, pipeline.WithRunStore(db))
	}
	bp := pipeline.NewBatchProcessor(factory, batchOpts...)

	jobs, summary, batchErr := bp.ProcessBatch(ctx, businesses)

	w, closeOut, err := openReport(cfg, stdout, showText, len(businesses) == 1)
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck // best effort on error paths

	for _, job := range jobs {
		if job.Result == nil {
			continue
		}
		if _, err := w.Write(job.Result); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	if len(businesses) > 1 {
		if _, err := w.WriteBatch(batchReport(summary, jobs)); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if batchErr != nil {
		if errors.Is(batchErr, context.Canceled) {
			return errors.New("crawl interrupted")
		}
		return batchErr
	}
	if summary.Failed > 0 {
		for _, job := range jobs {
			if job.Err != nil {
				fmt.Fprintf(os.Stderr, "Crawl error for %s: %v\n", job.Business.Website, job.Err)
			}
		}
		if summary.Failed == len(jobs) {
			return fmt.Errorf("all %d crawl(s) failed", summary.Failed)
		}
	}
	return closeOut()
}

// batchReport converts pipeline jobs into a report.
func batchReport(s pipeline.Summary, jobs []*pipeline.Job) *report.BatchReport {
	br := &report.BatchReport{
		RunID:   s.RunID,
		Total:   s.Total,
		Done:    s.Done,
		Failed:  s.Failed,
		Skipped: s.Skipped,
		Elapsed: s.Elapsed,
	}
	for _, job := range jobs {
		e := report.BatchEntry{
			BusinessID: job.Business.ID,
			Website:    job.Business.Website,
		}
		switch {
		case job.Skipped:
			e.Status = "skipped"
			e.Detail = job.SkipReason
		case job.Err != nil:
			e.Status = "failed"
			e.Detail = job.Err.Error()
		default:
			e.Status = "done"
		}
		if job.Result != nil {
			e.Visited = job.Result.Visited()
			e.Failures = len(job.Result.Failures)
			e.Partial = !job.Result.Completed()
		}
		br.Entries = append(br.Entries, e)
	}
	return br
}
