package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Ferruolo/menuscan/internal/config"
	"github.com/Ferruolo/menuscan/internal/database"
	"github.com/Ferruolo/menuscan/internal/model"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [business-id]",
		Short: "Show stored crawl results",
		Long: `Show prints a stored crawl result from the database. Without a business
ID it lists every business with a stored result and the state of the work
queue.

Examples:
  # List crawled businesses
  menuscan show

  # Print the stored text of one business
  menuscan show luigis

  # Export it as JSON
  menuscan show --json luigis`,
		Args: cobra.MaximumNArgs(1),
		RunE: runShowCmd,
	}

	cmd.Flags().String("db-dir", "", "Database directory (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false, "Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().Bool("summary", false, "Omit the aggregated text from the report")

	return cmd
}

// runShowCmd executes the show command.
func runShowCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}
	summary, err := cmd.Flags().GetBool("summary")
	if err != nil {
		return err
	}
	cfg.Verbose = getBoolFlag(cmd, "verbose")

	db, err := database.Open(cfg.DBDir, database.Options{})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return listStored(ctx, db, out)
	}
	return showStored(ctx, db, cfg, args[0], !summary, out)
}

func listStored(ctx context.Context, db *database.CrawlDB, out io.Writer) error {
	ids, err := db.ListCrawledBusinesses(ctx)
	if err != nil {
		return err
	}
	counts, err := db.JobCounts(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Stored results: %d\n", len(ids))
	for _, id := range ids {
		fmt.Fprintf(out, "  %s\n", id)
	}
	fmt.Fprintf(out, "Work queue: pending=%d running=%d done=%d failed=%d\n",
		counts[model.JobPending], counts[model.JobRunning], counts[model.JobDone], counts[model.JobFailed])
	return nil
}

func showStored(ctx context.Context, db *database.CrawlDB, cfg *config.Config, id string, showText bool, out io.Writer) error {
	result, err := db.GetCrawlResult(ctx, id)
	if err != nil {
		return err
	}
	if result == nil {
		job, err := db.GetJob(ctx, id)
		if err != nil {
			return err
		}
		if job != nil && job.Error != "" {
			return fmt.Errorf("no stored result for %s: last attempt %s: %s", id, job.Status, job.Error)
		}
		return fmt.Errorf("no stored result for %s", id)
	}

	if len(result.Pages) == 0 {
		if result.Pages, err = db.GetPages(ctx, id); err != nil {
			return err
		}
	}

	_, err = newReportWriter(cfg, out, showText, true).Write(result)
	return err
}
