package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for menuscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menuscan",
		Short: "Crawl restaurant websites and collect their menu text",
		Long: `menuscan crawls a restaurant's website within its own origin and
collects the text of every page it can reach: HTML pages, PDF menus and
menu photos (through tesseract OCR).

Reservation widgets are cited but never fetched. Results are stored in a
local sqlite database so that large batches can be interrupted and resumed.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewBatchCmd())
	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
