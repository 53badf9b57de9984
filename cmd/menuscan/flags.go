package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ferruolo/menuscan/internal/config"
	applog "github.com/Ferruolo/menuscan/internal/log"
)

// addCrawlFlags registers the flags shared by crawl and batch.
func addCrawlFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	// Crawl behavior flags
	f.DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each request")
	f.Duration("budget", config.DefaultBudget, "Wall-clock budget per site (0 disables it)")
	f.Int("bound", config.DefaultBound, "Crawl-size bound that sizes the visited filter")
	f.String("order", config.DefaultOrder, "Traversal order: bfs or dfs")
	f.String("filter-mode", config.DefaultFilterMode, "Visited filter scheme: multi-probe or single-bit")
	f.IntP("max-pages", "p", 0, "Maximum URLs processed per site (0 means unlimited)")
	f.Int("retries", config.DefaultMaxAttempts, "Total attempts per fetch")
	f.Float64("rate-limit", 0, "Maximum requests per second per site (0 disables it)")
	f.Duration("delay", 0, "Delay between requests within a site")
	f.String("user-agent", config.DefaultUserAgent, "User-Agent header")
	f.Int64("max-body-size", config.DefaultMaxBodySize, "Maximum response body size in bytes")
	f.Bool("robots", false, "Honor robots.txt of each site")
	f.Bool("skip-images", false, "Do not OCR images referenced by pages")
	f.String("proxy", "", "Proxy URL (http://, https:// or socks5://)")

	// Rendering and OCR
	f.Bool("browser", false, "Render HTML pages in headless Chrome")
	f.String("chrome-path", "", "Path to the Chrome binary used by --browser (default: auto-detect)")
	f.String("tesseract", "", "Path to the tesseract binary (default: PATH lookup)")
	f.String("ocr-lang", "eng", "Tesseract language code")

	// Configuration and storage
	f.StringP("config", "c", "", "Configuration file path (default: .menuscan in current or home directory, then XDG config.yaml)")
	f.String("db-dir", "", "Database directory (default: XDG data directory)")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	// Report flags
	f.BoolP("json", "j", false, "Output JSON report (mutually exclusive with --markdown)")
	f.BoolP("markdown", "m", false, "Output Markdown report (mutually exclusive with --json)")
	f.StringP("output", "o", "", "Write report to specified file path (creates directories if needed)")
}

// buildConfig creates a Config from the shared crawl flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	f := cmd.Flags()

	var err error
	if cfg.Timeout, err = f.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.Budget, err = f.GetDuration("budget"); err != nil {
		return nil, err
	}
	if cfg.Bound, err = f.GetInt("bound"); err != nil {
		return nil, err
	}
	if cfg.Order, err = f.GetString("order"); err != nil {
		return nil, err
	}
	if cfg.FilterMode, err = f.GetString("filter-mode"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = f.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = f.GetInt("retries"); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = f.GetFloat64("rate-limit"); err != nil {
		return nil, err
	}
	if cfg.CrawlDelay, err = f.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = f.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = f.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.Robots, err = f.GetBool("robots"); err != nil {
		return nil, err
	}
	if cfg.SkipImages, err = f.GetBool("skip-images"); err != nil {
		return nil, err
	}
	if cfg.ProxyURL, err = f.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UseBrowser, err = f.GetBool("browser"); err != nil {
		return nil, err
	}
	if cfg.ChromePath, err = f.GetString("chrome-path"); err != nil {
		return nil, err
	}
	if cfg.TesseractPath, err = f.GetString("tesseract"); err != nil {
		return nil, err
	}
	if cfg.OCRLanguage, err = f.GetString("ocr-lang"); err != nil {
		return nil, err
	}
	if cfg.MetricsAddr, err = f.GetString("metrics-addr"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = f.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = f.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = f.GetString("output"); err != nil {
		return nil, err
	}

	dbDir, err := f.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	if cfg.ConfigFilePath, err = f.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.JSONLogs = getBoolFlag(cmd, "log-json")
	cfg.Targets = args

	return cfg, nil
}

// loadSiteConfigs loads the configuration file. An explicitly named file
// must exist; otherwise a missing file yields an empty configuration.
func loadSiteConfigs(path string) (*config.File, error) {
	found := config.FindConfigFile(path)
	if found == "" {
		if path != "" {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}

	cf, err := config.LoadConfigFile(found)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
	}
	return cf, nil
}

// getBoolFlag retrieves a flag from the command or the root's persistent
// flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// setupLogger creates the secure structured logger for a command.
func setupLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level := slog.LevelDebug
	if !getBoolFlag(cmd, "verbose") {
		name, err := cmd.Flags().GetString("log-level")
		if err != nil {
			name = ""
		}
		if level, err = applog.ParseLevel(name); err != nil {
			return nil, err
		}
	}

	return applog.New(os.Stderr, applog.Options{
		Level: level,
		JSON:  getBoolFlag(cmd, "log-json"),
	}), nil
}
