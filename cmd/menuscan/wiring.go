package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ferruolo/menuscan/internal/browser"
	"github.com/Ferruolo/menuscan/internal/config"
	"github.com/Ferruolo/menuscan/internal/crawler"
	"github.com/Ferruolo/menuscan/internal/extract"
	"github.com/Ferruolo/menuscan/internal/fetch"
	"github.com/Ferruolo/menuscan/internal/frontier"
	"github.com/Ferruolo/menuscan/internal/metrics"
	"github.com/Ferruolo/menuscan/internal/model"
	"github.com/Ferruolo/menuscan/internal/report"
)

// siteCrawler builds a Spider per seed so that every site gets its own
// overrides from the configuration file. It implements pipeline.Crawler.
type siteCrawler struct {
	cfg      *config.Config
	client   *http.Client
	renderer browser.Renderer
	recorder *metrics.Recorder
	logger   *slog.Logger
}

// newSiteCrawler creates the HTTP client (and the browser when requested)
// shared by all sites. The returned close function releases the browser.
func newSiteCrawler(cfg *config.Config, recorder *metrics.Recorder, logger *slog.Logger) (*siteCrawler, func(), error) {
	client, err := fetch.NewHTTPClient(cfg.Timeout, cfg.ProxyURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	sc := &siteCrawler{
		cfg:      cfg,
		client:   client,
		recorder: recorder,
		logger:   logger,
	}

	closeFn := func() {}
	if cfg.UseBrowser {
		chromeOpts := []browser.ChromeOption{
			browser.WithBrowserUserAgent(cfg.UserAgent),
			browser.WithRenderTimeout(cfg.Timeout),
		}
		if cfg.ProxyURL != "" {
			chromeOpts = append(chromeOpts, browser.WithProxy(cfg.ProxyURL))
		}
		if cfg.ChromePath != "" {
			chromeOpts = append(chromeOpts, browser.WithExecPath(cfg.ChromePath))
		}
		r := browser.NewChromeRenderer(chromeOpts...)
		sc.renderer = r
		closeFn = func() { _ = r.Close() }
	}

	return sc, closeFn, nil
}

// Crawl crawls seed with the site's effective configuration.
func (c *siteCrawler) Crawl(ctx context.Context, seed string) (*model.CrawlResult, error) {
	return c.spiderFor(seed).Crawl(ctx, seed)
}

func (c *siteCrawler) siteConfig(seed string) config.SiteConfig {
	if c.cfg.SiteConfigs == nil {
		return config.SiteConfig{}
	}
	return c.cfg.SiteConfigs.GetSiteConfig(seed)
}

func (c *siteCrawler) fetcherFor(sc config.SiteConfig) fetch.Fetcher {
	retry := fetch.DefaultRetryPolicy()
	retry.MaxAttempts = c.cfg.MaxAttempts

	opts := []fetch.Option{
		fetch.WithUserAgent(c.cfg.UserAgent),
		fetch.WithRetryPolicy(retry),
		fetch.WithMaxBodySize(c.cfg.MaxBodySize),
		fetch.WithLogger(c.logger),
		fetch.WithMetrics(c.recorder),
	}
	if len(sc.Headers) > 0 {
		opts = append(opts, fetch.WithHeaders(sc.Headers))
	}
	if c.cfg.RateLimit > 0 {
		opts = append(opts, fetch.WithRateLimit(c.cfg.RateLimit, 1))
	}

	var f fetch.Fetcher = fetch.NewHTTPFetcher(c.client, opts...)
	if c.renderer != nil {
		f = browser.NewFetcher(f, c.renderer, browser.WithLogger(c.logger))
	}
	return f
}

func (c *siteCrawler) spiderFor(seed string) *crawler.Spider {
	sc := c.siteConfig(seed)

	order := c.cfg.TraversalOrder()
	if sc.Order != "" {
		if o, err := frontier.ParseOrder(sc.Order); err == nil {
			order = o
		}
	}
	bound := c.cfg.Bound
	if sc.Bound > 0 {
		bound = sc.Bound
	}
	maxPages := c.cfg.MaxPages
	if sc.MaxPages > 0 {
		maxPages = sc.MaxPages
	}

	opts := []crawler.SpiderOption{
		crawler.WithOrder(order),
		crawler.WithBound(bound),
		crawler.WithFilterMode(c.cfg.MembershipMode()),
		crawler.WithBudget(c.cfg.Budget),
		crawler.WithDelay(c.cfg.CrawlDelay),
		crawler.WithMaxPages(maxPages),
		crawler.WithIgnorePatterns(sc.IgnorePatterns),
		crawler.WithFollowPatterns(sc.FollowPatterns),
		crawler.WithFollowImages(!sc.SkipsImages(c.cfg.SkipImages)),
		crawler.WithRecognizer(extract.TesseractRecognizer{
			Path:     c.cfg.TesseractPath,
			Language: c.cfg.OCRLanguage,
		}),
		crawler.WithRobots(c.cfg.Robots),
		crawler.WithLogger(c.logger),
		crawler.WithMetrics(c.recorder),
	}
	if sc.AllowedOrigins != nil {
		opts = append(opts, crawler.WithAllowedOrigins(sc.AllowedOrigins))
	}
	if sc.ReservationOrigins != nil {
		opts = append(opts, crawler.WithReservationOrigins(sc.ReservationOrigins))
	}

	return crawler.NewSpider(c.fetcherFor(sc), opts...)
}

// startMetrics creates a metrics recorder on a fresh registry and, when addr
// is set, serves it until the returned stop function is called.
func startMetrics(addr string, logger *slog.Logger) (*metrics.Recorder, func(), error) {
	reg := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(reg)
	if addr == "" {
		return recorder, func() {}, nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return recorder, stop, nil
}

// openReportOutput returns stdout or the report file named in cfg.
func openReportOutput(cfg *config.Config, stdout io.Writer) (io.Writer, func() error, error) {
	if cfg.ReportFile == "" {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// openReport returns the report writer for cfg. When the report goes to a
// file, a plain summary without the text is also printed to stdout.
func openReport(cfg *config.Config, stdout io.Writer, showText, pretty bool) (report.Writer, func() error, error) {
	out, closeOut, err := openReportOutput(cfg, stdout)
	if err != nil {
		return nil, nil, err
	}

	w := newReportWriter(cfg, out, showText, pretty)
	if cfg.ReportFile != "" {
		w = report.NewMultiWriter(w, report.NewSimpleWriter(stdout))
	}
	return w, closeOut, nil
}

// newReportWriter selects the report format requested in cfg.
func newReportWriter(cfg *config.Config, out io.Writer, showText, pretty bool) report.Writer {
	switch {
	case cfg.JSONReport:
		var opts []report.JSONWriterOption
		if pretty {
			opts = append(opts, report.WithPrettyPrint())
		}
		opts = append(opts, report.WithOmitText(!showText))
		return report.NewFullJSONWriter(out, getVersion(), opts...)
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out, report.WithMarkdownText(showText))
	default:
		return report.NewSimpleWriter(out, report.WithShowText(showText), report.WithVerbose(cfg.Verbose))
	}
}
