package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/Ferruolo/menuscan/internal/fetch"
)

// DefaultWaitTime is how long a page may keep running scripts after the
// body is ready.
const DefaultWaitTime = 2 * time.Second

// DefaultRenderTimeout bounds one page render.
const DefaultRenderTimeout = 30 * time.Second

// ErrBrowserClosed is returned by Render after Close.
var ErrBrowserClosed = errors.New("browser closed")

// Renderer returns the rendered outer HTML of a page.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// ChromeRenderer renders pages in one shared headless Chrome instance,
// opening a new tab per page.
type ChromeRenderer struct {
	browserCtx    context.Context
	cancel        context.CancelFunc
	waitTime      time.Duration
	renderTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// ChromeOption configures a ChromeRenderer.
type ChromeOption func(*chromeConfig)

type chromeConfig struct {
	execPath      string
	userAgent     string
	proxy         string
	waitTime      time.Duration
	renderTimeout time.Duration
}

// WithExecPath sets the Chrome binary. Empty lets chromedp search for one.
func WithExecPath(path string) ChromeOption {
	return func(c *chromeConfig) {
		c.execPath = path
	}
}

// WithBrowserUserAgent sets the User-Agent the browser sends.
func WithBrowserUserAgent(ua string) ChromeOption {
	return func(c *chromeConfig) {
		c.userAgent = ua
	}
}

// WithProxy routes browser traffic through a proxy server.
func WithProxy(proxyURL string) ChromeOption {
	return func(c *chromeConfig) {
		c.proxy = proxyURL
	}
}

// WithWaitTime sets how long to let scripts run after the body is ready.
func WithWaitTime(d time.Duration) ChromeOption {
	return func(c *chromeConfig) {
		if d >= 0 {
			c.waitTime = d
		}
	}
}

// WithRenderTimeout bounds each render.
func WithRenderTimeout(d time.Duration) ChromeOption {
	return func(c *chromeConfig) {
		if d > 0 {
			c.renderTimeout = d
		}
	}
}

// NewChromeRenderer starts a headless Chrome allocator. Chrome itself is
// launched lazily by the first render. The returned renderer must be closed.
func NewChromeRenderer(opts ...ChromeOption) *ChromeRenderer {
	cfg := chromeConfig{
		userAgent:     fetch.DefaultUserAgent,
		waitTime:      DefaultWaitTime,
		renderTimeout: DefaultRenderTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
		chromedp.UserAgent(cfg.userAgent),
	)
	if cfg.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.execPath))
	}
	if cfg.proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(cfg.proxy))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	return &ChromeRenderer{
		browserCtx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		waitTime:      cfg.waitTime,
		renderTimeout: cfg.renderTimeout,
	}
}

// Render navigates a fresh tab to url and returns the document's outer HTML.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return "", ErrBrowserClosed
	}

	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()

	timeoutCtx, cancelTimeout := context.WithTimeout(tabCtx, r.renderTimeout)
	defer cancelTimeout()

	// Tie the tab to the caller's context as well.
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	tasks := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	}
	if r.waitTime > 0 {
		tasks = append(tasks, chromedp.Sleep(r.waitTime))
	}

	var html string
	tasks = append(tasks, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}

// Close shuts the browser down.
func (r *ChromeRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closed = true
		r.cancel()
	}
	return nil
}

// Fetcher fetches every resource through an underlying fetcher and replaces
// the body of HTML responses with the rendered DOM.
type Fetcher struct {
	http     fetch.Fetcher
	renderer Renderer
	logger   *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher that renders HTML with renderer and fetches
// everything else with httpFetcher.
func NewFetcher(httpFetcher fetch.Fetcher, renderer Renderer, opts ...Option) *Fetcher {
	f := &Fetcher{
		http:     httpFetcher,
		renderer: renderer,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves url. HTML responses are re-rendered in the browser; when
// rendering fails the static HTML is kept.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*fetch.Response, error) {
	resp, err := f.http.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if !isHTML(resp.ContentType) {
		return resp, nil
	}

	rendered, err := f.renderer.Render(ctx, resp.URL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", fetch.ErrFetchFailed, ctx.Err())
		}
		f.logger.Debug("browser render failed, keeping static HTML", "url", resp.URL, "error", err)
		return resp, nil
	}

	out := *resp
	out.Body = []byte(rendered)
	return &out, nil
}

// Head delegates to the underlying fetcher.
func (f *Fetcher) Head(ctx context.Context, url string) (*fetch.Response, error) {
	return f.http.Head(ctx, url)
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
