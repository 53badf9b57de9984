package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/Ferruolo/menuscan/internal/metrics"
)

// DefaultUserAgent is a desktop Chrome user agent. Restaurant hosting
// platforms commonly serve bot user agents a stripped or blocked page.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultMaxBodySize limits how much of a response body is read.
const DefaultMaxBodySize = 20 * 1024 * 1024 // 20MB

// Response is a fetched resource.
type Response struct {
	// URL is the final URL after redirects.
	URL string

	// StatusCode is the HTTP status of the final response.
	StatusCode int

	// ContentType is the raw Content-Type header.
	ContentType string

	// Header holds all response headers.
	Header http.Header

	// Body is the response body, truncated to the fetcher's limit.
	// Empty for HEAD requests.
	Body []byte
}

// Fetcher retrieves resources. The crawl loop depends only on this
// interface so a browser-backed implementation can stand in for HTTP.
type Fetcher interface {
	// Fetch retrieves url with GET.
	Fetch(ctx context.Context, url string) (*Response, error)

	// Head retrieves only the headers of url.
	Head(ctx context.Context, url string) (*Response, error)
}

// HTTPFetcher fetches over HTTP with a bounded retry policy.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	headers     map[string]string
	retry       RetryPolicy
	maxBodySize int64
	limiter     *rate.Limiter
	logger      *slog.Logger
	metrics     *metrics.Recorder
	sleeper     sleeper
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithHeaders adds headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *HTTPFetcher) {
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(f *HTTPFetcher) {
		f.retry = p
	}
}

// WithMaxBodySize limits the number of body bytes read per response.
func WithMaxBodySize(n int64) Option {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithRateLimit spaces requests to at most rps per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(f *HTTPFetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// WithMetrics records fetch outcomes and retries.
func WithMetrics(m *metrics.Recorder) Option {
	return func(f *HTTPFetcher) {
		f.metrics = m
	}
}

// NewHTTPFetcher creates a fetcher using client. A nil client uses
// http.DefaultClient.
func NewHTTPFetcher(client *http.Client, opts ...Option) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}

	f := &HTTPFetcher{
		client:      client,
		userAgent:   DefaultUserAgent,
		headers:     make(map[string]string),
		retry:       DefaultRetryPolicy(),
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
		sleeper:     timerSleeper{},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch issues a GET for rawURL. Statuses 429/500/502/503/504 and transport
// errors are retried under the retry policy; other 4xx/5xx statuses fail
// immediately. Every returned error wraps ErrFetchFailed.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	var resp *Response

	attempts, err := f.retry.do(ctx, func(_ int) error {
		r, err := f.do(ctx, http.MethodGet, rawURL)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}, func(attempt int, err error) {
		f.metrics.Retry()
		f.logger.Debug("retrying fetch",
			"url", rawURL,
			"attempt", attempt+1,
			"error", err,
		)
	}, f.sleeper)

	if err != nil {
		f.metrics.Fetch(false)
		return nil, fmt.Errorf("%w: %s after %d attempt(s): %w", ErrFetchFailed, rawURL, attempts, err)
	}

	f.metrics.Fetch(true)
	return resp, nil
}

// Head issues a single HEAD request for rawURL without retries.
func (f *HTTPFetcher) Head(ctx context.Context, rawURL string) (*Response, error) {
	resp, err := f.do(ctx, http.MethodHead, rawURL)
	if err != nil {
		var perm *permanentError
		if errors.As(err, &perm) {
			err = perm.err
		}
		return nil, fmt.Errorf("%w: HEAD %s: %w", ErrFetchFailed, rawURL, err)
	}
	return resp, nil
}

// do performs one request. Errors that must not be retried are wrapped
// with Permanent.
func (f *HTTPFetcher) do(ctx context.Context, method, rawURL string) (*Response, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, Permanent(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, Permanent(err)
	}
	f.setHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, Permanent(err)
		}
		var uerr *url.Error
		if errors.As(err, &uerr) && strings.Contains(uerr.Err.Error(), "unsupported protocol scheme") {
			return nil, Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // best effort

		serr := &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
		if serr.Retryable() {
			return nil, serr
		}
		return nil, Permanent(serr)
	}

	out := &Response{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Header:      resp.Header,
	}
	if resp.Request != nil && resp.Request.URL != nil {
		out.URL = resp.Request.URL.String()
	}

	if method == http.MethodHead {
		return out, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, err
	}
	out.Body = body

	return out, nil
}

func (f *HTTPFetcher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,application/pdf,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
}

// IsPDF reports whether rawURL points at a PDF document. It sniffs the
// Content-Type of a HEAD response and falls back to a ".pdf" suffix check
// when the HEAD request fails.
func IsPDF(ctx context.Context, f Fetcher, rawURL string) bool {
	resp, err := f.Head(ctx, rawURL)
	if err == nil && strings.Contains(strings.ToLower(resp.ContentType), "application/pdf") {
		return true
	}
	return HasPDFSuffix(rawURL)
}

// HasPDFSuffix reports whether the URL path ends in ".pdf", ignoring case,
// query and fragment.
func HasPDFSuffix(rawURL string) bool {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
	}
	return strings.HasSuffix(strings.ToLower(rawURL), ".pdf")
}
