// Package fetch retrieves pages and documents for the crawler.
//
// HTTPFetcher issues GET requests with a desktop browser User-Agent, since
// several restaurant hosting platforms serve bots a stripped page. Transient
// failures (transport errors and statuses 429, 500, 502, 503 and 504) are
// retried with exponential backoff; any other 4xx or 5xx status fails
// immediately. Every failure returned to callers wraps ErrFetchFailed so the
// crawl loop can record it against the URL and move on.
//
// The crawl loop only depends on the Fetcher interface. Alternative
// implementations (a headless browser, a test double) plug in there.
//
// Usage:
//
//	client, err := fetch.NewHTTPClient(30*time.Second, "")
//	if err != nil {
//	    return err
//	}
//	f := fetch.NewHTTPFetcher(client, fetch.WithRateLimit(2, 1))
//	resp, err := f.Fetch(ctx, "https://example.com/menu")
package fetch
