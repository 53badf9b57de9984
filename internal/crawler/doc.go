// Package crawler traverses a restaurant's website and aggregates its text.
//
// # Architecture
//
// The package is designed around the Spider type, which runs one crawl
// session per call to Crawl. A session owns a frontier of pending URLs, a
// membership filter recording every URL ever admitted, and a text
// accumulator. Sessions share nothing, so a batch driver may run many of
// them concurrently with the same Spider.
//
// Each session is single-threaded: a URL is fetched, extracted and mined for
// links before the next one is popped. Cancellation and the optional time
// budget are checked between pops; an aborted session still returns the
// text gathered so far.
//
// # Components
//
//   - Spider: configuration and the Crawl entry point
//   - Normalize: turns raw hrefs into absolute URLs against the site origin
//   - Scope: decides which URLs belong to the site
//
// # Termination
//
// A URL is pushed only if the membership filter has not seen it, and the
// filter has a fixed number of bits. Once it saturates, every new URL looks
// already seen, so even very large sites produce a bounded crawl. That
// bound trades completeness for a guaranteed end.
//
// # Usage
//
//	f := fetch.NewHTTPFetcher(client)
//	spider := crawler.NewSpider(f, crawler.WithBound(200))
//	result, err := spider.Crawl(ctx, "https://example-restaurant.com")
package crawler
