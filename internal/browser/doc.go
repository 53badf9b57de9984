// Package browser provides a fetch.Fetcher that renders HTML pages in
// headless Chrome through chromedp.
//
// Restaurant sites built on site builders often load their menus with
// JavaScript, so the raw HTML holds nothing but a loader. The browser
// fetcher lets the crawl see the rendered DOM while binary content such as
// PDFs and images still comes over plain HTTP.
package browser
