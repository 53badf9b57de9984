// Package model defines the data structures shared by the crawler, the
// storage layer and the report writers.
//
// This package contains the following main types:
//   - CrawlResult: the outcome of one crawl session over a restaurant site
//   - Page: a single processed URL within a session
//   - PageFailure: a URL whose fetch or extraction failed
//   - Business and CrawlJob: the batch driver's unit of work
//
// The crawler produces these types; the database, pipeline and report
// packages consume them. Enums marshal as their lowercase names so stored
// rows and JSON reports stay readable.
package model
