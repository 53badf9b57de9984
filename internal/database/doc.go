// Package database provides SQLite-based storage for menuscan.
//
// A CrawlDB stores:
//   - crawl results per business (the aggregated text and visited URLs)
//   - per-page records of each crawl
//   - the batch work queue with its checkpoint cursor
//   - a small key-value table for run metadata
//
// The store is a single SQLite file opened through modernc.org/sqlite in WAL
// mode. Batch workers write concurrently; writes are serialized by SQLite's
// busy timeout.
package database
