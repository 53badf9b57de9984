// Package pipeline runs crawl jobs for many restaurants.
//
// Each business is processed by a Pipeline of Steps: an optional check that
// skips recently crawled businesses, the crawl itself, and storing the
// result. A BatchProcessor runs one fresh Pipeline per business with a
// concurrency limit, either over an in-memory list or over a persistent
// WorkQueue that survives interruption.
//
// Storage and queueing are injected as interfaces (ResultStore, WorkQueue,
// KeyValueStore); the sqlite database implements all of them.
package pipeline
