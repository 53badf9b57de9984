package model

import (
	"fmt"
	"strings"
	"time"
)

// Business is a restaurant whose website should be crawled. Discovering
// businesses is outside this module; they arrive from a list or a queue.
type Business struct {
	// ID is the caller's stable identifier for the business.
	ID string `json:"id"`

	// Name is the display name, if known.
	Name string `json:"name,omitempty"`

	// Website is the seed URL for the crawl.
	Website string `json:"website"`
}

// JobStatus is the state of a CrawlJob in the work queue.
type JobStatus int

const (
	// JobPending is waiting to be crawled.
	JobPending JobStatus = iota
	// JobRunning has been handed to a worker.
	JobRunning
	// JobDone completed and its result was stored.
	JobDone
	// JobFailed could not be crawled.
	JobFailed
)

// String returns the lowercase status name stored in the database.
func (s JobStatus) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobRunning:
		return "running"
	case JobDone:
		return "done"
	case JobFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseJobStatus converts a stored status name back to a JobStatus.
func ParseJobStatus(s string) (JobStatus, error) {
	switch strings.ToLower(s) {
	case "pending":
		return JobPending, nil
	case "running":
		return JobRunning, nil
	case "done":
		return JobDone, nil
	case "failed":
		return JobFailed, nil
	default:
		return JobPending, fmt.Errorf("unknown job status %q", s)
	}
}

// CrawlJob is one business in a batch run.
type CrawlJob struct {
	// Seq is the queue position assigned on enqueue.
	Seq int64 `json:"seq"`

	// Business is the restaurant to crawl.
	Business Business `json:"business"`

	// Status is the job's queue state.
	Status JobStatus `json:"status"`

	// Attempts counts how many times the job was handed out.
	Attempts int `json:"attempts"`

	// Error holds the last failure message.
	Error string `json:"error,omitempty"`

	// UpdatedAt is when the status last changed.
	UpdatedAt time.Time `json:"updated_at"`
}
