package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ferruolo/menuscan/internal/model"
)

// Enqueue adds businesses to the work queue in order. Businesses already
// queued (by ID) are left untouched, so re-running a batch with the same
// list resumes it. It returns the number of newly queued jobs.
func (cdb *CrawlDB) Enqueue(ctx context.Context, businesses []model.Business) (int, error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO crawl_jobs (business_id, name, website, status, updated_at)
	VALUES (?, ?, ?, 'pending', ?)
	ON CONFLICT(business_id) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare enqueue: %w", err)
	}
	defer stmt.Close()

	now := formatTimestamp(time.Now())
	added := 0
	for _, b := range businesses {
		res, err := stmt.ExecContext(ctx, b.ID, b.Name, b.Website, now)
		if err != nil {
			return 0, fmt.Errorf("failed to enqueue %s: %w", b.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit enqueue: %w", err)
	}
	return added, nil
}

// NextPending claims the lowest pending job, marking it running and
// counting the attempt. It returns nil, nil when no job is pending.
func (cdb *CrawlDB) NextPending(ctx context.Context) (*model.CrawlJob, error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	job, err := scanJob(tx.QueryRowContext(ctx, `
	SELECT seq, business_id, name, website, status, attempts, error, updated_at
	FROM crawl_jobs
	WHERE status = 'pending'
	ORDER BY seq
	LIMIT 1
	`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select pending job: %w", err)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`UPDATE crawl_jobs SET status = 'running', attempts = attempts + 1, updated_at = ? WHERE seq = ?`,
		formatTimestamp(now), job.Seq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job %d: %w", job.Seq, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	job.Status = model.JobRunning
	job.Attempts++
	job.UpdatedAt = now
	return job, nil
}

// MarkDone records that a job completed.
func (cdb *CrawlDB) MarkDone(ctx context.Context, seq int64) error {
	return cdb.setStatus(ctx, seq, model.JobDone, "")
}

// MarkFailed records that a job could not be completed.
func (cdb *CrawlDB) MarkFailed(ctx context.Context, seq int64, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return cdb.setStatus(ctx, seq, model.JobFailed, msg)
}

func (cdb *CrawlDB) setStatus(ctx context.Context, seq int64, status model.JobStatus, msg string) error {
	res, err := cdb.db.ExecContext(ctx,
		`UPDATE crawl_jobs SET status = ?, error = ?, updated_at = ? WHERE seq = ?`,
		status.String(), msg, formatTimestamp(time.Now()), seq,
	)
	if err != nil {
		return fmt.Errorf("failed to mark job %d %s: %w", seq, status, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("job %d: %w", seq, sql.ErrNoRows)
	}
	return nil
}

// Cursor returns the checkpoint: every job with seq <= cursor has finished
// (done or failed). Zero means nothing has finished in order yet.
func (cdb *CrawlDB) Cursor(ctx context.Context) (int64, error) {
	var firstOpen sql.NullInt64
	err := cdb.db.QueryRowContext(ctx,
		`SELECT MIN(seq) FROM crawl_jobs WHERE status IN ('pending', 'running')`,
	).Scan(&firstOpen)
	if err != nil {
		return 0, fmt.Errorf("failed to read cursor: %w", err)
	}
	if firstOpen.Valid {
		return firstOpen.Int64 - 1, nil
	}

	var last sql.NullInt64
	if err := cdb.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM crawl_jobs`).Scan(&last); err != nil {
		return 0, fmt.Errorf("failed to read cursor: %w", err)
	}
	return last.Int64, nil
}

// ResetRunning returns jobs left running by an interrupted run to the
// pending state. It returns the number of jobs reset.
func (cdb *CrawlDB) ResetRunning(ctx context.Context) (int, error) {
	res, err := cdb.db.ExecContext(ctx,
		`UPDATE crawl_jobs SET status = 'pending', updated_at = ? WHERE status = 'running'`,
		formatTimestamp(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reset running jobs: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// RetryFailed returns failed jobs with fewer than maxAttempts attempts to
// the pending state.
func (cdb *CrawlDB) RetryFailed(ctx context.Context, maxAttempts int) (int, error) {
	res, err := cdb.db.ExecContext(ctx,
		`UPDATE crawl_jobs SET status = 'pending', updated_at = ? WHERE status = 'failed' AND attempts < ?`,
		formatTimestamp(time.Now()), maxAttempts,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue failed jobs: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// JobCounts returns the number of jobs in each status.
func (cdb *CrawlDB) JobCounts(ctx context.Context) (map[model.JobStatus]int, error) {
	rows, err := cdb.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM crawl_jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.JobStatus]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("failed to scan job count: %w", err)
		}
		status, err := model.ParseJobStatus(name)
		if err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// GetJob returns the job for a business, or nil, nil if it is not queued.
func (cdb *CrawlDB) GetJob(ctx context.Context, businessID string) (*model.CrawlJob, error) {
	job, err := scanJob(cdb.db.QueryRowContext(ctx, `
	SELECT seq, business_id, name, website, status, attempts, error, updated_at
	FROM crawl_jobs
	WHERE business_id = ?
	`, businessID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func scanJob(row *sql.Row) (*model.CrawlJob, error) {
	var job model.CrawlJob
	var status, updatedAt string
	err := row.Scan(
		&job.Seq,
		&job.Business.ID,
		&job.Business.Name,
		&job.Business.Website,
		&status,
		&job.Attempts,
		&job.Error,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Status, err = model.ParseJobStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, err
	}
	job.UpdatedAt = parseTimestamp(updatedAt)
	return &job, nil
}
