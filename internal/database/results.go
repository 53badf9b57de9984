package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ferruolo/menuscan/internal/model"
)

// SaveCrawlResult stores the result of crawling a business, replacing the
// previous result and page records for that business.
func (cdb *CrawlDB) SaveCrawlResult(ctx context.Context, businessID string, r *model.CrawlResult) error {
	if r == nil {
		return errors.New("nil crawl result")
	}

	resultJSON, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to serialize crawl result: %w", err)
	}
	urlsJSON, err := json.Marshal(r.URLs)
	if err != nil {
		return fmt.Errorf("failed to serialize urls: %w", err)
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO crawl_results (business_id, seed_url, origin, extracted_text, urls, state, failures, started_at, finished_at, result_json, saved_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(business_id) DO UPDATE SET
		seed_url = excluded.seed_url,
		origin = excluded.origin,
		extracted_text = excluded.extracted_text,
		urls = excluded.urls,
		state = excluded.state,
		failures = excluded.failures,
		started_at = excluded.started_at,
		finished_at = excluded.finished_at,
		result_json = excluded.result_json,
		saved_at = excluded.saved_at
	`
	_, err = tx.ExecContext(ctx, query,
		businessID,
		r.SeedURL,
		r.Origin,
		r.Text,
		string(urlsJSON),
		r.State.String(),
		len(r.Failures),
		formatTimestamp(r.StartedAt),
		formatTimestamp(r.FinishedAt),
		string(resultJSON),
		formatTimestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save crawl result: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE business_id = ?`, businessID); err != nil {
		return fmt.Errorf("failed to clear page records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO pages (business_id, position, url, kind, status_code, content_type, title, text_bytes, duplicate, raw_hash)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(business_id, url) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range r.Pages {
		_, err := stmt.ExecContext(ctx,
			businessID, i, p.URL, p.Kind, p.StatusCode, p.ContentType, p.Title, p.TextBytes, p.Duplicate, p.Hash,
		)
		if err != nil {
			return fmt.Errorf("failed to insert page record %s: %w", p.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit crawl result: %w", err)
	}
	return nil
}

// GetCrawlResult retrieves the latest crawl result of a business.
// It returns nil, nil when the business has not been crawled.
func (cdb *CrawlDB) GetCrawlResult(ctx context.Context, businessID string) (*model.CrawlResult, error) {
	var resultJSON string
	err := cdb.db.QueryRowContext(ctx,
		`SELECT result_json FROM crawl_results WHERE business_id = ?`, businessID,
	).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl result: %w", err)
	}

	var r model.CrawlResult
	if err := json.Unmarshal([]byte(resultJSON), &r); err != nil {
		return nil, fmt.Errorf("failed to parse crawl result: %w", err)
	}
	return &r, nil
}

// ListCrawledBusinesses returns the IDs of all businesses with a stored result.
func (cdb *CrawlDB) ListCrawledBusinesses(ctx context.Context) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx, `SELECT business_id FROM crawl_results ORDER BY business_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan business id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetPages returns the page records of the latest crawl of a business in
// visit order.
func (cdb *CrawlDB) GetPages(ctx context.Context, businessID string) ([]model.Page, error) {
	query := `
	SELECT url, kind, status_code, content_type, title, text_bytes, duplicate, raw_hash
	FROM pages
	WHERE business_id = ?
	ORDER BY position
	`
	rows, err := cdb.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pages: %w", err)
	}
	defer rows.Close()

	var pages []model.Page
	for rows.Next() {
		var p model.Page
		var status sql.NullInt64
		var contentType, title, hash sql.NullString
		if err := rows.Scan(&p.URL, &p.Kind, &status, &contentType, &title, &p.TextBytes, &p.Duplicate, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.StatusCode = int(status.Int64)
		p.ContentType = contentType.String
		p.Title = title.String
		p.Hash = hash.String
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// HasRecentCrawl reports whether a business was saved within d.
func (cdb *CrawlDB) HasRecentCrawl(ctx context.Context, businessID string, d time.Duration) (bool, error) {
	var savedAt string
	err := cdb.db.QueryRowContext(ctx,
		`SELECT saved_at FROM crawl_results WHERE business_id = ?`, businessID,
	).Scan(&savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check recent crawl: %w", err)
	}

	t := parseTimestamp(savedAt)
	return !t.IsZero() && time.Since(t) < d, nil
}
