package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jobportal-engine/internal/domain"
)

type ScrapedJobStore struct {
	DB *sql.DB
}

const scrapedJobColumns = `
id, source_id, external_id, external_url, job_url,
title, company, location, description, requirements, salary, job_type,
posted_date, raw_data,
content_hash, duplicate, duplicate_of_id, has_changes,
is_active, imported, imported_at, imported_job_id, scraped_at, last_seen_at`

func (s *ScrapedJobStore) Insert(ctx context.Context, j *domain.ScrapedJob) error {
	now := time.Now().UTC()
	if j.ScrapedAt.IsZero() {
		j.ScrapedAt = now
	}
	if j.LastSeenAt.IsZero() {
		j.LastSeenAt = now
	}

	res, err := s.DB.ExecContext(ctx, `
INSERT INTO scraped_jobs (
  source_id, external_id, external_url, job_url,
  title, company, location, description, requirements, salary, job_type,
  posted_date, raw_data, content_hash, is_active, scraped_at, last_seen_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,1,?,?);`,
		j.SourceID, j.ExternalID, j.ExternalURL, j.JobURL,
		j.Title, j.Company, j.Location, j.Description, j.Requirements, j.Salary, j.JobType,
		fmtTimePtr(j.PostedDate), j.RawData, j.ContentHash, fmtTime(j.ScrapedAt), fmtTime(j.LastSeenAt),
	)
	if err != nil {
		return fmt.Errorf("insert scraped job: %w", err)
	}
	j.ID, _ = res.LastInsertId()
	j.Active = true
	return nil
}

func (s *ScrapedJobStore) FindByID(ctx context.Context, id int64) (*domain.ScrapedJob, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+scrapedJobColumns+` FROM scraped_jobs WHERE id = ?;`, id)
	return scanScrapedJob(row)
}

func (s *ScrapedJobStore) FindBySourceAndHash(ctx context.Context, sourceID int64, hash string) (*domain.ScrapedJob, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT `+scrapedJobColumns+`
FROM scraped_jobs
WHERE source_id = ? AND content_hash = ?;`, sourceID, hash)
	return scanScrapedJob(row)
}

func (s *ScrapedJobStore) FindBySource(ctx context.Context, sourceID int64, activeOnly bool) ([]domain.ScrapedJob, error) {
	q := `SELECT ` + scrapedJobColumns + ` FROM scraped_jobs WHERE source_id = ?`
	if activeOnly {
		q += ` AND is_active = 1`
	}
	q += ` ORDER BY id;`
	return s.queryJobs(ctx, q, sourceID)
}

func (s *ScrapedJobStore) FindActiveBySource(ctx context.Context, sourceID int64) ([]domain.ScrapedJob, error) {
	return s.FindBySource(ctx, sourceID, true)
}

// FindUnimported lists candidates for human curation: still observed, not a
// flagged duplicate, and not yet promoted to the board.
func (s *ScrapedJobStore) FindUnimported(ctx context.Context) ([]domain.ScrapedJob, error) {
	return s.queryJobs(ctx, `
SELECT `+scrapedJobColumns+`
FROM scraped_jobs
WHERE imported = 0 AND is_active = 1 AND duplicate = 0
ORDER BY id;`)
}

// MarkSeen refreshes lastSeenAt on an upsert match. hasChanges is sticky once
// set; it flags that the stored description no longer matches what the page
// shows outside the hashed prefix.
func (s *ScrapedJobStore) MarkSeen(ctx context.Context, id int64, seenAt time.Time, hasChanges bool) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE scraped_jobs
SET last_seen_at = ?, has_changes = CASE WHEN ? THEN 1 ELSE has_changes END
WHERE id = ?;`, fmtTime(seenAt), boolInt(hasChanges), id)
	return err
}

func (s *ScrapedJobStore) MarkDuplicate(ctx context.Context, id, duplicateOfID int64) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE scraped_jobs SET duplicate = 1, duplicate_of_id = ? WHERE id = ?;`,
		duplicateOfID, id)
	return err
}

func (s *ScrapedJobStore) MarkImported(ctx context.Context, id, jobID int64, at time.Time) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE scraped_jobs SET imported = 1, imported_at = ?, imported_job_id = ? WHERE id = ?;`,
		fmtTime(at), jobID, id)
	return err
}

// MarkInactiveBefore deactivates records for a source not re-observed since
// the threshold. Rows are kept, never deleted.
func (s *ScrapedJobStore) MarkInactiveBefore(ctx context.Context, sourceID int64, threshold time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
UPDATE scraped_jobs
SET is_active = 0
WHERE source_id = ? AND is_active = 1 AND last_seen_at < ?;`,
		sourceID, fmtTime(threshold))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *ScrapedJobStore) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM scraped_jobs;`).Scan(&n)
	return n, err
}

func (s *ScrapedJobStore) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM scraped_jobs WHERE is_active = 1;`).Scan(&n)
	return n, err
}

func (s *ScrapedJobStore) CountImported(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM scraped_jobs WHERE imported = 1;`).Scan(&n)
	return n, err
}

func (s *ScrapedJobStore) CountSeenSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scraped_jobs WHERE last_seen_at >= ?;`, fmtTime(since)).Scan(&n)
	return n, err
}

func (s *ScrapedJobStore) queryJobs(ctx context.Context, query string, args ...any) ([]domain.ScrapedJob, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ScrapedJob
	for rows.Next() {
		j, err := scanScrapedJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

func scanScrapedJob(row rowScanner) (*domain.ScrapedJob, error) {
	var j domain.ScrapedJob
	var duplicate, hasChanges, active, imported int
	var dupOf, importedJob sql.NullInt64
	var postedDate, importedAt sql.NullString
	var scrapedAt, lastSeenAt string

	err := row.Scan(
		&j.ID, &j.SourceID, &j.ExternalID, &j.ExternalURL, &j.JobURL,
		&j.Title, &j.Company, &j.Location, &j.Description, &j.Requirements, &j.Salary, &j.JobType,
		&postedDate, &j.RawData,
		&j.ContentHash, &duplicate, &dupOf, &hasChanges,
		&active, &imported, &importedAt, &importedJob, &scrapedAt, &lastSeenAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	j.Duplicate = duplicate != 0
	j.HasChanges = hasChanges != 0
	j.Active = active != 0
	j.Imported = imported != 0
	if dupOf.Valid {
		j.DuplicateOfID = &dupOf.Int64
	}
	if importedJob.Valid {
		j.ImportedJobID = &importedJob.Int64
	}
	j.PostedDate = parseTimePtr(postedDate)
	j.ImportedAt = parseTimePtr(importedAt)
	j.ScrapedAt = parseTime(scrapedAt)
	j.LastSeenAt = parseTime(lastSeenAt)
	return &j, nil
}
