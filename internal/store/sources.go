package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jobportal-engine/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateURL = errors.New("a source with this career page URL already exists")
)

type SourceStore struct {
	DB *sql.DB
}

const sourceColumns = `
id, company_name, career_page_url, frequency, active,
job_list_selector, job_title_selector, job_location_selector,
job_description_selector, job_type_selector, job_salary_selector,
job_url_selector, job_requirements_selector, next_page_selector,
last_scraped_at, next_scheduled_scrape, last_error_at, last_error,
total_jobs_scraped, successful_scrapes, failed_scrapes, last_scrape_job_count,
created_by, created_at, updated_at`

func (s *SourceStore) Create(ctx context.Context, src *domain.CompanySource) error {
	if _, err := s.FindByURL(ctx, src.CareerPageURL); err == nil {
		return ErrDuplicateURL
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	now := time.Now().UTC()
	src.CreatedAt = now
	src.UpdatedAt = now

	res, err := s.DB.ExecContext(ctx, `
INSERT INTO company_sources (
  company_name, career_page_url, frequency, active,
  job_list_selector, job_title_selector, job_location_selector,
  job_description_selector, job_type_selector, job_salary_selector,
  job_url_selector, job_requirements_selector, next_page_selector,
  created_by, created_at, updated_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?);`,
		src.CompanyName, src.CareerPageURL, string(src.Frequency), boolInt(src.Active),
		src.Selectors.JobList, src.Selectors.Title, src.Selectors.Location,
		src.Selectors.Description, src.Selectors.Type, src.Selectors.Salary,
		src.Selectors.URL, src.Selectors.Requirements, src.Selectors.NextPage,
		src.CreatedBy, fmtTime(now), fmtTime(now),
	)
	if err != nil {
		return fmt.Errorf("insert source: %w", err)
	}
	src.ID, _ = res.LastInsertId()
	return nil
}

func (s *SourceStore) Update(ctx context.Context, src *domain.CompanySource) error {
	now := time.Now().UTC()
	src.UpdatedAt = now

	_, err := s.DB.ExecContext(ctx, `
UPDATE company_sources SET
  company_name = ?, career_page_url = ?, frequency = ?, active = ?,
  job_list_selector = ?, job_title_selector = ?, job_location_selector = ?,
  job_description_selector = ?, job_type_selector = ?, job_salary_selector = ?,
  job_url_selector = ?, job_requirements_selector = ?, next_page_selector = ?,
  updated_at = ?
WHERE id = ?;`,
		src.CompanyName, src.CareerPageURL, string(src.Frequency), boolInt(src.Active),
		src.Selectors.JobList, src.Selectors.Title, src.Selectors.Location,
		src.Selectors.Description, src.Selectors.Type, src.Selectors.Salary,
		src.Selectors.URL, src.Selectors.Requirements, src.Selectors.NextPage,
		fmtTime(now), src.ID,
	)
	if err != nil {
		return fmt.Errorf("update source: %w", err)
	}
	return nil
}

// UpdateRunStats writes only the tracking fields a scrape run mutates,
// in one statement so stats always reflect a completed run.
func (s *SourceStore) UpdateRunStats(ctx context.Context, src *domain.CompanySource) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE company_sources SET
  last_scraped_at = ?, next_scheduled_scrape = ?,
  last_error_at = ?, last_error = ?,
  total_jobs_scraped = ?, successful_scrapes = ?, failed_scrapes = ?,
  last_scrape_job_count = ?, updated_at = ?
WHERE id = ?;`,
		fmtTimePtr(src.LastScrapedAt), fmtTimePtr(src.NextScheduledScrape),
		fmtTimePtr(src.LastErrorAt), src.LastError,
		src.TotalJobsScraped, src.SuccessfulScrapes, src.FailedScrapes,
		src.LastScrapeJobCount, fmtTime(time.Now().UTC()),
		src.ID,
	)
	if err != nil {
		return fmt.Errorf("update source stats: %w", err)
	}
	return nil
}

func (s *SourceStore) Delete(ctx context.Context, id int64) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM company_sources WHERE id = ?;`, id)
	return err
}

func (s *SourceStore) FindByID(ctx context.Context, id int64) (*domain.CompanySource, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+sourceColumns+` FROM company_sources WHERE id = ?;`, id)
	return scanSource(row)
}

func (s *SourceStore) FindByURL(ctx context.Context, url string) (*domain.CompanySource, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+sourceColumns+` FROM company_sources WHERE career_page_url = ?;`, url)
	return scanSource(row)
}

func (s *SourceStore) FindAll(ctx context.Context) ([]domain.CompanySource, error) {
	return s.querySources(ctx,
		`SELECT `+sourceColumns+` FROM company_sources ORDER BY id;`)
}

func (s *SourceStore) FindActive(ctx context.Context) ([]domain.CompanySource, error) {
	return s.querySources(ctx,
		`SELECT `+sourceColumns+` FROM company_sources WHERE active = 1 ORDER BY id;`)
}

// FindDue returns active sources whose next scheduled scrape is at or before
// now. Never-scraped sources (NULL next_scheduled_scrape) are always due.
func (s *SourceStore) FindDue(ctx context.Context, now time.Time) ([]domain.CompanySource, error) {
	return s.querySources(ctx, `
SELECT `+sourceColumns+`
FROM company_sources
WHERE active = 1 AND (next_scheduled_scrape IS NULL OR next_scheduled_scrape <= ?)
ORDER BY id;`, fmtTime(now))
}

func (s *SourceStore) CountAll(ctx context.Context) (int64, error) {
	return s.countWhere(ctx, `1=1`)
}

func (s *SourceStore) CountActive(ctx context.Context) (int64, error) {
	return s.countWhere(ctx, `active = 1`)
}

func (s *SourceStore) CountWithErrors(ctx context.Context) (int64, error) {
	return s.countWhere(ctx, `last_error != ''`)
}

func (s *SourceStore) countWhere(ctx context.Context, where string) (int64, error) {
	var n int64
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM company_sources WHERE `+where+`;`).Scan(&n)
	return n, err
}

func (s *SourceStore) querySources(ctx context.Context, query string, args ...any) ([]domain.CompanySource, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CompanySource
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *src)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*domain.CompanySource, error) {
	var src domain.CompanySource
	var freq string
	var active int
	var lastScraped, nextScrape, lastErrAt sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&src.ID, &src.CompanyName, &src.CareerPageURL, &freq, &active,
		&src.Selectors.JobList, &src.Selectors.Title, &src.Selectors.Location,
		&src.Selectors.Description, &src.Selectors.Type, &src.Selectors.Salary,
		&src.Selectors.URL, &src.Selectors.Requirements, &src.Selectors.NextPage,
		&lastScraped, &nextScrape, &lastErrAt, &src.LastError,
		&src.TotalJobsScraped, &src.SuccessfulScrapes, &src.FailedScrapes,
		&src.LastScrapeJobCount, &src.CreatedBy, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	src.Frequency = domain.ScrapingFrequency(freq)
	src.Active = active != 0
	src.LastScrapedAt = parseTimePtr(lastScraped)
	src.NextScheduledScrape = parseTimePtr(nextScrape)
	src.LastErrorAt = parseTimePtr(lastErrAt)
	src.CreatedAt = parseTime(createdAt)
	src.UpdatedAt = parseTime(updatedAt)
	return &src, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}
