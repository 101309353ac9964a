package store

import "database/sql"

// Migrate brings the schema up to the current version. Versioned via
// PRAGMA user_version; v1 is the whole scraping schema.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS company_sources (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  company_name TEXT NOT NULL,
  career_page_url TEXT NOT NULL,
  frequency TEXT NOT NULL DEFAULT 'DAILY',
  active INTEGER NOT NULL DEFAULT 1,
  job_list_selector TEXT NOT NULL DEFAULT '',
  job_title_selector TEXT NOT NULL DEFAULT '',
  job_location_selector TEXT NOT NULL DEFAULT '',
  job_description_selector TEXT NOT NULL DEFAULT '',
  job_type_selector TEXT NOT NULL DEFAULT '',
  job_salary_selector TEXT NOT NULL DEFAULT '',
  job_url_selector TEXT NOT NULL DEFAULT '',
  job_requirements_selector TEXT NOT NULL DEFAULT '',
  next_page_selector TEXT NOT NULL DEFAULT '',
  last_scraped_at TEXT,
  next_scheduled_scrape TEXT,
  last_error_at TEXT,
  last_error TEXT NOT NULL DEFAULT '',
  total_jobs_scraped INTEGER NOT NULL DEFAULT 0,
  successful_scrapes INTEGER NOT NULL DEFAULT 0,
  failed_scrapes INTEGER NOT NULL DEFAULT 0,
  last_scrape_job_count INTEGER NOT NULL DEFAULT 0,
  created_by TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS scraped_jobs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  source_id INTEGER NOT NULL REFERENCES company_sources(id) ON DELETE CASCADE,
  external_id TEXT NOT NULL DEFAULT '',
  external_url TEXT NOT NULL DEFAULT '',
  job_url TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL,
  company TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  requirements TEXT NOT NULL DEFAULT '',
  salary TEXT NOT NULL DEFAULT '',
  job_type TEXT NOT NULL DEFAULT '',
  posted_date TEXT,
  raw_data TEXT NOT NULL DEFAULT '',
  content_hash TEXT NOT NULL,
  duplicate INTEGER NOT NULL DEFAULT 0,
  duplicate_of_id INTEGER,
  has_changes INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  imported INTEGER NOT NULL DEFAULT 0,
  imported_at TEXT,
  imported_job_id INTEGER,
  scraped_at TEXT NOT NULL,
  last_seen_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS jobs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  location TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  requirements TEXT NOT NULL DEFAULT '',
  salary TEXT,
  job_type TEXT NOT NULL DEFAULT 'Full-time',
  posted_by TEXT NOT NULL DEFAULT '',
  active INTEGER NOT NULL DEFAULT 1,
  approval_status TEXT NOT NULL DEFAULT 'APPROVED',
  approved_by TEXT NOT NULL DEFAULT '',
  approved_date TEXT,
  created_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_sources_career_page_url
ON company_sources(career_page_url);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_scraped_jobs_source_hash
ON scraped_jobs(source_id, content_hash);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_scraped_jobs_last_seen
ON scraped_jobs(last_seen_at);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_sources_next_scrape
ON company_sources(next_scheduled_scrape);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}
