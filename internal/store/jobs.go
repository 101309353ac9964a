package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jobportal-engine/internal/domain"
)

// JobStore is the engine-side sink for the main job board: imported jobs land
// here already approved, and the board reads them as its own.
type JobStore struct {
	DB *sql.DB
}

func (s *JobStore) CreateApprovedJob(ctx context.Context, j domain.JobPosting) (domain.JobPosting, error) {
	now := time.Now().UTC()
	j.Active = true
	j.ApprovalStatus = domain.ApprovalStatusApproved
	if j.ApprovedDate.IsZero() {
		j.ApprovedDate = now
	}
	j.CreatedAt = now

	var salary any
	if j.Salary != nil {
		salary = *j.Salary
	}

	res, err := s.DB.ExecContext(ctx, `
INSERT INTO jobs (
  title, company, location, description, requirements, salary, job_type,
  posted_by, active, approval_status, approved_by, approved_date, created_at
) VALUES (?,?,?,?,?,?,?,?,1,?,?,?,?);`,
		j.Title, j.Company, j.Location, j.Description, j.Requirements, salary, j.JobType,
		j.PostedBy, j.ApprovalStatus, j.ApprovedBy, fmtTime(j.ApprovedDate), fmtTime(j.CreatedAt),
	)
	if err != nil {
		return domain.JobPosting{}, fmt.Errorf("insert job: %w", err)
	}
	j.ID, _ = res.LastInsertId()
	return j, nil
}

func (s *JobStore) FindByID(ctx context.Context, id int64) (*domain.JobPosting, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT id, title, company, location, description, requirements, salary, job_type,
       posted_by, active, approval_status, approved_by, approved_date, created_at
FROM jobs WHERE id = ?;`, id)

	var j domain.JobPosting
	var salary sql.NullString
	var active int
	var approvedDate sql.NullString
	var createdAt string
	err := row.Scan(&j.ID, &j.Title, &j.Company, &j.Location, &j.Description,
		&j.Requirements, &salary, &j.JobType, &j.PostedBy, &active,
		&j.ApprovalStatus, &j.ApprovedBy, &approvedDate, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if salary.Valid {
		j.Salary = &salary.String
	}
	j.Active = active != 0
	if t := parseTimePtr(approvedDate); t != nil {
		j.ApprovedDate = *t
	}
	j.CreatedAt = parseTime(createdAt)
	return &j, nil
}
