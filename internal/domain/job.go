package domain

import "time"

// ScrapedJob is one observed listing, owned by exactly one CompanySource.
// (sourceID, contentHash) is the natural key: re-observing the same content
// refreshes lastSeenAt instead of inserting a second row.
type ScrapedJob struct {
	ID       int64 `json:"id"`
	SourceID int64 `json:"sourceId"`

	ExternalID  string `json:"externalId,omitempty"`
	ExternalURL string `json:"externalUrl,omitempty"`
	JobURL      string `json:"jobUrl,omitempty"`

	Title        string `json:"title"`
	Company      string `json:"company"`
	Location     string `json:"location,omitempty"`
	Description  string `json:"description,omitempty"`
	Requirements string `json:"requirements,omitempty"`
	Salary       string `json:"salary,omitempty"`
	JobType      string `json:"jobType,omitempty"`

	PostedDate *time.Time `json:"postedDate,omitempty"`
	RawData    string     `json:"rawData,omitempty"`

	ContentHash   string `json:"contentHash"`
	Duplicate     bool   `json:"duplicate"`
	DuplicateOfID *int64 `json:"duplicateOfId,omitempty"`
	HasChanges    bool   `json:"hasChanges"`

	Active        bool       `json:"active"`
	Imported      bool       `json:"imported"`
	ImportedAt    *time.Time `json:"importedAt,omitempty"`
	ImportedJobID *int64     `json:"importedJobId,omitempty"`

	ScrapedAt  time.Time `json:"scrapedAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

// JobPosting is the row handed to the job-board sink when a scraped job is
// promoted. Import bypasses the board's pending-approval workflow, so the
// approval fields are filled in up front.
type JobPosting struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Company      string  `json:"company"`
	Location     string  `json:"location"`
	Description  string  `json:"description"`
	Requirements string  `json:"requirements"`
	Salary       *string `json:"salary"`
	JobType      string  `json:"jobType"`

	PostedBy       string    `json:"postedBy"`
	Active         bool      `json:"active"`
	ApprovalStatus string    `json:"approvalStatus"`
	ApprovedBy     string    `json:"approvedBy"`
	ApprovedDate   time.Time `json:"approvedDate"`
	CreatedAt      time.Time `json:"createdAt"`
}

const ApprovalStatusApproved = "APPROVED"
