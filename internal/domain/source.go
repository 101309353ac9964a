package domain

import (
	"net/url"
	"strings"
	"time"
)

type ScrapingFrequency string

const (
	FrequencyHourly  ScrapingFrequency = "HOURLY"
	FrequencyDaily   ScrapingFrequency = "DAILY"
	FrequencyWeekly  ScrapingFrequency = "WEEKLY"
	FrequencyMonthly ScrapingFrequency = "MONTHLY"
)

// NextRunAfter returns the next scheduled time for a scrape that completed at t.
// Unrecognized values fall back to daily.
func (f ScrapingFrequency) NextRunAfter(t time.Time) time.Time {
	switch f {
	case FrequencyHourly:
		return t.Add(time.Hour)
	case FrequencyDaily:
		return t.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// Selectors holds the per-source CSS selectors used for extraction.
// JobList locates listing elements; the rest are applied within each listing.
// Empty selectors mean "don't extract this field".
type Selectors struct {
	JobList      string `json:"jobList" yaml:"job_list"`
	Title        string `json:"title" yaml:"title"`
	Location     string `json:"location" yaml:"location"`
	Description  string `json:"description" yaml:"description"`
	Type         string `json:"type" yaml:"type"`
	Salary       string `json:"salary" yaml:"salary"`
	URL          string `json:"url" yaml:"url"`
	Requirements string `json:"requirements" yaml:"requirements"`
	NextPage     string `json:"nextPage" yaml:"next_page"`
}

// CompanySource is one configured crawl target: a company career page plus
// the selectors needed to pull structured jobs out of it, and the health /
// cadence bookkeeping the scheduler runs on.
type CompanySource struct {
	ID            int64             `json:"id"`
	CompanyName   string            `json:"companyName"`
	CareerPageURL string            `json:"careerPageUrl"`
	Frequency     ScrapingFrequency `json:"frequency"`
	Active        bool              `json:"active"`
	Selectors     Selectors         `json:"selectors"`

	LastScrapedAt       *time.Time `json:"lastScrapedAt,omitempty"`
	NextScheduledScrape *time.Time `json:"nextScheduledScrape,omitempty"`
	LastErrorAt         *time.Time `json:"lastErrorAt,omitempty"`
	LastError           string     `json:"lastError,omitempty"`

	TotalJobsScraped   int `json:"totalJobsScraped"`
	SuccessfulScrapes  int `json:"successfulScrapes"`
	FailedScrapes      int `json:"failedScrapes"`
	LastScrapeJobCount int `json:"lastScrapeJobCount"`

	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const maxLastErrorLen = 1000

// RecordFailure stores a truncated error message and stamps lastErrorAt.
func (s *CompanySource) RecordFailure(msg string, at time.Time) {
	if len(msg) > maxLastErrorLen {
		msg = msg[:maxLastErrorLen]
	}
	s.LastError = msg
	s.LastErrorAt = &at
}

// ClearFailure wipes the error fields after a clean run.
func (s *CompanySource) ClearFailure() {
	s.LastError = ""
	s.LastErrorAt = nil
}

// UpdateNextScheduledScrape derives nextScheduledScrape from lastScrapedAt
// plus the frequency interval. nextScheduledScrape is never set any other way.
func (s *CompanySource) UpdateNextScheduledScrape(now time.Time) {
	if s.LastScrapedAt == nil {
		t := now
		s.LastScrapedAt = &t
	}
	next := s.Frequency.NextRunAfter(*s.LastScrapedAt)
	s.NextScheduledScrape = &next
}

// Validate checks the fields an admin must get right before the source can
// ever reach the runner. Returns human-readable problems, empty when OK.
func (s *CompanySource) Validate() []string {
	var errs []string

	if strings.TrimSpace(s.CompanyName) == "" {
		errs = append(errs, "companyName is required")
	}

	u, err := url.Parse(strings.TrimSpace(s.CareerPageURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, "careerPageUrl must be an absolute http(s) URL")
	}

	if strings.TrimSpace(s.Selectors.JobList) == "" {
		errs = append(errs, "selectors.jobList is required")
	}

	switch s.Frequency {
	case FrequencyHourly, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	case "":
		errs = append(errs, "frequency is required (HOURLY, DAILY, WEEKLY, MONTHLY)")
	default:
		errs = append(errs, "unknown frequency: "+string(s.Frequency))
	}

	return errs
}
