package store

import (
	"context"

	"jobportal-engine/internal/domain"
)

// SeedSources inserts sample source configurations on an empty database so a
// fresh install has selector patterns to start from. All are inactive until
// an admin reviews them.
func SeedSources(ctx context.Context, sources *SourceStore, createdBy string) error {
	n, err := sources.CountAll(ctx)
	if err != nil || n > 0 {
		return err
	}

	samples := []domain.CompanySource{
		{
			CompanyName:   "Example Tech Co",
			CareerPageURL: "https://example-careers.com/jobs",
			Frequency:     domain.FrequencyDaily,
			Selectors: domain.Selectors{
				JobList:     ".job-listing-item, .career-opportunity",
				Title:       ".job-title, h3.title",
				Location:    ".job-location, .location-tag",
				Description: ".job-description, .job-summary",
				Type:        ".job-type, .employment-type",
				Salary:      ".salary-range, .compensation",
				URL:         "a.job-link, .title a",
			},
		},
		{
			CompanyName:   "Startup Inc (Greenhouse)",
			CareerPageURL: "https://boards.greenhouse.io/examplestartup",
			Frequency:     domain.FrequencyWeekly,
			Selectors: domain.Selectors{
				JobList:     ".opening",
				Title:       ".opening a",
				Location:    ".location",
				Description: ".content",
				URL:         "a",
			},
		},
		{
			CompanyName:   "Growth Labs (Lever)",
			CareerPageURL: "https://jobs.lever.co/examplelabs",
			Frequency:     domain.FrequencyWeekly,
			Selectors: domain.Selectors{
				JobList:  ".posting",
				Title:    ".posting-title h5",
				Location: ".posting-categories .location",
				URL:      "a.posting-title",
			},
		},
	}

	for i := range samples {
		samples[i].Active = false
		samples[i].CreatedBy = createdBy
		if err := sources.Create(ctx, &samples[i]); err != nil {
			return err
		}
	}
	return nil
}
