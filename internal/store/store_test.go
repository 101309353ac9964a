package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal-engine/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db.Pool))
	return db
}

func newTestSource(t *testing.T, sources *SourceStore, url string) *domain.CompanySource {
	t.Helper()
	src := &domain.CompanySource{
		CompanyName:   "Acme",
		CareerPageURL: url,
		Frequency:     domain.FrequencyDaily,
		Active:        true,
		Selectors:     domain.Selectors{JobList: ".job"},
	}
	require.NoError(t, sources.Create(context.Background(), src))
	return src
}

func TestSourceCreateRejectsDuplicateURL(t *testing.T) {
	db := openTestDB(t)
	sources := &SourceStore{DB: db.Pool}
	newTestSource(t, sources, "https://acme.test/careers")

	dup := &domain.CompanySource{
		CompanyName:   "Acme Again",
		CareerPageURL: "https://acme.test/careers",
		Frequency:     domain.FrequencyDaily,
	}
	err := sources.Create(context.Background(), dup)
	assert.ErrorIs(t, err, ErrDuplicateURL)
}

func TestSourceRoundTrip(t *testing.T) {
	db := openTestDB(t)
	sources := &SourceStore{DB: db.Pool}
	ctx := context.Background()

	src := newTestSource(t, sources, "https://acme.test/careers")
	src.Selectors.Title = ".title"
	src.Frequency = domain.FrequencyWeekly
	require.NoError(t, sources.Update(ctx, src))

	got, err := sources.FindByID(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, ".title", got.Selectors.Title)
	assert.Equal(t, domain.FrequencyWeekly, got.Frequency)
	assert.True(t, got.Active)

	_, err = sources.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindDue(t *testing.T) {
	db := openTestDB(t)
	sources := &SourceStore{DB: db.Pool}
	ctx := context.Background()
	now := time.Now().UTC()

	never := newTestSource(t, sources, "https://a.test/careers")

	overdue := newTestSource(t, sources, "https://b.test/careers")
	past := now.Add(-time.Hour)
	overdue.LastScrapedAt = &past
	overdue.NextScheduledScrape = &past
	require.NoError(t, sources.UpdateRunStats(ctx, overdue))

	future := newTestSource(t, sources, "https://c.test/careers")
	later := now.Add(time.Hour)
	future.NextScheduledScrape = &later
	require.NoError(t, sources.UpdateRunStats(ctx, future))

	inactive := newTestSource(t, sources, "https://d.test/careers")
	inactive.Active = false
	require.NoError(t, sources.Update(ctx, inactive))

	due, err := sources.FindDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, never.ID, due[0].ID)
	assert.Equal(t, overdue.ID, due[1].ID)
}

func TestUpdateRunStatsPersistsTracking(t *testing.T) {
	db := openTestDB(t)
	sources := &SourceStore{DB: db.Pool}
	ctx := context.Background()

	src := newTestSource(t, sources, "https://acme.test/careers")
	now := time.Now().UTC().Truncate(time.Second)
	src.LastScrapedAt = &now
	src.UpdateNextScheduledScrape(now)
	src.SuccessfulScrapes = 3
	src.FailedScrapes = 1
	src.TotalJobsScraped = 42
	src.LastScrapeJobCount = 7
	src.RecordFailure("boom", now)
	require.NoError(t, sources.UpdateRunStats(ctx, src))

	got, err := sources.FindByID(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.SuccessfulScrapes)
	assert.Equal(t, 1, got.FailedScrapes)
	assert.Equal(t, 42, got.TotalJobsScraped)
	assert.Equal(t, 7, got.LastScrapeJobCount)
	assert.Equal(t, "boom", got.LastError)
	require.NotNil(t, got.NextScheduledScrape)
	assert.Equal(t, now.AddDate(0, 0, 1), got.NextScheduledScrape.UTC())

	n, err := sources.CountWithErrors(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestScrapedJobNaturalKey(t *testing.T) {
	db := openTestDB(t)
	sources := &SourceStore{DB: db.Pool}
	jobs := &ScrapedJobStore{DB: db.Pool}
	ctx := context.Background()

	src := newTestSource(t, sources, "https://acme.test/careers")
	j := &domain.ScrapedJob{SourceID: src.ID, Title: "Engineer", ContentHash: "h1"}
	require.NoError(t, jobs.Insert(ctx, j))
	assert.True(t, j.Active)

	clash := &domain.ScrapedJob{SourceID: src.ID, Title: "Engineer", ContentHash: "h1"}
	assert.Error(t, jobs.Insert(ctx, clash), "same (source, hash) must be rejected")

	// Same hash under a different source is a separate record.
	other := newTestSource(t, sources, "https://other.test/careers")
	ok := &domain.ScrapedJob{SourceID: other.ID, Title: "Engineer", ContentHash: "h1"}
	assert.NoError(t, jobs.Insert(ctx, ok))

	found, err := jobs.FindBySourceAndHash(ctx, src.ID, "h1")
	require.NoError(t, err)
	assert.Equal(t, j.ID, found.ID)

	_, err = jobs.FindBySourceAndHash(ctx, src.ID, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindUnimportedFilters(t *testing.T) {
	db := openTestDB(t)
	sources := &SourceStore{DB: db.Pool}
	jobs := &ScrapedJobStore{DB: db.Pool}
	ctx := context.Background()
	now := time.Now().UTC()

	src := newTestSource(t, sources, "https://acme.test/careers")

	plain := &domain.ScrapedJob{SourceID: src.ID, Title: "Keep", ContentHash: "h1"}
	require.NoError(t, jobs.Insert(ctx, plain))

	dup := &domain.ScrapedJob{SourceID: src.ID, Title: "Dup", ContentHash: "h2"}
	require.NoError(t, jobs.Insert(ctx, dup))
	require.NoError(t, jobs.MarkDuplicate(ctx, dup.ID, plain.ID))

	done := &domain.ScrapedJob{SourceID: src.ID, Title: "Done", ContentHash: "h3"}
	require.NoError(t, jobs.Insert(ctx, done))
	require.NoError(t, jobs.MarkImported(ctx, done.ID, 77, now))

	stale := &domain.ScrapedJob{SourceID: src.ID, Title: "Stale", ContentHash: "h4",
		ScrapedAt: now.AddDate(0, 0, -60), LastSeenAt: now.AddDate(0, 0, -60)}
	require.NoError(t, jobs.Insert(ctx, stale))
	n, err := jobs.MarkInactiveBefore(ctx, src.ID, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	un, err := jobs.FindUnimported(ctx)
	require.NoError(t, err)
	require.Len(t, un, 1)
	assert.Equal(t, "Keep", un[0].Title)
}

func TestMarkSeenStickyHasChanges(t *testing.T) {
	db := openTestDB(t)
	sources := &SourceStore{DB: db.Pool}
	jobs := &ScrapedJobStore{DB: db.Pool}
	ctx := context.Background()

	src := newTestSource(t, sources, "https://acme.test/careers")
	j := &domain.ScrapedJob{SourceID: src.ID, Title: "Engineer", ContentHash: "h1"}
	require.NoError(t, jobs.Insert(ctx, j))

	seen := time.Now().UTC().Add(time.Minute).Truncate(time.Second)
	require.NoError(t, jobs.MarkSeen(ctx, j.ID, seen, true))

	got, err := jobs.FindByID(ctx, j.ID)
	require.NoError(t, err)
	assert.True(t, got.HasChanges)
	assert.Equal(t, seen, got.LastSeenAt.UTC())

	// Re-seeing without changes must not clear the flag.
	require.NoError(t, jobs.MarkSeen(ctx, j.ID, seen.Add(time.Minute), false))
	got, err = jobs.FindByID(ctx, j.ID)
	require.NoError(t, err)
	assert.True(t, got.HasChanges)
}

func TestCreateApprovedJob(t *testing.T) {
	db := openTestDB(t)
	board := &JobStore{DB: db.Pool}
	ctx := context.Background()

	salary := "$100k"
	created, err := board.CreateApprovedJob(ctx, domain.JobPosting{
		Title: "Engineer", Company: "Acme", Location: "Remote",
		Salary: &salary, JobType: "Full-time",
		PostedBy: "admin", ApprovedBy: "admin",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := board.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.Equal(t, domain.ApprovalStatusApproved, got.ApprovalStatus)
	require.NotNil(t, got.Salary)
	assert.Equal(t, "$100k", *got.Salary)
	assert.False(t, got.ApprovedDate.IsZero())

	// NULL salary round-trips as nil.
	noSalary, err := board.CreateApprovedJob(ctx, domain.JobPosting{
		Title: "Intern", Company: "Acme", Location: "Remote", PostedBy: "admin",
	})
	require.NoError(t, err)
	got, err = board.FindByID(ctx, noSalary.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Salary)
}

func TestSeedSourcesIdempotent(t *testing.T) {
	db := openTestDB(t)
	sources := &SourceStore{DB: db.Pool}
	ctx := context.Background()

	require.NoError(t, SeedSources(ctx, sources, "system"))
	n, err := sources.CountAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	all, err := sources.FindAll(ctx)
	require.NoError(t, err)
	for _, s := range all {
		assert.False(t, s.Active, "seeded sources start inactive")
		assert.Equal(t, "system", s.CreatedBy)
	}

	require.NoError(t, SeedSources(ctx, sources, "system"))
	n, err = sources.CountAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n, "second seed must be a no-op")
}
