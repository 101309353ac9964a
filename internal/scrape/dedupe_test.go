package scrape

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/store"
)

func openTestStore(t *testing.T) (*store.SourceStore, *store.ScrapedJobStore, *store.JobStore) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db.Pool))
	return &store.SourceStore{DB: db.Pool}, &store.ScrapedJobStore{DB: db.Pool}, &store.JobStore{DB: db.Pool}
}

func makeSource(t *testing.T, sources *store.SourceStore, url string) *domain.CompanySource {
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

func insertJob(t *testing.T, jobs *store.ScrapedJobStore, j domain.ScrapedJob) domain.ScrapedJob {
	t.Helper()
	require.NoError(t, jobs.Insert(context.Background(), &j))
	return j
}

func TestDetectDuplicatesLinksToFirstMatch(t *testing.T) {
	sources, jobs, _ := openTestStore(t)
	src := makeSource(t, sources, "https://acme.test/careers")
	ctx := context.Background()

	a := insertJob(t, jobs, domain.ScrapedJob{SourceID: src.ID, Title: "Engineer", Location: "Berlin", ContentHash: "h1"})
	b := insertJob(t, jobs, domain.ScrapedJob{SourceID: src.ID, Title: "engineer", Location: "BERLIN", ContentHash: "h2"})
	c := insertJob(t, jobs, domain.ScrapedJob{SourceID: src.ID, Title: "ENGINEER", Location: "berlin", ContentHash: "h3"})

	det := &DuplicateDetector{Jobs: jobs, Log: zap.NewNop().Sugar()}
	n, err := det.DetectDuplicates(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	gotA, _ := jobs.FindByID(ctx, a.ID)
	gotB, _ := jobs.FindByID(ctx, b.ID)
	gotC, _ := jobs.FindByID(ctx, c.ID)

	assert.False(t, gotA.Duplicate, "earliest record stays canonical")
	require.NotNil(t, gotB.DuplicateOfID)
	assert.Equal(t, a.ID, *gotB.DuplicateOfID)
	require.NotNil(t, gotC.DuplicateOfID)
	assert.Equal(t, a.ID, *gotC.DuplicateOfID, "all later matches link to the first record, not to each other")
}

func TestDetectDuplicatesLocationRequired(t *testing.T) {
	sources, jobs, _ := openTestStore(t)
	src := makeSource(t, sources, "https://acme.test/careers")
	ctx := context.Background()

	// Same title, but one location missing: too weak a signal.
	insertJob(t, jobs, domain.ScrapedJob{SourceID: src.ID, Title: "Engineer", Location: "Berlin", ContentHash: "h1"})
	insertJob(t, jobs, domain.ScrapedJob{SourceID: src.ID, Title: "Engineer", Location: "", ContentHash: "h2"})

	det := &DuplicateDetector{Jobs: jobs, Log: zap.NewNop().Sugar()}
	n, err := det.DetectDuplicates(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDetectDuplicatesIsIdempotent(t *testing.T) {
	sources, jobs, _ := openTestStore(t)
	src := makeSource(t, sources, "https://acme.test/careers")
	ctx := context.Background()

	insertJob(t, jobs, domain.ScrapedJob{SourceID: src.ID, Title: "Engineer", Location: "Berlin", ContentHash: "h1"})
	insertJob(t, jobs, domain.ScrapedJob{SourceID: src.ID, Title: "Engineer", Location: "Berlin", ContentHash: "h2"})

	det := &DuplicateDetector{Jobs: jobs, Log: zap.NewNop().Sugar()}
	n, err := det.DetectDuplicates(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = det.DetectDuplicates(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "already flagged records are not re-flagged")
}

func TestSimilar(t *testing.T) {
	mk := func(title, loc, hash string) *domain.ScrapedJob {
		return &domain.ScrapedJob{Title: title, Location: loc, ContentHash: hash}
	}
	assert.True(t, similar(mk("Engineer", "Berlin", "a"), mk("ENGINEER", "berlin", "b")))
	assert.True(t, similar(mk("X", "Berlin", "a"), mk("Y", "Munich", "a")), "hash collision wins regardless of fields")
	assert.False(t, similar(mk("Engineer", "", "a"), mk("Engineer", "", "b")))
	assert.False(t, similar(mk("", "", ""), mk("", "", "")), "empty hashes never match")
}
