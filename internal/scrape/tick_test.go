package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobportal-engine/internal/domain"
)

type fakeRunner struct {
	order   []int64
	results map[int64]Result
	errs    map[int64]error
}

func (f *fakeRunner) ScrapeSource(_ context.Context, src *domain.CompanySource) (Result, error) {
	f.order = append(f.order, src.ID)
	if err := f.errs[src.ID]; err != nil {
		return Result{}, err
	}
	return f.results[src.ID], nil
}

func TestRunDueSourcesSequentialAndIsolated(t *testing.T) {
	sources, _, _ := openTestStore(t)
	a := makeSource(t, sources, "https://a.test/careers")
	b := makeSource(t, sources, "https://b.test/careers")
	c := makeSource(t, sources, "https://c.test/careers")

	runner := &fakeRunner{
		results: map[int64]Result{
			a.ID: {Success: true, JobsScraped: 3, NewJobs: 2},
			c.ID: {Success: false, Error: "page broken"},
		},
		errs: map[int64]error{
			b.ID: errors.New("db exploded"),
		},
	}

	report, err := RunDueSources(context.Background(), sources, runner, 0, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID, c.ID}, runner.order, "sources run in order, a failure doesn't stop the pass")
	assert.Equal(t, 3, report.Due)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 2, report.NewJobs)
	assert.False(t, report.EndedAt.Before(report.StartedAt))
}

func TestRunDueSourcesSkipsBusySources(t *testing.T) {
	sources, _, _ := openTestStore(t)
	a := makeSource(t, sources, "https://a.test/careers")
	b := makeSource(t, sources, "https://b.test/careers")

	runner := &fakeRunner{
		results: map[int64]Result{b.ID: {Success: true}},
		errs:    map[int64]error{a.ID: ErrScrapeInProgress},
	}

	report, err := RunDueSources(context.Background(), sources, runner, 0, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 0, report.Failed, "a busy source is neither a success nor a failure")
}

func TestRunDueSourcesEmptyQueue(t *testing.T) {
	sources, _, _ := openTestStore(t)
	inactive := makeSource(t, sources, "https://a.test/careers")
	inactive.Active = false
	require.NoError(t, sources.Update(context.Background(), inactive))

	runner := &fakeRunner{}
	report, err := RunDueSources(context.Background(), sources, runner, 0, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Zero(t, report.Due)
	assert.Empty(t, runner.order)
}
