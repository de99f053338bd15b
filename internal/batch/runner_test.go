package batch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpdir/ingest-server/internal/github"
	"github.com/mcpdir/ingest-server/internal/registry"
	"github.com/mcpdir/ingest-server/internal/store/inmemory"
)

// fakeIngestor fabricates one entry per URL without touching the network.
type fakeIngestor struct {
	errs  map[string]error
	calls []string
}

func (f *fakeIngestor) Ingest(_ context.Context, rawURL string) (*registry.ServerEntry, error) {
	f.calls = append(f.calls, rawURL)
	if err := f.errs[rawURL]; err != nil {
		return nil, err
	}
	ref, err := github.ParseRepoURL(rawURL)
	if err != nil {
		return nil, err
	}
	return &registry.ServerEntry{
		ID:          fmt.Sprintf("id-%d", len(f.calls)),
		Name:        registry.TitleFromSlug(ref.Repo),
		Author:      ref.Owner,
		Description: "Test entry",
		GithubURL:   ref.CanonicalURL(),
		LastFetched: time.Now().UTC(),
	}, nil
}

func newTestRunner(ingestor *fakeIngestor, st *inmemory.Store) *Runner {
	return NewRunner(ingestor, st, time.Millisecond)
}

func TestRunIngestsEachURL(t *testing.T) {
	t.Parallel()

	ingestor := &fakeIngestor{}
	st := inmemory.New()
	runner := newTestRunner(ingestor, st)

	summary, err := runner.Run(context.Background(), []string{
		"https://github.com/octocat/alpha",
		"https://github.com/octocat/beta",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Zero(t, summary.Skipped)
	assert.Zero(t, summary.Errored)
	assert.Equal(t, 2, st.Len())
}

func TestRunSameURLTwiceIsIdempotent(t *testing.T) {
	t.Parallel()

	ingestor := &fakeIngestor{}
	st := inmemory.New()
	runner := newTestRunner(ingestor, st)

	summary, err := runner.Run(context.Background(), []string{
		"https://github.com/octocat/alpha",
		"https://github.com/octocat/alpha",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Errored)
	assert.Equal(t, 1, st.Len())
	// The pre-check spares the second URL a pipeline run.
	assert.Equal(t, []string{"https://github.com/octocat/alpha"}, ingestor.calls)
}

func TestRunSkipsURLVariantsOfStoredEntry(t *testing.T) {
	t.Parallel()

	ingestor := &fakeIngestor{}
	st := inmemory.New()
	runner := newTestRunner(ingestor, st)

	summary, err := runner.Run(context.Background(), []string{
		"https://github.com/octocat/alpha",
		"https://www.github.com/octocat/alpha.git",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, st.Len())
}

func TestRunErrorDoesNotHaltBatch(t *testing.T) {
	t.Parallel()

	ingestor := &fakeIngestor{
		errs: map[string]error{
			"https://github.com/octocat/broken": fmt.Errorf("%w: octocat/broken", github.ErrRepoNotFound),
		},
	}
	st := inmemory.New()
	runner := newTestRunner(ingestor, st)

	summary, err := runner.Run(context.Background(), []string{
		"https://github.com/octocat/alpha",
		"https://github.com/octocat/broken",
		"https://github.com/octocat/beta",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Errored)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "https://github.com/octocat/broken", summary.Errors[0].URL)
	assert.Equal(t, 2, st.Len())
}

func TestRunUnparseableURLRecordsError(t *testing.T) {
	t.Parallel()

	ingestor := &fakeIngestor{}
	st := inmemory.New()
	runner := newTestRunner(ingestor, st)

	summary, err := runner.Run(context.Background(), []string{"https://example.com/nope"})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Errored)
	// The bad URL never reaches the pipeline.
	assert.Empty(t, ingestor.calls)
}

func TestRunHonorsCancellation(t *testing.T) {
	t.Parallel()

	ingestor := &fakeIngestor{}
	st := inmemory.New()
	runner := NewRunner(ingestor, st, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := runner.Run(ctx, []string{
		"https://github.com/octocat/alpha",
		"https://github.com/octocat/beta",
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, summary.Succeeded)
	assert.Empty(t, ingestor.calls)
}

func TestRunCancellationBetweenIterations(t *testing.T) {
	t.Parallel()

	ingestor := &fakeIngestor{}
	st := inmemory.New()
	runner := NewRunner(ingestor, st, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	summary, err := runner.Run(ctx, []string{
		"https://github.com/octocat/alpha",
		"https://github.com/octocat/beta",
	})
	require.ErrorIs(t, err, context.Canceled)
	// The first URL completed before the throttle pause was interrupted.
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, []string{"https://github.com/octocat/alpha"}, ingestor.calls)
}

func TestRunInsertRaceCountsAsSkip(t *testing.T) {
	t.Parallel()

	st := inmemory.New()
	racing := &racingIngestor{fakeIngestor: &fakeIngestor{}, store: st}
	runner := NewRunner(racing, st, time.Millisecond)

	summary, err := runner.Run(context.Background(), []string{"https://github.com/octocat/alpha"})
	require.NoError(t, err)

	assert.Zero(t, summary.Succeeded)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Errored)
}

// racingIngestor inserts the entry itself before returning it, simulating a
// concurrent writer landing between the pre-check and the insert.
type racingIngestor struct {
	*fakeIngestor
	store *inmemory.Store
}

func (r *racingIngestor) Ingest(ctx context.Context, rawURL string) (*registry.ServerEntry, error) {
	entry, err := r.fakeIngestor.Ingest(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	shadow := *entry
	shadow.ID = "racer"
	if err := r.store.Insert(ctx, &shadow); err != nil {
		return nil, err
	}
	return entry, nil
}

func TestSummaryRender(t *testing.T) {
	t.Parallel()

	summary := &Summary{
		Succeeded: 2,
		Skipped:   1,
		Errored:   1,
		Errors: []ErrorDetail{
			{URL: "https://github.com/octocat/broken", Message: "repository not found"},
		},
	}

	rendered := summary.Render()
	assert.Contains(t, rendered, "succeeded: 2")
	assert.Contains(t, rendered, "skipped (already exists): 1")
	assert.Contains(t, rendered, "errors: 1")
	assert.Contains(t, rendered, "https://github.com/octocat/broken: repository not found")
}

func TestNewRunnerDefaultsInterval(t *testing.T) {
	t.Parallel()

	runner := NewRunner(&fakeIngestor{}, inmemory.New(), 0)
	assert.Equal(t, DefaultInterval, runner.interval)
}
