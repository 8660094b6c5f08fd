// internal/monitor/monitor_test.go
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github-cve-monitor/internal/blacklist"
	"github-cve-monitor/internal/metrics"
	"github-cve-monitor/internal/model"
	"github-cve-monitor/internal/store"
)

type stubSearcher struct {
	res *model.SearchResult
	err error
}

func (s *stubSearcher) SearchRepositories(ctx context.Context, term string) (*model.SearchResult, error) {
	return s.res, s.err
}

type captureNotifier struct {
	repos []model.Repository
}

func (c *captureNotifier) Notify(_ context.Context, repo model.Repository) {
	c.repos = append(c.repos, repo)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

func newTestMonitor(t *testing.T, st store.Querier, search Searcher, bl *blacklist.Blacklist) (*Monitor, *captureNotifier) {
	t.Helper()
	if bl == nil {
		bl = &blacklist.Blacklist{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := &captureNotifier{}
	m := New(st, search, bl, notifier, metrics.New(), logger, "CVE", 0)
	return m, notifier
}

func searchItem(id int64, updatedAt string) model.Repository {
	return model.Repository{
		ID:          id,
		Name:        fmt.Sprintf("poc-%d", id),
		FullName:    fmt.Sprintf("owner/poc-%d", id),
		Description: "PoC for cve-2024-12345",
		URL:         fmt.Sprintf("https://github.com/owner/poc-%d", id),
		PushedAt:    "2024-05-01T10:00:00Z",
		CreatedAt:   "2024-04-01T10:00:00Z",
		UpdatedAt:   updatedAt,
	}
}

func TestPoll_FirstCycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	search := &stubSearcher{res: &model.SearchResult{
		TotalCount: 5,
		Items: []model.Repository{
			searchItem(1, "2024-05-01T10:00:00Z"),
			searchItem(2, "2024-05-01T11:00:00Z"),
			searchItem(3, "2024-05-01T12:00:00Z"),
		},
	}}
	m, _ := newTestMonitor(t, st, search, nil)

	batch, err := m.Poll(ctx)
	require.NoError(t, err)

	require.Len(t, batch, 3)
	for _, repo := range batch {
		assert.Equal(t, model.StatusNew, repo.Status)
		assert.Equal(t, []string{"CVE-2024-12345"}, repo.CVEIDs)
	}

	total, err := st.LastTotalCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	repos, err := st.ListRepositories(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, repos, 3)
}

func TestPoll_UnchangedTotalShortCircuits(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	search := &stubSearcher{res: &model.SearchResult{
		TotalCount: 5,
		Items:      []model.Repository{searchItem(1, "2024-05-01T10:00:00Z")},
	}}
	m, _ := newTestMonitor(t, st, search, nil)

	_, err := m.Poll(ctx)
	require.NoError(t, err)

	// Same total again: no records inspected, but the check is still logged.
	search.res.Items = []model.Repository{searchItem(99, "2024-06-01T10:00:00Z")}
	batch, err := m.Poll(ctx)
	require.NoError(t, err)
	assert.Empty(t, batch)

	_, exists, err := st.RecordExists(ctx, 99)
	require.NoError(t, err)
	assert.False(t, exists)

	checks, err := st.ListCheckRecords(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, checks, 2)
}

func TestPoll_UpdatedRepositoryIsPersistedButNotNotified(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	search := &stubSearcher{res: &model.SearchResult{
		TotalCount: 5,
		Items:      []model.Repository{searchItem(1, "2024-05-01T10:00:00Z")},
	}}
	m, _ := newTestMonitor(t, st, search, nil)

	_, err := m.Poll(ctx)
	require.NoError(t, err)

	search.res = &model.SearchResult{
		TotalCount: 6,
		Items:      []model.Repository{searchItem(1, "2024-05-02T10:00:00Z")},
	}
	batch, err := m.Poll(ctx)
	require.NoError(t, err)
	assert.Empty(t, batch)

	repos, err := st.ListRepositories(ctx, 10)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, model.StatusUpdated, repos[0].Status)
	assert.Equal(t, "2024-05-02T10:00:00Z", repos[0].UpdatedAt)
}

func TestPoll_StaleSightingIsSkipped(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	search := &stubSearcher{res: &model.SearchResult{
		TotalCount: 5,
		Items:      []model.Repository{searchItem(1, "2024-05-01T10:00:00Z")},
	}}
	m, _ := newTestMonitor(t, st, search, nil)

	_, err := m.Poll(ctx)
	require.NoError(t, err)

	// Same record, identical updated_at, higher total: never re-notified.
	search.res = &model.SearchResult{
		TotalCount: 9,
		Items:      []model.Repository{searchItem(1, "2024-05-01T10:00:00Z")},
	}
	batch, err := m.Poll(ctx)
	require.NoError(t, err)
	assert.Empty(t, batch)

	repos, err := st.ListRepositories(ctx, 10)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, model.StatusNew, repos[0].Status)
}

func TestPoll_BlacklistedRepositoryIsNeverPersisted(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	search := &stubSearcher{res: &model.SearchResult{
		TotalCount: 5,
		Items: []model.Repository{
			searchItem(1, "2024-05-01T10:00:00Z"),
			searchItem(2, "2024-05-01T11:00:00Z"),
		},
	}}
	bl := &blacklist.Blacklist{RepoIDs: []int64{1}}
	m, _ := newTestMonitor(t, st, search, bl)

	batch, err := m.Poll(ctx)
	require.NoError(t, err)

	require.Len(t, batch, 1)
	assert.Equal(t, int64(2), batch[0].ID)

	_, exists, err := st.RecordExists(ctx, 1)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPoll_BatchCappedAtTen(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	items := make([]model.Repository, 0, 15)
	for i := int64(1); i <= 15; i++ {
		items = append(items, searchItem(i, "2024-05-01T10:00:00Z"))
	}
	search := &stubSearcher{res: &model.SearchResult{TotalCount: 15, Items: items}}
	m, _ := newTestMonitor(t, st, search, nil)

	batch, err := m.Poll(ctx)
	require.NoError(t, err)
	assert.Len(t, batch, 10)

	repos, err := st.ListRepositories(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, repos, 10, "scanning stops once the cap is reached")
}

func TestRunCycle_NotifiesBatch(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	search := &stubSearcher{res: &model.SearchResult{
		TotalCount: 5,
		Items: []model.Repository{
			searchItem(1, "2024-05-01T10:00:00Z"),
			searchItem(2, "2024-05-01T11:00:00Z"),
			searchItem(3, "2024-05-01T12:00:00Z"),
		},
	}}
	m, notifier := newTestMonitor(t, st, search, nil)

	m.RunCycle(ctx)

	require.Len(t, notifier.repos, 3)
	assert.Equal(t, int64(1), notifier.repos[0].ID)
}

func TestRunCycle_FetchFailureProducesNothing(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	search := &stubSearcher{err: errors.New("github is down")}
	m, notifier := newTestMonitor(t, st, search, nil)

	m.RunCycle(ctx)

	assert.Empty(t, notifier.repos)

	// No check record is written for a failed fetch.
	total, err := st.LastTotalCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}
