// internal/monitor/monitor.go
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github-cve-monitor/internal/blacklist"
	"github-cve-monitor/internal/cveid"
	"github-cve-monitor/internal/metrics"
	"github-cve-monitor/internal/model"
	"github-cve-monitor/internal/store"
)

// notificationBatchLimit bounds outbound message volume per poll cycle.
const notificationBatchLimit = 10

// Searcher fetches one page of candidate repositories from the search API.
type Searcher interface {
	SearchRepositories(ctx context.Context, term string) (*model.SearchResult, error)
}

// Notifier delivers a notification for one repository.
type Notifier interface {
	Notify(ctx context.Context, repo model.Repository)
}

// Monitor orchestrates the change-detection pipeline: fetch, classify,
// persist, notify.
type Monitor struct {
	store      store.Querier
	search     Searcher
	blacklist  *blacklist.Blacklist
	notifier   Notifier
	metrics    *metrics.Metrics
	logger     *slog.Logger
	searchTerm string
	interval   time.Duration
}

// New creates a new Monitor instance.
func New(st store.Querier, search Searcher, bl *blacklist.Blacklist, notifier Notifier, m *metrics.Metrics, logger *slog.Logger, searchTerm string, interval time.Duration) *Monitor {
	return &Monitor{
		store:      st,
		search:     search,
		blacklist:  bl,
		notifier:   notifier,
		metrics:    m,
		logger:     logger,
		searchTerm: searchTerm,
		interval:   interval,
	}
}

// Start runs an initial cycle and then polls on the configured interval
// until the context is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	m.logger.Info("Starting monitor", "interval", m.interval.String(), "search_term", m.searchTerm)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.RunCycle(ctx)

	for {
		select {
		case <-ticker.C:
			m.RunCycle(ctx)
		case <-ctx.Done():
			m.logger.Info("Monitor shutting down", "reason", ctx.Err())
			return
		}
	}
}

// RunCycle performs one poll and notifies for every repository in the batch.
func (m *Monitor) RunCycle(ctx context.Context) {
	batch, err := m.Poll(ctx)
	if err != nil {
		m.metrics.PollFailures.Inc()
		m.logger.Error("Poll cycle failed", "error", err)
		return
	}
	for _, repo := range batch {
		m.notifier.Notify(ctx, repo)
	}
}

// Poll fetches the current search page, records the check, and classifies
// each candidate. It returns the repositories that require notification this
// cycle, in the order they were discovered.
func (m *Monitor) Poll(ctx context.Context) ([]model.Repository, error) {
	res, err := m.search.SearchRepositories(ctx, m.searchTerm)
	if err != nil {
		// No data this cycle: no store mutation, no notifications.
		return nil, err
	}
	m.metrics.Polls.Inc()

	// The previous total must be read before this cycle's record is appended.
	lastTotal, err := m.store.LastTotalCount(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.store.AppendCheckRecord(ctx, time.Now(), res.TotalCount); err != nil {
		m.logger.Error("Failed to append check record", "error", err)
	}

	if res.TotalCount <= lastTotal {
		m.metrics.PollsShortCircuited.Inc()
		m.logger.Info("No new repositories found", "total_count", res.TotalCount, "last_total_count", lastTotal)
		return nil, nil
	}

	var batch []model.Repository
	for _, item := range res.Items {
		if len(batch) >= notificationBatchLimit {
			break
		}

		repo := item
		repo.CVEIDs = cveid.Extract(repo.Description)

		if m.blacklist.Matches(repo) {
			m.logger.Debug("Repository is blacklisted, skipping", "url", repo.URL)
			continue
		}

		storedUpdatedAt, exists, err := m.store.RecordExists(ctx, repo.ID)
		if err != nil {
			m.logger.Error("Failed to check repository existence", "repo_id", repo.ID, "error", err)
			continue
		}

		switch {
		case !exists:
			repo.Status = model.StatusNew
			if err := m.store.UpsertRecord(ctx, repo, model.StatusNew); err != nil {
				m.logger.Error("Failed to persist new repository", "repo_id", repo.ID, "error", err)
				continue
			}
			m.metrics.RepositoriesNew.Inc()
			batch = append(batch, repo)
		case storedUpdatedAt < repo.UpdatedAt:
			// Updated repositories are tracked but not re-notified.
			repo.Status = model.StatusUpdated
			if err := m.store.UpsertRecord(ctx, repo, model.StatusUpdated); err != nil {
				m.logger.Error("Failed to persist updated repository", "repo_id", repo.ID, "error", err)
				continue
			}
			m.metrics.RepositoriesUpdated.Inc()
			m.logger.Info("Repository has been updated", "url", repo.URL)
		}
	}

	return batch, nil
}
