// internal/notify/notifier.go
package notify

import (
	"context"
	"log/slog"
	"strings"

	"github-cve-monitor/internal/message"
	"github-cve-monitor/internal/metrics"
	"github-cve-monitor/internal/model"
)

const notificationTags = "Possible poc/exp"

// Pusher delivers a rendered message through the external push channel.
type Pusher interface {
	Send(ctx context.Context, title, body, tags string) error
}

// OverviewClient looks up a one-line vulnerability overview.
type OverviewClient interface {
	Overview(ctx context.Context, cveID string) string
}

// Translator translates free text, returning it unchanged on failure.
type Translator interface {
	Translate(ctx context.Context, text string) string
}

// Notifier enriches repositories and pushes formatted notifications.
type Notifier struct {
	push       Pusher
	overviews  OverviewClient
	translator Translator // nil when translation is disabled
	template   *message.Template
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewNotifier creates a new Notifier.
func NewNotifier(push Pusher, overviews OverviewClient, translator Translator, tmpl *message.Template, m *metrics.Metrics, logger *slog.Logger) *Notifier {
	return &Notifier{
		push:       push,
		overviews:  overviews,
		translator: translator,
		template:   tmpl,
		metrics:    m,
		logger:     logger,
	}
}

// Notify sends one notification for repo. Failures are logged and swallowed
// so a single bad record never aborts the rest of the batch.
func (n *Notifier) Notify(ctx context.Context, repo model.Repository) {
	overviews := make([]string, 0, len(repo.CVEIDs))
	for _, id := range repo.CVEIDs {
		overviews = append(overviews, n.overviews.Overview(ctx, id))
	}

	description := repo.Description
	if n.translator != nil {
		description = n.translator.Translate(ctx, description)
	}

	cveIDs := "No CVE ID detected"
	if len(repo.CVEIDs) > 0 {
		cveIDs = strings.Join(repo.CVEIDs, ", ")
	}

	body := n.template.Render(map[string]string{
		"name":          repo.Name,
		"full_name":     repo.FullName,
		"cve_ids":       cveIDs,
		"pushed_at":     repo.PushedAt,
		"created_at":    repo.CreatedAt,
		"description":   description,
		"url":           repo.URL,
		"cve_overviews": strings.Join(overviews, "\n\n"),
	})

	title := "Vulnerability repository: " + repo.Name
	if err := n.push.Send(ctx, title, body, notificationTags); err != nil {
		n.metrics.NotificationsFailed.Inc()
		n.logger.Error("Failed to send notification", "repository", repo.Name, "error", err)
		return
	}
	n.metrics.NotificationsSent.Inc()
	n.logger.Info("Notification sent", "repository", repo.Name)
}
