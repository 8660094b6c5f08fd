// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus counters for the monitoring pipeline.
type Metrics struct {
	registry *prometheus.Registry

	Polls               prometheus.Counter
	PollFailures        prometheus.Counter
	PollsShortCircuited prometheus.Counter
	RepositoriesNew     prometheus.Counter
	RepositoriesUpdated prometheus.Counter
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Polls: factory.NewCounter(prometheus.CounterOpts{
			Name: "monitor_polls_total",
			Help: "Total number of completed poll cycles",
		}),
		PollFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "monitor_poll_failures_total",
			Help: "Total number of poll cycles that failed to fetch search results",
		}),
		PollsShortCircuited: factory.NewCounter(prometheus.CounterOpts{
			Name: "monitor_polls_short_circuited_total",
			Help: "Total number of poll cycles skipped because the result count did not grow",
		}),
		RepositoriesNew: factory.NewCounter(prometheus.CounterOpts{
			Name: "repositories_new_total",
			Help: "Total number of repositories recorded as new",
		}),
		RepositoriesUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "repositories_updated_total",
			Help: "Total number of repositories recorded as updated",
		}),
		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notifications delivered",
		}),
		NotificationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Total number of notifications that failed to deliver",
		}),
	}
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
