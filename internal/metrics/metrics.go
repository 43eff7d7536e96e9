package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SyncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cimon_sync_runs_total",
			Help: "Total number of provider syncs by outcome.",
		},
		[]string{"provider", "outcome"},
	)

	SyncDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cimon_sync_duration_seconds",
			Help:    "Duration of provider syncs in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"provider", "outcome"},
	)

	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cimon_provider_requests_total",
			Help: "Total number of provider operations by outcome.",
		},
		[]string{"provider", "operation", "outcome"},
	)

	ProviderRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cimon_provider_request_duration_seconds",
			Help:    "Duration of provider operations in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "operation"},
	)

	PipelinesCached = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cimon_pipelines_cached",
			Help: "Number of active pipelines in the local cache.",
		},
		[]string{"provider"},
	)

	BuildTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cimon_build_transitions_total",
			Help: "Total number of observed build status changes by new status.",
		},
		[]string{"provider", "status"},
	)

	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cimon_actions_total",
			Help: "Total number of user actions dispatched to providers.",
		},
		[]string{"provider", "action", "outcome"},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cimon_notifications_total",
			Help: "Total number of notifications emitted by transport.",
		},
		[]string{"transport", "outcome"},
	)

	SchedulerFiresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cimon_scheduler_fires_total",
			Help: "Total number of scheduled sync fires.",
		},
		[]string{"schedule"},
	)
)

// Collectors lists every cimon metric.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		SyncRunsTotal,
		SyncDurationSeconds,
		ProviderRequestsTotal,
		ProviderRequestDurationSeconds,
		PipelinesCached,
		BuildTransitionsTotal,
		ActionsTotal,
		NotificationsTotal,
		SchedulerFiresTotal,
	}
}

// Register registers all custom cimon metrics with the default Prometheus registry.
func Register() {
	prometheus.MustRegister(Collectors()...)
}

// Outcome labels an error as "ok" or "error".
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
