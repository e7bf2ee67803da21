// Package metrics holds the Prometheus collectors of the app.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gymtrack"

var (
	LifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "membership_transitions_total",
		Help:      "Memberships moved by the lifecycle sweep, by target status.",
	}, []string{"to"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "NotifyOnce calls by notification type and outcome.",
	}, []string{"type", "outcome"})

	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_runs_total",
		Help:      "Task executions by task and status.",
	}, []string{"task", "status"})

	LastDailyRun = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "daily_job_last_success_timestamp_seconds",
		Help:      "Unix time of the last successful daily job.",
	})
)
