// Package metrics exposes Prometheus instrumentation for dispatch activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DispatchesTotal counts completed dispatch calls by outcome status.
	DispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swarm_dispatches_total",
			Help: "Total number of dispatch calls, by outcome status.",
		},
		[]string{"status"},
	)

	// SubtasksTotal counts terminal subtask results by status.
	SubtasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swarm_subtasks_total",
			Help: "Total number of subtask executions, by terminal status.",
		},
		[]string{"status"},
	)

	// InflightSubtasks tracks the number of subtasks currently executing.
	InflightSubtasks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "swarm_inflight_subtasks",
			Help: "Number of subtask executions currently in flight.",
		},
	)

	// PersistFailuresTotal counts outcomes the result store rejected.
	PersistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "swarm_persist_failures_total",
			Help: "Total number of outcome persist attempts that failed.",
		},
	)
)
