// Package metrics exposes Prometheus counters for the control loops.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// ConfirmRuns counts finished command-confirm loops by outcome
	// (converged, fire_and_forget, shutdown, timed_out, error).
	ConfirmRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rsdk",
		Subsystem: "confirm",
		Name:      "runs_total",
		Help:      "Command-confirm loop runs by outcome.",
	}, []string{"outcome"})

	// ConfirmPublishes counts every command publish, initial and repeated.
	ConfirmPublishes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rsdk",
		Subsystem: "confirm",
		Name:      "publishes_total",
		Help:      "Commands published by command-confirm loops.",
	})

	// ConfirmPublishErrors counts failed publishes.
	ConfirmPublishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rsdk",
		Subsystem: "confirm",
		Name:      "publish_errors_total",
		Help:      "Publish errors seen by command-confirm loops.",
	})

	// DispatchTicks counts dispatch engine ticks.
	DispatchTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rsdk",
		Subsystem: "dispatch",
		Name:      "ticks_total",
		Help:      "Dispatch engine ticks.",
	})

	// DispatchFlushes counts batch flushes per target.
	DispatchFlushes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rsdk",
		Subsystem: "dispatch",
		Name:      "flushes_total",
		Help:      "Batches flushed to targets.",
	}, []string{"target"})

	// DispatchErrors counts action and flush errors.
	DispatchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rsdk",
		Subsystem: "dispatch",
		Name:      "errors_total",
		Help:      "Dispatch errors by stage (action, flush).",
	}, []string{"stage"})

	// DispatchLabels counts emitted binding labels.
	DispatchLabels = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rsdk",
		Subsystem: "dispatch",
		Name:      "labels_total",
		Help:      "Binding labels emitted.",
	})

	// StateUpdates counts state snapshots received per actuator.
	StateUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rsdk",
		Subsystem: "state",
		Name:      "updates_total",
		Help:      "State snapshots received by actuator.",
	}, []string{"actuator"})

	// StateRejected counts snapshots dropped for being partial or malformed.
	StateRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rsdk",
		Subsystem: "state",
		Name:      "rejected_total",
		Help:      "State snapshots rejected by actuator.",
	}, []string{"actuator"})
)

// Registry holds every rsdk collector plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		ConfirmRuns,
		ConfirmPublishes,
		ConfirmPublishErrors,
		DispatchTicks,
		DispatchFlushes,
		DispatchErrors,
		DispatchLabels,
		StateUpdates,
		StateRejected,
		collectors.NewGoCollector(),
	)
}
