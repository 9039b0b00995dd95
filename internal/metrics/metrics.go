// Package metrics defines the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DispatchMessages counts queue messages handled by the dispatcher,
	// labeled by outcome: dispatched, dropped, error.
	DispatchMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docstate_dispatch_messages_total",
		Help: "Upload queue messages handled by the dispatcher, by outcome.",
	}, []string{"outcome"})

	// ReconcileRecords counts stuck records handled by the reconciler,
	// labeled by outcome: processed, failed, unchanged, error.
	ReconcileRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docstate_reconcile_records_total",
		Help: "Stale processing records handled by the reconciler, by outcome.",
	}, []string{"outcome"})

	// ReconcileRunSeconds observes the duration of full reconciler passes.
	ReconcileRunSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docstate_reconcile_run_seconds",
		Help:    "Duration of reconciler passes.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	serverInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "docstate_server_info",
		Help: "Build information for the running server.",
	}, []string{"version"})
)

// Init sets the static server info metric.
func Init(version string) {
	serverInfo.WithLabelValues(version).Set(1)
}
