// Package metrics publishes the overlay's Prometheus counters and gauges.
// Shape and naming convention grounded on xiaonanln-goverse/util/metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsAccepted counts inbound transport sessions accepted per node.
	SessionsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geomesh_sessions_accepted_total",
			Help: "Total number of inbound transport sessions accepted",
		},
		[]string{"node"},
	)

	// ProtocolErrorsTotal counts sessions dropped for framing violations.
	ProtocolErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geomesh_protocol_errors_total",
			Help: "Total number of sessions terminated by a protocol error",
		},
		[]string{"node", "reason"},
	)

	// DispatchFailuresTotal counts local dispatch errors serving a request.
	DispatchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geomesh_dispatch_failures_total",
			Help: "Total number of request-dispatch failures",
		},
		[]string{"node", "operation"},
	)

	// AdmissionResultsTotal counts SafeStoreNode outcomes by relation and
	// result, useful for watching bubble-rejection rates in the field.
	AdmissionResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geomesh_admission_results_total",
			Help: "Total number of admission attempts by relation and outcome",
		},
		[]string{"node", "relation", "result"},
	)

	// ViewSize tracks the current size of each relation's view.
	ViewSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "geomesh_view_size",
			Help: "Current number of stored nodes per relation",
		},
		[]string{"node", "relation"},
	)

	// ActiveSessions tracks concurrently open transport sessions.
	ActiveSessions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "geomesh_active_sessions",
			Help: "Number of currently open transport sessions",
		},
		[]string{"node"},
	)
)
