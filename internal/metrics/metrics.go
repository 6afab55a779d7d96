// Package metrics exposes the Prometheus instrumentation for the ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors the services record into. A single instance is
// created at startup and shared.
type Metrics struct {
	DebtsRecorded       prometheus.Counter
	ExpensesRecorded    prometheus.Counter
	SettlementsRecorded prometheus.Counter
	SettlementReversals prometheus.Counter
	SuggestionRuns      prometheus.Counter
	VersionConflicts    prometheus.Counter

	RequestDuration *prometheus.HistogramVec
}

// New registers the ledger collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DebtsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "tallyup_peer_debts_recorded_total",
			Help: "Number of peer debts recorded.",
		}),
		ExpensesRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "tallyup_group_expenses_recorded_total",
			Help: "Number of group expenses recorded.",
		}),
		SettlementsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "tallyup_settlements_recorded_total",
			Help: "Number of settlements recorded.",
		}),
		SettlementReversals: factory.NewCounter(prometheus.CounterOpts{
			Name: "tallyup_settlement_reversals_total",
			Help: "Number of settlement reversals recorded.",
		}),
		SuggestionRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "tallyup_suggestion_runs_total",
			Help: "Number of settlement suggestion computations.",
		}),
		VersionConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "tallyup_version_conflicts_total",
			Help: "Number of optimistic-concurrency conflicts hit by writers.",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tallyup_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}
