// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Breaker open causes.
const (
	BreakerCauseFailures    = "consecutive_failures"
	BreakerCauseProbeFailed = "probe_failed"
)

var (
	StoreBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "teleport_store_breaker_state",
		Help: "Position store breaker state, 1 for the current state of each breaker",
	}, []string{"breaker", "state"})

	StoreBreakerOpens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teleport_store_breaker_opens_total",
		Help: "Times a position store breaker stopped calling the store",
	}, []string{"breaker", "cause"})

	StoreBreakerRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teleport_store_breaker_rejected_total",
		Help: "Position store calls refused locally while the breaker was open",
	}, []string{"breaker"})
)

var breakerStates = [...]string{"closed", "half-open", "open"}

// SetBreakerState marks state as the current state of breaker.
func SetBreakerState(breaker, state string) {
	for _, s := range breakerStates {
		v := 0.0
		if s == state {
			v = 1
		}
		StoreBreakerState.WithLabelValues(breaker, s).Set(v)
	}
}

func RecordBreakerOpen(breaker, cause string) {
	StoreBreakerOpens.WithLabelValues(breaker, cause).Inc()
}

func RecordBreakerRejected(breaker string) {
	StoreBreakerRejected.WithLabelValues(breaker).Inc()
}
