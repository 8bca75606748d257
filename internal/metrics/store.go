// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics defines the Prometheus collectors of teleport.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teleport_store_requests_total",
		Help: "Remote position store requests by operation and result",
	}, []string{"op", "result"}) // op=save|fetch|delete, result=ok|unavailable|timeout|upstream|rejected|circuit_open|no_identity

	storeRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "teleport_store_request_duration_seconds",
		Help:    "Remote position store round trip latency",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"op"})
)

// RecordStoreRequest records the outcome and latency of one store round trip.
func RecordStoreRequest(op, result string, took time.Duration) {
	storeRequestsTotal.WithLabelValues(op, result).Inc()
	if took > 0 {
		storeRequestDuration.WithLabelValues(op).Observe(took.Seconds())
	}
}
