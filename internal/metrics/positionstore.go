// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	positionStoreRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teleport_positionstore_requests_total",
		Help: "Requests served by the reference position store",
	}, []string{"method", "status"})

	positionStoreRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "teleport_positionstore_backend_info",
		Help: "Active position store backend (1 for the configured backend)",
	}, []string{"backend"})

	configReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teleport_config_reloads_total",
		Help: "Configuration reload attempts by result",
	}, []string{"result"}) // result=success|failure
)

// RecordPositionStoreRequest counts one served request.
func RecordPositionStoreRequest(method string, status int) {
	positionStoreRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// SetPositionStoreBackend marks the active backend.
func SetPositionStoreBackend(backend string) {
	positionStoreRecords.Reset()
	positionStoreRecords.WithLabelValues(backend).Set(1)
}

// RecordConfigReload counts a configuration reload attempt.
func RecordConfigReload(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	configReloadsTotal.WithLabelValues(result).Inc()
}
