// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	savesSuppressedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teleport_saves_suppressed_total",
		Help: "Position saves skipped by the controller",
	}, []string{"reason"}) // reason=end_guard|at_end|no_identity

	seeksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teleport_seeks_total",
		Help: "Resume seek operations by outcome",
	}, []string{"outcome"}) // outcome=converged|forced|cancelled

	seekAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teleport_seek_attempts_total",
		Help: "Individual seek requests issued to the player (including forced final seeks)",
	})

	reporterSavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teleport_reporter_saves_total",
		Help: "Saves triggered by the periodic progress reporter",
	})

	controllerEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teleport_controller_events_total",
		Help: "Player lifecycle events handled by the controller",
	}, []string{"trigger"}) // trigger=fetch|seek|save|delete
)

// RecordSaveSuppressed counts a save the controller decided not to issue.
func RecordSaveSuppressed(reason string) {
	savesSuppressedTotal.WithLabelValues(reason).Inc()
}

// RecordSeek counts a finished seek operation.
func RecordSeek(outcome string) {
	seeksTotal.WithLabelValues(outcome).Inc()
}

// IncSeekAttempt counts one seek request sent to the player.
func IncSeekAttempt() {
	seekAttemptsTotal.Inc()
}

// IncReporterSave counts a save issued by the periodic reporter.
func IncReporterSave() {
	reporterSavesTotal.Inc()
}

// RecordControllerEvent counts a handled lifecycle trigger.
func RecordControllerEvent(trigger string) {
	controllerEventsTotal.WithLabelValues(trigger).Inc()
}
