// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus collectors for the event engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventd_events_started_total",
		Help: "Events started by kind",
	}, []string{"kind"})

	eventsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventd_events_ended_total",
		Help: "Events terminated by kind and reason",
	}, []string{"kind", "reason"}) // reason=expired|completed|forced

	eventsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eventd_events_active",
		Help: "Number of currently active events",
	})

	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventd_submissions_total",
		Help: "Challenge answer submissions by outcome",
	}, []string{"outcome"}) // outcome=correct|incorrect|already_solved|rate_limited

	xpAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventd_xp_awarded_total",
		Help: "XP credited through the reward ledger by source (negative amounts count as 0)",
	}, []string{"source"})

	missionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventd_missions_completed_total",
		Help: "Impostor missions completed by type",
	}, []string{"type"})

	sweepRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventd_sweep_removed_total",
		Help: "Expired events terminated by the sweeper",
	})

	provisionerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventd_provisioner_failures_total",
		Help: "Channel provisioner failures by operation",
	}, []string{"op"}) // op=create|delete|delete_category

	generatorFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventd_generator_fallbacks_total",
		Help: "Content generator failures served from the static dataset",
	})
)

func IncEventStarted(kind string)               { eventsStarted.WithLabelValues(kind).Inc() }
func IncEventEnded(kind, reason string)         { eventsEnded.WithLabelValues(kind, reason).Inc() }
func SetActiveEvents(n int)                     { eventsActive.Set(float64(n)) }
func IncSubmission(outcome string)              { submissionsTotal.WithLabelValues(outcome).Inc() }
func IncMissionCompleted(missionType string)    { missionsCompleted.WithLabelValues(missionType).Inc() }
func IncSweepRemoved()                          { sweepRemoved.Inc() }
func IncProvisionerFailure(op string)           { provisionerFailures.WithLabelValues(op).Inc() }
func IncGeneratorFallback()                     { generatorFallbacks.Inc() }

func AddXPAwarded(source string, amount int) {
	if amount > 0 {
		xpAwarded.WithLabelValues(source).Add(float64(amount))
	}
}
