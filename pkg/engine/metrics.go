package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricActionsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "satchel",
		Name:      "queue_actions_enqueued_total",
		Help:      "Actions appended to a coordinator queue.",
	}, []string{"queue"})

	metricActionsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "satchel",
		Name:      "queue_actions_executed_total",
		Help:      "Actions drained and completed without error.",
	}, []string{"queue"})

	metricActionsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "satchel",
		Name:      "queue_actions_failed_total",
		Help:      "Actions that failed or panicked during drain.",
	}, []string{"queue"})

	metricGateOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "satchel",
		Name:      "queue_gate_opened_total",
		Help:      "Gate-open transitions per queue (at most one per engine instance).",
	}, []string{"queue"})

	metricTrafficObserved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "satchel",
		Name:      "traffic_events_observed_total",
		Help:      "Network traffic records observed from the session feed.",
	}, []string{"kind"})
)
