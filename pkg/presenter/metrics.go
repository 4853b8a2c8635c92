package presenter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricEventsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "perch",
		Name:      "presenter_events_dispatched_total",
		Help:      "Events dispatched by each presenter.",
	}, []string{"presenter"})
	metricErrorsShown = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "perch",
		Name:      "presenter_errors_shown_total",
		Help:      "Service errors surfaced as error banners.",
	}, []string{"presenter"})
	metricLag = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "perch",
		Name:      "presenter_lag_skipped_total",
		Help:      "Events skipped because a presenter lagged the bus.",
	}, []string{"presenter"})
	metricCommandsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "perch",
		Name:      "presenter_commands_dropped_total",
		Help:      "View commands dropped by a full sink.",
	}, []string{"presenter"})
)
