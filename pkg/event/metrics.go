package event

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricEventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "perch",
		Name:      "bus_events_published_total",
		Help:      "Events delivered to at least one subscriber.",
	})
	metricEventsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "perch",
		Name:      "bus_events_skipped_total",
		Help:      "Events skipped by lagging subscribers.",
	})
	metricPublishNoSubscribers = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "perch",
		Name:      "bus_publish_no_subscribers_total",
		Help:      "Publish attempts that found no live subscribers.",
	})
)
