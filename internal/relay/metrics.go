package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kep_relay_queries_total",
			Help: "Total number of relay queries issued",
		},
		[]string{"relay"},
	)

	queryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kep_relay_query_failures_total",
			Help: "Relay queries that failed",
		},
		[]string{"relay"},
	)

	publishesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kep_relay_publishes_total",
			Help: "Total number of publish attempts",
		},
		[]string{"relay"},
	)

	publishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kep_relay_publish_failures_total",
			Help: "Publish attempts rejected or failed",
		},
		[]string{"relay"},
	)

	invalidSignatures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kep_relay_invalid_signatures_total",
			Help: "Events dropped because their signature did not verify",
		},
	)
)
