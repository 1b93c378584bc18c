package tabroom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "tabroom"

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "upstream_requests_total",
		Help:      "Requests made to the tournament site, by method and outcome.",
	}, []string{"method", "outcome"})

	upstreamLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "upstream_request_seconds",
		Help:      "Latency of requests to the tournament site.",
		Buckets:   prometheus.DefBuckets,
	})

	strategyResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "strategy_results_total",
		Help:      "Outcomes of each fallback strategy, by chain.",
	}, []string{"chain", "strategy", "outcome"})

	loginWalls = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "login_walls_total",
		Help:      "Fetched pages that turned out to be a login wall.",
	})
)
