// Package metrics holds the client's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionTransitions counts session identity changes seen by the balance controller.
	SessionTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recharge_client_session_transitions_total",
		Help: "Session identity changes applied by the balance controller",
	})

	// BalanceSubscriptions is the number of live balance subscriptions held.
	BalanceSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "recharge_client_balance_subscriptions_open",
		Help: "Live balance field subscriptions currently held",
	})

	// BalanceFetchFailures counts failed balance fetches.
	BalanceFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recharge_client_balance_fetch_failures_total",
		Help: "Failed initial balance fetches",
	})

	// BalanceUpdates counts applied balance values by source (fetch, live) and field.
	BalanceUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recharge_client_balance_updates_total",
		Help: "Balance values applied, by source and field",
	}, []string{"source", "field"})

	// StaleBalanceDrops counts balance results dropped after a session transition.
	StaleBalanceDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recharge_client_balance_stale_drops_total",
		Help: "Fetch results or live events dropped because the session moved on",
	})

	// ChannelFetches counts channel list refreshes by outcome.
	ChannelFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recharge_client_channel_fetches_total",
		Help: "Channel directory refreshes, by outcome",
	}, []string{"outcome"})

	// RechargeSubmissions counts submit attempts by outcome.
	RechargeSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recharge_client_recharge_submissions_total",
		Help: "Recharge submit attempts, by outcome",
	}, []string{"outcome"})

	// HTTPRequests counts local API requests by method, route pattern and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recharge_client_http_requests_total",
		Help: "Local API requests",
	}, []string{"method", "route", "status"})

	// HTTPLatency observes local API latency by method and route pattern.
	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recharge_client_http_request_duration_seconds",
		Help:    "Local API request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "route"})
)
