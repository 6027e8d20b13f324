package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TokensIssued counts minted tokens by type.
	TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizplatform",
		Subsystem: "tokens",
		Name:      "issued_total",
		Help:      "API tokens issued, by token type.",
	}, []string{"type"})

	// TokenRotations counts refresh attempts by outcome code ("ok" on success).
	TokenRotations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizplatform",
		Subsystem: "tokens",
		Name:      "rotations_total",
		Help:      "Refresh token rotation attempts, by outcome.",
	}, []string{"outcome"})

	// TokensRevoked counts revoked rows by reason.
	TokensRevoked = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizplatform",
		Subsystem: "tokens",
		Name:      "revoked_total",
		Help:      "API tokens revoked, by reason.",
	}, []string{"reason"})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizplatform",
		Subsystem: "ratelimit",
		Name:      "rejected_total",
		Help:      "Requests rejected by the rate limiter, by action.",
	}, []string{"action"})

	OfflineSyncItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizplatform",
		Subsystem: "offline_sync",
		Name:      "items_total",
		Help:      "Offline sync items processed, by status.",
	}, []string{"status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quizplatform",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency, by method, route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
