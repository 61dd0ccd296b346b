package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── Source sync metrics ────────────────────────────────────────────────

var (
	SyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earnradar",
		Subsystem: "sync",
		Name:      "total",
		Help:      "Total number of sync attempts per source.",
	}, []string{"source", "status"})

	SyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "earnradar",
		Subsystem: "sync",
		Name:      "duration_seconds",
		Help:      "Duration of one source sync in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"source"})

	SyncRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earnradar",
		Subsystem: "sync",
		Name:      "records_total",
		Help:      "Opportunities upserted per source.",
	}, []string{"source"})

	SyncRecordErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earnradar",
		Subsystem: "sync",
		Name:      "record_errors_total",
		Help:      "Per-record upsert failures per source.",
	}, []string{"source"})
)

// ── Feed / wallet metrics ──────────────────────────────────────────────

var (
	FeedPages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earnradar",
		Subsystem: "feed",
		Name:      "pages_total",
		Help:      "Feed pages served, by session kind (first or continued).",
	}, []string{"kind"})

	WalletSignalsCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earnradar",
		Subsystem: "wallet",
		Name:      "signals_cache_total",
		Help:      "Wallet signals cache lookups by outcome.",
	}, []string{"outcome"})
)
