package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── HTTP request metrics (RED method) ──────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aluminum_intel",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "aluminum_intel",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "aluminum_intel",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})
)

// ── Source fetch metrics ───────────────────────────────────────────────

var (
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aluminum_intel",
		Subsystem: "fetch",
		Name:      "total",
		Help:      "Total number of fetch attempts per source.",
	}, []string{"source", "status"})

	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "aluminum_intel",
		Subsystem: "fetch",
		Name:      "duration_seconds",
		Help:      "Duration of one source fetch in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"source"})

	FetchLastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "aluminum_intel",
		Subsystem: "fetch",
		Name:      "last_success_timestamp",
		Help:      "Unix timestamp of the last fetch that contributed data, per source.",
	}, []string{"source"})

	FetchWarningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aluminum_intel",
		Subsystem: "fetch",
		Name:      "warnings_total",
		Help:      "Total data-quality warnings emitted per source.",
	}, []string{"source"})
)

// ── Snapshot metrics ───────────────────────────────────────────────────

var (
	SnapshotRefreshTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aluminum_intel",
		Subsystem: "snapshot",
		Name:      "refresh_total",
		Help:      "Total number of completed aggregation runs.",
	})

	SnapshotLastRefresh = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "aluminum_intel",
		Subsystem: "snapshot",
		Name:      "last_refresh_timestamp",
		Help:      "Unix timestamp of the last completed aggregation run.",
	})

	SnapshotFieldsAbsent = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "aluminum_intel",
		Subsystem: "snapshot",
		Name:      "fields_absent",
		Help:      "Number of absent optional fields in the latest snapshot.",
	})

	SnapshotFieldValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "aluminum_intel",
		Subsystem: "snapshot",
		Name:      "field_value",
		Help:      "Current value of a snapshot field, exported when present.",
	}, []string{"field"})
)

// ── Alert delivery metrics ─────────────────────────────────────────────

var (
	AlertsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aluminum_intel",
		Subsystem: "alerts",
		Name:      "sent_total",
		Help:      "Total alerts successfully delivered.",
	}, []string{"code"})

	AlertsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aluminum_intel",
		Subsystem: "alerts",
		Name:      "failed_total",
		Help:      "Total alert delivery failures.",
	}, []string{"code"})

	AlertsDeduplicatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aluminum_intel",
		Subsystem: "alerts",
		Name:      "deduplicated_total",
		Help:      "Total alerts suppressed by deduplication.",
	}, []string{"code"})
)
