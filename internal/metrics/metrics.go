// Package metrics - все метрики Prometheus приложения в одном месте.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dronemarket"

// ── HTTP ──────────────────────────────────────────────────────────────────────

// HTTPRequestsTotal - запросы по методу, шаблону пути и статусу
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	},
	[]string{"method", "route", "status"},
)

var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// ── Bids ──────────────────────────────────────────────────────────────────────

// BidTransitionsTotal - переходы ставок, label to = новый статус
var BidTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bid_transitions_total",
		Help:      "Total number of bid status transitions.",
	},
	[]string{"to"},
)

// ── Webhooks ──────────────────────────────────────────────────────────────────

// WebhookEventsTotal - исход обработки: processed, skipped, failed, duplicate, rejected
var WebhookEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_events_total",
		Help:      "Total number of payment provider webhook events by outcome.",
	},
	[]string{"type", "outcome"},
)

var WebhookProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "webhook_processing_duration_seconds",
		Help:      "Duration of webhook settlement including the database transaction.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"type"},
)

// PaymentsSettledCents - сумма проведенных платежей в центах
var PaymentsSettledCents = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_settled_cents_total",
		Help:      "Total settled payment volume in minor currency units.",
	},
	[]string{"payment_type"},
)

// ── Workers ───────────────────────────────────────────────────────────────────

var WorkerRowsAffected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "worker_rows_affected_total",
		Help:      "Rows changed by background sweeps.",
	},
	[]string{"worker", "operation"},
)

var WorkerErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "worker_errors_total",
		Help:      "Failed background sweeps.",
	},
	[]string{"worker"},
)

// WSConnections - открытые websocket-соединения
var WSConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_connections",
		Help:      "Currently open websocket connections.",
	},
)
