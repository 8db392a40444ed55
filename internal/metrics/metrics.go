package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors are partitioned by numeric chain id ("chain" label).

var (
	// Watcher
	WatcherLogsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamfund",
		Subsystem: "watcher",
		Name:      "logs_received_total",
		Help:      "Total contract logs received from the chain",
	}, []string{"chain", "mode"})

	WatcherReconnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamfund",
		Subsystem: "watcher",
		Name:      "reconnects_total",
		Help:      "Total log subscription reconnects",
	}, []string{"chain"})

	WatcherErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamfund",
		Subsystem: "watcher",
		Name:      "errors_total",
		Help:      "Total watcher errors by stage",
	}, []string{"chain", "stage"})

	WatcherHeadBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "streamfund",
		Subsystem: "watcher",
		Name:      "last_block",
		Help:      "Highest block number the watcher has covered",
	}, []string{"chain"})

	// Dispatcher
	DispatchQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "streamfund",
		Subsystem: "dispatch",
		Name:      "queue_depth",
		Help:      "Logs waiting in the per-chain dispatch queue",
	}, []string{"chain"})

	DispatchDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamfund",
		Subsystem: "dispatch",
		Name:      "dropped_total",
		Help:      "Logs dropped without being applied, by reason",
	}, []string{"chain", "reason"})

	DispatchPanics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamfund",
		Subsystem: "dispatch",
		Name:      "panics_total",
		Help:      "Handler panics recovered by the dispatcher",
	}, []string{"chain"})

	DispatchAbandoned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamfund",
		Subsystem: "dispatch",
		Name:      "abandoned_total",
		Help:      "Queued logs abandoned at shutdown",
	}, []string{"chain"})

	// Reconciler
	ReconcilerEventsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamfund",
		Subsystem: "reconciler",
		Name:      "events_total",
		Help:      "Contract events handled, by outcome",
	}, []string{"chain", "event", "outcome"})

	ReconcilerHandlerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "streamfund",
		Subsystem: "reconciler",
		Name:      "handler_duration_seconds",
		Help:      "Event handler duration",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"chain", "event"})

	ReconcilerRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamfund",
		Subsystem: "reconciler",
		Name:      "retries_total",
		Help:      "Handler retries after transient failures",
	}, []string{"chain", "event"})

	ReconcilerConsistencyErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamfund",
		Subsystem: "reconciler",
		Name:      "consistency_errors_total",
		Help:      "Events referencing a missing chain, token or fee collector",
	}, []string{"chain", "event", "entity"})

	ReconcilerSupportUSD = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamfund",
		Subsystem: "reconciler",
		Name:      "support_usd_total",
		Help:      "USD value of applied supports",
	}, []string{"chain"})

	ReconcilerUnpricedSupports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamfund",
		Subsystem: "reconciler",
		Name:      "unpriced_supports_total",
		Help:      "Supports applied while the price oracle was unavailable",
	}, []string{"chain"})

	// Bootstrap
	BootstrapEntities = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamfund",
		Subsystem: "bootstrap",
		Name:      "entities_total",
		Help:      "Bootstrap ensure steps by entity and outcome",
	}, []string{"entity", "outcome"})

	// Price oracle
	PriceRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamfund",
		Subsystem: "price",
		Name:      "requests_total",
		Help:      "Price lookups by result",
	}, []string{"result"})

	PriceRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "streamfund",
		Subsystem: "price",
		Name:      "upstream_duration_seconds",
		Help:      "Upstream price request duration",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	PriceBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "streamfund",
		Subsystem: "price",
		Name:      "breaker_state",
		Help:      "Price oracle circuit breaker state (0=closed, 1=open, 2=half-open)",
	})

	// RPC
	RPCCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamfund",
		Subsystem: "rpc",
		Name:      "calls_total",
		Help:      "Upstream calls by method and status",
	}, []string{"target", "method", "status"})

	RPCRateLimitWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamfund",
		Subsystem: "rpc",
		Name:      "rate_limit_waits_total",
		Help:      "Calls delayed by the client-side rate limiter",
	}, []string{"target"})

	// Notifications
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamfund",
		Subsystem: "notify",
		Name:      "published_total",
		Help:      "Support notifications by backend and result",
	}, []string{"backend", "result"})

	// Pipeline health
	PipelineHealthStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "streamfund",
		Subsystem: "pipeline",
		Name:      "health_status",
		Help:      "Pipeline health status (0=UNKNOWN, 1=HEALTHY, 2=DEGRADED, 3=UNHEALTHY)",
	}, []string{"chain"})

	PipelineConsecutiveFailures = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "streamfund",
		Subsystem: "pipeline",
		Name:      "consecutive_failures",
		Help:      "Number of consecutive pipeline failures",
	}, []string{"chain"})

	// DB pool
	DBPoolOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "streamfund",
		Subsystem: "db_pool",
		Name:      "open_connections",
		Help:      "Open connections in the database pool",
	})

	DBPoolInUse = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "streamfund",
		Subsystem: "db_pool",
		Name:      "in_use",
		Help:      "Connections currently in use",
	})

	DBPoolIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "streamfund",
		Subsystem: "db_pool",
		Name:      "idle",
		Help:      "Idle connections",
	})

	DBPoolWaitCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "streamfund",
		Subsystem: "db_pool",
		Name:      "wait_count",
		Help:      "Total connections waited for",
	})

	DBPoolWaitDurationSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "streamfund",
		Subsystem: "db_pool",
		Name:      "wait_duration_seconds",
		Help:      "Total time blocked waiting for a connection",
	})

	// Alerts
	AlertsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamfund",
		Subsystem: "alert",
		Name:      "sent_total",
		Help:      "Total alerts sent",
	}, []string{"channel", "alert_type"})

	AlertsCooldownSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamfund",
		Subsystem: "alert",
		Name:      "cooldown_skipped_total",
		Help:      "Total alerts skipped due to cooldown",
	}, []string{"channel", "alert_type"})
)
