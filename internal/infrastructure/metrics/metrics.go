package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Order metrics
	OrdersCreated    prometheus.Counter
	OrdersConfirmed  prometheus.Counter
	OrdersCompleted  prometheus.Counter
	OrdersCancelled  prometheus.Counter
	DisputesOpened   prometheus.Counter
	DisputesResolved *prometheus.CounterVec
	OrderDuration    prometheus.Histogram
	OrderAmount      prometheus.Histogram

	// Loan metrics
	LoansRequested   prometheus.Counter
	LoansApproved    prometheus.Counter
	InstallmentsPaid prometheus.Counter
	LoansOutstanding prometheus.Gauge

	// Points and membership metrics
	PointsConversions      prometheus.Counter
	MembershipFeesCaptured prometheus.Counter

	// Account metrics
	AccountsCreated prometheus.Counter
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter

	// Consistency metrics
	ConsistencyChecks   prometheus.Counter
	ConsistencyFailures prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec

	// Authentication metrics
	AuthAttempts *prometheus.CounterVec
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Order metrics
		OrdersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_orders_created_total",
			Help: "Total number of orders created",
		}),
		OrdersConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_orders_confirmed_total",
			Help: "Total number of orders with confirmed payment",
		}),
		OrdersCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_orders_completed_total",
			Help: "Total number of completed orders",
		}),
		OrdersCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_orders_cancelled_total",
			Help: "Total number of cancelled orders",
		}),
		DisputesOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_disputes_opened_total",
			Help: "Total number of disputes opened",
		}),
		DisputesResolved: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_disputes_resolved_total",
				Help: "Total number of disputes resolved by outcome",
			},
			[]string{"resolution"},
		),
		OrderDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "treasury_order_confirm_duration_seconds",
			Help:    "Duration of payment confirmation",
			Buckets: prometheus.DefBuckets,
		}),
		OrderAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "treasury_order_amount",
			Help:    "Order gross amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
		}),

		// Loan metrics
		LoansRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_loans_requested_total",
			Help: "Total number of loan requests",
		}),
		LoansApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_loans_approved_total",
			Help: "Total number of loans approved and disbursed",
		}),
		InstallmentsPaid: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_installments_paid_total",
			Help: "Total number of installments paid",
		}),
		LoansOutstanding: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "treasury_loans_outstanding",
			Help: "Outstanding repayment total across active loans",
		}),

		// Points and membership metrics
		PointsConversions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_points_conversions_total",
			Help: "Total number of point conversions",
		}),
		MembershipFeesCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_membership_fees_total",
			Help: "Total number of membership fees captured",
		}),

		// Account metrics
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_account_cache_hits_total",
			Help: "Account cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_account_cache_misses_total",
			Help: "Account cache misses",
		}),

		// Consistency metrics
		ConsistencyChecks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_consistency_checks_total",
			Help: "Total number of consistency sweeps",
		}),
		ConsistencyFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_consistency_failures_total",
			Help: "Total number of consistency sweeps that found drift",
		}),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "treasury_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "treasury_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "treasury_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Authentication metrics
		AuthAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_auth_attempts_total",
				Help: "Total authentication attempts",
			},
			[]string{"status"},
		),
		AuthFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		// Rate limiting metrics
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),

		// Audit metrics
		AuditLogsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}
