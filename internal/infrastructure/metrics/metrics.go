package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	TransactionsCreated *prometheus.CounterVec
	TransactionErrors   *prometheus.CounterVec
	EntriesCreated      prometheus.Counter
	AccountsCreated     *prometheus.CounterVec

	// Payment metrics
	PaymentsRegistered prometheus.Counter
	PaymentsMerged     prometheus.Counter
	PaymentStatus      *prometheus.CounterVec
	PaymentsReturned   *prometheus.CounterVec

	// Redemption metrics
	RedemptionsCreated prometheus.Counter
	RedemptionStatus   *prometheus.CounterVec

	// NAV metrics
	NavPerUnit      *prometheus.GaugeVec
	NavCalculations *prometheus.CounterVec

	// Reconciliation metrics
	ReconciliationRuns       prometheus.Counter
	ReconciliationMismatches *prometheus.CounterVec

	// Job metrics
	JobRuns     *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec
	JobErrors   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
	OutboxBacklog   prometheus.Gauge
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		TransactionsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsfund_transactions_created_total",
				Help: "Total number of ledger transactions created by operation",
			},
			[]string{"operation"},
		),
		TransactionErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsfund_transaction_errors_total",
				Help: "Total number of rejected ledger transactions by reason",
			},
			[]string{"reason"},
		),
		EntriesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "savingsfund_entries_created_total",
			Help: "Total number of ledger entries created",
		}),
		AccountsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsfund_accounts_created_total",
				Help: "Total number of ledger accounts created by purpose",
			},
			[]string{"purpose"},
		),

		PaymentsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "savingsfund_payments_registered_total",
			Help: "Total number of incoming payments registered",
		}),
		PaymentsMerged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "savingsfund_payments_merged_total",
			Help: "Total number of payment observations merged into existing payments",
		}),
		PaymentStatus: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsfund_payment_status_transitions_total",
				Help: "Total number of payment status transitions by target status",
			},
			[]string{"status"},
		),
		PaymentsReturned: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsfund_payments_returned_total",
				Help: "Total number of payments returned by reason",
			},
			[]string{"reason"},
		),

		RedemptionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "savingsfund_redemptions_created_total",
			Help: "Total number of redemption requests created",
		}),
		RedemptionStatus: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsfund_redemption_status_transitions_total",
				Help: "Total number of redemption status transitions by target status",
			},
			[]string{"status"},
		),

		NavPerUnit: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "savingsfund_nav_per_unit",
				Help: "Latest calculated net asset value per fund unit",
			},
			[]string{"fund"},
		),
		NavCalculations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsfund_nav_calculations_total",
				Help: "Total number of NAV calculations by outcome",
			},
			[]string{"outcome"},
		),

		ReconciliationRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "savingsfund_reconciliation_runs_total",
			Help: "Total number of reconciliation runs",
		}),
		ReconciliationMismatches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsfund_reconciliation_mismatches_total",
				Help: "Total number of reconciliation mismatches by ledger account",
			},
			[]string{"account"},
		),

		JobRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsfund_job_runs_total",
				Help: "Total number of scheduled job runs by job",
			},
			[]string{"job"},
		),
		JobDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "savingsfund_job_duration_seconds",
				Help:    "Duration of scheduled job runs",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"job"},
		),
		JobErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsfund_job_errors_total",
				Help: "Total number of scheduled job failures by job",
			},
			[]string{"job"},
		),

		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsfund_http_requests_total",
				Help: "Total HTTP requests by method, path and status",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "savingsfund_http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		EventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsfund_events_published_total",
				Help: "Total number of outbox events published by type",
			},
			[]string{"event_type"},
		),
		OutboxBacklog: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "savingsfund_outbox_backlog",
			Help: "Number of unpublished outbox events at last poll",
		}),
	}
}
