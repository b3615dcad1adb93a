package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TulevaEE/onboarding-service-sub001/internal/adapter/http/handler"
	"github.com/TulevaEE/onboarding-service-sub001/internal/adapter/http/middleware"
	"github.com/TulevaEE/onboarding-service-sub001/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	LedgerHandler     *handler.LedgerHandler
	PaymentHandler    *handler.PaymentHandler
	RedemptionHandler *handler.RedemptionHandler
	NavHandler        *handler.NavHandler
	OperationsHandler *handler.OperationsHandler
	HealthHandler     *handler.HealthHandler
	Metrics           *metrics.Metrics
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Accounts and transactions (read-only ledger surface)
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/{id}", cfg.LedgerHandler.GetAccount)
			r.Get("/{id}/balance", cfg.LedgerHandler.GetBalance)
			r.Get("/{id}/entries", cfg.LedgerHandler.ListEntries)
		})
		r.Get("/transactions/{id}", cfg.LedgerHandler.GetTransaction)

		// Payments
		r.Route("/payments", func(r chi.Router) {
			r.Post("/", cfg.PaymentHandler.CreateIntent)
			r.Post("/incoming", cfg.PaymentHandler.RegisterIncoming)
			r.Get("/{id}", cfg.PaymentHandler.GetPayment)
			r.Post("/{id}/cancel", cfg.PaymentHandler.Cancel)
			r.Post("/{id}/freeze", cfg.PaymentHandler.Freeze)
		})

		// Redemptions
		r.Route("/redemptions", func(r chi.Router) {
			r.Post("/", cfg.RedemptionHandler.Create)
			r.Get("/{id}", cfg.RedemptionHandler.Get)
			r.Post("/{id}/cancel", cfg.RedemptionHandler.Cancel)
		})

		// Net asset value
		r.Get("/nav", cfg.NavHandler.Calculate)

		// Back-office surface
		r.Route("/operations", func(r chi.Router) {
			r.Post("/bank-fee", cfg.OperationsHandler.RecordBankFee)
			r.Post("/interest", cfg.OperationsHandler.RecordInterest)
			r.Post("/adjustment", cfg.OperationsHandler.RecordAdjustment)
		})
		r.Post("/positions", cfg.OperationsHandler.IngestPositionReport)
		r.Post("/reconciliation", cfg.OperationsHandler.Reconcile)
	})

	return r
}
