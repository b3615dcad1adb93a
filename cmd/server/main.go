package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/adapter/bank"
	kafkaEvents "github.com/TulevaEE/onboarding-service-sub001/internal/adapter/events/kafka"
	httpAdapter "github.com/TulevaEE/onboarding-service-sub001/internal/adapter/http"
	"github.com/TulevaEE/onboarding-service-sub001/internal/adapter/http/handler"
	"github.com/TulevaEE/onboarding-service-sub001/internal/adapter/registry"
	postgresRepo "github.com/TulevaEE/onboarding-service-sub001/internal/adapter/repository/postgres"
	redisRepo "github.com/TulevaEE/onboarding-service-sub001/internal/adapter/repository/redis"
	"github.com/TulevaEE/onboarding-service-sub001/internal/infrastructure/clock"
	"github.com/TulevaEE/onboarding-service-sub001/internal/infrastructure/config"
	"github.com/TulevaEE/onboarding-service-sub001/internal/infrastructure/eventpublisher"
	"github.com/TulevaEE/onboarding-service-sub001/internal/infrastructure/logger"
	"github.com/TulevaEE/onboarding-service-sub001/internal/infrastructure/metrics"
	"github.com/TulevaEE/onboarding-service-sub001/internal/infrastructure/postgres"
	"github.com/TulevaEE/onboarding-service-sub001/internal/infrastructure/redis"
	"github.com/TulevaEE/onboarding-service-sub001/internal/scheduler"
	"github.com/TulevaEE/onboarding-service-sub001/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Migrations run before anything touches the schema.
	if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations", log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer func() { _ = redisClient.Close() }()
	log.Info().Msg("connected to redis")

	m := metrics.New()
	sysClock := clock.System{}

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	partyRepo := postgresRepo.NewPartyRepository(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	txnRepo := postgresRepo.NewTransactionRepository(pool)
	paymentRepo := postgresRepo.NewPaymentRepository(pool)
	redemptionRepo := postgresRepo.NewRedemptionRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	positionRepo := postgresRepo.NewPositionReportRepository(pool)
	retrier := postgresRepo.NewRetrier(log)
	idGen := postgresRepo.NewULIDGenerator()
	jobLock := redisRepo.NewJobLock(redisClient)

	// External collaborators
	userRegistry := registry.NewClient(cfg.UserRegistryURL, cfg.CollaboratorTimeout)
	bankGateway := bank.NewClient(cfg.BankGatewayURL, cfg.CollaboratorTimeout)

	// Use cases
	ledgerUC := usecase.NewLedgerUseCase(partyRepo, accountRepo, entryRepo, idGen, sysClock)
	transactionUC := usecase.NewTransactionUseCase(txManager, accountRepo, txnRepo, entryRepo, retrier, idGen, sysClock)
	operations := usecase.NewSavingsFundLedger(ledgerUC, transactionUC)
	navUC := usecase.NewNavUseCase(ledgerUC, operations, positionRepo, txManager, outboxRepo, idGen, sysClock)
	feeUC := usecase.NewFeeUseCase(ledgerUC, operations, feeConfig(cfg))
	reconciliationUC := usecase.NewReconciliationUseCase(ledgerUC, txManager, outboxRepo, idGen, sysClock, log,
		map[string]usecase.BankMirror{
			cfg.FundBankAccountIBAN: usecase.OperationalBankMirror(),
		})
	paymentUC := usecase.NewPaymentUseCase(paymentRepo, txManager, idGen, sysClock, log)
	redemptionUC := usecase.NewRedemptionUseCase(redemptionRepo, txManager, idGen, sysClock, log)
	paymentJobs := usecase.NewPaymentJobs(paymentUC, paymentRepo, ledgerUC, operations, navUC,
		userRegistry, bankGateway, txManager, outboxRepo, idGen, sysClock, log, cfg.FundName)
	redemptionJobs := usecase.NewRedemptionJobs(redemptionUC, redemptionRepo, ledgerUC, operations,
		transactionUC, navUC, bankGateway, txManager, outboxRepo, idGen, sysClock, log, cfg.FundName)

	// Outbox publisher
	var publisher eventpublisher.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafkaEvents.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() { _ = kafkaPublisher.Close() }()
		publisher = kafkaPublisher
	} else {
		publisher = eventpublisher.NewLogPublisher(log)
	}
	outboxPublisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  publisher,
		Logger:     log,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollPeriod,
	})
	go func() {
		if err := outboxPublisher.Start(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	// Scheduled jobs
	jobs := scheduler.Jobs(paymentJobs, redemptionJobs, feeUC, navUC, sysClock, cfg.FundName)
	sched := scheduler.New(scheduler.Config{
		Locker:   jobLock,
		Metrics:  m,
		Logger:   log,
		Interval: cfg.JobInterval,
		LockTTL:  cfg.JobLockTTL,
	}, jobs)
	sched.Start(ctx)

	// HTTP server
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		LedgerHandler:     handler.NewLedgerHandler(ledgerUC, transactionUC),
		PaymentHandler:    handler.NewPaymentHandler(paymentUC),
		RedemptionHandler: handler.NewRedemptionHandler(redemptionUC),
		NavHandler:        handler.NewNavHandler(navUC, cfg.FundName),
		OperationsHandler: handler.NewOperationsHandler(operations, reconciliationUC, paymentUC, positionRepo),
		HealthHandler:     handler.NewHealthHandler(pool, redisClient),
		Metrics:           m,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	sched.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// feeConfig builds the fee schedule from configuration. The rates are
// flat annual rates; a malformed rate fails startup.
func feeConfig(cfg *config.Config) usecase.FeeConfig {
	parse := func(name, raw string) decimal.Decimal {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid %s: %v\n", name, err)
			os.Exit(1)
		}
		return d
	}
	return usecase.FeeConfig{
		ManagementTiers: []usecase.AumTier{
			{Rate: parse("MANAGEMENT_FEE_RATE", cfg.ManagementFeeRate)},
		},
		DepotRates: []usecase.MonthlyRate{
			{Year: 2025, Month: time.January, Rate: parse("DEPOT_FEE_RATE", cfg.DepotFeeRate)},
		},
		VATRate: parse("FEE_VAT_RATE", cfg.FeeVATRate),
	}
}
