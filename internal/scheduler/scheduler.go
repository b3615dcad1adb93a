// Package scheduler drives the periodic fund jobs. Every job runs
// under a cluster-wide lock so concurrent service instances never
// process the same batch twice, and every posting a job makes is
// idempotent, so a crashed run is simply retried on the next tick.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/TulevaEE/onboarding-service-sub001/internal/infrastructure/metrics"
	"github.com/TulevaEE/onboarding-service-sub001/internal/usecase"
)

// Job is one named unit of scheduled work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Config holds scheduler dependencies.
type Config struct {
	Locker   usecase.JobLocker
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
	Interval time.Duration
	LockTTL  time.Duration
}

// Scheduler ticks through a fixed job list. Jobs run sequentially
// within a tick so the payment pipeline advances in order: a payment
// verified on one tick is reserved on the same tick's later job.
type Scheduler struct {
	locker   usecase.JobLocker
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	interval time.Duration
	lockTTL  time.Duration
	jobs     []Job

	wg   sync.WaitGroup
	stop chan struct{}
}

// New creates a scheduler for the given jobs.
func New(cfg Config, jobs []Job) *Scheduler {
	interval := cfg.Interval
	if interval == 0 {
		interval = time.Minute
	}
	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 5 * time.Minute
	}
	return &Scheduler{
		locker:   cfg.Locker,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.With().Str("component", "scheduler").Logger(),
		interval: interval,
		lockTTL:  lockTTL,
		jobs:     jobs,
		stop:     make(chan struct{}),
	}
}

// Start launches the tick loop. It returns immediately; call Stop to
// drain a running tick and shut down.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info().
			Dur("interval", s.interval).
			Int("jobs", len(s.jobs)).
			Msg("scheduler started")

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop shuts the scheduler down and waits for an in-flight tick.
func (s *Scheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) tick(ctx context.Context) {
	for _, job := range s.jobs {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		default:
		}
		s.runJob(ctx, job)
	}
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	acquired, err := s.locker.Acquire(ctx, job.Name, s.lockTTL)
	if err != nil {
		s.logger.Error().Err(err).Str("job", job.Name).Msg("job lock acquire failed")
		return
	}
	if !acquired {
		// Another instance holds the lock; its run covers this tick.
		return
	}
	defer func() {
		if err := s.locker.Release(ctx, job.Name); err != nil {
			s.logger.Error().Err(err).Str("job", job.Name).Msg("job lock release failed")
		}
	}()

	start := time.Now()
	err = job.Run(ctx)
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.JobRuns.WithLabelValues(job.Name).Inc()
		s.metrics.JobDuration.WithLabelValues(job.Name).Observe(elapsed.Seconds())
		if err != nil {
			s.metrics.JobErrors.WithLabelValues(job.Name).Inc()
		}
	}
	if err != nil {
		s.logger.Error().Err(err).Str("job", job.Name).Dur("took", elapsed).Msg("job failed")
		return
	}
	s.logger.Debug().Str("job", job.Name).Dur("took", elapsed).Msg("job completed")
}

// Jobs assembles the standard job list in pipeline order.
func Jobs(
	payments *usecase.PaymentJobs,
	redemptions *usecase.RedemptionJobs,
	fees *usecase.FeeUseCase,
	nav *usecase.NavUseCase,
	clock usecase.Clock,
	fund string,
) []Job {
	return []Job{
		{Name: "payment_verification", Run: payments.RunVerification},
		{Name: "payment_reservation", Run: payments.RunReservation},
		{Name: "payment_issuance", Run: payments.RunIssuance},
		{Name: "payment_processing", Run: payments.RunProcessing},
		{Name: "payment_cancellation", Run: payments.RunCancellation},
		{Name: "payment_returning", Run: payments.RunReturning},
		{Name: "redemption_reservation", Run: redemptions.RunReservation},
		{Name: "redemption_pricing", Run: redemptions.RunPricing},
		{Name: "redemption_payout", Run: redemptions.RunPayout},
		{Name: "redemption_processing", Run: redemptions.RunProcessing},
		{Name: "redemption_cancellation", Run: redemptions.RunCancellation},
		{Name: "fee_accrual", Run: func(ctx context.Context) error {
			return fees.AccrueDailyFees(ctx, clock.Now())
		}},
		{Name: "nav_publication", Run: func(ctx context.Context) error {
			_, err := nav.Publish(ctx, fund, clock.Now())
			return err
		}},
	}
}
