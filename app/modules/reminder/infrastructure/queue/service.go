package reminderqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	remindermetrics "github.com/Black-And-White-Club/kamisato/app/observability/metrics/reminder"
	"github.com/Black-And-White-Club/kamisato/pkg/attr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

// QueueService runs the periodic sweep.
type QueueService interface {
	// Start starts the River client; the first sweep runs immediately.
	Start(ctx context.Context) error
	// Stop waits for the running sweep to finish and closes the pool.
	Stop(ctx context.Context) error
	// HealthCheck verifies River's tables are reachable.
	HealthCheck(ctx context.Context) error
}

// Ensure Service implements QueueService
var _ QueueService = (*Service)(nil)

// Config tunes the sweep schedule.
type Config struct {
	PollInterval time.Duration
	MaxWorkers   int
}

// Service owns the River client that schedules reminder sweeps.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics remindermetrics.ReminderMetrics
}

// NewService connects River to dsn, applies River's schema migrations and
// registers the sweep worker as a periodic job.
func NewService(ctx context.Context, dsn string, dispatcher *Dispatcher, cfg Config, logger *slog.Logger, metrics remindermetrics.ReminderMetrics) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("operation", "new_reminder_queue_service"),
		attr.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", "river")

	// River requires pgx, not database/sql
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	driver := riverpgxv5.New(pool)

	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to migrate River schema: %w", err)
	}
	ctxLogger.Info("River schema up to date", attr.Int("applied", len(res.Versions)))

	interval := cfg.PollInterval
	workers := river.NewWorkers()
	river.AddWorker(workers, NewSweepWorker(dispatcher, 4*interval, ctxLogger))

	riverClient, err := river.NewClient(driver, &river.Config{
		Logger: ctxLogger,
		Queues: map[string]river.QueueConfig{
			QueueName: {MaxWorkers: max(cfg.MaxWorkers, 1)},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(interval),
				func() (river.JobArgs, *river.InsertOpts) {
					return SweepArgs{}, &river.InsertOpts{
						Queue:       QueueName,
						MaxAttempts: 1,
						UniqueOpts:  river.UniqueOpts{ByPeriod: interval},
					}
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", "river")
	metrics.RecordOperationDuration(ctx, "initialize_service", "river", time.Since(start))

	ctxLogger.Info("Reminder queue service initialized",
		attr.Duration("poll_interval", interval),
	)
	return &Service{
		client:  riverClient,
		pool:    pool,
		logger:  ctxLogger,
		metrics: metrics,
	}, nil
}

// Start starts the River queue service
func (s *Service) Start(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "start_service", "river")
	if err := s.client.Start(ctx); err != nil {
		s.metrics.RecordOperationFailure(ctx, "start_service", "river")
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "start_service", "river")
	s.logger.Info("Reminder queue service started")
	return nil
}

// Stop stops the River queue service
func (s *Service) Stop(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "stop_service", "river")
	defer s.pool.Close()

	if err := s.client.Stop(ctx); err != nil {
		s.metrics.RecordOperationFailure(ctx, "stop_service", "river")
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "stop_service", "river")
	s.logger.Info("Reminder queue service stopped")
	return nil
}

// HealthCheck verifies the queue service is healthy
func (s *Service) HealthCheck(ctx context.Context) error {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM river_job WHERE kind = $1", SweepArgs{}.Kind()).Scan(&count); err != nil {
		s.logger.Error("Queue service health check failed", attr.Error(err))
		return fmt.Errorf("queue service health check failed: %w", err)
	}
	s.logger.Debug("Queue service health check passed", attr.Int("sweep_jobs", count))
	return nil
}
