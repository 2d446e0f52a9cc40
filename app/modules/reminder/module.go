package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	reminderservice "github.com/Black-And-White-Club/kamisato/app/modules/reminder/application"
	reminderdomain "github.com/Black-And-White-Club/kamisato/app/modules/reminder/domain"
	reminderhandlers "github.com/Black-And-White-Club/kamisato/app/modules/reminder/infrastructure/handlers"
	reminderqueue "github.com/Black-And-White-Club/kamisato/app/modules/reminder/infrastructure/queue"
	reminderdb "github.com/Black-And-White-Club/kamisato/app/modules/reminder/infrastructure/repositories"
	reminderrouter "github.com/Black-And-White-Club/kamisato/app/modules/reminder/infrastructure/router"
	"github.com/Black-And-White-Club/kamisato/app/observability"
	"github.com/Black-And-White-Club/kamisato/config"
	"github.com/Black-And-White-Club/kamisato/pkg/eventbus"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
)

// stopTimeout bounds how long Close waits for an in-flight sweep.
const stopTimeout = 30 * time.Second

// Module represents the reminder module.
type Module struct {
	ReminderService reminderservice.Service
	ReminderRouter  *reminderrouter.ReminderRouter
	Queue           reminderqueue.QueueService
	cancelFunc      context.CancelFunc
	logger          *slog.Logger
}

// NewReminderModule creates and initializes a new reminder module.
func NewReminderModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	eventBus eventbus.EventBus,
	router *message.Router,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger.With("module", "reminder")
	tracer := obs.Tracer
	metrics := obs.ReminderMetrics

	logger.InfoContext(ctx, "reminder.NewReminderModule initializing")

	// 1. Initialize Repository
	repo := reminderdb.NewRepository(db)

	// 2. Initialize Service
	clock := reminderdomain.RealClock{}
	service := reminderservice.NewReminderService(repo, logger, metrics, tracer, db, clock, cfg.Reminder.BatchSize)

	// 3. Initialize Handlers
	handlers := reminderhandlers.NewReminderHandlers(service, logger, tracer)

	// 4. Initialize Router. Results carry their topic in metadata, so the
	// publisher must route on it.
	publisher := eventbus.NewTopicRoutingPublisher(eventBus)
	reminderRouter := reminderrouter.NewReminderRouter(logger, router, eventBus, publisher, metrics, tracer)
	if err := reminderRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure reminder router: %w", err)
	}

	// 5. Initialize the due-reminder dispatcher and its River schedule
	dispatcher := reminderqueue.NewDispatcher(service, publisher, reminderqueue.DispatcherConfig{
		ClaimTTL:     cfg.Reminder.ClaimTTL,
		PublishRate:  cfg.Reminder.PublishRate,
		PublishBurst: cfg.Reminder.PublishBurst,
	}, clock, logger, metrics, tracer)

	queue, err := reminderqueue.NewService(ctx, cfg.Postgres.DSN, dispatcher, reminderqueue.Config{
		PollInterval: cfg.Reminder.PollInterval,
		MaxWorkers:   cfg.Reminder.MaxWorkers,
	}, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder queue: %w", err)
	}

	return &Module{
		ReminderService: service,
		ReminderRouter:  reminderRouter,
		Queue:           queue,
		logger:          logger,
	}, nil
}

// Run starts the sweep schedule and blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting reminder module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if err := m.Queue.Start(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Failed to start reminder queue", "error", err)
		return
	}

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Reminder module goroutine stopped")
}

// Close shuts down the reminder module.
func (m *Module) Close() error {
	m.logger.Info("Stopping reminder module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	var firstErr error
	if m.Queue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := m.Queue.Stop(ctx); err != nil {
			m.logger.Error("Error stopping reminder queue", "error", err)
			firstErr = fmt.Errorf("error stopping reminder queue: %w", err)
		}
	}

	if m.ReminderRouter != nil {
		if err := m.ReminderRouter.Close(); err != nil {
			m.logger.Error("Error closing ReminderRouter from module", "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("error closing ReminderRouter: %w", err)
			}
		}
	}

	m.logger.Info("Reminder module stopped")
	return firstErr
}
