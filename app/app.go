// Package app wires configuration, observability, storage, the event bus and
// the modules into one process.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Black-And-White-Club/kamisato/app/modules/reminder"
	reminderevents "github.com/Black-And-White-Club/kamisato/app/modules/reminder/events"
	"github.com/Black-And-White-Club/kamisato/app/observability"
	"github.com/Black-And-White-Club/kamisato/config"
	"github.com/Black-And-White-Club/kamisato/db/bundb"
	"github.com/Black-And-White-Club/kamisato/pkg/eventbus"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/uptrace/bun"
)

// App holds the long-lived components of the process.
type App struct {
	Config         *config.Config
	Observability  *observability.Observability
	DB             *bun.DB
	EventBus       eventbus.EventBus
	Router         *message.Router
	ReminderModule *reminder.Module
	HTTPServer     *http.Server
	wg             sync.WaitGroup
}

// Initialize connects every dependency, runs migrations and builds the modules.
func (app *App) Initialize(ctx context.Context, cfg *config.Config) error {
	app.Config = cfg
	obs, err := observability.New(ctx, cfg.Observability)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	app.Observability = obs
	logger := app.Observability.Logger

	logger.InfoContext(ctx, "Initializing application")

	db, err := bundb.NewBunDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.DB = db

	if err := bundb.RunMigrations(ctx, db, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	eventBus, err := eventbus.NewNATSEventBus(ctx, cfg.NATS.URL, cfg.NATS.DurablePrefix, []eventbus.StreamConfig{
		{Name: reminderevents.StreamName, Subjects: reminderevents.Subjects()},
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	app.EventBus = eventBus

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, watermill.NewSlogLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create Watermill router: %w", err)
	}
	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
	)
	app.Router = router

	reminderModule, err := reminder.NewReminderModule(ctx, cfg, app.Observability, eventBus, router, db)
	if err != nil {
		return fmt.Errorf("failed to initialize reminder module: %w", err)
	}
	app.ReminderModule = reminderModule

	if cfg.Observability.MetricsAddress != "" {
		checks := map[string]HealthCheck{
			"postgres": db.PingContext,
			"queue":    reminderModule.Queue.HealthCheck,
		}
		app.HTTPServer = &http.Server{
			Addr:              cfg.Observability.MetricsAddress,
			Handler:           NewHTTPHandler(checks, app.Observability.Registry, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	logger.InfoContext(ctx, "Application initialized")
	return nil
}

// Run starts the modules, the message router and the HTTP server, and blocks
// until ctx is cancelled or the router stops.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Logger

	app.wg.Add(1)
	go app.ReminderModule.Run(ctx, &app.wg)

	if app.HTTPServer != nil {
		go func() {
			logger.InfoContext(ctx, "HTTP server listening", "address", app.HTTPServer.Addr)
			if err := app.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.ErrorContext(ctx, "HTTP server failed", "error", err)
			}
		}()
	}

	if err := app.Router.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("message router stopped: %w", err)
	}
	return nil
}

// Close shuts everything down in reverse order of startup.
func (app *App) Close() error {
	if app.Observability == nil {
		return nil
	}
	logger := app.Observability.Logger
	logger.Info("Shutting down application")

	var errs []error
	if app.HTTPServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.HTTPServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}
	if app.ReminderModule != nil {
		if err := app.ReminderModule.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	app.wg.Wait()

	if app.Router != nil {
		if err := app.Router.Close(); err != nil {
			errs = append(errs, fmt.Errorf("router: %w", err))
		}
	}
	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event bus: %w", err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Observability.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	logger.Info("Application shut down")
	return errors.Join(errs...)
}
