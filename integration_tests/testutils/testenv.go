package testutils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"sync"
	"testing"
	"time"

	reminderevents "github.com/Black-And-White-Club/kamisato/app/modules/reminder/events"
	"github.com/Black-And-White-Club/kamisato/config"
	"github.com/Black-And-White-Club/kamisato/db/bundb"
	"github.com/Black-And-White-Club/kamisato/integration_tests/containers"
	"github.com/Black-And-White-Club/kamisato/pkg/eventbus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
)

// TestEnvironment holds the containers and connections shared by a test package.
type TestEnvironment struct {
	Ctx           context.Context
	CancelContext context.CancelFunc
	PgContainer   *postgres.PostgresContainer
	NatsContainer testcontainers.Container
	DB            *bun.DB
	Config        *config.Config
}

// NewTestEnvironment starts Postgres and NATS and migrates the database.
func NewTestEnvironment() (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(context.Background())
	env := &TestEnvironment{Ctx: ctx, CancelContext: cancel}

	pgContainer, pgConnStr, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to setup postgres container: %w", err)
	}
	env.PgContainer = pgContainer

	natsContainer, natsURL, err := containers.SetupNatsContainer(ctx, []eventbus.StreamConfig{
		{Name: reminderevents.StreamName, Subjects: reminderevents.Subjects()},
	})
	if err != nil {
		env.Terminate()
		return nil, fmt.Errorf("failed to setup nats container: %w", err)
	}
	env.NatsContainer = natsContainer

	env.Config = &config.Config{
		Postgres: config.PostgresConfig{DSN: pgConnStr},
		NATS:     config.NATSConfig{URL: natsURL, DurablePrefix: "test"},
		Reminder: config.ReminderConfig{
			PollInterval: time.Second,
			ClaimTTL:     time.Minute,
			BatchSize:    10,
			PublishRate:  100,
			PublishBurst: 10,
			MaxWorkers:   1,
		},
	}

	db, err := bundb.NewBunDB(ctx, env.Config.Postgres)
	if err != nil {
		env.Terminate()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	env.DB = db

	if err := bundb.RunMigrations(ctx, db, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		env.Terminate()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return env, nil
}

// Reset empties every table the tests write to.
func (env *TestEnvironment) Reset(ctx context.Context) error {
	_, err := env.DB.ExecContext(ctx, `
		TRUNCATE user_configs, daily_reminders, weekly_reminders, resin_reminders,
			custom_reminders, artifact_substats, artifacts
		RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

// Terminate closes the connection and stops the containers.
func (env *TestEnvironment) Terminate() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	if env.DB != nil {
		errs = append(errs, env.DB.Close())
	}
	if env.NatsContainer != nil {
		errs = append(errs, env.NatsContainer.Terminate(ctx))
	}
	if env.PgContainer != nil {
		errs = append(errs, env.PgContainer.Terminate(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		log.Printf("Error terminating test environment: %v", err)
	}
	env.CancelContext()
}

// Shared lazily creates one environment per test binary. Callers skip rather
// than fail when Docker is unavailable.
type Shared struct {
	once sync.Once
	env  *TestEnvironment
	err  error
}

// Get returns the shared environment, skipping t in short mode or when the
// containers cannot start.
func (s *Shared) Get(t *testing.T) *TestEnvironment {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	s.once.Do(func() {
		s.env, s.err = NewTestEnvironment()
	})
	if s.err != nil {
		t.Skipf("integration environment unavailable: %v", s.err)
	}
	return s.env
}

// Close terminates the environment if it was started.
func (s *Shared) Close() {
	if s.env != nil {
		s.env.Terminate()
	}
}

// TestWriter sends slog output to the test log.
type TestWriter struct {
	T *testing.T
}

func (tw TestWriter) Write(p []byte) (n int, err error) {
	tw.T.Log(string(p))
	return len(p), nil
}
