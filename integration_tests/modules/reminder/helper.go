package reminderintegrationtests

import (
	"context"
	"log/slog"
	"testing"
	"time"

	reminderservice "github.com/Black-And-White-Club/kamisato/app/modules/reminder/application"
	reminderdomain "github.com/Black-And-White-Club/kamisato/app/modules/reminder/domain"
	reminderdb "github.com/Black-And-White-Club/kamisato/app/modules/reminder/infrastructure/repositories"
	remindermetrics "github.com/Black-And-White-Club/kamisato/app/observability/metrics/reminder"
	"github.com/Black-And-White-Club/kamisato/integration_tests/testutils"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

var shared testutils.Shared

// baseTime is a Monday.
var baseTime = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

// TestDeps holds dependencies needed by individual tests.
type TestDeps struct {
	Ctx     context.Context
	Env     *testutils.TestEnvironment
	Repo    reminderdb.Repository
	BunDB   *bun.DB
	Clock   *reminderdomain.FixedClock
	Service *reminderservice.ReminderService
	Gen     *testutils.TestDataGenerator
}

func SetupTestReminderService(t *testing.T) TestDeps {
	t.Helper()

	env := shared.Get(t)

	resetCtx, resetCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer resetCancel()
	if err := env.Reset(resetCtx); err != nil {
		t.Fatalf("Failed to reset environment: %v", err)
	}

	testLogger := slog.New(slog.NewTextHandler(testutils.TestWriter{T: t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	repo := reminderdb.NewRepository(env.DB)
	clock := &reminderdomain.FixedClock{T: baseTime}
	service := reminderservice.NewReminderService(
		repo,
		testLogger,
		remindermetrics.NewNoop(),
		noop.NewTracerProvider().Tracer("test_reminder_service"),
		env.DB,
		clock,
		2,
	)

	gen := testutils.NewTestDataGenerator()
	t.Logf("data generator seed: %d", gen.Seed())

	return TestDeps{
		Ctx:     env.Ctx,
		Env:     env,
		Repo:    repo,
		BunDB:   env.DB,
		Clock:   clock,
		Service: service,
		Gen:     gen,
	}
}

// collectDue drains DueReminders, failing the test on error.
func collectDue(t *testing.T, deps TestDeps) []reminderdomain.DueReminder {
	t.Helper()
	var out []reminderdomain.DueReminder
	for d, err := range deps.Service.DueReminders(deps.Ctx, deps.Clock.Now()) {
		if err != nil {
			t.Fatalf("DueReminders returned error: %v", err)
		}
		out = append(out, d)
	}
	return out
}
