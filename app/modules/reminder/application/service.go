package reminderservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	reminderdomain "github.com/Black-And-White-Club/kamisato/app/modules/reminder/domain"
	reminderdb "github.com/Black-And-White-Club/kamisato/app/modules/reminder/infrastructure/repositories"
	remindermetrics "github.com/Black-And-White-Club/kamisato/app/observability/metrics/reminder"
	"github.com/Black-And-White-Club/kamisato/pkg/attr"
	"github.com/Black-And-White-Club/kamisato/pkg/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const serviceName = "ReminderService"

// DefaultDueBatchSize is the page size of DueReminders.
const DefaultDueBatchSize = 100

// ReminderService implements the Service interface.
type ReminderService struct {
	repo         reminderdb.Repository
	logger       *slog.Logger
	metrics      remindermetrics.ReminderMetrics
	tracer       trace.Tracer
	db           *bun.DB
	clock        reminderdomain.Clock
	timeParser   *reminderdomain.TimeParser
	dueBatchSize int
}

// NewReminderService creates a new ReminderService. A nil db runs every
// operation directly against the repository without a transaction.
func NewReminderService(
	repo reminderdb.Repository,
	logger *slog.Logger,
	metrics remindermetrics.ReminderMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	clock reminderdomain.Clock,
	dueBatchSize int,
) *ReminderService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = remindermetrics.NewNoop()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(serviceName)
	}
	if clock == nil {
		clock = reminderdomain.RealClock{}
	}
	if dueBatchSize <= 0 {
		dueBatchSize = DefaultDueBatchSize
	}
	return &ReminderService{
		repo:         repo,
		logger:       logger,
		metrics:      metrics,
		tracer:       tracer,
		db:           db,
		clock:        clock,
		timeParser:   reminderdomain.NewTimeParser(),
		dueBatchSize: dueBatchSize,
	}
}

// now is truncated to Postgres' microsecond precision so stored instants
// compare equal after a round trip.
func (s *ReminderService) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}

func validateIDs(ids ...string) error {
	for _, id := range ids {
		if err := reminderdomain.ValidateSnowflake(id); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidID, err)
		}
	}
	return nil
}

// unwrapResult converts an operation outcome into the public (value, error)
// shape: infrastructure errors are wrapped with ErrTransient, domain
// failures are returned as is.
func unwrapResult[S any](result results.OperationResult[S, error], err error) (S, error) {
	var zero S
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	if result.Success == nil {
		return zero, nil
	}
	return *result.Success, nil
}

func success[S any](s S) (results.OperationResult[S, error], error) {
	return results.SuccessResult[S, error](s), nil
}

func failure[S any](err error) (results.OperationResult[S, error], error) {
	return results.FailureResult[S, error](err), nil
}

func infraError[S any](format string, err error) (results.OperationResult[S, error], error) {
	return results.OperationResult[S, error]{}, fmt.Errorf(format+": %w", err)
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *ReminderService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	ctx, span := s.tracer.Start(ctx, serviceName+"."+operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("identifier", identifier),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
	}()

	s.logger.DebugContext(ctx, "Operation triggered",
		attr.ExtractCorrelationID(ctx),
		attr.String("operation", operationName),
		attr.String("identifier", identifier),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	} else {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
	}

	s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *ReminderService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}

// execute runs fn in a transaction under telemetry and unwraps the result.
func execute[S any](
	s *ReminderService,
	ctx context.Context,
	operationName string,
	identifier string,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, error], error),
) (S, error) {
	return unwrapResult(withTelemetry(s, ctx, operationName, identifier, func(ctx context.Context) (results.OperationResult[S, error], error) {
		return runInTx(s, ctx, fn)
	}))
}
