package reminderqueue

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	reminderdomain "github.com/Black-And-White-Club/kamisato/app/modules/reminder/domain"
	reminderevents "github.com/Black-And-White-Club/kamisato/app/modules/reminder/events"
	remindermetrics "github.com/Black-And-White-Club/kamisato/app/observability/metrics/reminder"
	"github.com/Black-And-White-Club/kamisato/pkg/attr"
	"github.com/Black-And-White-Club/kamisato/pkg/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"
)

// DueStore is the part of the reminder service the dispatcher drives.
type DueStore interface {
	DueReminders(ctx context.Context, asOf time.Time) iter.Seq2[reminderdomain.DueReminder, error]
	ClaimReminder(ctx context.Context, ref reminderdomain.Ref, ttl time.Duration) (bool, error)
	MarkDelivered(ctx context.Context, ref reminderdomain.Ref) (reminderdomain.Delivery, error)
}

// DispatcherConfig tunes a Dispatcher.
type DispatcherConfig struct {
	ClaimTTL     time.Duration
	PublishRate  float64
	PublishBurst int
}

// Dispatcher publishes every due reminder once: claim, publish, finalise.
// A reminder whose publish or finalise fails keeps its claim until it
// expires and is then picked up again by a later sweep.
type Dispatcher struct {
	store     DueStore
	publisher message.Publisher
	limiter   *rate.Limiter
	claimTTL  time.Duration
	clock     reminderdomain.Clock
	logger    *slog.Logger
	metrics   remindermetrics.ReminderMetrics
	tracer    trace.Tracer
}

// NewDispatcher creates a Dispatcher. A non-positive PublishRate disables
// rate limiting.
func NewDispatcher(
	store DueStore,
	publisher message.Publisher,
	cfg DispatcherConfig,
	clock reminderdomain.Clock,
	logger *slog.Logger,
	metrics remindermetrics.ReminderMetrics,
	tracer trace.Tracer,
) *Dispatcher {
	limit := rate.Inf
	if cfg.PublishRate > 0 {
		limit = rate.Limit(cfg.PublishRate)
	}
	burst := max(cfg.PublishBurst, 1)
	if clock == nil {
		clock = reminderdomain.RealClock{}
	}
	if metrics == nil {
		metrics = remindermetrics.NewNoop()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("reminder.dispatcher")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:     store,
		publisher: publisher,
		limiter:   rate.NewLimiter(limit, burst),
		claimTTL:  cfg.ClaimTTL,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
	}
}

// Sweep dispatches every reminder due at the time of the call. It stops at
// the first storage error; publish and finalise failures are logged and
// left for the claim to expire.
func (d *Dispatcher) Sweep(ctx context.Context) (SweepStats, error) {
	ctx, span := d.tracer.Start(ctx, "ReminderDispatcher.Sweep")
	defer span.End()

	start := time.Now()
	asOf := d.clock.Now()
	var stats SweepStats

	defer func() {
		stats.Duration = time.Since(start)
		d.metrics.RecordSweep(ctx, stats.Scanned, stats.Published, stats.Duration)
		span.SetAttributes(
			attribute.Int("reminders.scanned", stats.Scanned),
			attribute.Int("reminders.published", stats.Published),
		)
	}()

	for due, err := range d.store.DueReminders(ctx, asOf) {
		if err != nil {
			span.RecordError(err)
			return stats, fmt.Errorf("failed to list due reminders: %w", err)
		}
		stats.Scanned++

		kind := string(due.Ref.Kind)
		claimed, err := d.store.ClaimReminder(ctx, due.Ref, d.claimTTL)
		if err != nil {
			span.RecordError(err)
			return stats, fmt.Errorf("failed to claim %s: %w", due.Ref, err)
		}
		if !claimed {
			d.metrics.RecordDispatch(ctx, kind, "skipped")
			continue
		}
		stats.Claimed++
		d.metrics.RecordDispatch(ctx, kind, "claimed")

		if err := d.limiter.Wait(ctx); err != nil {
			return stats, err
		}

		msgCtx := attr.WithCorrelationID(ctx, watermill.NewUUID())
		if err := d.publish(msgCtx, due); err != nil {
			d.metrics.RecordDispatch(ctx, kind, "publish_failed")
			d.logger.ErrorContext(msgCtx, "Failed to publish due reminder",
				attr.ExtractCorrelationID(msgCtx),
				attr.String("ref", due.Ref.String()),
				attr.Error(err),
			)
			continue
		}
		stats.Published++
		d.metrics.RecordDispatch(ctx, kind, "published")

		delivery, err := d.store.MarkDelivered(msgCtx, due.Ref)
		if err != nil {
			d.metrics.RecordDispatch(ctx, kind, "finalize_failed")
			d.logger.ErrorContext(msgCtx, "Failed to finalise delivered reminder",
				attr.ExtractCorrelationID(msgCtx),
				attr.String("ref", due.Ref.String()),
				attr.Error(err),
			)
			continue
		}
		stats.Finalized++
		d.metrics.RecordDispatch(ctx, kind, "finalized")

		d.logger.DebugContext(msgCtx, "Reminder dispatched",
			attr.ExtractCorrelationID(msgCtx),
			attr.String("ref", due.Ref.String()),
			attr.String("outcome", string(delivery.Outcome)),
		)
	}

	if stats.Scanned > 0 {
		d.logger.InfoContext(ctx, "Reminder sweep completed",
			attr.Int("scanned", stats.Scanned),
			attr.Int("published", stats.Published),
			attr.Int("finalized", stats.Finalized),
		)
	}
	return stats, nil
}

func (d *Dispatcher) publish(ctx context.Context, due reminderdomain.DueReminder) error {
	msg, err := handlerwrapper.NewMessage(ctx, handlerwrapper.Result{
		Topic:   reminderevents.DueV1,
		Payload: toDuePayload(due),
	})
	if err != nil {
		return err
	}
	return d.publisher.Publish(reminderevents.DueV1, msg)
}

func toDuePayload(due reminderdomain.DueReminder) *reminderevents.DuePayloadV1 {
	return &reminderevents.DuePayloadV1{
		Kind:        string(due.Ref.Kind),
		UserID:      due.Ref.UserID,
		ReminderID:  due.Ref.ID,
		ChannelID:   due.ChannelID,
		Region:      due.Region.String(),
		Message:     due.Message,
		ResinLimit:  due.ResinLimit,
		Repeat:      due.Repeat,
		ScheduledAt: due.Ref.ScheduledAt,
	}
}
