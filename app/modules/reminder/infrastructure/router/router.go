package reminderrouter

import (
	"context"
	"log/slog"

	reminderevents "github.com/Black-And-White-Club/kamisato/app/modules/reminder/events"
	reminderhandlers "github.com/Black-And-White-Club/kamisato/app/modules/reminder/infrastructure/handlers"
	"github.com/Black-And-White-Club/kamisato/pkg/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"
)

// ReminderRouter handles Watermill handler registration for reminder events.
type ReminderRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	metrics    handlerwrapper.ReturningMetrics
	tracer     trace.Tracer
}

// NewReminderRouter creates a new ReminderRouter. publisher must route by
// the topic metadata, since handlers are registered without a fixed
// publish topic.
func NewReminderRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	metrics handlerwrapper.ReturningMetrics,
	tracer trace.Tracer,
) *ReminderRouter {
	return &ReminderRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		metrics:    metrics,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *ReminderRouter) Configure(_ context.Context, handlers reminderhandlers.Handlers) error {
	r.registerHandlers(handlers)
	return nil
}

// handlerDeps bundles dependencies for handler registration.
type handlerDeps struct {
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    handlerwrapper.ReturningMetrics
}

// registerHandlers wires NATS topics to handler methods.
func (r *ReminderRouter) registerHandlers(handlers reminderhandlers.Handlers) {
	deps := handlerDeps{
		router:     r.router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
		metrics:    r.metrics,
	}

	registerHandler(deps, reminderevents.ServerUpdateRequestedV1, handlers.HandleServerUpdate)
	registerHandler(deps, reminderevents.ServerScheduleRequestedV1, handlers.HandleServerSchedule)
	registerHandler(deps, reminderevents.DailySubscribeRequestedV1, handlers.HandleDailySubscribe)
	registerHandler(deps, reminderevents.DailyUnsubscribeRequestedV1, handlers.HandleDailyUnsubscribe)
	registerHandler(deps, reminderevents.WeeklySubscribeRequestedV1, handlers.HandleWeeklySubscribe)
	registerHandler(deps, reminderevents.WeeklyUnsubscribeRequestedV1, handlers.HandleWeeklyUnsubscribe)
	registerHandler(deps, reminderevents.ResinSetRequestedV1, handlers.HandleResinSet)
	registerHandler(deps, reminderevents.ResinClearRequestedV1, handlers.HandleResinClear)
	registerHandler(deps, reminderevents.CustomCreateRequestedV1, handlers.HandleCustomCreate)
	registerHandler(deps, reminderevents.CustomDeleteRequestedV1, handlers.HandleCustomDelete)
	registerHandler(deps, reminderevents.ListRequestedV1, handlers.HandleList)
	registerHandler(deps, reminderevents.UserDeleteRequestedV1, handlers.HandleUserDelete)
	registerHandler(deps, reminderevents.DeliveryFailedV1, handlers.HandleDeliveryFailed)

	r.logger.Info("Reminder module handlers registered successfully",
		slog.Int("handlers", len(r.router.Handlers())),
	)
}

// registerHandler is a generic function for type-safe Watermill handler registration.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "reminder." + topic

	deps.router.AddHandler(
		handlerName,
		topic,
		deps.subscriber,
		"",
		deps.publisher,
		handlerwrapper.WrapTransformingTyped(
			handlerName,
			deps.logger,
			deps.tracer,
			deps.metrics,
			handler,
		),
	)
}

// Close shuts down the router.
func (r *ReminderRouter) Close() error {
	return r.router.Close()
}
