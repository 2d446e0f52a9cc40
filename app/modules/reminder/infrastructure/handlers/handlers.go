package reminderhandlers

import (
	"context"
	"log/slog"

	reminderservice "github.com/Black-And-White-Club/kamisato/app/modules/reminder/application"
	reminderdomain "github.com/Black-And-White-Club/kamisato/app/modules/reminder/domain"
	reminderevents "github.com/Black-And-White-Club/kamisato/app/modules/reminder/events"
	"github.com/Black-And-White-Club/kamisato/pkg/attr"
	"github.com/Black-And-White-Club/kamisato/pkg/handlerwrapper"
	"go.opentelemetry.io/otel/trace"
)

// ReminderHandlers implements the Handlers interface.
type ReminderHandlers struct {
	service reminderservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewReminderHandlers creates a new ReminderHandlers instance.
func NewReminderHandlers(
	service reminderservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &ReminderHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// outcome turns a service error into the handler's return values: domain
// failures become a command-failed result and the message is acked,
// anything else is returned so Watermill redelivers.
func (h *ReminderHandlers) outcome(ctx context.Context, topic, userID string, err error) ([]handlerwrapper.Result, error) {
	if !reminderservice.IsDomainError(err) {
		h.logger.ErrorContext(ctx, "Reminder command failed",
			attr.ExtractCorrelationID(ctx),
			attr.String("topic", topic),
			attr.UserID(userID),
			attr.Error(err),
		)
		return nil, err
	}

	h.logger.InfoContext(ctx, "Reminder command rejected",
		attr.ExtractCorrelationID(ctx),
		attr.String("topic", topic),
		attr.UserID(userID),
		attr.String("code", reminderservice.Code(err)),
	)
	return []handlerwrapper.Result{{
		Topic: replyTopic(ctx, reminderevents.CommandFailedV1),
		Payload: &reminderevents.CommandFailedPayloadV1{
			UserID: userID,
			Topic:  topic,
			Code:   reminderservice.Code(err),
			Reason: err.Error(),
		},
	}}, nil
}

// replyTopic prefers the requester's reply_to subject over the static topic.
func replyTopic(ctx context.Context, fallback string) string {
	if rt, ok := ctx.Value(handlerwrapper.CtxKeyReplyTo).(string); ok && rt != "" {
		return rt
	}
	return fallback
}

func single(ctx context.Context, topic string, payload any) []handlerwrapper.Result {
	return []handlerwrapper.Result{{Topic: replyTopic(ctx, topic), Payload: payload}}
}

// --- Server region ---

func (h *ReminderHandlers) HandleServerUpdate(ctx context.Context, payload *reminderevents.ServerUpdateRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "ReminderHandlers.HandleServerUpdate")
	defer span.End()

	region, err := reminderdomain.ParseRegion(payload.Region)
	if err != nil {
		return h.outcome(ctx, reminderevents.ServerUpdateRequestedV1, payload.UserID, reminderservice.ErrInvalidRegion)
	}

	schedule, err := h.service.SetServerRegion(ctx, payload.UserID, region)
	if err != nil {
		return h.outcome(ctx, reminderevents.ServerUpdateRequestedV1, payload.UserID, err)
	}
	return single(ctx, reminderevents.ServerUpdatedV1, toSchedulePayload(payload.UserID, schedule)), nil
}

func (h *ReminderHandlers) HandleServerSchedule(ctx context.Context, payload *reminderevents.UserRequestPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "ReminderHandlers.HandleServerSchedule")
	defer span.End()

	schedule, err := h.service.GetResetSchedule(ctx, payload.UserID)
	if err != nil {
		return h.outcome(ctx, reminderevents.ServerScheduleRequestedV1, payload.UserID, err)
	}
	return single(ctx, reminderevents.ServerScheduleV1, toSchedulePayload(payload.UserID, schedule)), nil
}

func toSchedulePayload(userID string, s *reminderdomain.ResetSchedule) *reminderevents.ServerScheduleV1Payload {
	return &reminderevents.ServerScheduleV1Payload{
		UserID:      userID,
		Region:      s.Region.String(),
		RegionName:  s.Region.DisplayName(),
		Defaulted:   s.Defaulted,
		GameWeekday: s.GameWeekday.String(),
		NextDaily:   s.NextDaily,
		NextWeekly:  s.NextWeekly,
	}
}

// --- Daily / weekly ---

func (h *ReminderHandlers) HandleDailySubscribe(ctx context.Context, payload *reminderevents.SubscribeRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "ReminderHandlers.HandleDailySubscribe")
	defer span.End()

	sub, err := h.service.SubscribeDaily(ctx, payload.UserID, payload.ChannelID, payload.Repeat)
	if err != nil {
		return h.outcome(ctx, reminderevents.DailySubscribeRequestedV1, payload.UserID, err)
	}
	return single(ctx, reminderevents.SubscriptionUpdatedV1, toSubscriptionPayload(sub)), nil
}

func (h *ReminderHandlers) HandleWeeklySubscribe(ctx context.Context, payload *reminderevents.SubscribeRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "ReminderHandlers.HandleWeeklySubscribe")
	defer span.End()

	sub, err := h.service.SubscribeWeekly(ctx, payload.UserID, payload.ChannelID, payload.Repeat)
	if err != nil {
		return h.outcome(ctx, reminderevents.WeeklySubscribeRequestedV1, payload.UserID, err)
	}
	return single(ctx, reminderevents.SubscriptionUpdatedV1, toSubscriptionPayload(sub)), nil
}

func (h *ReminderHandlers) HandleDailyUnsubscribe(ctx context.Context, payload *reminderevents.UserRequestPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "ReminderHandlers.HandleDailyUnsubscribe")
	defer span.End()

	removed, err := h.service.UnsubscribeDaily(ctx, payload.UserID)
	if err != nil {
		return h.outcome(ctx, reminderevents.DailyUnsubscribeRequestedV1, payload.UserID, err)
	}
	return single(ctx, reminderevents.SubscriptionUpdatedV1, &reminderevents.SubscriptionUpdatedPayloadV1{
		UserID:  payload.UserID,
		Kind:    string(reminderdomain.KindDaily),
		Changed: removed,
	}), nil
}

func (h *ReminderHandlers) HandleWeeklyUnsubscribe(ctx context.Context, payload *reminderevents.UserRequestPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "ReminderHandlers.HandleWeeklyUnsubscribe")
	defer span.End()

	removed, err := h.service.UnsubscribeWeekly(ctx, payload.UserID)
	if err != nil {
		return h.outcome(ctx, reminderevents.WeeklyUnsubscribeRequestedV1, payload.UserID, err)
	}
	return single(ctx, reminderevents.SubscriptionUpdatedV1, &reminderevents.SubscriptionUpdatedPayloadV1{
		UserID:  payload.UserID,
		Kind:    string(reminderdomain.KindWeekly),
		Changed: removed,
	}), nil
}

func toSubscriptionPayload(sub *reminderdomain.Subscription) *reminderevents.SubscriptionUpdatedPayloadV1 {
	next := sub.NextFire
	return &reminderevents.SubscriptionUpdatedPayloadV1{
		UserID:     sub.UserID,
		Kind:       string(sub.Kind),
		Subscribed: true,
		Changed:    true,
		ChannelID:  sub.ChannelID,
		Repeat:     sub.Repeat,
		NextFire:   &next,
	}
}

// --- Resin ---

func (h *ReminderHandlers) HandleResinSet(ctx context.Context, payload *reminderevents.ResinSetRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "ReminderHandlers.HandleResinSet")
	defer span.End()

	limit := reminderdomain.DefaultResinLimit
	if payload.Limit != nil {
		limit = *payload.Limit
	}

	alert, err := h.service.SetResinAlert(ctx, payload.UserID, payload.Current, limit, payload.ChannelID)
	if err != nil {
		return h.outcome(ctx, reminderevents.ResinSetRequestedV1, payload.UserID, err)
	}
	return single(ctx, reminderevents.ResinUpdatedV1, &reminderevents.ResinUpdatedPayloadV1{
		UserID:    alert.UserID,
		ChannelID: alert.ChannelID,
		Limit:     alert.Limit,
		AlertAt:   alert.AlertAt,
		Changed:   true,
	}), nil
}

func (h *ReminderHandlers) HandleResinClear(ctx context.Context, payload *reminderevents.UserRequestPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "ReminderHandlers.HandleResinClear")
	defer span.End()

	cleared, err := h.service.ClearResinAlert(ctx, payload.UserID)
	if err != nil {
		return h.outcome(ctx, reminderevents.ResinClearRequestedV1, payload.UserID, err)
	}
	return single(ctx, reminderevents.ResinUpdatedV1, &reminderevents.ResinUpdatedPayloadV1{
		UserID:  payload.UserID,
		Changed: cleared,
	}), nil
}

// --- Custom ---

func (h *ReminderHandlers) HandleCustomCreate(ctx context.Context, payload *reminderevents.CustomCreateRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "ReminderHandlers.HandleCustomCreate")
	defer span.End()

	var (
		created *reminderdomain.CustomReminder
		err     error
	)
	switch {
	case payload.Target != nil:
		created, err = h.service.AddCustomReminder(ctx, payload.UserID, payload.ChannelID, payload.Message, *payload.Target)
	case payload.When != "":
		created, err = h.service.ScheduleCustomReminder(ctx, payload.UserID, payload.ChannelID, payload.Message, payload.When)
	default:
		err = reminderservice.ErrInvalidTarget
	}
	if err != nil {
		return h.outcome(ctx, reminderevents.CustomCreateRequestedV1, payload.UserID, err)
	}

	return single(ctx, reminderevents.CustomCreatedV1, &reminderevents.CustomCreatedPayloadV1{
		UserID:   payload.UserID,
		Reminder: toCustomPayload(*created),
	}), nil
}

func (h *ReminderHandlers) HandleCustomDelete(ctx context.Context, payload *reminderevents.CustomDeleteRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "ReminderHandlers.HandleCustomDelete")
	defer span.End()

	if err := h.service.DeleteCustomReminder(ctx, payload.ReminderID, payload.UserID); err != nil {
		return h.outcome(ctx, reminderevents.CustomDeleteRequestedV1, payload.UserID, err)
	}
	return single(ctx, reminderevents.CustomDeletedV1, &reminderevents.CustomDeletedPayloadV1{
		UserID:     payload.UserID,
		ReminderID: payload.ReminderID,
	}), nil
}

func toCustomPayload(c reminderdomain.CustomReminder) reminderevents.CustomReminderV1 {
	return reminderevents.CustomReminderV1{
		ID:        c.ID,
		ChannelID: c.ChannelID,
		Message:   c.Message,
		Target:    c.Target,
		Created:   c.Created,
	}
}

// --- Listing and account ---

func (h *ReminderHandlers) HandleList(ctx context.Context, payload *reminderevents.UserRequestPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "ReminderHandlers.HandleList")
	defer span.End()

	list, err := h.service.ListUserReminders(ctx, payload.UserID)
	if err != nil {
		return h.outcome(ctx, reminderevents.ListRequestedV1, payload.UserID, err)
	}

	out := &reminderevents.ListPayloadV1{
		UserID: list.UserID,
		Region: list.Region.String(),
		Custom: make([]reminderevents.CustomReminderV1, 0, len(list.Custom)),
	}
	if list.Daily != nil {
		out.Daily = toSubscriptionPayload(list.Daily)
	}
	if list.Weekly != nil {
		out.Weekly = toSubscriptionPayload(list.Weekly)
	}
	if list.Resin != nil {
		out.Resin = &reminderevents.ResinUpdatedPayloadV1{
			UserID:    list.Resin.UserID,
			ChannelID: list.Resin.ChannelID,
			Limit:     list.Resin.Limit,
			AlertAt:   list.Resin.AlertAt,
		}
	}
	for _, c := range list.Custom {
		out.Custom = append(out.Custom, toCustomPayload(c))
	}
	return single(ctx, reminderevents.ListV1, out), nil
}

func (h *ReminderHandlers) HandleUserDelete(ctx context.Context, payload *reminderevents.UserRequestPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "ReminderHandlers.HandleUserDelete")
	defer span.End()

	deleted, err := h.service.DeleteUserConfig(ctx, payload.UserID)
	if err != nil {
		return h.outcome(ctx, reminderevents.UserDeleteRequestedV1, payload.UserID, err)
	}
	return single(ctx, reminderevents.UserDeletedV1, &reminderevents.UserDeletedPayloadV1{
		UserID:  payload.UserID,
		Deleted: deleted,
	}), nil
}

// --- Delivery feedback ---

func (h *ReminderHandlers) HandleDeliveryFailed(ctx context.Context, payload *reminderevents.DeliveryFailedPayloadV1) ([]handlerwrapper.Result, error) {
	if !payload.ChannelGone {
		return nil, nil
	}

	ctx, span := h.tracer.Start(ctx, "ReminderHandlers.HandleDeliveryFailed")
	defer span.End()

	n, err := h.service.PurgeChannel(ctx, payload.ChannelID)
	if err != nil {
		if reminderservice.IsDomainError(err) {
			h.logger.WarnContext(ctx, "Ignoring delivery failure for invalid channel",
				attr.ExtractCorrelationID(ctx),
				attr.ChannelID(payload.ChannelID),
				attr.Error(err),
			)
			return nil, nil
		}
		return nil, err
	}

	h.logger.InfoContext(ctx, "Purged reminders for unreachable channel",
		attr.ExtractCorrelationID(ctx),
		attr.ChannelID(payload.ChannelID),
		attr.Int64("purged", n),
		attr.String("reason", payload.Reason),
	)
	return nil, nil
}
