package reminderhandlers

import (
	"context"

	reminderevents "github.com/Black-And-White-Club/kamisato/app/modules/reminder/events"
	"github.com/Black-And-White-Club/kamisato/pkg/handlerwrapper"
)

// Handlers defines the interface for reminder command handlers.
type Handlers interface {
	HandleServerUpdate(ctx context.Context, payload *reminderevents.ServerUpdateRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleServerSchedule(ctx context.Context, payload *reminderevents.UserRequestPayloadV1) ([]handlerwrapper.Result, error)

	HandleDailySubscribe(ctx context.Context, payload *reminderevents.SubscribeRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleDailyUnsubscribe(ctx context.Context, payload *reminderevents.UserRequestPayloadV1) ([]handlerwrapper.Result, error)
	HandleWeeklySubscribe(ctx context.Context, payload *reminderevents.SubscribeRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleWeeklyUnsubscribe(ctx context.Context, payload *reminderevents.UserRequestPayloadV1) ([]handlerwrapper.Result, error)

	HandleResinSet(ctx context.Context, payload *reminderevents.ResinSetRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleResinClear(ctx context.Context, payload *reminderevents.UserRequestPayloadV1) ([]handlerwrapper.Result, error)

	HandleCustomCreate(ctx context.Context, payload *reminderevents.CustomCreateRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleCustomDelete(ctx context.Context, payload *reminderevents.CustomDeleteRequestedPayloadV1) ([]handlerwrapper.Result, error)

	HandleList(ctx context.Context, payload *reminderevents.UserRequestPayloadV1) ([]handlerwrapper.Result, error)
	HandleUserDelete(ctx context.Context, payload *reminderevents.UserRequestPayloadV1) ([]handlerwrapper.Result, error)

	// HandleDeliveryFailed purges reminders whose channel no longer exists.
	HandleDeliveryFailed(ctx context.Context, payload *reminderevents.DeliveryFailedPayloadV1) ([]handlerwrapper.Result, error)
}
