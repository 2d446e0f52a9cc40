package reminderservice

import (
	"context"
	"iter"
	"time"

	reminderdomain "github.com/Black-And-White-Club/kamisato/app/modules/reminder/domain"
)

// Service is the reminder store. Validation failures are returned as the
// sentinel errors in errors.go; storage failures wrap ErrTransient.
type Service interface {
	// SetServerRegion creates or updates the user's region and moves existing
	// daily/weekly reminders onto the new region's reset.
	SetServerRegion(ctx context.Context, userID string, region reminderdomain.Region) (*reminderdomain.ResetSchedule, error)
	// GetResetSchedule reports the upcoming resets, assuming the default
	// region when the user has none.
	GetResetSchedule(ctx context.Context, userID string) (*reminderdomain.ResetSchedule, error)
	// DeleteUserConfig removes the config and, by cascade, every reminder.
	DeleteUserConfig(ctx context.Context, userID string) (bool, error)

	SubscribeDaily(ctx context.Context, userID, channelID string, repeat bool) (*reminderdomain.Subscription, error)
	SubscribeWeekly(ctx context.Context, userID, channelID string, repeat bool) (*reminderdomain.Subscription, error)
	UnsubscribeDaily(ctx context.Context, userID string) (bool, error)
	UnsubscribeWeekly(ctx context.Context, userID string) (bool, error)

	SetResinAlert(ctx context.Context, userID string, current, limit int, channelID string) (*reminderdomain.ResinAlert, error)
	ClearResinAlert(ctx context.Context, userID string) (bool, error)

	CreateCustomReminder(ctx context.Context, userID, channelID, message string, target time.Time) (int64, error)
	// AddCustomReminder is CreateCustomReminder returning the stored row.
	AddCustomReminder(ctx context.Context, userID, channelID, message string, target time.Time) (*reminderdomain.CustomReminder, error)
	// ScheduleCustomReminder parses when ("in 2 hours", RFC3339, ...) in the
	// user's region clock and creates the reminder.
	ScheduleCustomReminder(ctx context.Context, userID, channelID, message, when string) (*reminderdomain.CustomReminder, error)
	DeleteCustomReminder(ctx context.Context, id int64, requestingUserID string) error

	ListUserReminders(ctx context.Context, userID string) (*reminderdomain.UserReminders, error)

	// DueReminders lazily yields every unclaimed reminder scheduled at or
	// before asOf, earliest first.
	DueReminders(ctx context.Context, asOf time.Time) iter.Seq2[reminderdomain.DueReminder, error]
	// ClaimReminder marks a firing as in flight for ttl.
	ClaimReminder(ctx context.Context, ref reminderdomain.Ref, ttl time.Duration) (bool, error)
	// MarkDelivered reschedules or deletes the fired reminder. Calling it again
	// for the same ref is a no-op.
	MarkDelivered(ctx context.Context, ref reminderdomain.Ref) (reminderdomain.Delivery, error)
	// PurgeChannel deletes every reminder delivered to channelID.
	PurgeChannel(ctx context.Context, channelID string) (int64, error)
}
