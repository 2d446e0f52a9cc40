package reminderdb

import (
	"context"
	"time"

	reminderdomain "github.com/Black-And-White-Club/kamisato/app/modules/reminder/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for reminder persistence. Every method
// accepts a bun.IDB so services can run several calls in one transaction;
// a nil db uses the repository's default handle.
type Repository interface {
	// User config

	GetUserConfig(ctx context.Context, db bun.IDB, userID string) (*UserConfig, error)
	// LockUserConfig reads the config FOR SHARE so a concurrent delete cannot
	// cascade underneath an insert in the same transaction.
	LockUserConfig(ctx context.Context, db bun.IDB, userID string) (*UserConfig, error)
	UpsertUserConfig(ctx context.Context, db bun.IDB, cfg *UserConfig) error
	DeleteUserConfig(ctx context.Context, db bun.IDB, userID string) (bool, error)

	// Daily and weekly subscriptions, selected by kind

	GetResetReminder(ctx context.Context, db bun.IDB, kind reminderdomain.Kind, userID string, forUpdate bool) (*ResetReminder, error)
	UpsertResetReminder(ctx context.Context, db bun.IDB, kind reminderdomain.Kind, r *ResetReminder) error
	DeleteResetReminder(ctx context.Context, db bun.IDB, kind reminderdomain.Kind, userID string) (bool, error)
	RescheduleResetReminder(ctx context.Context, db bun.IDB, kind reminderdomain.Kind, userID string, expected, next time.Time) (bool, error)

	// Resin

	GetResinReminder(ctx context.Context, db bun.IDB, userID string, forUpdate bool) (*ResinReminder, error)
	UpsertResinReminder(ctx context.Context, db bun.IDB, r *ResinReminder) error
	ClearResinAlert(ctx context.Context, db bun.IDB, userID string) (bool, error)
	RescheduleResinAlert(ctx context.Context, db bun.IDB, userID string, expected, next time.Time) (bool, error)

	// Custom

	CreateCustomReminder(ctx context.Context, db bun.IDB, r *CustomReminder) error
	GetCustomReminder(ctx context.Context, db bun.IDB, id int64, forUpdate bool) (*CustomReminder, error)
	ListCustomReminders(ctx context.Context, db bun.IDB, userID string) ([]CustomReminder, error)
	DeleteCustomReminder(ctx context.Context, db bun.IDB, id int64) (bool, error)

	// Dispatch

	// ListDue returns up to limit unclaimed rows scheduled at or before asOf,
	// ordered by (scheduled_at, kind, user_id, id), strictly after the cursor.
	ListDue(ctx context.Context, db bun.IDB, asOf, now time.Time, after *DueCursor, limit int) ([]DueRow, error)
	// Claim marks the firing identified by ref as in flight until until.
	Claim(ctx context.Context, db bun.IDB, ref reminderdomain.Ref, token uuid.UUID, now, until time.Time) (bool, error)
	// DeleteFired deletes the row only if it is still scheduled at ref.ScheduledAt.
	DeleteFired(ctx context.Context, db bun.IDB, ref reminderdomain.Ref) (bool, error)
	// PurgeChannel deletes every reminder delivered to channelID.
	PurgeChannel(ctx context.Context, db bun.IDB, channelID string) (int64, error)
}
