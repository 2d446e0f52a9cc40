package reminderservice

import (
	"context"
	"errors"

	reminderdomain "github.com/Black-And-White-Club/kamisato/app/modules/reminder/domain"
	reminderdb "github.com/Black-And-White-Club/kamisato/app/modules/reminder/infrastructure/repositories"
	"github.com/Black-And-White-Club/kamisato/pkg/results"
	"github.com/uptrace/bun"
)

// SetResinAlert schedules a ping for when current resin regenerates to limit.
// Setting it again replaces the previous alert.
func (s *ReminderService) SetResinAlert(ctx context.Context, userID string, current, limit int, channelID string) (*reminderdomain.ResinAlert, error) {
	return execute(s, ctx, "SetResinAlert", userID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*reminderdomain.ResinAlert, error], error) {
		if err := validateIDs(userID, channelID); err != nil {
			return failure[*reminderdomain.ResinAlert](err)
		}

		alertAt, err := reminderdomain.ResinAlertAt(current, limit, s.now())
		switch {
		case errors.Is(err, reminderdomain.ErrResinLimitOutOfRange):
			return failure[*reminderdomain.ResinAlert](ErrInvalidLimit)
		case errors.Is(err, reminderdomain.ErrResinCurrentOutOfRange):
			return failure[*reminderdomain.ResinAlert](ErrInvalidResin)
		case errors.Is(err, reminderdomain.ErrResinAlreadyAtLimit):
			return failure[*reminderdomain.ResinAlert](ErrAlreadyAtLimit)
		}

		if _, err := s.repo.LockUserConfig(ctx, db, userID); err != nil {
			if errors.Is(err, reminderdb.ErrNotFound) {
				return failure[*reminderdomain.ResinAlert](ErrNotConfigured)
			}
			return infraError[*reminderdomain.ResinAlert]("failed to read user config", err)
		}

		row := &reminderdb.ResinReminder{
			UserID:    userID,
			ChannelID: channelID,
			Limit:     limit,
			Alert:     &alertAt,
		}
		if err := s.repo.UpsertResinReminder(ctx, db, row); err != nil {
			if errors.Is(err, reminderdb.ErrUserConfigMissing) {
				return failure[*reminderdomain.ResinAlert](ErrNotConfigured)
			}
			return infraError[*reminderdomain.ResinAlert]("failed to save resin alert", err)
		}

		return success(toResinAlert(row))
	})
}

// ClearResinAlert unsets the alert but keeps the user's limit and channel.
func (s *ReminderService) ClearResinAlert(ctx context.Context, userID string) (bool, error) {
	return execute(s, ctx, "ClearResinAlert", userID, func(ctx context.Context, db bun.IDB) (results.OperationResult[bool, error], error) {
		if err := validateIDs(userID); err != nil {
			return failure[bool](err)
		}
		cleared, err := s.repo.ClearResinAlert(ctx, db, userID)
		if err != nil {
			return infraError[bool]("failed to clear resin alert", err)
		}
		return success(cleared)
	})
}
