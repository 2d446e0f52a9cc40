package reminderservice

import (
	"context"
	"errors"

	reminderdomain "github.com/Black-And-White-Club/kamisato/app/modules/reminder/domain"
	reminderdb "github.com/Black-And-White-Club/kamisato/app/modules/reminder/infrastructure/repositories"
	"github.com/Black-And-White-Club/kamisato/pkg/results"
	"github.com/uptrace/bun"
)

type subscriptionResult = results.OperationResult[*reminderdomain.Subscription, error]

// SubscribeDaily pings channelID at every daily reset of the user's region.
func (s *ReminderService) SubscribeDaily(ctx context.Context, userID, channelID string, repeat bool) (*reminderdomain.Subscription, error) {
	return s.subscribe(ctx, "SubscribeDaily", reminderdomain.KindDaily, userID, channelID, repeat)
}

// SubscribeWeekly pings channelID at every weekly reset of the user's region.
func (s *ReminderService) SubscribeWeekly(ctx context.Context, userID, channelID string, repeat bool) (*reminderdomain.Subscription, error) {
	return s.subscribe(ctx, "SubscribeWeekly", reminderdomain.KindWeekly, userID, channelID, repeat)
}

func (s *ReminderService) UnsubscribeDaily(ctx context.Context, userID string) (bool, error) {
	return s.unsubscribe(ctx, "UnsubscribeDaily", reminderdomain.KindDaily, userID)
}

func (s *ReminderService) UnsubscribeWeekly(ctx context.Context, userID string) (bool, error) {
	return s.unsubscribe(ctx, "UnsubscribeWeekly", reminderdomain.KindWeekly, userID)
}

func (s *ReminderService) subscribe(ctx context.Context, opName string, kind reminderdomain.Kind, userID, channelID string, repeat bool) (*reminderdomain.Subscription, error) {
	return execute(s, ctx, opName, userID, func(ctx context.Context, db bun.IDB) (subscriptionResult, error) {
		if err := validateIDs(userID, channelID); err != nil {
			return failure[*reminderdomain.Subscription](err)
		}

		cfg, err := s.repo.LockUserConfig(ctx, db, userID)
		if errors.Is(err, reminderdb.ErrNotFound) {
			return failure[*reminderdomain.Subscription](ErrNotConfigured)
		}
		if err != nil {
			return infraError[*reminderdomain.Subscription]("failed to read user config", err)
		}

		region := reminderdomain.Region(cfg.Region)
		next, _ := reminderdomain.NextReset(kind, region, s.now())

		row := &reminderdb.ResetReminder{
			UserID:    userID,
			ChannelID: channelID,
			Repeat:    repeat,
			FireAt:    next,
		}
		if err := s.repo.UpsertResetReminder(ctx, db, kind, row); err != nil {
			if errors.Is(err, reminderdb.ErrUserConfigMissing) {
				return failure[*reminderdomain.Subscription](ErrNotConfigured)
			}
			return infraError[*reminderdomain.Subscription]("failed to save subscription", err)
		}

		return success(toSubscription(kind, region, row))
	})
}

func (s *ReminderService) unsubscribe(ctx context.Context, opName string, kind reminderdomain.Kind, userID string) (bool, error) {
	return execute(s, ctx, opName, userID, func(ctx context.Context, db bun.IDB) (results.OperationResult[bool, error], error) {
		if err := validateIDs(userID); err != nil {
			return failure[bool](err)
		}
		deleted, err := s.repo.DeleteResetReminder(ctx, db, kind, userID)
		if err != nil {
			return infraError[bool]("failed to delete subscription", err)
		}
		return success(deleted)
	})
}
