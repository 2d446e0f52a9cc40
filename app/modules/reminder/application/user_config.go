package reminderservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	reminderdomain "github.com/Black-And-White-Club/kamisato/app/modules/reminder/domain"
	reminderdb "github.com/Black-And-White-Club/kamisato/app/modules/reminder/infrastructure/repositories"
	"github.com/Black-And-White-Club/kamisato/pkg/results"
	"github.com/uptrace/bun"
)

type scheduleResult = results.OperationResult[*reminderdomain.ResetSchedule, error]

// SetServerRegion upserts the user's region.
func (s *ReminderService) SetServerRegion(ctx context.Context, userID string, region reminderdomain.Region) (*reminderdomain.ResetSchedule, error) {
	return execute(s, ctx, "SetServerRegion", userID, func(ctx context.Context, db bun.IDB) (scheduleResult, error) {
		return s.setServerRegionLogic(ctx, db, userID, region)
	})
}

func (s *ReminderService) setServerRegionLogic(ctx context.Context, db bun.IDB, userID string, region reminderdomain.Region) (scheduleResult, error) {
	if err := validateIDs(userID); err != nil {
		return failure[*reminderdomain.ResetSchedule](err)
	}
	if !region.Valid() {
		return failure[*reminderdomain.ResetSchedule](fmt.Errorf("%w: %q", ErrInvalidRegion, region))
	}

	existing, err := s.repo.GetUserConfig(ctx, db, userID)
	if err != nil && !errors.Is(err, reminderdb.ErrNotFound) {
		return infraError[*reminderdomain.ResetSchedule]("failed to read user config", err)
	}

	if err := s.repo.UpsertUserConfig(ctx, db, &reminderdb.UserConfig{
		UserID: userID,
		Region: string(region),
	}); err != nil {
		return infraError[*reminderdomain.ResetSchedule]("failed to save user config", err)
	}

	now := s.now()
	if existing != nil && reminderdomain.Region(existing.Region) != region {
		for _, kind := range []reminderdomain.Kind{reminderdomain.KindDaily, reminderdomain.KindWeekly} {
			sub, err := s.repo.GetResetReminder(ctx, db, kind, userID, true)
			if errors.Is(err, reminderdb.ErrNotFound) {
				continue
			}
			if err != nil {
				return infraError[*reminderdomain.ResetSchedule]("failed to read subscription", err)
			}
			// An in-flight firing keeps its slot; MarkDelivered then deletes
			// it or reschedules it against the new region.
			if sub.Held(now) {
				continue
			}
			next, _ := reminderdomain.NextReset(kind, region, now)
			if _, err := s.repo.RescheduleResetReminder(ctx, db, kind, userID, sub.FireAt, next); err != nil {
				return infraError[*reminderdomain.ResetSchedule]("failed to move subscription to new region", err)
			}
		}
	}

	return success(resetSchedule(region, false, now))
}

// GetResetSchedule reports the next resets for the user's region.
func (s *ReminderService) GetResetSchedule(ctx context.Context, userID string) (*reminderdomain.ResetSchedule, error) {
	return execute(s, ctx, "GetResetSchedule", userID, func(ctx context.Context, db bun.IDB) (scheduleResult, error) {
		if err := validateIDs(userID); err != nil {
			return failure[*reminderdomain.ResetSchedule](err)
		}
		cfg, err := s.repo.GetUserConfig(ctx, db, userID)
		switch {
		case errors.Is(err, reminderdb.ErrNotFound):
			return success(resetSchedule(reminderdomain.DefaultRegion, true, s.now()))
		case err != nil:
			return infraError[*reminderdomain.ResetSchedule]("failed to read user config", err)
		}
		return success(resetSchedule(reminderdomain.Region(cfg.Region), false, s.now()))
	})
}

func resetSchedule(region reminderdomain.Region, defaulted bool, now time.Time) *reminderdomain.ResetSchedule {
	return &reminderdomain.ResetSchedule{
		Region:      region,
		Defaulted:   defaulted,
		GameWeekday: reminderdomain.GameWeekday(region, now),
		NextDaily:   reminderdomain.NextDailyReset(region, now),
		NextWeekly:  reminderdomain.NextWeeklyReset(region, now),
	}
}

// DeleteUserConfig removes the user's config and every reminder they own.
func (s *ReminderService) DeleteUserConfig(ctx context.Context, userID string) (bool, error) {
	return execute(s, ctx, "DeleteUserConfig", userID, func(ctx context.Context, db bun.IDB) (results.OperationResult[bool, error], error) {
		if err := validateIDs(userID); err != nil {
			return failure[bool](err)
		}
		deleted, err := s.repo.DeleteUserConfig(ctx, db, userID)
		if err != nil {
			return infraError[bool]("failed to delete user config", err)
		}
		return success(deleted)
	})
}

// ListUserReminders returns everything stored for the user.
func (s *ReminderService) ListUserReminders(ctx context.Context, userID string) (*reminderdomain.UserReminders, error) {
	return execute(s, ctx, "ListUserReminders", userID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*reminderdomain.UserReminders, error], error) {
		return s.listUserRemindersLogic(ctx, db, userID)
	})
}

func (s *ReminderService) listUserRemindersLogic(ctx context.Context, db bun.IDB, userID string) (results.OperationResult[*reminderdomain.UserReminders, error], error) {
	type result = *reminderdomain.UserReminders

	if err := validateIDs(userID); err != nil {
		return failure[result](err)
	}
	cfg, err := s.repo.GetUserConfig(ctx, db, userID)
	if errors.Is(err, reminderdb.ErrNotFound) {
		return failure[result](ErrNotConfigured)
	}
	if err != nil {
		return infraError[result]("failed to read user config", err)
	}

	region := reminderdomain.Region(cfg.Region)
	out := &reminderdomain.UserReminders{UserID: userID, Region: region}

	for _, kind := range []reminderdomain.Kind{reminderdomain.KindDaily, reminderdomain.KindWeekly} {
		sub, err := s.repo.GetResetReminder(ctx, db, kind, userID, false)
		if errors.Is(err, reminderdb.ErrNotFound) {
			continue
		}
		if err != nil {
			return infraError[result]("failed to read subscription", err)
		}
		converted := toSubscription(kind, region, sub)
		if kind == reminderdomain.KindDaily {
			out.Daily = converted
		} else {
			out.Weekly = converted
		}
	}

	resin, err := s.repo.GetResinReminder(ctx, db, userID, false)
	switch {
	case err == nil:
		out.Resin = toResinAlert(resin)
	case !errors.Is(err, reminderdb.ErrNotFound):
		return infraError[result]("failed to read resin reminder", err)
	}

	custom, err := s.repo.ListCustomReminders(ctx, db, userID)
	if err != nil {
		return infraError[result]("failed to list custom reminders", err)
	}
	for i := range custom {
		out.Custom = append(out.Custom, toCustomReminder(&custom[i]))
	}

	return success(out)
}

func toSubscription(kind reminderdomain.Kind, region reminderdomain.Region, r *reminderdb.ResetReminder) *reminderdomain.Subscription {
	return &reminderdomain.Subscription{
		Kind:      kind,
		UserID:    r.UserID,
		ChannelID: r.ChannelID,
		Repeat:    r.Repeat,
		Region:    region,
		NextFire:  r.FireAt,
	}
}

func toResinAlert(r *reminderdb.ResinReminder) *reminderdomain.ResinAlert {
	return &reminderdomain.ResinAlert{
		UserID:    r.UserID,
		ChannelID: r.ChannelID,
		Limit:     r.Limit,
		AlertAt:   r.Alert,
	}
}

func toCustomReminder(r *reminderdb.CustomReminder) reminderdomain.CustomReminder {
	return reminderdomain.CustomReminder{
		ID:        r.ID,
		UserID:    r.UserID,
		ChannelID: r.ChannelID,
		Message:   r.Message,
		Target:    r.Target,
		Created:   r.Created,
	}
}
