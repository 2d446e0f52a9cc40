package reminderservice

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	reminderdomain "github.com/Black-And-White-Club/kamisato/app/modules/reminder/domain"
	reminderdb "github.com/Black-And-White-Club/kamisato/app/modules/reminder/infrastructure/repositories"
	"github.com/Black-And-White-Club/kamisato/pkg/attr"
	"github.com/Black-And-White-Club/kamisato/pkg/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type deliveryResult = results.OperationResult[reminderdomain.Delivery, error]

// DueReminders pages through the due union with a keyset cursor, so rows
// rescheduled or deleted while iterating are never yielded twice.
func (s *ReminderService) DueReminders(ctx context.Context, asOf time.Time) iter.Seq2[reminderdomain.DueReminder, error] {
	return func(yield func(reminderdomain.DueReminder, error) bool) {
		var cursor *reminderdb.DueCursor
		asOf = asOf.UTC()
		for {
			if err := ctx.Err(); err != nil {
				yield(reminderdomain.DueReminder{}, err)
				return
			}

			rows, err := s.repo.ListDue(ctx, nil, asOf, s.now(), cursor, s.dueBatchSize)
			if err != nil {
				yield(reminderdomain.DueReminder{}, fmt.Errorf("%w: %w", ErrTransient, err))
				return
			}

			for _, row := range rows {
				if !yield(toDueReminder(row), nil) {
					return
				}
			}

			if len(rows) < s.dueBatchSize {
				return
			}
			cursor = reminderdb.CursorAfter(rows[len(rows)-1])
		}
	}
}

func toDueReminder(row reminderdb.DueRow) reminderdomain.DueReminder {
	ref := reminderdomain.Ref{
		Kind:        reminderdomain.Kind(row.Kind),
		UserID:      row.UserID,
		ScheduledAt: row.ScheduledAt.UTC(),
	}
	if ref.Kind == reminderdomain.KindCustom {
		ref.ID = row.ID
	}
	return reminderdomain.DueReminder{
		Ref:        ref,
		ChannelID:  row.ChannelID,
		Region:     reminderdomain.Region(row.Region),
		Message:    row.Message,
		Repeat:     row.Repeat,
		ResinLimit: row.ResinLimit,
		CreatedAt:  row.CreatedAt.UTC(),
	}
}

func validateRef(ref reminderdomain.Ref) error {
	if !ref.Kind.Valid() || ref.ScheduledAt.IsZero() {
		return fmt.Errorf("%w: %s", ErrInvalidRef, ref)
	}
	if ref.Kind == reminderdomain.KindCustom && ref.ID <= 0 {
		return fmt.Errorf("%w: custom reminder without id", ErrInvalidRef)
	}
	if ref.Kind != reminderdomain.KindCustom {
		if err := validateIDs(ref.UserID); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRef, err)
		}
	}
	return nil
}

// ClaimReminder marks the firing as in flight for ttl. It returns false when
// another dispatcher holds the claim or the row has moved on.
func (s *ReminderService) ClaimReminder(ctx context.Context, ref reminderdomain.Ref, ttl time.Duration) (bool, error) {
	return execute(s, ctx, "ClaimReminder", ref.String(), func(ctx context.Context, db bun.IDB) (results.OperationResult[bool, error], error) {
		if err := validateRef(ref); err != nil {
			return failure[bool](err)
		}
		now := s.now()
		claimed, err := s.repo.Claim(ctx, db, ref, uuid.New(), now, now.Add(ttl))
		if err != nil {
			return infraError[bool]("failed to claim reminder", err)
		}
		return success(claimed)
	})
}

// MarkDelivered finalises a firing: repeating reminders move to their next
// occurrence, one-shots are deleted. A ref that no longer matches the stored
// schedule is ignored.
func (s *ReminderService) MarkDelivered(ctx context.Context, ref reminderdomain.Ref) (reminderdomain.Delivery, error) {
	return execute(s, ctx, "MarkDelivered", ref.String(), func(ctx context.Context, db bun.IDB) (deliveryResult, error) {
		if err := validateRef(ref); err != nil {
			return failure[reminderdomain.Delivery](err)
		}
		ref.ScheduledAt = ref.ScheduledAt.UTC().Truncate(time.Microsecond)

		switch ref.Kind {
		case reminderdomain.KindDaily, reminderdomain.KindWeekly:
			return s.deliverReset(ctx, db, ref)
		case reminderdomain.KindResin:
			return s.deliverResin(ctx, db, ref)
		default:
			return s.deleteFired(ctx, db, ref)
		}
	})
}

var noopDelivery = reminderdomain.Delivery{Outcome: reminderdomain.OutcomeNoop}

func (s *ReminderService) deliverReset(ctx context.Context, db bun.IDB, ref reminderdomain.Ref) (deliveryResult, error) {
	row, err := s.repo.GetResetReminder(ctx, db, ref.Kind, ref.UserID, true)
	if errors.Is(err, reminderdb.ErrNotFound) {
		return success(noopDelivery)
	}
	if err != nil {
		return infraError[reminderdomain.Delivery]("failed to read subscription", err)
	}
	if !row.FireAt.Equal(ref.ScheduledAt) {
		return success(noopDelivery)
	}
	if !row.Repeat {
		return s.deleteFired(ctx, db, ref)
	}

	cfg, err := s.repo.GetUserConfig(ctx, db, ref.UserID)
	if err != nil {
		return infraError[reminderdomain.Delivery]("failed to read user config", err)
	}

	// Never reschedule into the past, even if the sweep ran late.
	from := ref.ScheduledAt
	if now := s.now(); now.After(from) {
		from = now
	}
	next, _ := reminderdomain.NextReset(ref.Kind, reminderdomain.Region(cfg.Region), from)
	return s.reschedule(ctx, ref, next, func() (bool, error) {
		return s.repo.RescheduleResetReminder(ctx, db, ref.Kind, ref.UserID, ref.ScheduledAt, next)
	})
}

func (s *ReminderService) deliverResin(ctx context.Context, db bun.IDB, ref reminderdomain.Ref) (deliveryResult, error) {
	row, err := s.repo.GetResinReminder(ctx, db, ref.UserID, true)
	if errors.Is(err, reminderdb.ErrNotFound) {
		return success(noopDelivery)
	}
	if err != nil {
		return infraError[reminderdomain.Delivery]("failed to read resin reminder", err)
	}
	if row.Alert == nil || !row.Alert.Equal(ref.ScheduledAt) {
		return success(noopDelivery)
	}

	next := reminderdomain.NextResinAlert(ref.ScheduledAt, row.Limit, s.now()).Truncate(time.Microsecond)
	return s.reschedule(ctx, ref, next, func() (bool, error) {
		return s.repo.RescheduleResinAlert(ctx, db, ref.UserID, ref.ScheduledAt, next)
	})
}

func (s *ReminderService) reschedule(ctx context.Context, ref reminderdomain.Ref, next time.Time, update func() (bool, error)) (deliveryResult, error) {
	moved, err := update()
	if err != nil {
		return infraError[reminderdomain.Delivery]("failed to reschedule reminder", err)
	}
	if !moved {
		return success(noopDelivery)
	}
	s.logger.DebugContext(ctx, "Reminder rescheduled",
		attr.ExtractCorrelationID(ctx),
		attr.String("ref", ref.String()),
		attr.Time("next_fire", next),
	)
	return success(reminderdomain.Delivery{Outcome: reminderdomain.OutcomeRescheduled, NextFire: next})
}

func (s *ReminderService) deleteFired(ctx context.Context, db bun.IDB, ref reminderdomain.Ref) (deliveryResult, error) {
	deleted, err := s.repo.DeleteFired(ctx, db, ref)
	if err != nil {
		return infraError[reminderdomain.Delivery]("failed to delete fired reminder", err)
	}
	if !deleted {
		return success(noopDelivery)
	}
	return success(reminderdomain.Delivery{Outcome: reminderdomain.OutcomeDeleted})
}

// PurgeChannel deletes every reminder targeting a channel the bot can no
// longer post to.
func (s *ReminderService) PurgeChannel(ctx context.Context, channelID string) (int64, error) {
	return execute(s, ctx, "PurgeChannel", channelID, func(ctx context.Context, db bun.IDB) (results.OperationResult[int64, error], error) {
		if err := validateIDs(channelID); err != nil {
			return failure[int64](err)
		}
		n, err := s.repo.PurgeChannel(ctx, db, channelID)
		if err != nil {
			return infraError[int64]("failed to purge channel", err)
		}
		return success(n)
	})
}
