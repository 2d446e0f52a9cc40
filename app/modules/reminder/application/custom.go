package reminderservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	reminderdomain "github.com/Black-And-White-Club/kamisato/app/modules/reminder/domain"
	reminderdb "github.com/Black-And-White-Club/kamisato/app/modules/reminder/infrastructure/repositories"
	"github.com/Black-And-White-Club/kamisato/pkg/results"
	"github.com/uptrace/bun"
)

// CreateCustomReminder stores a one-shot reminder and returns its ID.
func (s *ReminderService) CreateCustomReminder(ctx context.Context, userID, channelID, message string, target time.Time) (int64, error) {
	created, err := s.AddCustomReminder(ctx, userID, channelID, message, target)
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}

// AddCustomReminder stores a one-shot reminder and returns it as persisted,
// with the normalised message and truncated target.
func (s *ReminderService) AddCustomReminder(ctx context.Context, userID, channelID, message string, target time.Time) (*reminderdomain.CustomReminder, error) {
	return execute(s, ctx, "CreateCustomReminder", userID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*reminderdomain.CustomReminder, error], error) {
		return s.createCustomLogic(ctx, db, userID, channelID, message, func(*reminderdb.UserConfig, time.Time) (time.Time, error) {
			return target, nil
		})
	})
}

// ScheduleCustomReminder resolves when against the clock of the user's region.
func (s *ReminderService) ScheduleCustomReminder(ctx context.Context, userID, channelID, message, when string) (*reminderdomain.CustomReminder, error) {
	return execute(s, ctx, "ScheduleCustomReminder", userID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*reminderdomain.CustomReminder, error], error) {
		return s.createCustomLogic(ctx, db, userID, channelID, message, func(cfg *reminderdb.UserConfig, now time.Time) (time.Time, error) {
			target, err := s.timeParser.Parse(when, reminderdomain.Region(cfg.Region).Location(), now)
			if err != nil {
				return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidTarget, err)
			}
			return target, nil
		})
	})
}

type targetFunc func(cfg *reminderdb.UserConfig, now time.Time) (time.Time, error)

func (s *ReminderService) createCustomLogic(ctx context.Context, db bun.IDB, userID, channelID, message string, resolve targetFunc) (results.OperationResult[*reminderdomain.CustomReminder, error], error) {
	type result = *reminderdomain.CustomReminder

	if err := validateIDs(userID, channelID); err != nil {
		return failure[result](err)
	}
	message, err := normalizeMessage(message)
	if err != nil {
		return failure[result](err)
	}

	cfg, err := s.repo.LockUserConfig(ctx, db, userID)
	if errors.Is(err, reminderdb.ErrNotFound) {
		return failure[result](ErrNotConfigured)
	}
	if err != nil {
		return infraError[result]("failed to read user config", err)
	}

	now := s.now()
	target, err := resolve(cfg, now)
	if err != nil {
		return failure[result](err)
	}
	target = target.UTC().Truncate(time.Microsecond)
	if !target.After(now) {
		return failure[result](ErrInvalidTarget)
	}

	row := &reminderdb.CustomReminder{
		UserID:    userID,
		ChannelID: channelID,
		Message:   message,
		Target:    target,
		Created:   now,
	}
	if err := s.repo.CreateCustomReminder(ctx, db, row); err != nil {
		if errors.Is(err, reminderdb.ErrUserConfigMissing) {
			return failure[result](ErrNotConfigured)
		}
		return infraError[result]("failed to create custom reminder", err)
	}

	created := toCustomReminder(row)
	return success(&created)
}

// normalizeMessage trims whitespace, substitutes the default for an empty
// message and enforces Discord's length limit.
func normalizeMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return reminderdomain.DefaultCustomMessage, nil
	}
	if utf8.RuneCountInString(message) > reminderdomain.MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return message, nil
}

// DeleteCustomReminder deletes reminder id if requestingUserID owns it.
func (s *ReminderService) DeleteCustomReminder(ctx context.Context, id int64, requestingUserID string) error {
	_, err := execute(s, ctx, "DeleteCustomReminder", strconv.FormatInt(id, 10), func(ctx context.Context, db bun.IDB) (results.OperationResult[bool, error], error) {
		if err := validateIDs(requestingUserID); err != nil {
			return failure[bool](err)
		}
		if id <= 0 {
			return failure[bool](ErrNotFound)
		}

		existing, err := s.repo.GetCustomReminder(ctx, db, id, true)
		if errors.Is(err, reminderdb.ErrNotFound) {
			return failure[bool](ErrNotFound)
		}
		if err != nil {
			return infraError[bool]("failed to read custom reminder", err)
		}
		if existing.UserID != requestingUserID {
			return failure[bool](ErrNotOwner)
		}

		deleted, err := s.repo.DeleteCustomReminder(ctx, db, id)
		if err != nil {
			return infraError[bool]("failed to delete custom reminder", err)
		}
		return success(deleted)
	})
	return err
}
