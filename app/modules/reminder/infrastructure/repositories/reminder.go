package reminderdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	reminderdomain "github.com/Black-And-White-Club/kamisato/app/modules/reminder/domain"
	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new reminder repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// --- User config ---

func (r *Impl) GetUserConfig(ctx context.Context, db bun.IDB, userID string) (*UserConfig, error) {
	db = r.resolveDB(db)
	cfg := new(UserConfig)
	err := db.NewSelect().
		Model(cfg).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user config: %w", err)
	}
	return cfg, nil
}

func (r *Impl) LockUserConfig(ctx context.Context, db bun.IDB, userID string) (*UserConfig, error) {
	db = r.resolveDB(db)
	cfg := new(UserConfig)
	err := db.NewSelect().
		Model(cfg).
		Where("user_id = ?", userID).
		For("SHARE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock user config: %w", err)
	}
	return cfg, nil
}

func (r *Impl) UpsertUserConfig(ctx context.Context, db bun.IDB, cfg *UserConfig) error {
	db = r.resolveDB(db)
	cfg.UpdatedAt = time.Now().UTC()
	_, err := db.NewInsert().
		Model(cfg).
		On("CONFLICT (user_id) DO UPDATE").
		Set("region = EXCLUDED.region").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert user config: %w", err)
	}
	return nil
}

func (r *Impl) DeleteUserConfig(ctx context.Context, db bun.IDB, userID string) (bool, error) {
	db = r.resolveDB(db)
	res, err := db.NewDelete().
		Model((*UserConfig)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete user config: %w", err)
	}
	return affected(res)
}

// --- Daily / weekly ---

// resetModel returns a model of the table backing kind together with its
// shared columns.
func resetModel(kind reminderdomain.Kind) (any, *ResetReminder, error) {
	switch kind {
	case reminderdomain.KindDaily:
		m := new(DailyReminder)
		return m, &m.ResetReminder, nil
	case reminderdomain.KindWeekly:
		m := new(WeeklyReminder)
		return m, &m.ResetReminder, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q has no reset schedule", ErrUnknownKind, kind)
	}
}

func (r *Impl) GetResetReminder(ctx context.Context, db bun.IDB, kind reminderdomain.Kind, userID string, forUpdate bool) (*ResetReminder, error) {
	db = r.resolveDB(db)
	model, row, err := resetModel(kind)
	if err != nil {
		return nil, err
	}
	q := db.NewSelect().Model(model).Where("user_id = ?", userID)
	if forUpdate {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s reminder: %w", kind, err)
	}
	return row, nil
}

func (r *Impl) UpsertResetReminder(ctx context.Context, db bun.IDB, kind reminderdomain.Kind, rr *ResetReminder) error {
	db = r.resolveDB(db)
	model, row, err := resetModel(kind)
	if err != nil {
		return err
	}
	*row = *rr
	row.ClaimedUntil = nil
	row.ClaimToken = nil
	row.UpdatedAt = time.Now().UTC()

	_, err = db.NewInsert().
		Model(model).
		On("CONFLICT (user_id) DO UPDATE").
		Set("channel_id = EXCLUDED.channel_id").
		Set("repeat = EXCLUDED.repeat").
		Set("fire_at = EXCLUDED.fire_at").
		Set("claimed_until = NULL").
		Set("claim_token = NULL").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserConfigMissing
		}
		return fmt.Errorf("failed to upsert %s reminder: %w", kind, err)
	}
	return nil
}

func (r *Impl) DeleteResetReminder(ctx context.Context, db bun.IDB, kind reminderdomain.Kind, userID string) (bool, error) {
	db = r.resolveDB(db)
	model, _, err := resetModel(kind)
	if err != nil {
		return false, err
	}
	res, err := db.NewDelete().
		Model(model).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s reminder: %w", kind, err)
	}
	return affected(res)
}

func (r *Impl) RescheduleResetReminder(ctx context.Context, db bun.IDB, kind reminderdomain.Kind, userID string, expected, next time.Time) (bool, error) {
	db = r.resolveDB(db)
	spec, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	res, err := db.ExecContext(ctx,
		`UPDATE ? SET fire_at = ?, claimed_until = NULL, claim_token = NULL, updated_at = ?
		WHERE user_id = ? AND fire_at = ?`,
		bun.Ident(spec.table), next, time.Now().UTC(), userID, expected,
	)
	if err != nil {
		return false, fmt.Errorf("failed to reschedule %s reminder: %w", kind, err)
	}
	return affected(res)
}

// --- Resin ---

func (r *Impl) GetResinReminder(ctx context.Context, db bun.IDB, userID string, forUpdate bool) (*ResinReminder, error) {
	db = r.resolveDB(db)
	rr := new(ResinReminder)
	q := db.NewSelect().Model(rr).Where("user_id = ?", userID)
	if forUpdate {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get resin reminder: %w", err)
	}
	return rr, nil
}

func (r *Impl) UpsertResinReminder(ctx context.Context, db bun.IDB, rr *ResinReminder) error {
	db = r.resolveDB(db)
	rr.ClaimedUntil = nil
	rr.ClaimToken = nil
	rr.UpdatedAt = time.Now().UTC()
	_, err := db.NewInsert().
		Model(rr).
		On("CONFLICT (user_id) DO UPDATE").
		Set("channel_id = EXCLUDED.channel_id").
		Set("rlimit = EXCLUDED.rlimit").
		Set("alert = EXCLUDED.alert").
		Set("claimed_until = NULL").
		Set("claim_token = NULL").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserConfigMissing
		}
		return fmt.Errorf("failed to upsert resin reminder: %w", err)
	}
	return nil
}

func (r *Impl) ClearResinAlert(ctx context.Context, db bun.IDB, userID string) (bool, error) {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*ResinReminder)(nil)).
		Set("alert = NULL").
		Set("claimed_until = NULL").
		Set("claim_token = NULL").
		Set("updated_at = ?", time.Now().UTC()).
		Where("user_id = ?", userID).
		Where("alert IS NOT NULL").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to clear resin alert: %w", err)
	}
	return affected(res)
}

func (r *Impl) RescheduleResinAlert(ctx context.Context, db bun.IDB, userID string, expected, next time.Time) (bool, error) {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*ResinReminder)(nil)).
		Set("alert = ?", next).
		Set("claimed_until = NULL").
		Set("claim_token = NULL").
		Set("updated_at = ?", time.Now().UTC()).
		Where("user_id = ?", userID).
		Where("alert = ?", expected).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to reschedule resin alert: %w", err)
	}
	return affected(res)
}

// --- Custom ---

func (r *Impl) CreateCustomReminder(ctx context.Context, db bun.IDB, cr *CustomReminder) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(cr).
		Returning("id, created").
		Exec(ctx)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserConfigMissing
		}
		return fmt.Errorf("failed to create custom reminder: %w", err)
	}
	return nil
}

func (r *Impl) GetCustomReminder(ctx context.Context, db bun.IDB, id int64, forUpdate bool) (*CustomReminder, error) {
	db = r.resolveDB(db)
	cr := new(CustomReminder)
	q := db.NewSelect().Model(cr).Where("id = ?", id)
	if forUpdate {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get custom reminder: %w", err)
	}
	return cr, nil
}

func (r *Impl) ListCustomReminders(ctx context.Context, db bun.IDB, userID string) ([]CustomReminder, error) {
	db = r.resolveDB(db)
	var out []CustomReminder
	err := db.NewSelect().
		Model(&out).
		Where("user_id = ?", userID).
		Order("target ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom reminders: %w", err)
	}
	return out, nil
}

func (r *Impl) DeleteCustomReminder(ctx context.Context, db bun.IDB, id int64) (bool, error) {
	db = r.resolveDB(db)
	res, err := db.NewDelete().
		Model((*CustomReminder)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete custom reminder: %w", err)
	}
	return affected(res)
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}
