package reminderdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	reminderdomain "github.com/Black-And-White-Club/kamisato/app/modules/reminder/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// tableSpec describes how one reminder table projects into the due union.
type tableSpec struct {
	kind       reminderdomain.Kind
	table      string
	timeColumn string
	idExpr     string
	message    string
	repeat     string
	resinLimit string
	created    string
}

var dueTables = []tableSpec{
	{
		kind: reminderdomain.KindCustom, table: "custom_reminders", timeColumn: "target",
		idExpr: "r.id", message: "r.message", repeat: "false", resinLimit: "0", created: "r.created",
	},
	{
		kind: reminderdomain.KindDaily, table: "daily_reminders", timeColumn: "fire_at",
		idExpr: "0::bigint", message: "''::text", repeat: "r.repeat", resinLimit: "0", created: "r.created_at",
	},
	{
		kind: reminderdomain.KindResin, table: "resin_reminders", timeColumn: "alert",
		idExpr: "0::bigint", message: "''::text", repeat: "true", resinLimit: "r.rlimit", created: "r.created_at",
	},
	{
		kind: reminderdomain.KindWeekly, table: "weekly_reminders", timeColumn: "fire_at",
		idExpr: "0::bigint", message: "''::text", repeat: "r.repeat", resinLimit: "0", created: "r.created_at",
	},
}

func tableFor(kind reminderdomain.Kind) (tableSpec, error) {
	for _, t := range dueTables {
		if t.kind == kind {
			return t, nil
		}
	}
	return tableSpec{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// keyPredicate selects the row a ref points at.
func keyPredicate(ref reminderdomain.Ref) (string, any) {
	if ref.Kind == reminderdomain.KindCustom {
		return "id = ?", ref.ID
	}
	return "user_id = ?", ref.UserID
}

// ListDue pages through the union of all four reminder tables. Each branch is
// a range scan on its time index bounded by the cursor and asOf; the outer
// keyset predicate breaks ties deterministically.
func (r *Impl) ListDue(ctx context.Context, db bun.IDB, asOf, now time.Time, after *DueCursor, limit int) ([]DueRow, error) {
	db = r.resolveDB(db)

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString("SELECT kind, id, user_id, channel_id, region, message, repeat, resin_limit, scheduled_at, created_at FROM (")
	for i, t := range dueTables {
		if i > 0 {
			sb.WriteString(" UNION ALL ")
		}
		fmt.Fprintf(&sb,
			`SELECT '%s'::text AS kind, %s AS id, r.user_id, r.channel_id, uc.region, %s AS message,
			%s AS repeat, %s AS resin_limit, r.%s AS scheduled_at, %s AS created_at
			FROM %s AS r JOIN user_configs AS uc ON uc.user_id = r.user_id
			WHERE r.%s <= ? AND (r.claimed_until IS NULL OR r.claimed_until <= ?)`,
			t.kind, t.idExpr, t.message, t.repeat, t.resinLimit, t.timeColumn, t.created,
			t.table, t.timeColumn,
		)
		args = append(args, asOf, now)
		if after != nil {
			fmt.Fprintf(&sb, " AND r.%s >= ?", t.timeColumn)
			args = append(args, after.ScheduledAt)
		}
	}
	sb.WriteString(") AS due")
	if after != nil {
		sb.WriteString(" WHERE (scheduled_at, kind, user_id, id) > (?, ?::text, ?::text, ?::bigint)")
		args = append(args, after.ScheduledAt, after.Kind, after.UserID, after.ID)
	}
	sb.WriteString(" ORDER BY scheduled_at ASC, kind ASC, user_id ASC, id ASC LIMIT ?")
	args = append(args, limit)

	var rows []DueRow
	if err := db.NewRaw(sb.String(), args...).Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	return rows, nil
}

func (r *Impl) Claim(ctx context.Context, db bun.IDB, ref reminderdomain.Ref, token uuid.UUID, now, until time.Time) (bool, error) {
	db = r.resolveDB(db)
	spec, err := tableFor(ref.Kind)
	if err != nil {
		return false, err
	}
	key, keyArg := keyPredicate(ref)
	res, err := db.ExecContext(ctx,
		"UPDATE ? SET claimed_until = ?, claim_token = ? WHERE "+key+
			" AND ? = ? AND (claimed_until IS NULL OR claimed_until <= ?)",
		bun.Ident(spec.table), until, token, keyArg, bun.Ident(spec.timeColumn), ref.ScheduledAt, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", ref, err)
	}
	return affected(res)
}

func (r *Impl) DeleteFired(ctx context.Context, db bun.IDB, ref reminderdomain.Ref) (bool, error) {
	db = r.resolveDB(db)
	spec, err := tableFor(ref.Kind)
	if err != nil {
		return false, err
	}
	key, keyArg := keyPredicate(ref)
	res, err := db.ExecContext(ctx,
		"DELETE FROM ? WHERE "+key+" AND ? = ?",
		bun.Ident(spec.table), keyArg, bun.Ident(spec.timeColumn), ref.ScheduledAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete fired %s: %w", ref, err)
	}
	return affected(res)
}

func (r *Impl) PurgeChannel(ctx context.Context, db bun.IDB, channelID string) (int64, error) {
	db = r.resolveDB(db)
	var total int64
	for _, t := range dueTables {
		res, err := db.ExecContext(ctx, "DELETE FROM ? WHERE channel_id = ?", bun.Ident(t.table), channelID)
		if err != nil {
			return total, fmt.Errorf("failed to purge %s for channel: %w", t.table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("failed to read rows affected: %w", err)
		}
		total += n
	}
	return total, nil
}
