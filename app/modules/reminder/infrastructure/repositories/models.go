package reminderdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserConfig stores the game server a user plays on.
type UserConfig struct {
	bun.BaseModel `bun:"table:user_configs,alias:uc"`

	UserID    string    `bun:"user_id,pk,type:varchar(20)"`
	Region    string    `bun:"region,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Claim marks a row as in flight with the dispatcher until ClaimedUntil.
type Claim struct {
	ClaimedUntil *time.Time `bun:"claimed_until"`
	ClaimToken   *uuid.UUID `bun:"claim_token,type:uuid"`
}

// Held reports whether a dispatcher still owns the row at now.
func (c Claim) Held(now time.Time) bool {
	return c.ClaimedUntil != nil && c.ClaimedUntil.After(now)
}

// ResetReminder holds the columns shared by the daily and weekly tables.
type ResetReminder struct {
	UserID    string    `bun:"user_id,pk,type:varchar(20)"`
	ChannelID string    `bun:"channel_id,notnull,type:varchar(20)"`
	Repeat    bool      `bun:"repeat,notnull"`
	FireAt    time.Time `bun:"fire_at,notnull"`
	Claim
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// DailyReminder fires at every daily reset of the user's region.
type DailyReminder struct {
	bun.BaseModel `bun:"table:daily_reminders,alias:dr"`
	ResetReminder
}

// WeeklyReminder fires at the Monday reset of the user's region.
type WeeklyReminder struct {
	bun.BaseModel `bun:"table:weekly_reminders,alias:wr"`
	ResetReminder
}

// ResinReminder alerts when resin regenerates up to Limit. A nil Alert means unset.
type ResinReminder struct {
	bun.BaseModel `bun:"table:resin_reminders,alias:rr"`

	UserID    string     `bun:"user_id,pk,type:varchar(20)"`
	ChannelID string     `bun:"channel_id,notnull,type:varchar(20)"`
	Limit     int        `bun:"rlimit,notnull"`
	Alert     *time.Time `bun:"alert"`
	Claim
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// CustomReminder fires once at Target and is then deleted.
type CustomReminder struct {
	bun.BaseModel `bun:"table:custom_reminders,alias:cr"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    string    `bun:"user_id,notnull,type:varchar(20)"`
	ChannelID string    `bun:"channel_id,notnull,type:varchar(20)"`
	Message   string    `bun:"message,notnull"`
	Target    time.Time `bun:"target,notnull"`
	Created   time.Time `bun:"created,nullzero,notnull,default:current_timestamp"`
	Claim
}

// DueRow is one row of the due-reminder union.
type DueRow struct {
	Kind        string    `bun:"kind"`
	ID          int64     `bun:"id"`
	UserID      string    `bun:"user_id"`
	ChannelID   string    `bun:"channel_id"`
	Region      string    `bun:"region"`
	Message     string    `bun:"message"`
	Repeat      bool      `bun:"repeat"`
	ResinLimit  int       `bun:"resin_limit"`
	ScheduledAt time.Time `bun:"scheduled_at"`
	CreatedAt   time.Time `bun:"created_at"`
}

// DueCursor is the keyset position after the last row of a page.
type DueCursor struct {
	ScheduledAt time.Time
	Kind        string
	UserID      string
	ID          int64
}

// CursorAfter returns the cursor positioned after row.
func CursorAfter(row DueRow) *DueCursor {
	return &DueCursor{ScheduledAt: row.ScheduledAt, Kind: row.Kind, UserID: row.UserID, ID: row.ID}
}
