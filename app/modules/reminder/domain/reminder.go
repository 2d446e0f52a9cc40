// Package reminderdomain holds the reminder types and the schedule rules
// shared by the store, the dispatcher and the command adapters.
package reminderdomain

import (
	"fmt"
	"time"
)

// Kind identifies which table a reminder lives in.
type Kind string

const (
	KindDaily  Kind = "daily"
	KindWeekly Kind = "weekly"
	KindResin  Kind = "resin"
	KindCustom Kind = "custom"
)

// Kinds lists every reminder kind.
func Kinds() []Kind { return []Kind{KindCustom, KindDaily, KindResin, KindWeekly} }

func (k Kind) Valid() bool {
	switch k {
	case KindDaily, KindWeekly, KindResin, KindCustom:
		return true
	}
	return false
}

// Repeats reports whether the kind can survive firing.
func (k Kind) Repeats() bool { return k != KindCustom }

const (
	// DefaultCustomMessage replaces an empty custom reminder message.
	DefaultCustomMessage = "…"
	// MaxMessageLength matches Discord's message content limit.
	MaxMessageLength = 2000
)

// Ref identifies one firing of one reminder. ID is only set for custom
// reminders; the other kinds are keyed by user. ScheduledAt pins the firing so
// that finalising it twice, or after the row moved on, changes nothing.
type Ref struct {
	Kind        Kind      `json:"kind"`
	UserID      string    `json:"user_id"`
	ID          int64     `json:"id,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

func (r Ref) String() string {
	if r.Kind == KindCustom {
		return fmt.Sprintf("%s/%d@%s", r.Kind, r.ID, r.ScheduledAt.UTC().Format(time.RFC3339))
	}
	return fmt.Sprintf("%s/%s@%s", r.Kind, r.UserID, r.ScheduledAt.UTC().Format(time.RFC3339))
}

// DueReminder is a reminder whose scheduled time has passed.
type DueReminder struct {
	Ref        Ref
	ChannelID  string
	Region     Region
	Message    string
	Repeat     bool
	ResinLimit int
	CreatedAt  time.Time
}

// Subscription is a daily or weekly reset reminder.
type Subscription struct {
	Kind      Kind
	UserID    string
	ChannelID string
	Repeat    bool
	Region    Region
	NextFire  time.Time
}

// ResinAlert is a resin-cap reminder. AlertAt is nil while unset.
type ResinAlert struct {
	UserID    string
	ChannelID string
	Limit     int
	AlertAt   *time.Time
}

// CustomReminder is a one-shot reminder.
type CustomReminder struct {
	ID        int64
	UserID    string
	ChannelID string
	Message   string
	Target    time.Time
	Created   time.Time
}

// UserReminders is everything stored for one user.
type UserReminders struct {
	UserID string
	Region Region
	Daily  *Subscription
	Weekly *Subscription
	Resin  *ResinAlert
	Custom []CustomReminder
}

// ResetSchedule describes the upcoming resets for a user's region.
type ResetSchedule struct {
	Region      Region
	Defaulted   bool
	GameWeekday time.Weekday
	NextDaily   time.Time
	NextWeekly  time.Time
}

// DeliveryOutcome is what MarkDelivered did to the row.
type DeliveryOutcome string

const (
	OutcomeRescheduled DeliveryOutcome = "rescheduled"
	OutcomeDeleted     DeliveryOutcome = "deleted"
	OutcomeNoop        DeliveryOutcome = "noop"
)

// Delivery is the result of finalising a firing.
type Delivery struct {
	Outcome  DeliveryOutcome
	NextFire time.Time
}
