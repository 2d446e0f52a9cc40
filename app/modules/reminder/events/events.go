// Package reminderevents defines the NATS topics and payloads of the reminder
// module. Requests come from the Discord gateway; results are published back
// for it to render.
package reminderevents

import "time"

// Stream captures every reminder subject.
const (
	StreamName    = "reminder"
	StreamSubject = "reminder.>"
)

// Request topics.
const (
	ServerUpdateRequestedV1      = "reminder.server.update.requested.v1"
	ServerScheduleRequestedV1    = "reminder.server.schedule.requested.v1"
	DailySubscribeRequestedV1    = "reminder.daily.subscribe.requested.v1"
	DailyUnsubscribeRequestedV1  = "reminder.daily.unsubscribe.requested.v1"
	WeeklySubscribeRequestedV1   = "reminder.weekly.subscribe.requested.v1"
	WeeklyUnsubscribeRequestedV1 = "reminder.weekly.unsubscribe.requested.v1"
	ResinSetRequestedV1          = "reminder.resin.set.requested.v1"
	ResinClearRequestedV1        = "reminder.resin.clear.requested.v1"
	CustomCreateRequestedV1      = "reminder.custom.create.requested.v1"
	CustomDeleteRequestedV1      = "reminder.custom.delete.requested.v1"
	ListRequestedV1              = "reminder.list.requested.v1"
	UserDeleteRequestedV1        = "reminder.user.delete.requested.v1"
	DeliveryFailedV1             = "reminder.delivery.failed.v1"
)

// Result topics.
const (
	ServerUpdatedV1       = "reminder.server.updated.v1"
	ServerScheduleV1      = "reminder.server.schedule.v1"
	SubscriptionUpdatedV1 = "reminder.subscription.updated.v1"
	ResinUpdatedV1        = "reminder.resin.updated.v1"
	CustomCreatedV1       = "reminder.custom.created.v1"
	CustomDeletedV1       = "reminder.custom.deleted.v1"
	ListV1                = "reminder.list.v1"
	UserDeletedV1         = "reminder.user.deleted.v1"
	CommandFailedV1       = "reminder.command.failed.v1"
	// DueV1 is published by the dispatcher for every reminder that fired.
	DueV1 = "reminder.due.v1"
)

// Subjects lists every subject the reminder stream must capture.
func Subjects() []string { return []string{StreamSubject} }

// --- Requests ---

type ServerUpdateRequestedPayloadV1 struct {
	UserID string `json:"user_id"`
	Region string `json:"region"`
}

// UserRequestPayloadV1 carries only the requesting user. It is used by the
// schedule, unsubscribe, resin clear, list and user delete requests.
type UserRequestPayloadV1 struct {
	UserID string `json:"user_id"`
}

type SubscribeRequestedPayloadV1 struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	Repeat    bool   `json:"repeat"`
}

type ResinSetRequestedPayloadV1 struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	Current   int    `json:"current"`
	// Limit defaults to 155 when absent.
	Limit *int `json:"limit,omitempty"`
}

// CustomCreateRequestedPayloadV1 sets either Target or When. When is free
// text such as "in 2 hours" resolved in the user's region.
type CustomCreateRequestedPayloadV1 struct {
	UserID    string     `json:"user_id"`
	ChannelID string     `json:"channel_id"`
	Message   string     `json:"message"`
	Target    *time.Time `json:"target,omitempty"`
	When      string     `json:"when,omitempty"`
}

type CustomDeleteRequestedPayloadV1 struct {
	UserID     string `json:"user_id"`
	ReminderID int64  `json:"reminder_id"`
}

// DeliveryFailedPayloadV1 is reported by the gateway when a due reminder
// could not be posted.
type DeliveryFailedPayloadV1 struct {
	ChannelID string `json:"channel_id"`
	// ChannelGone is set when Discord answered Unknown Channel or Missing Access.
	ChannelGone bool   `json:"channel_gone"`
	Reason      string `json:"reason,omitempty"`
}

// --- Results ---

type ServerScheduleV1Payload struct {
	UserID      string    `json:"user_id"`
	Region      string    `json:"region"`
	RegionName  string    `json:"region_name"`
	Defaulted   bool      `json:"defaulted"`
	GameWeekday string    `json:"game_weekday"`
	NextDaily   time.Time `json:"next_daily"`
	NextWeekly  time.Time `json:"next_weekly"`
}

type SubscriptionUpdatedPayloadV1 struct {
	UserID     string     `json:"user_id"`
	Kind       string     `json:"kind"`
	Subscribed bool       `json:"subscribed"`
	Changed    bool       `json:"changed"`
	ChannelID  string     `json:"channel_id,omitempty"`
	Repeat     bool       `json:"repeat,omitempty"`
	NextFire   *time.Time `json:"next_fire,omitempty"`
}

type ResinUpdatedPayloadV1 struct {
	UserID    string     `json:"user_id"`
	ChannelID string     `json:"channel_id,omitempty"`
	Limit     int        `json:"limit,omitempty"`
	AlertAt   *time.Time `json:"alert_at,omitempty"`
	Changed   bool       `json:"changed"`
}

type CustomReminderV1 struct {
	ID        int64     `json:"id"`
	ChannelID string    `json:"channel_id"`
	Message   string    `json:"message"`
	Target    time.Time `json:"target"`
	Created   time.Time `json:"created"`
}

type CustomCreatedPayloadV1 struct {
	UserID   string           `json:"user_id"`
	Reminder CustomReminderV1 `json:"reminder"`
}

type CustomDeletedPayloadV1 struct {
	UserID     string `json:"user_id"`
	ReminderID int64  `json:"reminder_id"`
}

type ListPayloadV1 struct {
	UserID string                        `json:"user_id"`
	Region string                        `json:"region"`
	Daily  *SubscriptionUpdatedPayloadV1 `json:"daily,omitempty"`
	Weekly *SubscriptionUpdatedPayloadV1 `json:"weekly,omitempty"`
	Resin  *ResinUpdatedPayloadV1        `json:"resin,omitempty"`
	Custom []CustomReminderV1            `json:"custom"`
}

type UserDeletedPayloadV1 struct {
	UserID  string `json:"user_id"`
	Deleted bool   `json:"deleted"`
}

// CommandFailedPayloadV1 reports a rejected command. Code is stable and
// meant for localisation; Reason is for logs.
type CommandFailedPayloadV1 struct {
	UserID string `json:"user_id,omitempty"`
	Topic  string `json:"topic"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// DuePayloadV1 asks the gateway to post a reminder.
type DuePayloadV1 struct {
	Kind        string    `json:"kind"`
	UserID      string    `json:"user_id"`
	ReminderID  int64     `json:"reminder_id,omitempty"`
	ChannelID   string    `json:"channel_id"`
	Region      string    `json:"region"`
	Message     string    `json:"message,omitempty"`
	ResinLimit  int       `json:"resin_limit,omitempty"`
	Repeat      bool      `json:"repeat"`
	ScheduledAt time.Time `json:"scheduled_at"`
}
