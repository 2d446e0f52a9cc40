package reminderhandlers

import (
	"context"
	"iter"
	"time"

	reminderservice "github.com/Black-And-White-Club/kamisato/app/modules/reminder/application"
	reminderdomain "github.com/Black-And-White-Club/kamisato/app/modules/reminder/domain"
)

// ------------------------
// Fake Reminder Service
// ------------------------

type FakeReminderService struct {
	trace []string

	SetServerRegionFunc        func(ctx context.Context, userID string, region reminderdomain.Region) (*reminderdomain.ResetSchedule, error)
	GetResetScheduleFunc       func(ctx context.Context, userID string) (*reminderdomain.ResetSchedule, error)
	DeleteUserConfigFunc       func(ctx context.Context, userID string) (bool, error)
	SubscribeDailyFunc         func(ctx context.Context, userID, channelID string, repeat bool) (*reminderdomain.Subscription, error)
	SubscribeWeeklyFunc        func(ctx context.Context, userID, channelID string, repeat bool) (*reminderdomain.Subscription, error)
	UnsubscribeDailyFunc       func(ctx context.Context, userID string) (bool, error)
	UnsubscribeWeeklyFunc      func(ctx context.Context, userID string) (bool, error)
	SetResinAlertFunc          func(ctx context.Context, userID string, current, limit int, channelID string) (*reminderdomain.ResinAlert, error)
	ClearResinAlertFunc        func(ctx context.Context, userID string) (bool, error)
	CreateCustomReminderFunc   func(ctx context.Context, userID, channelID, message string, target time.Time) (int64, error)
	AddCustomReminderFunc      func(ctx context.Context, userID, channelID, message string, target time.Time) (*reminderdomain.CustomReminder, error)
	ScheduleCustomReminderFunc func(ctx context.Context, userID, channelID, message, when string) (*reminderdomain.CustomReminder, error)
	DeleteCustomReminderFunc   func(ctx context.Context, id int64, requestingUserID string) error
	ListUserRemindersFunc      func(ctx context.Context, userID string) (*reminderdomain.UserReminders, error)
	PurgeChannelFunc           func(ctx context.Context, channelID string) (int64, error)
}

func NewFakeReminderService() *FakeReminderService {
	return &FakeReminderService{
		trace: []string{},
	}
}

func (f *FakeReminderService) record(step string) {
	f.trace = append(f.trace, step)
}

// --- Service Interface Implementation ---

func (f *FakeReminderService) SetServerRegion(ctx context.Context, userID string, region reminderdomain.Region) (*reminderdomain.ResetSchedule, error) {
	f.record("SetServerRegion")
	if f.SetServerRegionFunc != nil {
		return f.SetServerRegionFunc(ctx, userID, region)
	}
	return &reminderdomain.ResetSchedule{Region: region}, nil
}

func (f *FakeReminderService) GetResetSchedule(ctx context.Context, userID string) (*reminderdomain.ResetSchedule, error) {
	f.record("GetResetSchedule")
	if f.GetResetScheduleFunc != nil {
		return f.GetResetScheduleFunc(ctx, userID)
	}
	return &reminderdomain.ResetSchedule{Region: reminderdomain.DefaultRegion, Defaulted: true}, nil
}

func (f *FakeReminderService) DeleteUserConfig(ctx context.Context, userID string) (bool, error) {
	f.record("DeleteUserConfig")
	if f.DeleteUserConfigFunc != nil {
		return f.DeleteUserConfigFunc(ctx, userID)
	}
	return true, nil
}

func (f *FakeReminderService) SubscribeDaily(ctx context.Context, userID, channelID string, repeat bool) (*reminderdomain.Subscription, error) {
	f.record("SubscribeDaily")
	if f.SubscribeDailyFunc != nil {
		return f.SubscribeDailyFunc(ctx, userID, channelID, repeat)
	}
	return &reminderdomain.Subscription{Kind: reminderdomain.KindDaily, UserID: userID, ChannelID: channelID, Repeat: repeat}, nil
}

func (f *FakeReminderService) SubscribeWeekly(ctx context.Context, userID, channelID string, repeat bool) (*reminderdomain.Subscription, error) {
	f.record("SubscribeWeekly")
	if f.SubscribeWeeklyFunc != nil {
		return f.SubscribeWeeklyFunc(ctx, userID, channelID, repeat)
	}
	return &reminderdomain.Subscription{Kind: reminderdomain.KindWeekly, UserID: userID, ChannelID: channelID, Repeat: repeat}, nil
}

func (f *FakeReminderService) UnsubscribeDaily(ctx context.Context, userID string) (bool, error) {
	f.record("UnsubscribeDaily")
	if f.UnsubscribeDailyFunc != nil {
		return f.UnsubscribeDailyFunc(ctx, userID)
	}
	return true, nil
}

func (f *FakeReminderService) UnsubscribeWeekly(ctx context.Context, userID string) (bool, error) {
	f.record("UnsubscribeWeekly")
	if f.UnsubscribeWeeklyFunc != nil {
		return f.UnsubscribeWeeklyFunc(ctx, userID)
	}
	return true, nil
}

func (f *FakeReminderService) SetResinAlert(ctx context.Context, userID string, current, limit int, channelID string) (*reminderdomain.ResinAlert, error) {
	f.record("SetResinAlert")
	if f.SetResinAlertFunc != nil {
		return f.SetResinAlertFunc(ctx, userID, current, limit, channelID)
	}
	return &reminderdomain.ResinAlert{UserID: userID, ChannelID: channelID, Limit: limit}, nil
}

func (f *FakeReminderService) ClearResinAlert(ctx context.Context, userID string) (bool, error) {
	f.record("ClearResinAlert")
	if f.ClearResinAlertFunc != nil {
		return f.ClearResinAlertFunc(ctx, userID)
	}
	return true, nil
}

func (f *FakeReminderService) CreateCustomReminder(ctx context.Context, userID, channelID, message string, target time.Time) (int64, error) {
	f.record("CreateCustomReminder")
	if f.CreateCustomReminderFunc != nil {
		return f.CreateCustomReminderFunc(ctx, userID, channelID, message, target)
	}
	return 1, nil
}

func (f *FakeReminderService) AddCustomReminder(ctx context.Context, userID, channelID, message string, target time.Time) (*reminderdomain.CustomReminder, error) {
	f.record("AddCustomReminder")
	if f.AddCustomReminderFunc != nil {
		return f.AddCustomReminderFunc(ctx, userID, channelID, message, target)
	}
	return &reminderdomain.CustomReminder{ID: 1, UserID: userID, ChannelID: channelID, Message: message, Target: target}, nil
}

func (f *FakeReminderService) ScheduleCustomReminder(ctx context.Context, userID, channelID, message, when string) (*reminderdomain.CustomReminder, error) {
	f.record("ScheduleCustomReminder")
	if f.ScheduleCustomReminderFunc != nil {
		return f.ScheduleCustomReminderFunc(ctx, userID, channelID, message, when)
	}
	return &reminderdomain.CustomReminder{ID: 1, UserID: userID, ChannelID: channelID, Message: message}, nil
}

func (f *FakeReminderService) DeleteCustomReminder(ctx context.Context, id int64, requestingUserID string) error {
	f.record("DeleteCustomReminder")
	if f.DeleteCustomReminderFunc != nil {
		return f.DeleteCustomReminderFunc(ctx, id, requestingUserID)
	}
	return nil
}

func (f *FakeReminderService) ListUserReminders(ctx context.Context, userID string) (*reminderdomain.UserReminders, error) {
	f.record("ListUserReminders")
	if f.ListUserRemindersFunc != nil {
		return f.ListUserRemindersFunc(ctx, userID)
	}
	return &reminderdomain.UserReminders{UserID: userID, Region: reminderdomain.DefaultRegion}, nil
}

func (f *FakeReminderService) DueReminders(ctx context.Context, asOf time.Time) iter.Seq2[reminderdomain.DueReminder, error] {
	f.record("DueReminders")
	return func(yield func(reminderdomain.DueReminder, error) bool) {}
}

func (f *FakeReminderService) ClaimReminder(ctx context.Context, ref reminderdomain.Ref, ttl time.Duration) (bool, error) {
	f.record("ClaimReminder")
	return true, nil
}

func (f *FakeReminderService) MarkDelivered(ctx context.Context, ref reminderdomain.Ref) (reminderdomain.Delivery, error) {
	f.record("MarkDelivered")
	return reminderdomain.Delivery{Outcome: reminderdomain.OutcomeNoop}, nil
}

func (f *FakeReminderService) PurgeChannel(ctx context.Context, channelID string) (int64, error) {
	f.record("PurgeChannel")
	if f.PurgeChannelFunc != nil {
		return f.PurgeChannelFunc(ctx, channelID)
	}
	return 0, nil
}

// --- Accessors for assertions ---

func (f *FakeReminderService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Ensure the fake actually satisfies the interface
var _ reminderservice.Service = (*FakeReminderService)(nil)
