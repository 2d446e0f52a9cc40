package reminderservice

import (
	"cmp"
	"context"
	"slices"
	"time"

	reminderdomain "github.com/Black-And-White-Club/kamisato/app/modules/reminder/domain"
	reminderdb "github.com/Black-And-White-Club/kamisato/app/modules/reminder/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Reminder Repo
// ------------------------

// FakeReminderRepo keeps rows in memory. Any XxxFunc that is set overrides
// the in-memory behaviour of that method.
type FakeReminderRepo struct {
	trace []string

	configs map[string]reminderdb.UserConfig
	resets  map[reminderdomain.Kind]map[string]reminderdb.ResetReminder
	resin   map[string]reminderdb.ResinReminder
	custom  map[int64]reminderdb.CustomReminder
	nextID  int64

	GetUserConfigFunc      func(ctx context.Context, db bun.IDB, userID string) (*reminderdb.UserConfig, error)
	LockUserConfigFunc     func(ctx context.Context, db bun.IDB, userID string) (*reminderdb.UserConfig, error)
	UpsertUserConfigFunc   func(ctx context.Context, db bun.IDB, cfg *reminderdb.UserConfig) error
	UpsertResetFunc        func(ctx context.Context, db bun.IDB, kind reminderdomain.Kind, r *reminderdb.ResetReminder) error
	UpsertResinFunc        func(ctx context.Context, db bun.IDB, r *reminderdb.ResinReminder) error
	CreateCustomFunc       func(ctx context.Context, db bun.IDB, r *reminderdb.CustomReminder) error
	ListDueFunc            func(ctx context.Context, db bun.IDB, asOf, now time.Time, after *reminderdb.DueCursor, limit int) ([]reminderdb.DueRow, error)
	ClaimFunc              func(ctx context.Context, db bun.IDB, ref reminderdomain.Ref, token uuid.UUID, now, until time.Time) (bool, error)
	DeleteFiredFunc        func(ctx context.Context, db bun.IDB, ref reminderdomain.Ref) (bool, error)
	PurgeChannelFunc       func(ctx context.Context, db bun.IDB, channelID string) (int64, error)
	GetResetReminderFunc   func(ctx context.Context, db bun.IDB, kind reminderdomain.Kind, userID string, forUpdate bool) (*reminderdb.ResetReminder, error)
	DeleteUserConfigFunc   func(ctx context.Context, db bun.IDB, userID string) (bool, error)
	GetCustomReminderFunc  func(ctx context.Context, db bun.IDB, id int64, forUpdate bool) (*reminderdb.CustomReminder, error)
	ListCustomRemindersErr error
}

func NewFakeReminderRepo() *FakeReminderRepo {
	return &FakeReminderRepo{
		trace:   []string{},
		configs: map[string]reminderdb.UserConfig{},
		resets: map[reminderdomain.Kind]map[string]reminderdb.ResetReminder{
			reminderdomain.KindDaily:  {},
			reminderdomain.KindWeekly: {},
		},
		resin:  map[string]reminderdb.ResinReminder{},
		custom: map[int64]reminderdb.CustomReminder{},
	}
}

func (f *FakeReminderRepo) record(step string) {
	f.trace = append(f.trace, step)
}

// --- User config ---

func (f *FakeReminderRepo) GetUserConfig(ctx context.Context, db bun.IDB, userID string) (*reminderdb.UserConfig, error) {
	f.record("GetUserConfig")
	if f.GetUserConfigFunc != nil {
		return f.GetUserConfigFunc(ctx, db, userID)
	}
	cfg, ok := f.configs[userID]
	if !ok {
		return nil, reminderdb.ErrNotFound
	}
	return &cfg, nil
}

func (f *FakeReminderRepo) LockUserConfig(ctx context.Context, db bun.IDB, userID string) (*reminderdb.UserConfig, error) {
	f.record("LockUserConfig")
	if f.LockUserConfigFunc != nil {
		return f.LockUserConfigFunc(ctx, db, userID)
	}
	cfg, ok := f.configs[userID]
	if !ok {
		return nil, reminderdb.ErrNotFound
	}
	return &cfg, nil
}

func (f *FakeReminderRepo) UpsertUserConfig(ctx context.Context, db bun.IDB, cfg *reminderdb.UserConfig) error {
	f.record("UpsertUserConfig")
	if f.UpsertUserConfigFunc != nil {
		return f.UpsertUserConfigFunc(ctx, db, cfg)
	}
	f.configs[cfg.UserID] = *cfg
	return nil
}

func (f *FakeReminderRepo) DeleteUserConfig(ctx context.Context, db bun.IDB, userID string) (bool, error) {
	f.record("DeleteUserConfig")
	if f.DeleteUserConfigFunc != nil {
		return f.DeleteUserConfigFunc(ctx, db, userID)
	}
	if _, ok := f.configs[userID]; !ok {
		return false, nil
	}
	delete(f.configs, userID)
	for _, table := range f.resets {
		delete(table, userID)
	}
	delete(f.resin, userID)
	for id, c := range f.custom {
		if c.UserID == userID {
			delete(f.custom, id)
		}
	}
	return true, nil
}

// --- Daily / weekly ---

func (f *FakeReminderRepo) GetResetReminder(ctx context.Context, db bun.IDB, kind reminderdomain.Kind, userID string, forUpdate bool) (*reminderdb.ResetReminder, error) {
	f.record("GetResetReminder")
	if f.GetResetReminderFunc != nil {
		return f.GetResetReminderFunc(ctx, db, kind, userID, forUpdate)
	}
	r, ok := f.resets[kind][userID]
	if !ok {
		return nil, reminderdb.ErrNotFound
	}
	return &r, nil
}

func (f *FakeReminderRepo) UpsertResetReminder(ctx context.Context, db bun.IDB, kind reminderdomain.Kind, r *reminderdb.ResetReminder) error {
	f.record("UpsertResetReminder")
	if f.UpsertResetFunc != nil {
		return f.UpsertResetFunc(ctx, db, kind, r)
	}
	if _, ok := f.configs[r.UserID]; !ok {
		return reminderdb.ErrUserConfigMissing
	}
	row := *r
	row.Claim = reminderdb.Claim{}
	f.resets[kind][r.UserID] = row
	return nil
}

func (f *FakeReminderRepo) DeleteResetReminder(ctx context.Context, db bun.IDB, kind reminderdomain.Kind, userID string) (bool, error) {
	f.record("DeleteResetReminder")
	if _, ok := f.resets[kind][userID]; !ok {
		return false, nil
	}
	delete(f.resets[kind], userID)
	return true, nil
}

func (f *FakeReminderRepo) RescheduleResetReminder(ctx context.Context, db bun.IDB, kind reminderdomain.Kind, userID string, expected, next time.Time) (bool, error) {
	f.record("RescheduleResetReminder")
	r, ok := f.resets[kind][userID]
	if !ok || !r.FireAt.Equal(expected) {
		return false, nil
	}
	r.FireAt = next
	r.Claim = reminderdb.Claim{}
	f.resets[kind][userID] = r
	return true, nil
}

// --- Resin ---

func (f *FakeReminderRepo) GetResinReminder(ctx context.Context, db bun.IDB, userID string, forUpdate bool) (*reminderdb.ResinReminder, error) {
	f.record("GetResinReminder")
	r, ok := f.resin[userID]
	if !ok {
		return nil, reminderdb.ErrNotFound
	}
	return &r, nil
}

func (f *FakeReminderRepo) UpsertResinReminder(ctx context.Context, db bun.IDB, r *reminderdb.ResinReminder) error {
	f.record("UpsertResinReminder")
	if f.UpsertResinFunc != nil {
		return f.UpsertResinFunc(ctx, db, r)
	}
	if _, ok := f.configs[r.UserID]; !ok {
		return reminderdb.ErrUserConfigMissing
	}
	row := *r
	row.Claim = reminderdb.Claim{}
	f.resin[r.UserID] = row
	return nil
}

func (f *FakeReminderRepo) ClearResinAlert(ctx context.Context, db bun.IDB, userID string) (bool, error) {
	f.record("ClearResinAlert")
	r, ok := f.resin[userID]
	if !ok || r.Alert == nil {
		return false, nil
	}
	r.Alert = nil
	r.Claim = reminderdb.Claim{}
	f.resin[userID] = r
	return true, nil
}

func (f *FakeReminderRepo) RescheduleResinAlert(ctx context.Context, db bun.IDB, userID string, expected, next time.Time) (bool, error) {
	f.record("RescheduleResinAlert")
	r, ok := f.resin[userID]
	if !ok || r.Alert == nil || !r.Alert.Equal(expected) {
		return false, nil
	}
	r.Alert = &next
	r.Claim = reminderdb.Claim{}
	f.resin[userID] = r
	return true, nil
}

// --- Custom ---

func (f *FakeReminderRepo) CreateCustomReminder(ctx context.Context, db bun.IDB, r *reminderdb.CustomReminder) error {
	f.record("CreateCustomReminder")
	if f.CreateCustomFunc != nil {
		return f.CreateCustomFunc(ctx, db, r)
	}
	if _, ok := f.configs[r.UserID]; !ok {
		return reminderdb.ErrUserConfigMissing
	}
	f.nextID++
	r.ID = f.nextID
	f.custom[r.ID] = *r
	return nil
}

func (f *FakeReminderRepo) GetCustomReminder(ctx context.Context, db bun.IDB, id int64, forUpdate bool) (*reminderdb.CustomReminder, error) {
	f.record("GetCustomReminder")
	if f.GetCustomReminderFunc != nil {
		return f.GetCustomReminderFunc(ctx, db, id, forUpdate)
	}
	r, ok := f.custom[id]
	if !ok {
		return nil, reminderdb.ErrNotFound
	}
	return &r, nil
}

func (f *FakeReminderRepo) ListCustomReminders(ctx context.Context, db bun.IDB, userID string) ([]reminderdb.CustomReminder, error) {
	f.record("ListCustomReminders")
	if f.ListCustomRemindersErr != nil {
		return nil, f.ListCustomRemindersErr
	}
	var out []reminderdb.CustomReminder
	for _, r := range f.custom {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b reminderdb.CustomReminder) int {
		return cmp.Or(a.Target.Compare(b.Target), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (f *FakeReminderRepo) DeleteCustomReminder(ctx context.Context, db bun.IDB, id int64) (bool, error) {
	f.record("DeleteCustomReminder")
	if _, ok := f.custom[id]; !ok {
		return false, nil
	}
	delete(f.custom, id)
	return true, nil
}

// --- Dispatch ---

func claimFree(c reminderdb.Claim, now time.Time) bool {
	return !c.Held(now)
}

func (f *FakeReminderRepo) allDue(asOf, now time.Time) []reminderdb.DueRow {
	var rows []reminderdb.DueRow
	for id, c := range f.custom {
		if !c.Target.After(asOf) && claimFree(c.Claim, now) {
			rows = append(rows, reminderdb.DueRow{
				Kind: string(reminderdomain.KindCustom), ID: id, UserID: c.UserID, ChannelID: c.ChannelID,
				Region: f.configs[c.UserID].Region, Message: c.Message, ScheduledAt: c.Target, CreatedAt: c.Created,
			})
		}
	}
	for kind, table := range f.resets {
		for _, r := range table {
			if !r.FireAt.After(asOf) && claimFree(r.Claim, now) {
				rows = append(rows, reminderdb.DueRow{
					Kind: string(kind), UserID: r.UserID, ChannelID: r.ChannelID,
					Region: f.configs[r.UserID].Region, Repeat: r.Repeat, ScheduledAt: r.FireAt, CreatedAt: r.CreatedAt,
				})
			}
		}
	}
	for _, r := range f.resin {
		if r.Alert != nil && !r.Alert.After(asOf) && claimFree(r.Claim, now) {
			rows = append(rows, reminderdb.DueRow{
				Kind: string(reminderdomain.KindResin), UserID: r.UserID, ChannelID: r.ChannelID,
				Region: f.configs[r.UserID].Region, Repeat: true, ResinLimit: r.Limit, ScheduledAt: *r.Alert, CreatedAt: r.CreatedAt,
			})
		}
	}
	slices.SortFunc(rows, compareDue)
	return rows
}

func compareDue(a, b reminderdb.DueRow) int {
	return cmp.Or(
		a.ScheduledAt.Compare(b.ScheduledAt),
		cmp.Compare(a.Kind, b.Kind),
		cmp.Compare(a.UserID, b.UserID),
		cmp.Compare(a.ID, b.ID),
	)
}

func (f *FakeReminderRepo) ListDue(ctx context.Context, db bun.IDB, asOf, now time.Time, after *reminderdb.DueCursor, limit int) ([]reminderdb.DueRow, error) {
	f.record("ListDue")
	if f.ListDueFunc != nil {
		return f.ListDueFunc(ctx, db, asOf, now, after, limit)
	}
	var out []reminderdb.DueRow
	for _, row := range f.allDue(asOf, now) {
		if after != nil {
			c := reminderdb.DueRow{ScheduledAt: after.ScheduledAt, Kind: after.Kind, UserID: after.UserID, ID: after.ID}
			if compareDue(row, c) <= 0 {
				continue
			}
		}
		out = append(out, row)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *FakeReminderRepo) Claim(ctx context.Context, db bun.IDB, ref reminderdomain.Ref, token uuid.UUID, now, until time.Time) (bool, error) {
	f.record("Claim")
	if f.ClaimFunc != nil {
		return f.ClaimFunc(ctx, db, ref, token, now, until)
	}
	claim := reminderdb.Claim{ClaimedUntil: &until, ClaimToken: &token}
	switch ref.Kind {
	case reminderdomain.KindCustom:
		r, ok := f.custom[ref.ID]
		if !ok || !r.Target.Equal(ref.ScheduledAt) || !claimFree(r.Claim, now) {
			return false, nil
		}
		r.Claim = claim
		f.custom[ref.ID] = r
	case reminderdomain.KindResin:
		r, ok := f.resin[ref.UserID]
		if !ok || r.Alert == nil || !r.Alert.Equal(ref.ScheduledAt) || !claimFree(r.Claim, now) {
			return false, nil
		}
		r.Claim = claim
		f.resin[ref.UserID] = r
	default:
		r, ok := f.resets[ref.Kind][ref.UserID]
		if !ok || !r.FireAt.Equal(ref.ScheduledAt) || !claimFree(r.Claim, now) {
			return false, nil
		}
		r.Claim = claim
		f.resets[ref.Kind][ref.UserID] = r
	}
	return true, nil
}

func (f *FakeReminderRepo) DeleteFired(ctx context.Context, db bun.IDB, ref reminderdomain.Ref) (bool, error) {
	f.record("DeleteFired")
	if f.DeleteFiredFunc != nil {
		return f.DeleteFiredFunc(ctx, db, ref)
	}
	switch ref.Kind {
	case reminderdomain.KindCustom:
		r, ok := f.custom[ref.ID]
		if !ok || !r.Target.Equal(ref.ScheduledAt) {
			return false, nil
		}
		delete(f.custom, ref.ID)
	case reminderdomain.KindDaily, reminderdomain.KindWeekly:
		r, ok := f.resets[ref.Kind][ref.UserID]
		if !ok || !r.FireAt.Equal(ref.ScheduledAt) {
			return false, nil
		}
		delete(f.resets[ref.Kind], ref.UserID)
	default:
		return false, reminderdb.ErrUnknownKind
	}
	return true, nil
}

func (f *FakeReminderRepo) PurgeChannel(ctx context.Context, db bun.IDB, channelID string) (int64, error) {
	f.record("PurgeChannel")
	if f.PurgeChannelFunc != nil {
		return f.PurgeChannelFunc(ctx, db, channelID)
	}
	var n int64
	for id, c := range f.custom {
		if c.ChannelID == channelID {
			delete(f.custom, id)
			n++
		}
	}
	for _, table := range f.resets {
		for userID, r := range table {
			if r.ChannelID == channelID {
				delete(table, userID)
				n++
			}
		}
	}
	for userID, r := range f.resin {
		if r.ChannelID == channelID {
			delete(f.resin, userID)
			n++
		}
	}
	return n, nil
}

// --- Accessors for assertions ---

func (f *FakeReminderRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Ensure the fake actually satisfies the interface
var _ reminderdb.Repository = (*FakeReminderRepo)(nil)
