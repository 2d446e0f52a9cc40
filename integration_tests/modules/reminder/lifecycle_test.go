package reminderintegrationtests

import (
	"testing"
	"time"

	reminderservice "github.com/Black-And-White-Club/kamisato/app/modules/reminder/application"
	reminderdomain "github.com/Black-And-White-Club/kamisato/app/modules/reminder/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderLifecycle(t *testing.T) {
	deps := SetupTestReminderService(t)
	ctx := deps.Ctx
	ids := deps.Gen.Snowflakes(2)
	user, channel := ids[0], ids[1]

	schedule, err := deps.Service.SetServerRegion(ctx, user, reminderdomain.RegionEurope)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 16, 3, 0, 0, 0, time.UTC), schedule.NextDaily)
	assert.Equal(t, time.Date(2024, 1, 22, 3, 0, 0, 0, time.UTC), schedule.NextWeekly)

	sub, err := deps.Service.SubscribeDaily(ctx, user, channel, true)
	require.NoError(t, err)
	assert.Equal(t, schedule.NextDaily, sub.NextFire)

	alert, err := deps.Service.SetResinAlert(ctx, user, 100, 155, channel)
	require.NoError(t, err)
	require.NotNil(t, alert.AlertAt)
	assert.Equal(t, baseTime.Add(55*8*time.Minute), *alert.AlertAt)

	msg := deps.Gen.Message()
	customID, err := deps.Service.CreateCustomReminder(ctx, user, channel, msg, baseTime.Add(time.Hour))
	require.NoError(t, err)

	assert.Empty(t, collectDue(t, deps), "nothing is due yet")

	deps.Clock.T = time.Date(2024, 1, 16, 3, 30, 0, 0, time.UTC)
	due := collectDue(t, deps)
	require.Len(t, due, 3)
	assert.Equal(t, reminderdomain.KindCustom, due[0].Ref.Kind)
	assert.Equal(t, customID, due[0].Ref.ID)
	assert.Equal(t, msg, due[0].Message)
	assert.Equal(t, reminderdomain.KindResin, due[1].Ref.Kind)
	assert.Equal(t, 155, due[1].ResinLimit)
	assert.Equal(t, reminderdomain.KindDaily, due[2].Ref.Kind)
	assert.Equal(t, reminderdomain.RegionEurope, due[2].Region)

	for _, d := range due {
		ok, err := deps.Service.ClaimReminder(ctx, d.Ref, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "first claim of %s", d.Ref)

		ok, err = deps.Service.ClaimReminder(ctx, d.Ref, time.Minute)
		require.NoError(t, err)
		assert.False(t, ok, "second claim of %s", d.Ref)
	}
	assert.Empty(t, collectDue(t, deps), "claimed reminders are hidden")

	custom, err := deps.Service.MarkDelivered(ctx, due[0].Ref)
	require.NoError(t, err)
	assert.Equal(t, reminderdomain.OutcomeDeleted, custom.Outcome)

	resin, err := deps.Service.MarkDelivered(ctx, due[1].Ref)
	require.NoError(t, err)
	assert.Equal(t, reminderdomain.OutcomeRescheduled, resin.Outcome)
	assert.Equal(t, time.Date(2024, 1, 16, 16, 0, 0, 0, time.UTC), resin.NextFire)

	daily, err := deps.Service.MarkDelivered(ctx, due[2].Ref)
	require.NoError(t, err)
	assert.Equal(t, reminderdomain.OutcomeRescheduled, daily.Outcome)
	assert.Equal(t, time.Date(2024, 1, 17, 3, 0, 0, 0, time.UTC), daily.NextFire)

	again, err := deps.Service.MarkDelivered(ctx, due[2].Ref)
	require.NoError(t, err)
	assert.Equal(t, reminderdomain.OutcomeNoop, again.Outcome, "finalising twice changes nothing")

	list, err := deps.Service.ListUserReminders(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, list.Custom)
	require.NotNil(t, list.Daily)
	assert.Equal(t, daily.NextFire, list.Daily.NextFire)
	require.NotNil(t, list.Resin)
	require.NotNil(t, list.Resin.AlertAt)
	assert.Equal(t, resin.NextFire, *list.Resin.AlertAt)
}

func TestClaimExpires(t *testing.T) {
	deps := SetupTestReminderService(t)
	ctx := deps.Ctx
	ids := deps.Gen.Snowflakes(2)

	_, err := deps.Service.SetServerRegion(ctx, ids[0], reminderdomain.RegionAsia)
	require.NoError(t, err)
	_, err = deps.Service.CreateCustomReminder(ctx, ids[0], ids[1], "", baseTime.Add(time.Minute))
	require.NoError(t, err)

	deps.Clock.Advance(2 * time.Minute)
	due := collectDue(t, deps)
	require.Len(t, due, 1)
	assert.Equal(t, reminderdomain.DefaultCustomMessage, due[0].Message)

	ok, err := deps.Service.ClaimReminder(ctx, due[0].Ref, 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, collectDue(t, deps))

	deps.Clock.Advance(31 * time.Second)
	redue := collectDue(t, deps)
	require.Len(t, redue, 1, "an expired claim makes the reminder due again")
	assert.Equal(t, due[0].Ref, redue[0].Ref)
}

func TestRegionChangeMovesSubscriptions(t *testing.T) {
	deps := SetupTestReminderService(t)
	ctx := deps.Ctx
	ids := deps.Gen.Snowflakes(2)
	user, channel := ids[0], ids[1]

	_, err := deps.Service.SetServerRegion(ctx, user, reminderdomain.RegionEurope)
	require.NoError(t, err)
	_, err = deps.Service.SubscribeWeekly(ctx, user, channel, false)
	require.NoError(t, err)

	_, err = deps.Service.SetServerRegion(ctx, user, reminderdomain.RegionAmerica)
	require.NoError(t, err)

	list, err := deps.Service.ListUserReminders(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, list.Weekly)
	assert.Equal(t, reminderdomain.RegionAmerica, list.Weekly.Region)
	assert.Equal(t, time.Date(2024, 1, 22, 9, 0, 0, 0, time.UTC), list.Weekly.NextFire)
}

func TestDeleteUserCascades(t *testing.T) {
	deps := SetupTestReminderService(t)
	ctx := deps.Ctx
	ids := deps.Gen.Snowflakes(3)
	user, other, channel := ids[0], ids[1], ids[2]

	for _, u := range []string{user, other} {
		_, err := deps.Service.SetServerRegion(ctx, u, reminderdomain.RegionTWHKMO)
		require.NoError(t, err)
		_, err = deps.Service.SubscribeDaily(ctx, u, channel, true)
		require.NoError(t, err)
		_, err = deps.Service.CreateCustomReminder(ctx, u, channel, deps.Gen.Message(), baseTime.Add(time.Hour))
		require.NoError(t, err)
	}

	deleted, err := deps.Service.DeleteUserConfig(ctx, user)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = deps.Service.ListUserReminders(ctx, user)
	assert.ErrorIs(t, err, reminderservice.ErrNotConfigured)

	deps.Clock.T = time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)
	due := collectDue(t, deps)
	require.Len(t, due, 2)
	for _, d := range due {
		assert.Equal(t, other, d.Ref.UserID)
	}
}

func TestDeleteCustomReminderOwnership(t *testing.T) {
	deps := SetupTestReminderService(t)
	ctx := deps.Ctx
	ids := deps.Gen.Snowflakes(3)
	owner, intruder, channel := ids[0], ids[1], ids[2]

	_, err := deps.Service.SetServerRegion(ctx, owner, reminderdomain.RegionEurope)
	require.NoError(t, err)
	id, err := deps.Service.CreateCustomReminder(ctx, owner, channel, "raid", baseTime.Add(time.Hour))
	require.NoError(t, err)

	assert.ErrorIs(t, deps.Service.DeleteCustomReminder(ctx, id, intruder), reminderservice.ErrNotOwner)
	assert.NoError(t, deps.Service.DeleteCustomReminder(ctx, id, owner))
	assert.ErrorIs(t, deps.Service.DeleteCustomReminder(ctx, id, owner), reminderservice.ErrNotFound)
}

func TestPurgeChannel(t *testing.T) {
	deps := SetupTestReminderService(t)
	ctx := deps.Ctx
	ids := deps.Gen.Snowflakes(3)
	user, gone, kept := ids[0], ids[1], ids[2]

	_, err := deps.Service.SetServerRegion(ctx, user, reminderdomain.RegionEurope)
	require.NoError(t, err)
	_, err = deps.Service.SubscribeDaily(ctx, user, gone, true)
	require.NoError(t, err)
	_, err = deps.Service.SetResinAlert(ctx, user, 0, 160, gone)
	require.NoError(t, err)
	_, err = deps.Service.CreateCustomReminder(ctx, user, gone, "a", baseTime.Add(time.Hour))
	require.NoError(t, err)
	_, err = deps.Service.CreateCustomReminder(ctx, user, kept, "b", baseTime.Add(time.Hour))
	require.NoError(t, err)

	n, err := deps.Service.PurgeChannel(ctx, gone)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	list, err := deps.Service.ListUserReminders(ctx, user)
	require.NoError(t, err)
	assert.Nil(t, list.Daily)
	assert.Nil(t, list.Resin)
	require.Len(t, list.Custom, 1)
	assert.Equal(t, kept, list.Custom[0].ChannelID)
}
