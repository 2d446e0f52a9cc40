package reminderdomain

import "time"

// NextDailyReset returns the first daily reset of region strictly after t.
func NextDailyReset(region Region, t time.Time) time.Time {
	loc := region.Location()
	local := t.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), ResetHour, 0, 0, 0, loc)
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next.UTC()
}

// NextWeeklyReset returns the first Monday reset of region strictly after t.
func NextWeeklyReset(region Region, t time.Time) time.Time {
	loc := region.Location()
	local := t.In(loc)
	daysUntilMonday := (int(time.Monday) - int(local.Weekday()) + 7) % 7
	next := time.Date(local.Year(), local.Month(), local.Day()+daysUntilMonday, ResetHour, 0, 0, 0, loc)
	if !next.After(t) {
		next = next.AddDate(0, 0, 7)
	}
	return next.UTC()
}

// NextReset dispatches on the cadence of kind. Only daily and weekly kinds
// have a reset schedule; ok is false otherwise.
func NextReset(kind Kind, region Region, t time.Time) (next time.Time, ok bool) {
	switch kind {
	case KindDaily:
		return NextDailyReset(region, t), true
	case KindWeekly:
		return NextWeeklyReset(region, t), true
	default:
		return time.Time{}, false
	}
}

// GameWeekday is the in-game weekday at t. The game day starts at the reset
// hour, so 02:00 on a Tuesday still counts as Monday.
func GameWeekday(region Region, t time.Time) time.Weekday {
	return t.In(region.Location()).Add(-ResetHour * time.Hour).Weekday()
}
