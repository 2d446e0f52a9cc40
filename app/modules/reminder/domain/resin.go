package reminderdomain

import (
	"errors"
	"time"
)

const (
	// ResinCap is the hard cap of the resource.
	ResinCap = 160
	// DefaultResinLimit is the threshold used when a user does not pick one.
	DefaultResinLimit = 155
	// ResinRegenInterval is the time to regenerate a single unit.
	ResinRegenInterval = 8 * time.Minute
)

var (
	ErrResinLimitOutOfRange   = errors.New("resin limit must be between 1 and 160")
	ErrResinCurrentOutOfRange = errors.New("current resin must be between 0 and 160")
	ErrResinAlreadyAtLimit    = errors.New("current resin already at or above limit")
)

// ValidateResinLimit checks 0 < limit <= ResinCap.
func ValidateResinLimit(limit int) error {
	if limit <= 0 || limit > ResinCap {
		return ErrResinLimitOutOfRange
	}
	return nil
}

// ResinAlertAt is the instant current resin regenerates up to limit.
func ResinAlertAt(current, limit int, now time.Time) (time.Time, error) {
	if err := ValidateResinLimit(limit); err != nil {
		return time.Time{}, err
	}
	if current < 0 || current > ResinCap {
		return time.Time{}, ErrResinCurrentOutOfRange
	}
	if current >= limit {
		return time.Time{}, ErrResinAlreadyAtLimit
	}
	return now.Add(time.Duration(limit-current) * ResinRegenInterval).UTC(), nil
}

// NextResinAlert reschedules a fired alert. The player is assumed to spend
// down to zero when pinged, so the next alert is a full limit's worth of
// regeneration after the previous one. If the poller fell so far behind that
// instant is already past, it counts from now instead.
func NextResinAlert(scheduled time.Time, limit int, now time.Time) time.Time {
	refill := time.Duration(limit) * ResinRegenInterval
	next := scheduled.Add(refill)
	if !next.After(now) {
		next = now.Add(refill)
	}
	return next.UTC()
}
