package reminderservice

import "errors"

var (
	// ErrNotConfigured is returned when the user has no server region set.
	ErrNotConfigured = errors.New("no server region configured; set one via /server update")
	// ErrInvalidLimit is returned for a resin limit outside (0, 160].
	ErrInvalidLimit = errors.New("resin limit must be between 1 and 160")
	// ErrInvalidResin is returned for a current resin outside [0, 160].
	ErrInvalidResin = errors.New("current resin must be between 0 and 160")
	// ErrAlreadyAtLimit is returned when current resin already reached the limit.
	ErrAlreadyAtLimit = errors.New("resin is already at the limit")
	// ErrInvalidTarget is returned when a custom reminder is not in the future.
	ErrInvalidTarget = errors.New("reminder time must be in the future")
	// ErrMessageTooLong is returned for custom messages over Discord's limit.
	ErrMessageTooLong = errors.New("reminder message is too long")
	// ErrNotFound is returned when the referenced reminder does not exist.
	ErrNotFound = errors.New("reminder not found")
	// ErrNotOwner is returned when a user deletes someone else's reminder.
	ErrNotOwner = errors.New("reminder belongs to another user")
	// ErrInvalidRegion is returned for an unknown server region.
	ErrInvalidRegion = errors.New("unknown server region")
	// ErrInvalidID is returned for malformed Discord identifiers.
	ErrInvalidID = errors.New("invalid discord identifier")
	// ErrInvalidRef is returned when a reminder ref names an unknown kind.
	ErrInvalidRef = errors.New("invalid reminder reference")
	// ErrTransient wraps storage failures; callers may retry.
	ErrTransient = errors.New("temporary storage failure")
)

// Code maps a service error to a stable code the bot can localise.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrInvalidLimit):
		return "invalid_limit"
	case errors.Is(err, ErrInvalidResin):
		return "invalid_resin"
	case errors.Is(err, ErrAlreadyAtLimit):
		return "already_at_limit"
	case errors.Is(err, ErrInvalidTarget):
		return "invalid_target"
	case errors.Is(err, ErrMessageTooLong):
		return "message_too_long"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	case errors.Is(err, ErrInvalidRegion):
		return "invalid_region"
	case errors.Is(err, ErrInvalidID):
		return "invalid_id"
	case errors.Is(err, ErrInvalidRef):
		return "invalid_ref"
	default:
		return "transient"
	}
}

// IsDomainError reports whether err is a validation or ownership failure
// rather than an infrastructure problem.
func IsDomainError(err error) bool {
	return err != nil && Code(err) != "transient"
}
