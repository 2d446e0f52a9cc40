package reminderdb

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNoRowsAffected is returned when an update or delete matched nothing.
	ErrNoRowsAffected = errors.New("no rows affected")
	// ErrUserConfigMissing is returned when an insert violates the user_configs foreign key.
	ErrUserConfigMissing = errors.New("user config missing")
	// ErrUnknownKind is returned for a reminder kind with no backing table.
	ErrUnknownKind = errors.New("unknown reminder kind")
)

const foreignKeyViolation = "23503"

// isForeignKeyViolation recognises FK violations from both pgdriver and pgx.
func isForeignKeyViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == foreignKeyViolation
	}
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == foreignKeyViolation
	}
	return false
}
