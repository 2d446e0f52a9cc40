package reminderdomain

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ErrInvalidSnowflake is returned for identifiers that are not Discord snowflakes.
var ErrInvalidSnowflake = errors.New("invalid discord snowflake")

// discordEpoch is the first millisecond of 2015, Discord's snowflake epoch.
const discordEpoch int64 = 1420070400000

// ValidateSnowflake checks that id is a positive 64-bit Discord snowflake.
func ValidateSnowflake(id string) error {
	if id == "" || len(id) > 20 {
		return fmt.Errorf("%w: %q", ErrInvalidSnowflake, id)
	}
	sf, err := snowflake.ParseString(id)
	if err != nil || sf.Int64() <= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidSnowflake, id)
	}
	return nil
}

// SnowflakeTime returns the creation time encoded in a Discord snowflake.
func SnowflakeTime(id string) (time.Time, error) {
	if err := ValidateSnowflake(id); err != nil {
		return time.Time{}, err
	}
	sf, _ := snowflake.ParseString(id)
	ms := (sf.Int64() >> 22) + discordEpoch
	return time.UnixMilli(ms).UTC(), nil
}
