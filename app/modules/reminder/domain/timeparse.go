package reminderdomain

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var (
	ErrUnparsableTime = errors.New("could not recognise time")
	ErrTimeNotFuture  = errors.New("time must be in the future")
)

var (
	compactClock = regexp.MustCompile(`(\d{1,2})(\d{2})(am|pm)`)
	relativeIn   = regexp.MustCompile(`^(\d+)\s*(m|min|mins|h|hr|hrs|d)$`)
)

// TimeParser turns user input such as "in 2 hours", "tomorrow at 5pm" or an
// RFC3339 timestamp into an absolute instant.
type TimeParser struct {
	w *when.Parser
}

func NewTimeParser() *TimeParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &TimeParser{w: w}
}

// Parse interprets input relative to now in loc's wall clock. The result must
// be strictly after now.
func (p *TimeParser) Parse(input string, loc *time.Location, now time.Time) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" {
		return time.Time{}, ErrUnparsableTime
	}

	var parsed time.Time
	if t, err := time.Parse(time.RFC3339, strings.ToUpper(in)); err == nil {
		parsed = t
	} else if m := relativeIn.FindStringSubmatch(in); m != nil {
		d, err := shorthandDuration(m[1], m[2])
		if err != nil {
			return time.Time{}, err
		}
		parsed = now.Add(d)
	} else {
		in = strings.ReplaceAll(in, "today ", "today at ")
		in = compactClock.ReplaceAllString(in, "$1:$2 $3")

		r, err := p.w.Parse(in, now.In(loc))
		if err != nil || r == nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsableTime, input)
		}
		parsed = r.Time
	}

	if !parsed.After(now) {
		return time.Time{}, fmt.Errorf("%w: %s", ErrTimeNotFuture, parsed.UTC().Format(time.RFC3339))
	}
	return parsed.UTC(), nil
}

func shorthandDuration(n, unit string) (time.Duration, error) {
	var d time.Duration
	switch unit {
	case "m", "min", "mins":
		d = time.Minute
	case "h", "hr", "hrs":
		d = time.Hour
	case "d":
		d = 24 * time.Hour
	}
	count, err := strconv.ParseInt(n, 10, 64)
	if err != nil || count > math.MaxInt64/int64(d) {
		return 0, fmt.Errorf("%w: %q", ErrUnparsableTime, n+unit)
	}
	return time.Duration(count) * d, nil
}
