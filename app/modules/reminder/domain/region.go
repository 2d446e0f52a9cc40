package reminderdomain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownRegion is returned by ParseRegion for unrecognised input.
var ErrUnknownRegion = errors.New("unknown region")

// Region is a game server shard. The stored value is the lowercase key.
type Region string

const (
	RegionAmerica Region = "america"
	RegionEurope  Region = "europe"
	RegionAsia    Region = "asia"
	RegionTWHKMO  Region = "tw_hk_mo"
)

// DefaultRegion is assumed when a user has not configured one yet.
const DefaultRegion = RegionAmerica

// ResetHour is the local wall-clock hour of the daily reset on every region.
const ResetHour = 4

type regionInfo struct {
	name   string
	offset int // seconds east of UTC
}

var regions = map[Region]regionInfo{
	RegionAmerica: {name: "America", offset: -5 * 3600},
	RegionEurope:  {name: "Europe", offset: 1 * 3600},
	RegionAsia:    {name: "Asia", offset: 8 * 3600},
	RegionTWHKMO:  {name: "TW/HK/MO", offset: 8 * 3600},
}

// Regions lists every region in display order.
func Regions() []Region {
	return []Region{RegionAmerica, RegionEurope, RegionAsia, RegionTWHKMO}
}

// ParseRegion accepts either the stored key or the display name, case-insensitively.
func ParseRegion(s string) (Region, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	for r, info := range regions {
		if in == string(r) || in == strings.ToLower(info.name) {
			return r, nil
		}
	}
	switch in {
	case "na", "us":
		return RegionAmerica, nil
	case "eu":
		return RegionEurope, nil
	case "tw", "hk", "mo", "sar", "tw/hk/mo":
		return RegionTWHKMO, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRegion, s)
}

// Valid reports whether r is a known region.
func (r Region) Valid() bool {
	_, ok := regions[r]
	return ok
}

// DisplayName is the name shown to users, e.g. "TW/HK/MO".
func (r Region) DisplayName() string {
	if info, ok := regions[r]; ok {
		return info.name
	}
	return string(r)
}

// Location returns the fixed-offset zone the region's server clock runs on.
// Game servers do not observe daylight saving.
func (r Region) Location() *time.Location {
	info, ok := regions[r]
	if !ok {
		info = regions[DefaultRegion]
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", info.offset/3600), info.offset)
}

func (r Region) String() string { return string(r) }
