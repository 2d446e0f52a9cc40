// Package artifactdomain validates artifact records. Scoring is out of scope;
// the store only guarantees that what it keeps is a legal artifact.
package artifactdomain

import (
	"errors"
	"fmt"
)

// Slot is the equipment slot of an artifact.
type Slot string

const (
	SlotFlower  Slot = "flower"
	SlotPlume   Slot = "plume"
	SlotSands   Slot = "sands"
	SlotGoblet  Slot = "goblet"
	SlotCirclet Slot = "circlet"
)

// Slots lists every slot in equip order.
func Slots() []Slot { return []Slot{SlotFlower, SlotPlume, SlotSands, SlotGoblet, SlotCirclet} }

func (s Slot) Valid() bool {
	switch s {
	case SlotFlower, SlotPlume, SlotSands, SlotGoblet, SlotCirclet:
		return true
	}
	return false
}

const (
	MinRarity = 1
	MaxRarity = 5
	// MaxSubstats is the number of substat lines an artifact can carry.
	MaxSubstats = 4
)

// maxUpgrades is indexed by rarity.
var maxUpgrades = [MaxRarity + 1]int{0, 0, 0, 1, 3, 5}

var (
	ErrInvalidRarity   = errors.New("rarity must be between 1 and 5")
	ErrInvalidSlot     = errors.New("unknown artifact slot")
	ErrInvalidLevel    = errors.New("level out of range for rarity")
	ErrMissingSetKey   = errors.New("set key is required")
	ErrMissingMainStat = errors.New("main stat key is required")
	ErrTooManySubstats = errors.New("too many substats")
	ErrDuplicateStat   = errors.New("substat repeats a stat")
	ErrTooManyRolls    = errors.New("substat rolls exceed upgrades for level")
	ErrEmptyRolls      = errors.New("substat has no rolls")
)

// MaxLevel is the highest level an artifact of rarity can reach.
func MaxLevel(rarity int) int { return 4 * rarity }

// MaxUpgrades is how many extra substat rolls rarity allows in total. It
// panics for rarities outside 1..5; call ValidateRarity first.
func MaxUpgrades(rarity int) int { return maxUpgrades[rarity] }

// ValidateRarity checks 1 <= rarity <= 5.
func ValidateRarity(rarity int) error {
	if rarity < MinRarity || rarity > MaxRarity {
		return fmt.Errorf("%w: %d", ErrInvalidRarity, rarity)
	}
	return nil
}

// Substat is one substat line. Each entry of Rolls is one roll value index;
// the first is the initial roll, the rest are upgrades.
type Substat struct {
	Key   string
	Rolls []int
}

// Artifact is the validated shape of a stored artifact.
type Artifact struct {
	SetKey      string
	Slot        Slot
	Rarity      int
	Level       int
	MainStatKey string
	Substats    []Substat
}

// Validate checks the artifact against the rarity, level and substat rules.
func (a Artifact) Validate() error {
	if a.SetKey == "" {
		return ErrMissingSetKey
	}
	if !a.Slot.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, a.Slot)
	}
	if err := ValidateRarity(a.Rarity); err != nil {
		return err
	}
	if a.Level < 0 || a.Level > MaxLevel(a.Rarity) {
		return fmt.Errorf("%w: level %d, max %d", ErrInvalidLevel, a.Level, MaxLevel(a.Rarity))
	}
	if a.MainStatKey == "" {
		return ErrMissingMainStat
	}
	if len(a.Substats) > MaxSubstats {
		return fmt.Errorf("%w: %d", ErrTooManySubstats, len(a.Substats))
	}

	// Upgrades unlock every 4 levels, capped by rarity.
	upgrades := min(a.Level/4, MaxUpgrades(a.Rarity))
	extra := 0
	seen := make(map[string]struct{}, len(a.Substats))
	for _, s := range a.Substats {
		if s.Key == a.MainStatKey {
			return fmt.Errorf("%w: %s is the main stat", ErrDuplicateStat, s.Key)
		}
		if _, dup := seen[s.Key]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateStat, s.Key)
		}
		seen[s.Key] = struct{}{}
		if len(s.Rolls) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyRolls, s.Key)
		}
		extra += len(s.Rolls) - 1
	}
	if extra > upgrades {
		return fmt.Errorf("%w: %d upgrades, %d allowed", ErrTooManyRolls, extra, upgrades)
	}
	return nil
}
