package artifactdomain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validArtifact() Artifact {
	return Artifact{
		SetKey:      "EmblemOfSeveredFate",
		Slot:        SlotSands,
		Rarity:      5,
		Level:       20,
		MainStatKey: "enerRech_",
		Substats: []Substat{
			{Key: "critRate_", Rolls: []int{3, 2, 3}},
			{Key: "critDMG_", Rolls: []int{1, 0}},
			{Key: "atk_", Rolls: []int{2, 2}},
			{Key: "hp", Rolls: []int{0, 1}},
		},
	}
}

func TestMaxUpgrades(t *testing.T) {
	want := map[int]int{1: 0, 2: 0, 3: 1, 4: 3, 5: 5}
	for rarity, upgrades := range want {
		assert.Equal(t, upgrades, MaxUpgrades(rarity), "rarity %d", rarity)
		assert.Equal(t, 4*rarity, MaxLevel(rarity))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Artifact)
		wantErr error
	}{
		{name: "valid five star", mutate: func(*Artifact) {}},
		{name: "zero rarity", mutate: func(a *Artifact) { a.Rarity = 0 }, wantErr: ErrInvalidRarity},
		{name: "six star", mutate: func(a *Artifact) { a.Rarity = 6 }, wantErr: ErrInvalidRarity},
		{name: "unknown slot", mutate: func(a *Artifact) { a.Slot = "boots" }, wantErr: ErrInvalidSlot},
		{name: "level above max", mutate: func(a *Artifact) { a.Level = 21 }, wantErr: ErrInvalidLevel},
		{name: "negative level", mutate: func(a *Artifact) { a.Level = -1 }, wantErr: ErrInvalidLevel},
		{name: "missing set", mutate: func(a *Artifact) { a.SetKey = "" }, wantErr: ErrMissingSetKey},
		{name: "missing main stat", mutate: func(a *Artifact) { a.MainStatKey = "" }, wantErr: ErrMissingMainStat},
		{
			name:    "five substats",
			mutate:  func(a *Artifact) { a.Substats = append(a.Substats, Substat{Key: "def", Rolls: []int{1}}) },
			wantErr: ErrTooManySubstats,
		},
		{
			name:    "substat equals main stat",
			mutate:  func(a *Artifact) { a.Substats[3].Key = "enerRech_" },
			wantErr: ErrDuplicateStat,
		},
		{
			name:    "repeated substat",
			mutate:  func(a *Artifact) { a.Substats[1].Key = "critRate_" },
			wantErr: ErrDuplicateStat,
		},
		{
			name:    "rolls beyond level",
			mutate:  func(a *Artifact) { a.Level = 8 },
			wantErr: ErrTooManyRolls,
		},
		{
			name: "three star allows one upgrade",
			mutate: func(a *Artifact) {
				a.Rarity, a.Level = 3, 12
				a.Substats = []Substat{{Key: "atk", Rolls: []int{1, 2}}, {Key: "def", Rolls: []int{0}}}
			},
		},
		{
			name: "three star rejects two upgrades",
			mutate: func(a *Artifact) {
				a.Rarity, a.Level = 3, 12
				a.Substats = []Substat{{Key: "atk", Rolls: []int{1, 2, 2}}}
			},
			wantErr: ErrTooManyRolls,
		},
		{
			name:    "empty rolls",
			mutate:  func(a *Artifact) { a.Substats[0].Rolls = nil },
			wantErr: ErrEmptyRolls,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validArtifact()
			tt.mutate(&a)
			err := a.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
