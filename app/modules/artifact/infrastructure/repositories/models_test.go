package artifactdb

import (
	"context"
	"testing"

	artifactdomain "github.com/Black-And-White-Club/kamisato/app/modules/artifact/domain"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
)

func TestArtifactToDomain(t *testing.T) {
	a := &Artifact{
		SetKey:      "CrimsonWitchOfFlames",
		SlotKey:     "goblet",
		Rarity:      5,
		Level:       8,
		MainStatKey: "pyro_dmg_",
		Substats: []*Substat{
			{StatKey: "critRate_", Rolls: []int{3, 1}},
			{StatKey: "eleMas", Rolls: []int{2, 2}},
		},
	}

	got := a.ToDomain()
	assert.Equal(t, artifactdomain.SlotGoblet, got.Slot)
	assert.Equal(t, []artifactdomain.Substat{
		{Key: "critRate_", Rolls: []int{3, 1}},
		{Key: "eleMas", Rolls: []int{2, 2}},
	}, got.Substats)
	assert.NoError(t, got.Validate())

	a.Substats[1].Rolls = []int{2, 2, 0}
	assert.ErrorIs(t, a.ToDomain().Validate(), artifactdomain.ErrTooManyRolls)
}

func TestArtifactBeforeAppendModel(t *testing.T) {
	valid := func() *Artifact {
		return &Artifact{
			SetKey:      "EmblemOfSeveredFate",
			SlotKey:     "sands",
			Rarity:      4,
			Level:       16,
			MainStatKey: "enerRech_",
			Substats: []*Substat{
				{StatKey: "atk_", Rolls: []int{0, 1, 2}},
				{StatKey: "critDMG_", Rolls: []int{3}},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Artifact)
		query   bun.Query
		wantErr error
	}{
		{name: "valid insert", mutate: func(*Artifact) {}, query: (*bun.InsertQuery)(nil)},
		{name: "level above rarity cap", mutate: func(a *Artifact) { a.Level = 17 }, query: (*bun.InsertQuery)(nil), wantErr: artifactdomain.ErrInvalidLevel},
		{name: "unknown slot", mutate: func(a *Artifact) { a.SlotKey = "weapon" }, query: (*bun.InsertQuery)(nil), wantErr: artifactdomain.ErrInvalidSlot},
		{name: "too many rolls", mutate: func(a *Artifact) { a.Substats[1].Rolls = []int{3, 3, 3} }, query: (*bun.InsertQuery)(nil), wantErr: artifactdomain.ErrTooManyRolls},
		{name: "selects are not validated", mutate: func(a *Artifact) { a.Rarity = 9 }, query: (*bun.SelectQuery)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid()
			tt.mutate(a)
			err := a.BeforeAppendModel(context.Background(), tt.query)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
