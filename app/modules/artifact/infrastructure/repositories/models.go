package artifactdb

import (
	"context"
	"fmt"
	"time"

	artifactdomain "github.com/Black-And-White-Club/kamisato/app/modules/artifact/domain"
	"github.com/uptrace/bun"
)

// Artifact is one stored artifact. The table has no access path of its own;
// inserts are validated by BeforeAppendModel.
type Artifact struct {
	bun.BaseModel `bun:"table:artifacts,alias:a"`

	ID          int64      `bun:"id,pk,autoincrement"`
	SetKey      string     `bun:"set_key,notnull"`
	SlotKey     string     `bun:"slot_key,notnull"`
	Rarity      int        `bun:"rarity,notnull"`
	Level       int        `bun:"level,notnull"`
	MainStatKey string     `bun:"main_stat_key,notnull"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	Substats    []*Substat `bun:"rel:has-many,join:id=artifact_id"`
}

// Substat is one substat line. Rolls holds the roll value indices in order.
type Substat struct {
	bun.BaseModel `bun:"table:artifact_substats,alias:s"`

	ID         int64  `bun:"id,pk,autoincrement"`
	ArtifactID int64  `bun:"artifact_id,notnull"`
	StatKey    string `bun:"stat_key,notnull"`
	Rolls      []int  `bun:"rolls,array,notnull"`
}

var _ bun.BeforeAppendModelHook = (*Artifact)(nil)

// BeforeAppendModel rejects inserts of artifacts that could not exist in game.
// Substats are checked from the in-memory relation.
func (a *Artifact) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); !ok {
		return nil
	}
	if err := a.ToDomain().Validate(); err != nil {
		return fmt.Errorf("invalid artifact: %w", err)
	}
	return nil
}

// ToDomain converts a stored artifact for validation.
func (a *Artifact) ToDomain() artifactdomain.Artifact {
	out := artifactdomain.Artifact{
		SetKey:      a.SetKey,
		Slot:        artifactdomain.Slot(a.SlotKey),
		Rarity:      a.Rarity,
		Level:       a.Level,
		MainStatKey: a.MainStatKey,
	}
	for _, s := range a.Substats {
		out.Substats = append(out.Substats, artifactdomain.Substat{Key: s.StatKey, Rolls: s.Rolls})
	}
	return out
}
