package artifactintegrationtests

import (
	"context"
	"os"
	"testing"
	"time"

	artifactdomain "github.com/Black-And-White-Club/kamisato/app/modules/artifact/domain"
	artifactdb "github.com/Black-And-White-Club/kamisato/app/modules/artifact/infrastructure/repositories"
	"github.com/Black-And-White-Club/kamisato/integration_tests/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

var shared testutils.Shared

func TestMain(m *testing.M) {
	code := m.Run()
	shared.Close()
	os.Exit(code)
}

func setup(t *testing.T) (context.Context, *bun.DB, *testutils.TestDataGenerator) {
	t.Helper()
	env := shared.Get(t)

	ctx, cancel := context.WithTimeout(env.Ctx, 30*time.Second)
	t.Cleanup(cancel)
	require.NoError(t, env.Reset(ctx))

	gen := testutils.NewTestDataGenerator()
	t.Logf("data generator seed: %d", gen.Seed())
	return ctx, env.DB, gen
}

func insertArtifact(ctx context.Context, db bun.IDB, a *artifactdb.Artifact) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(a).Returning("id, created_at").Exec(ctx); err != nil {
			return err
		}
		for _, s := range a.Substats {
			s.ArtifactID = a.ID
		}
		_, err := tx.NewInsert().Model(&a.Substats).Returning("id").Exec(ctx)
		return err
	})
}

func TestArtifactRoundTrip(t *testing.T) {
	ctx, db, gen := setup(t)

	in := gen.Artifact(string(artifactdomain.SlotCirclet))
	require.NoError(t, insertArtifact(ctx, db, in))
	require.NotZero(t, in.ID)
	assert.False(t, in.CreatedAt.IsZero())

	got := new(artifactdb.Artifact)
	require.NoError(t, db.NewSelect().
		Model(got).
		Relation("Substats", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("s.id ASC")
		}).
		Where("a.id = ?", in.ID).
		Scan(ctx))

	assert.Equal(t, in.SetKey, got.SetKey)
	assert.Equal(t, in.MainStatKey, got.MainStatKey)
	require.Len(t, got.Substats, len(in.Substats))
	for i, s := range got.Substats {
		assert.Equal(t, in.Substats[i].StatKey, s.StatKey)
		assert.Equal(t, in.Substats[i].Rolls, s.Rolls)
	}
	assert.NoError(t, got.ToDomain().Validate())
}

func TestInsertRejectsInvalidArtifact(t *testing.T) {
	ctx, db, gen := setup(t)

	a := gen.Artifact(string(artifactdomain.SlotFlower))
	a.Level = 25
	err := insertArtifact(ctx, db, a)
	assert.ErrorIs(t, err, artifactdomain.ErrInvalidLevel)
	assert.Zero(t, a.ID)

	count, err := db.NewSelect().Model((*artifactdb.Artifact)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSchemaConstraints(t *testing.T) {
	ctx, db, gen := setup(t)

	a := gen.Artifact(string(artifactdomain.SlotGoblet))
	require.NoError(t, insertArtifact(ctx, db, a))

	tests := []struct {
		name  string
		query string
		args  []any
	}{
		{
			name:  "rarity above five",
			query: `INSERT INTO artifacts (set_key, slot_key, rarity, level, main_stat_key) VALUES ('x', 'flower', 6, 0, 'hp')`,
		},
		{
			name:  "level above four per star",
			query: `INSERT INTO artifacts (set_key, slot_key, rarity, level, main_stat_key) VALUES ('x', 'flower', 3, 13, 'hp')`,
		},
		{
			name:  "unknown slot",
			query: `INSERT INTO artifacts (set_key, slot_key, rarity, level, main_stat_key) VALUES ('x', 'weapon', 5, 0, 'atk')`,
		},
		{
			name:  "duplicate substat key",
			query: `INSERT INTO artifact_substats (artifact_id, stat_key, rolls) VALUES (?, ?, '{1}')`,
			args:  []any{a.ID, a.Substats[0].StatKey},
		},
		{
			name:  "substat without artifact",
			query: `INSERT INTO artifact_substats (artifact_id, stat_key, rolls) VALUES (?, 'hp', '{1}')`,
			args:  []any{a.ID + 1000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.ExecContext(ctx, tt.query, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestDeleteArtifactCascades(t *testing.T) {
	ctx, db, gen := setup(t)

	a := gen.Artifact(string(artifactdomain.SlotSands))
	require.NoError(t, insertArtifact(ctx, db, a))

	res, err := db.NewDelete().Model((*artifactdb.Artifact)(nil)).Where("id = ?", a.ID).Exec(ctx)
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	orphans, err := db.NewSelect().
		Model((*artifactdb.Substat)(nil)).
		Where("artifact_id = ?", a.ID).
		Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, orphans)
}
