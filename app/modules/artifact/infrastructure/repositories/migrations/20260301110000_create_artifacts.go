package artifactmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating artifacts and artifact_substats tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS artifacts (
					id BIGSERIAL PRIMARY KEY,
					set_key VARCHAR(64) NOT NULL,
					slot_key VARCHAR(16) NOT NULL
						CHECK (slot_key IN ('flower', 'plume', 'sands', 'goblet', 'circlet')),
					rarity SMALLINT NOT NULL CHECK (rarity BETWEEN 1 AND 5),
					level SMALLINT NOT NULL CHECK (level BETWEEN 0 AND 4 * rarity),
					main_stat_key VARCHAR(32) NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_artifacts_set_key ON artifacts (set_key);
			`); err != nil {
				return fmt.Errorf("failed to create artifacts table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS artifact_substats (
					id BIGSERIAL PRIMARY KEY,
					artifact_id BIGINT NOT NULL
						REFERENCES artifacts(id) ON DELETE CASCADE,
					stat_key VARCHAR(32) NOT NULL,
					rolls INTEGER[] NOT NULL,
					UNIQUE (artifact_id, stat_key)
				);
			`); err != nil {
				return fmt.Errorf("failed to create artifact_substats table: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping artifacts and artifact_substats tables...")
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS artifact_substats, artifacts;`)
		return err
	})
}
