package remindermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating user_configs table...")
		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS user_configs (
				user_id VARCHAR(20) PRIMARY KEY,
				region VARCHAR(16) NOT NULL
					CHECK (region IN ('america', 'europe', 'asia', 'tw_hk_mo')),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`)
		if err != nil {
			return fmt.Errorf("failed to create user_configs table: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping user_configs table...")
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS user_configs CASCADE;`)
		return err
	})
}
