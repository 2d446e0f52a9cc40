package remindermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating daily_reminders and weekly_reminders tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, table := range []string{"daily_reminders", "weekly_reminders"} {
				if _, err := tx.ExecContext(ctx, `
					CREATE TABLE IF NOT EXISTS ? (
						user_id VARCHAR(20) PRIMARY KEY
							REFERENCES user_configs(user_id) ON DELETE CASCADE,
						channel_id VARCHAR(20) NOT NULL,
						repeat BOOLEAN NOT NULL DEFAULT FALSE,
						fire_at TIMESTAMPTZ NOT NULL,
						claimed_until TIMESTAMPTZ,
						claim_token UUID,
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
					);
				`, bun.Ident(table)); err != nil {
					return fmt.Errorf("failed to create %s table: %w", table, err)
				}

				if _, err := tx.ExecContext(ctx,
					`CREATE INDEX IF NOT EXISTS ? ON ? (fire_at);`,
					bun.Ident("idx_"+table+"_fire_at"), bun.Ident(table),
				); err != nil {
					return fmt.Errorf("failed to index %s: %w", table, err)
				}
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping daily_reminders and weekly_reminders tables...")
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS daily_reminders, weekly_reminders;`)
		return err
	})
}
