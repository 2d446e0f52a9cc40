package remindermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating resin_reminders and custom_reminders tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS resin_reminders (
					user_id VARCHAR(20) PRIMARY KEY
						REFERENCES user_configs(user_id) ON DELETE CASCADE,
					channel_id VARCHAR(20) NOT NULL,
					rlimit INTEGER NOT NULL CHECK (rlimit > 0 AND rlimit <= 160),
					alert TIMESTAMPTZ,
					claimed_until TIMESTAMPTZ,
					claim_token UUID,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_resin_reminders_alert
					ON resin_reminders (alert) WHERE alert IS NOT NULL;
			`); err != nil {
				return fmt.Errorf("failed to create resin_reminders table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS custom_reminders (
					id BIGSERIAL PRIMARY KEY,
					user_id VARCHAR(20) NOT NULL
						REFERENCES user_configs(user_id) ON DELETE CASCADE,
					channel_id VARCHAR(20) NOT NULL,
					message TEXT NOT NULL DEFAULT '…',
					target TIMESTAMPTZ NOT NULL,
					created TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					claimed_until TIMESTAMPTZ,
					claim_token UUID
				);
				CREATE INDEX IF NOT EXISTS idx_custom_reminders_target ON custom_reminders (target);
				CREATE INDEX IF NOT EXISTS idx_custom_reminders_user_id ON custom_reminders (user_id);
			`); err != nil {
				return fmt.Errorf("failed to create custom_reminders table: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping resin_reminders and custom_reminders tables...")
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS resin_reminders, custom_reminders;`)
		return err
	})
}
