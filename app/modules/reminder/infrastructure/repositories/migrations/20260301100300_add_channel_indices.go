package remindermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Channel purges run when Discord reports a channel gone; without these they
// would scan every reminder table.
func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Adding channel_id indices to reminder tables...")
		_, err := db.ExecContext(ctx, `
			CREATE INDEX IF NOT EXISTS idx_daily_reminders_channel_id ON daily_reminders (channel_id);
			CREATE INDEX IF NOT EXISTS idx_weekly_reminders_channel_id ON weekly_reminders (channel_id);
			CREATE INDEX IF NOT EXISTS idx_resin_reminders_channel_id ON resin_reminders (channel_id);
			CREATE INDEX IF NOT EXISTS idx_custom_reminders_channel_id ON custom_reminders (channel_id);
		`)
		if err != nil {
			return fmt.Errorf("failed to add channel indices: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `
			DROP INDEX IF EXISTS idx_daily_reminders_channel_id;
			DROP INDEX IF EXISTS idx_weekly_reminders_channel_id;
			DROP INDEX IF EXISTS idx_resin_reminders_channel_id;
			DROP INDEX IF EXISTS idx_custom_reminders_channel_id;
		`)
		return err
	})
}
