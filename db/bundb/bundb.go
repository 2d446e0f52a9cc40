// Package bundb opens the Postgres connection and runs each module's
// migrations against it.
package bundb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	artifactdb "github.com/Black-And-White-Club/kamisato/app/modules/artifact/infrastructure/repositories"
	artifactmigrations "github.com/Black-And-White-Club/kamisato/app/modules/artifact/infrastructure/repositories/migrations"
	reminderdb "github.com/Black-And-White-Club/kamisato/app/modules/reminder/infrastructure/repositories"
	remindermigrations "github.com/Black-And-White-Club/kamisato/app/modules/reminder/infrastructure/repositories/migrations"
	"github.com/Black-And-White-Club/kamisato/config"
	"github.com/Black-And-White-Club/kamisato/pkg/attr"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// NewBunDB connects to Postgres and registers every model.
func NewBunDB(ctx context.Context, cfg config.PostgresConfig) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithTimeout(10*time.Second),
	))

	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())
	RegisterModels(db)
	return db, nil
}

// RegisterModels registers the models bun needs for relations.
func RegisterModels(db *bun.DB) {
	db.RegisterModel(
		(*reminderdb.UserConfig)(nil),
		(*reminderdb.DailyReminder)(nil),
		(*reminderdb.WeeklyReminder)(nil),
		(*reminderdb.ResinReminder)(nil),
		(*reminderdb.CustomReminder)(nil),
		(*artifactdb.Artifact)(nil),
		(*artifactdb.Substat)(nil),
	)
}

// Migrators returns one migrator per module. Each module keeps its own
// bookkeeping tables so their migration histories never mix.
func Migrators(db *bun.DB) map[string]*migrate.Migrator {
	return map[string]*migrate.Migrator{
		"reminder": newMigrator(db, "reminder", remindermigrations.Migrations),
		"artifact": newMigrator(db, "artifact", artifactmigrations.Migrations),
	}
}

// MigrationOrder is the order modules must be migrated in.
var MigrationOrder = []string{"reminder", "artifact"}

func newMigrator(db *bun.DB, module string, migrations *migrate.Migrations) *migrate.Migrator {
	return migrate.NewMigrator(db, migrations,
		migrate.WithTableName(module+"_migrations"),
		migrate.WithLocksTableName(module+"_migration_locks"),
		migrate.WithMarkAppliedOnSuccess(true),
	)
}

// RunMigrations initializes and applies every module's pending migrations.
func RunMigrations(ctx context.Context, db *bun.DB, logger *slog.Logger) error {
	migrators := Migrators(db)
	for _, module := range MigrationOrder {
		m := migrators[module]
		if err := m.Init(ctx); err != nil {
			return fmt.Errorf("failed to init %s migrations: %w", module, err)
		}
		if err := m.Lock(ctx); err != nil {
			return fmt.Errorf("failed to lock %s migrations: %w", module, err)
		}
		group, err := m.Migrate(ctx)
		unlockErr := m.Unlock(ctx)
		if err != nil {
			return fmt.Errorf("failed to migrate %s: %w", module, err)
		}
		if unlockErr != nil {
			return fmt.Errorf("failed to unlock %s migrations: %w", module, unlockErr)
		}
		if group.IsZero() {
			logger.Info("No new migrations", attr.String("module", module))
			continue
		}
		logger.Info("Migrated module",
			attr.String("module", module),
			attr.String("group", group.String()),
		)
	}
	return nil
}
