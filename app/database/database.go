// Package database opens the Postgres connection and owns the module
// migrators.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	playermigrations "github.com/Black-And-White-Club/tarok-bot/app/modules/player/infrastructure/repositories/migrations"
	sessionqueue "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/queue"
	sessionmigrations "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/repositories/migrations"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// Open connects bun to dsn and checks the connection.
func Open(ctx context.Context, dsn string) (*bun.DB, error) {
	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(pgdb, pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrators returns one migrator per module. Each module keeps its own
// migration table so modules migrate independently.
func Migrators(db *bun.DB) map[string]*migrate.Migrator {
	return map[string]*migrate.Migrator{
		"player": migrate.NewMigrator(db, playermigrations.Migrations,
			migrate.WithTableName("player_migrations"), migrate.WithLocksTableName("player_migration_locks")),
		"session": migrate.NewMigrator(db, sessionmigrations.Migrations,
			migrate.WithTableName("session_migrations"), migrate.WithLocksTableName("session_migration_locks")),
	}
}

// ModuleNames lists the migrator names in a stable order. Players come
// before sessions.
func ModuleNames(migrators map[string]*migrate.Migrator) []string {
	names := make([]string, 0, len(migrators))
	for name := range migrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MigrateAll initializes and applies every module migration, then the River
// tables.
func MigrateAll(ctx context.Context, db *bun.DB, dsn string, logger *slog.Logger) error {
	migrators := Migrators(db)
	for _, name := range ModuleNames(migrators) {
		m := migrators[name]
		if err := m.Init(ctx); err != nil {
			return fmt.Errorf("failed to init %s migrations: %w", name, err)
		}
		group, err := m.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to migrate %s: %w", name, err)
		}
		logger.Info("Module migrated",
			attr.String("module", name),
			attr.Bool("up_to_date", group.IsZero()),
		)
	}
	return sessionqueue.Migrate(ctx, dsn, logger)
}
