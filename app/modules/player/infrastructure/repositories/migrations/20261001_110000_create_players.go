package playermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating players table...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS players (
				id UUID PRIMARY KEY,
				chat_id VARCHAR(64) NOT NULL,
				name VARCHAR(64) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (chat_id, name)
			);
		`)
		if err != nil {
			return fmt.Errorf("failed to create players table: %w", err)
		}

		fmt.Println("Players table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping players table...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS players;`); err != nil {
			return fmt.Errorf("failed to drop players table: %w", err)
		}
		return nil
	})
}
