package sessionmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating sessions and session_rounds tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS sessions (
					id UUID PRIMARY KEY,
					chat_id VARCHAR(64) NOT NULL,
					mode VARCHAR(16) NOT NULL,
					state VARCHAR(16) NOT NULL DEFAULT 'active',
					started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					ended_at TIMESTAMPTZ,
					final_report JSONB
				);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_active_chat ON sessions(chat_id) WHERE state = 'active';
				CREATE INDEX IF NOT EXISTS idx_sessions_chat_started ON sessions(chat_id, started_at DESC);
			`); err != nil {
				return fmt.Errorf("failed to create sessions table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS session_rounds (
					session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
					round_index INTEGER NOT NULL,
					raw_text TEXT NOT NULL,
					deltas JSONB,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (session_id, round_index)
				);
			`); err != nil {
				return fmt.Errorf("failed to create session_rounds table: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping session_rounds and sessions tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS session_rounds;`); err != nil {
				return fmt.Errorf("failed to drop session_rounds table: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS sessions;`); err != nil {
				return fmt.Errorf("failed to drop sessions table: %w", err)
			}
			return nil
		})
	})
}
