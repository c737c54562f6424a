package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`ALTER TABLE users ADD COLUMN IF NOT EXISTS business_id TEXT NOT NULL DEFAULT ''`,
	`ALTER TABLE users ADD COLUMN IF NOT EXISTS business_name TEXT NOT NULL DEFAULT ''`,
	`ALTER TABLE users ADD COLUMN IF NOT EXISTS open_session_id TEXT NOT NULL DEFAULT ''`,

	`CREATE INDEX IF NOT EXISTS idx_users_open_session ON users(open_session_id) WHERE open_session_id <> ''`,
}

// RunMigrations creates the users schema. When db can begin a transaction the
// whole set is applied atomically.
func RunMigrations(ctx context.Context, db PGXDB) error {
	if beginner, ok := db.(TxBeginner); ok {
		return WithTx(ctx, beginner, func(tx PGXDB) error {
			return applyMigrations(ctx, tx)
		})
	}
	return applyMigrations(ctx, db)
}

func applyMigrations(ctx context.Context, db PGXDB) error {
	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
