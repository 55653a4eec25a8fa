package sqlstore

import (
	"context"
	"fmt"
)

// Block types stored in the blocks table.
const (
	blockBoard = "board"
	blockView  = "view"
	blockCard  = "card"
)

// schema works on both SQLite and PostgreSQL. Times are unix milliseconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS blocks (
		id          TEXT PRIMARY KEY,
		parent_id   TEXT NOT NULL DEFAULT '',
		root_id     TEXT NOT NULL DEFAULT '',
		type        TEXT NOT NULL,
		title       TEXT NOT NULL DEFAULT '',
		fields      TEXT NOT NULL DEFAULT '{}',
		created_by  TEXT NOT NULL DEFAULT '',
		updated_by  TEXT NOT NULL DEFAULT '',
		created_at  BIGINT NOT NULL,
		updated_at  BIGINT NOT NULL,
		deleted_at  BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_blocks_parent ON blocks (parent_id, type)`,
	`CREATE TABLE IF NOT EXISTS members (
		id       TEXT PRIMARY KEY,
		username TEXT NOT NULL
	)`,
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}
