package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Tables are written in the SQL subset shared by SQLite and Postgres.
// Timestamps are unix milliseconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val BIGINT NOT NULL DEFAULT 1
	)`,
	`INSERT INTO global_sequence (id, next_val) VALUES (1, 1) ON CONFLICT (id) DO NOTHING`,

	`CREATE TABLE IF NOT EXISTS attempt_results (
		sequence BIGINT PRIMARY KEY,
		attempt_id TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		module_id TEXT NOT NULL,
		level TEXT NOT NULL,
		quiz_id TEXT NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		correct INTEGER NOT NULL,
		total INTEGER NOT NULL,
		percentage DOUBLE PRECISION NOT NULL,
		passed BOOLEAN NOT NULL,
		started_at BIGINT NOT NULL,
		finished_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS attempt_results_user ON attempt_results (user_id, module_id)`,

	`CREATE TABLE IF NOT EXISTS answer_records (
		attempt_id TEXT NOT NULL,
		question_index INTEGER NOT NULL,
		question_id TEXT NOT NULL,
		answer TEXT NOT NULL,
		correct BOOLEAN NOT NULL,
		credit DOUBLE PRECISION NOT NULL,
		feedback TEXT NOT NULL,
		answered_at BIGINT NOT NULL,
		PRIMARY KEY (attempt_id, question_index)
	)`,

	`CREATE TABLE IF NOT EXISTS level_progress (
		user_id TEXT NOT NULL,
		module_id TEXT NOT NULL,
		level TEXT NOT NULL,
		best_score DOUBLE PRECISION NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 1,
		updated_at BIGINT NOT NULL,
		PRIMARY KEY (user_id, module_id, level)
	)`,

	`CREATE TABLE IF NOT EXISTS module_completions (
		user_id TEXT NOT NULL,
		module_id TEXT NOT NULL,
		completed_at BIGINT NOT NULL,
		PRIMARY KEY (user_id, module_id)
	)`,

	`CREATE TABLE IF NOT EXISTS badge_events (
		user_id TEXT NOT NULL,
		badge TEXT NOT NULL,
		sequence BIGINT NOT NULL,
		awarded_at BIGINT NOT NULL,
		seen BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (user_id, badge)
	)`,

	`CREATE TABLE IF NOT EXISTS llm_requests (
		sequence BIGINT PRIMARY KEY,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		purpose TEXT NOT NULL,
		input_tokens INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		latency_ms BIGINT NOT NULL,
		success BOOLEAN NOT NULL,
		error_message TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS kv (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %.40q: %w", stmt, err)
		}
	}
	return nil
}
