package store

import (
	"context"
	"database/sql"
	"strings"
)

// schema contains the DDL for all capsched tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS work_sessions (
		id               TEXT PRIMARY KEY,
		agent_id         TEXT NOT NULL,
		company_id       TEXT NOT NULL,
		employment_id    TEXT NOT NULL,
		estimated_hours  REAL NOT NULL,
		actual_hours     REAL NOT NULL DEFAULT 0,
		priority         TEXT NOT NULL DEFAULT 'normal',
		status           TEXT NOT NULL DEFAULT 'active',
		task_description TEXT NOT NULL DEFAULT '',
		metadata         TEXT NOT NULL DEFAULT '{}',
		started_at       TEXT NOT NULL,
		ended_at         TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS time_blocks (
		id             TEXT PRIMARY KEY,
		agent_id       TEXT NOT NULL,
		company_id     TEXT NOT NULL,
		employment_id  TEXT NOT NULL,
		start_time     TEXT NOT NULL,
		end_time       TEXT NOT NULL,
		duration_hours REAL NOT NULL,
		recurrence     TEXT NOT NULL DEFAULT '',
		purpose        TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL DEFAULT 'scheduled',
		metadata       TEXT NOT NULL DEFAULT '{}',
		created_at     TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS work_requests (
		id                 TEXT PRIMARY KEY,
		agent_id           TEXT NOT NULL,
		company_id         TEXT NOT NULL,
		employment_id      TEXT NOT NULL,
		estimated_hours    REAL NOT NULL,
		task_description   TEXT NOT NULL DEFAULT '',
		requested_by       TEXT NOT NULL DEFAULT '',
		requested_priority TEXT NOT NULL DEFAULT 'normal',
		effective_priority TEXT NOT NULL DEFAULT 'normal',
		deadline           TEXT,
		status             TEXT NOT NULL DEFAULT 'pending',
		decline_reason     TEXT NOT NULL DEFAULT '',
		metadata           TEXT NOT NULL DEFAULT '{}',
		created_at         TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_work_sessions_agent_id ON work_sessions(agent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_work_sessions_status ON work_sessions(status)`,
	`CREATE INDEX IF NOT EXISTS idx_time_blocks_agent_id ON time_blocks(agent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_time_blocks_status ON time_blocks(status)`,
	`CREATE INDEX IF NOT EXISTS idx_work_requests_agent_id ON work_requests(agent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_work_requests_status ON work_requests(status)`,
}

// migrate applies the schema statements in order.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			// Include the first line of the statement for context.
			first := strings.SplitN(strings.TrimSpace(stmt), "\n", 2)[0]
			return &migrationError{stmt: first, err: err}
		}
	}
	return nil
}

type migrationError struct {
	stmt string
	err  error
}

func (e *migrationError) Error() string {
	return "migration failed at " + e.stmt + ": " + e.err.Error()
}

func (e *migrationError) Unwrap() error {
	return e.err
}
