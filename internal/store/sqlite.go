package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/capsched/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns
// a Store. Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// --- Work sessions ---

func (s *SQLiteStore) CreateSession(ctx context.Context, ses *model.WorkSession) error {
	s.logger.Debug("sql", "op", "insert", "table", "work_sessions", "id", ses.ID)

	metaJSON, err := json.Marshal(orEmpty(ses.Metadata))
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO work_sessions (id, agent_id, company_id, employment_id, estimated_hours, actual_hours, priority, status, task_description, metadata, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ses.ID, ses.AgentID, ses.CompanyID, ses.EmploymentID, ses.EstimatedHours, ses.ActualHours,
		string(ses.Priority), string(ses.Status), ses.TaskDescription, string(metaJSON),
		formatTime(ses.StartedAt), formatTimePtr(ses.EndedAt),
	)
	return err
}

func (s *SQLiteStore) UpdateSession(ctx context.Context, ses *model.WorkSession) error {
	s.logger.Debug("sql", "op", "update", "table", "work_sessions", "id", ses.ID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE work_sessions SET actual_hours = ?, status = ?, ended_at = ? WHERE id = ?`,
		ses.ActualHours, string(ses.Status), formatTimePtr(ses.EndedAt), ses.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, "session", ses.ID)
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*model.WorkSession, error) {
	s.logger.Debug("sql", "op", "select", "table", "work_sessions", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, agent_id, company_id, employment_id, estimated_hours, actual_hours, priority, status, task_description, metadata, started_at, ended_at
		 FROM work_sessions WHERE id = ?`, id)
	ses, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ses, err
}

func (s *SQLiteStore) ListSessionsByAgent(ctx context.Context, agentID string) ([]*model.WorkSession, error) {
	s.logger.Debug("sql", "op", "select", "table", "work_sessions", "agent_id", agentID)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, agent_id, company_id, employment_id, estimated_hours, actual_hours, priority, status, task_description, metadata, started_at, ended_at
		 FROM work_sessions WHERE agent_id = ? ORDER BY started_at`, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.WorkSession
	for rows.Next() {
		ses, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ses)
	}
	return out, rows.Err()
}

func scanSession(row scanner) (*model.WorkSession, error) {
	var ses model.WorkSession
	var priority, status, metaJSON, startedAt string
	var endedAt sql.NullString

	err := row.Scan(&ses.ID, &ses.AgentID, &ses.CompanyID, &ses.EmploymentID,
		&ses.EstimatedHours, &ses.ActualHours, &priority, &status,
		&ses.TaskDescription, &metaJSON, &startedAt, &endedAt)
	if err != nil {
		return nil, err
	}

	ses.Priority = model.Priority(priority)
	ses.Status = model.SessionStatus(status)
	if err := json.Unmarshal([]byte(metaJSON), &ses.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if ses.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if ses.EndedAt, err = parseTimePtr(endedAt); err != nil {
		return nil, err
	}
	return &ses, nil
}

// --- Time blocks ---

func (s *SQLiteStore) CreateTimeBlock(ctx context.Context, blk *model.TimeBlock) error {
	s.logger.Debug("sql", "op", "insert", "table", "time_blocks", "id", blk.ID)

	metaJSON, err := json.Marshal(orEmpty(blk.Metadata))
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO time_blocks (id, agent_id, company_id, employment_id, start_time, end_time, duration_hours, recurrence, purpose, status, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		blk.ID, blk.AgentID, blk.CompanyID, blk.EmploymentID,
		formatTime(blk.StartTime), formatTime(blk.EndTime), blk.DurationHours,
		blk.Recurrence, blk.Purpose, string(blk.Status), string(metaJSON), formatTime(blk.CreatedAt),
	)
	return err
}

func (s *SQLiteStore) UpdateTimeBlock(ctx context.Context, blk *model.TimeBlock) error {
	s.logger.Debug("sql", "op", "update", "table", "time_blocks", "id", blk.ID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE time_blocks SET status = ? WHERE id = ?`,
		string(blk.Status), blk.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, "time block", blk.ID)
}

func (s *SQLiteStore) GetTimeBlock(ctx context.Context, id string) (*model.TimeBlock, error) {
	s.logger.Debug("sql", "op", "select", "table", "time_blocks", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, agent_id, company_id, employment_id, start_time, end_time, duration_hours, recurrence, purpose, status, metadata, created_at
		 FROM time_blocks WHERE id = ?`, id)
	blk, err := scanTimeBlock(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return blk, err
}

func (s *SQLiteStore) ListTimeBlocksByAgent(ctx context.Context, agentID string) ([]*model.TimeBlock, error) {
	s.logger.Debug("sql", "op", "select", "table", "time_blocks", "agent_id", agentID)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, agent_id, company_id, employment_id, start_time, end_time, duration_hours, recurrence, purpose, status, metadata, created_at
		 FROM time_blocks WHERE agent_id = ? ORDER BY start_time`, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.TimeBlock
	for rows.Next() {
		blk, err := scanTimeBlock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, blk)
	}
	return out, rows.Err()
}

func scanTimeBlock(row scanner) (*model.TimeBlock, error) {
	var blk model.TimeBlock
	var startTime, endTime, status, metaJSON, createdAt string

	err := row.Scan(&blk.ID, &blk.AgentID, &blk.CompanyID, &blk.EmploymentID,
		&startTime, &endTime, &blk.DurationHours, &blk.Recurrence, &blk.Purpose,
		&status, &metaJSON, &createdAt)
	if err != nil {
		return nil, err
	}

	blk.Status = model.BlockStatus(status)
	if err := json.Unmarshal([]byte(metaJSON), &blk.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if blk.StartTime, err = parseTime(startTime); err != nil {
		return nil, err
	}
	if blk.EndTime, err = parseTime(endTime); err != nil {
		return nil, err
	}
	if blk.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &blk, nil
}

// --- Work requests ---

func (s *SQLiteStore) CreateRequest(ctx context.Context, req *model.WorkRequest) error {
	s.logger.Debug("sql", "op", "insert", "table", "work_requests", "id", req.ID)

	metaJSON, err := json.Marshal(orEmpty(req.Metadata))
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO work_requests (id, agent_id, company_id, employment_id, estimated_hours, task_description, requested_by, requested_priority, effective_priority, deadline, status, decline_reason, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.AgentID, req.CompanyID, req.EmploymentID, req.EstimatedHours,
		req.TaskDescription, req.RequestedBy, string(req.RequestedPriority), string(req.EffectivePriority),
		formatTimePtr(req.Deadline), string(req.Status), req.DeclineReason, string(metaJSON), formatTime(req.CreatedAt),
	)
	return err
}

func (s *SQLiteStore) UpdateRequest(ctx context.Context, req *model.WorkRequest) error {
	s.logger.Debug("sql", "op", "update", "table", "work_requests", "id", req.ID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE work_requests SET status = ?, decline_reason = ? WHERE id = ?`,
		string(req.Status), req.DeclineReason, req.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, "work request", req.ID)
}

func (s *SQLiteStore) GetRequest(ctx context.Context, id string) (*model.WorkRequest, error) {
	s.logger.Debug("sql", "op", "select", "table", "work_requests", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, agent_id, company_id, employment_id, estimated_hours, task_description, requested_by, requested_priority, effective_priority, deadline, status, decline_reason, metadata, created_at
		 FROM work_requests WHERE id = ?`, id)
	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return req, err
}

func (s *SQLiteStore) ListRequestsByAgent(ctx context.Context, agentID string) ([]*model.WorkRequest, error) {
	s.logger.Debug("sql", "op", "select", "table", "work_requests", "agent_id", agentID)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, agent_id, company_id, employment_id, estimated_hours, task_description, requested_by, requested_priority, effective_priority, deadline, status, decline_reason, metadata, created_at
		 FROM work_requests WHERE agent_id = ? ORDER BY created_at`, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.WorkRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanRequest(row scanner) (*model.WorkRequest, error) {
	var req model.WorkRequest
	var requestedPriority, effectivePriority, status, metaJSON, createdAt string
	var deadline sql.NullString

	err := row.Scan(&req.ID, &req.AgentID, &req.CompanyID, &req.EmploymentID,
		&req.EstimatedHours, &req.TaskDescription, &req.RequestedBy,
		&requestedPriority, &effectivePriority, &deadline, &status,
		&req.DeclineReason, &metaJSON, &createdAt)
	if err != nil {
		return nil, err
	}

	req.RequestedPriority = model.Priority(requestedPriority)
	req.EffectivePriority = model.Priority(effectivePriority)
	req.Status = model.RequestStatus(status)
	if err := json.Unmarshal([]byte(metaJSON), &req.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if req.Deadline, err = parseTimePtr(deadline); err != nil {
		return nil, err
	}
	if req.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &req, nil
}

// --- helpers ---

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func parseTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func requireRow(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &model.NotFoundError{Resource: resource, ID: id}
	}
	return nil
}
