package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/me/capsched/internal/logging"
	"github.com/me/capsched/pkg/model"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(":memory:", logging.Discard())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSessionRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	ses := &model.WorkSession{
		ID:              "ses_" + uuid.New().String(),
		AgentID:         "agent-1",
		CompanyID:       "co-1",
		EmploymentID:    "emp-1",
		EstimatedHours:  12.5,
		Priority:        model.PriorityHigh,
		Status:          model.SessionStatusActive,
		TaskDescription: "refactor billing",
		Metadata:        map[string]any{"source": "api"},
		StartedAt:       now,
	}
	if err := st.CreateSession(ctx, ses); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := st.GetSession(ctx, ses.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got == nil {
		t.Fatal("GetSession returned nil")
	}
	if got.EstimatedHours != 12.5 || got.Priority != model.PriorityHigh || got.Status != model.SessionStatusActive {
		t.Errorf("session mismatch: %+v", got)
	}
	if got.EndedAt != nil {
		t.Errorf("new session has EndedAt = %v", got.EndedAt)
	}
	if !got.StartedAt.Equal(now) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, now)
	}

	ended := now.Add(3 * time.Hour)
	ses.Status = model.SessionStatusCompleted
	ses.ActualHours = 11
	ses.EndedAt = &ended
	if err := st.UpdateSession(ctx, ses); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	got, err = st.GetSession(ctx, ses.ID)
	if err != nil {
		t.Fatalf("GetSession after update: %v", err)
	}
	if got.Status != model.SessionStatusCompleted || got.ActualHours != 11 || got.EndedAt == nil {
		t.Errorf("updated session mismatch: %+v", got)
	}
}

func TestGetSessionMissingIsNil(t *testing.T) {
	st := testStore(t)
	got, err := st.GetSession(context.Background(), "ses_missing")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got != nil {
		t.Errorf("GetSession(missing) = %+v, want nil", got)
	}
}

func TestUpdateMissingSessionIsNotFound(t *testing.T) {
	st := testStore(t)
	err := st.UpdateSession(context.Background(), &model.WorkSession{ID: "ses_missing"})
	if _, ok := err.(*model.NotFoundError); !ok {
		t.Errorf("UpdateSession(missing) error = %v, want NotFoundError", err)
	}
}

func TestTimeBlockRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	blk := &model.TimeBlock{
		ID:            "blk_" + uuid.New().String(),
		AgentID:       "agent-1",
		CompanyID:     "co-1",
		EmploymentID:  "emp-1",
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
		DurationHours: 1,
		Purpose:       "sprint planning",
		Status:        model.BlockStatusScheduled,
		CreatedAt:     time.Now().UTC(),
	}
	if err := st.CreateTimeBlock(ctx, blk); err != nil {
		t.Fatalf("CreateTimeBlock: %v", err)
	}

	list, err := st.ListTimeBlocksByAgent(ctx, "agent-1")
	if err != nil {
		t.Fatalf("ListTimeBlocksByAgent: %v", err)
	}
	if len(list) != 1 || !list[0].StartTime.Equal(start) {
		t.Fatalf("list mismatch: %+v", list)
	}

	blk.Status = model.BlockStatusCancelled
	if err := st.UpdateTimeBlock(ctx, blk); err != nil {
		t.Fatalf("UpdateTimeBlock: %v", err)
	}
	got, err := st.GetTimeBlock(ctx, blk.ID)
	if err != nil {
		t.Fatalf("GetTimeBlock: %v", err)
	}
	if got.Status != model.BlockStatusCancelled {
		t.Errorf("status = %v, want cancelled", got.Status)
	}
}

func TestRequestRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	deadline := time.Now().UTC().Add(48 * time.Hour)

	req := &model.WorkRequest{
		ID:                "req_" + uuid.New().String(),
		AgentID:           "agent-1",
		CompanyID:         "co-1",
		EmploymentID:      "emp-1",
		EstimatedHours:    6,
		RequestedPriority: model.PriorityLow,
		EffectivePriority: model.PriorityHigh,
		Deadline:          &deadline,
		Status:            model.RequestStatusPending,
		CreatedAt:         time.Now().UTC(),
	}
	if err := st.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	got, err := st.GetRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if got.EffectivePriority != model.PriorityHigh || got.Deadline == nil || !got.Deadline.Equal(deadline) {
		t.Errorf("request mismatch: %+v", got)
	}

	req.Status = model.RequestStatusDeclined
	req.DeclineReason = "no capacity this sprint"
	if err := st.UpdateRequest(ctx, req); err != nil {
		t.Fatalf("UpdateRequest: %v", err)
	}
	got, _ = st.GetRequest(ctx, req.ID)
	if got.Status != model.RequestStatusDeclined || got.DeclineReason != "no capacity this sprint" {
		t.Errorf("updated request mismatch: %+v", got)
	}
}
