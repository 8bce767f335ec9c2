package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/me/capsched/internal/directory"
	"github.com/me/capsched/internal/events"
	"github.com/me/capsched/internal/logging"
	"github.com/me/capsched/internal/store"
	"github.com/me/capsched/pkg/model"
)

func testQueue(t *testing.T) (*Queue, *directory.StaticDirectory) {
	t.Helper()
	logger := logging.Discard()

	st, err := store.NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	writer := store.NewWriter(st, 0, logger)
	t.Cleanup(func() {
		writer.Close()
		st.Close()
	})

	dir := directory.NewStaticDirectory()
	return NewQueue(dir, writer, events.NewBus(logger), logger), dir
}

func create(t *testing.T, q *Queue, priority model.Priority, deadline *time.Time) *model.WorkRequest {
	t.Helper()
	req, err := q.CreateWorkRequest(context.Background(), CreateInput{
		AgentID:           "agent-1",
		CompanyID:         "co-1",
		EmploymentID:      "emp-sec",
		EstimatedHours:    4,
		RequestedPriority: priority,
		Deadline:          deadline,
	})
	if err != nil {
		t.Fatalf("CreateWorkRequest: %v", err)
	}
	return req
}

// TestQueueOrdering creates {(high,D2), (high,D1<D2), (normal,none),
// (high,none)} in that order and expects (high,D1), (high,D2),
// (high,none), (normal,none).
func TestQueueOrdering(t *testing.T) {
	q, _ := testQueue(t)

	d1 := time.Date(2026, 9, 3, 12, 0, 0, 0, time.UTC)
	d2 := d1.Add(24 * time.Hour)

	highD2 := create(t, q, model.PriorityHigh, &d2)
	highD1 := create(t, q, model.PriorityHigh, &d1)
	normal := create(t, q, model.PriorityNormal, nil)
	highNone := create(t, q, model.PriorityHigh, nil)

	got := q.PrioritizedQueue("agent-1")
	want := []string{highD1.ID, highD2.ID, highNone.ID, normal.ID}
	if len(got) != len(want) {
		t.Fatalf("queue length = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("queue[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestFIFOWithinEqualKeys(t *testing.T) {
	q, _ := testQueue(t)

	first := create(t, q, model.PriorityNormal, nil)
	second := create(t, q, model.PriorityNormal, nil)
	third := create(t, q, model.PriorityNormal, nil)

	got := q.PrioritizedQueue("agent-1")
	want := []string{first.ID, second.ID, third.ID}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("queue[%d] = %s, want %s (FIFO)", i, got[i].ID, id)
		}
	}
}

// TestPriorityEscalation: a low request under a primary employment becomes
// effectively high; the requested priority is preserved for the record.
func TestPriorityEscalation(t *testing.T) {
	q, dir := testQueue(t)
	dir.SetTier("emp-pri", model.TierPrimary)

	req, err := q.CreateWorkRequest(context.Background(), CreateInput{
		AgentID:           "agent-1",
		CompanyID:         "co-1",
		EmploymentID:      "emp-pri",
		EstimatedHours:    2,
		RequestedPriority: model.PriorityLow,
	})
	if err != nil {
		t.Fatalf("CreateWorkRequest: %v", err)
	}
	if req.EffectivePriority != model.PriorityHigh {
		t.Errorf("effective priority = %v, want high", req.EffectivePriority)
	}
	if req.RequestedPriority != model.PriorityLow {
		t.Errorf("requested priority = %v, want low", req.RequestedPriority)
	}
}

func TestSecondaryTierKeepsRequestedPriority(t *testing.T) {
	q, _ := testQueue(t)

	req := create(t, q, model.PriorityLow, nil)
	if req.EffectivePriority != model.PriorityLow {
		t.Errorf("effective priority = %v, want low", req.EffectivePriority)
	}
}

func TestApproveAndDecline(t *testing.T) {
	q, _ := testQueue(t)
	ctx := context.Background()

	req := create(t, q, model.PriorityNormal, nil)

	approved, err := q.ApproveWorkRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("ApproveWorkRequest: %v", err)
	}
	if approved.Status != model.RequestStatusApproved {
		t.Errorf("status = %v, want approved", approved.Status)
	}

	// Approved requests leave the queue.
	if got := q.PrioritizedQueue("agent-1"); len(got) != 0 {
		t.Errorf("queue after approve = %d entries, want 0", len(got))
	}

	// A resolved request cannot be resolved again.
	_, err = q.DeclineWorkRequest(ctx, req.ID, "changed my mind")
	var transition *model.InvalidTransitionError
	if !errors.As(err, &transition) {
		t.Errorf("re-resolve error = %v, want InvalidTransitionError", err)
	}

	other := create(t, q, model.PriorityNormal, nil)
	declined, err := q.DeclineWorkRequest(ctx, other.ID, "no capacity this sprint")
	if err != nil {
		t.Fatalf("DeclineWorkRequest: %v", err)
	}
	if declined.Status != model.RequestStatusDeclined || declined.DeclineReason != "no capacity this sprint" {
		t.Errorf("declined request = %+v", declined)
	}
}

func TestResolveUnknownRequest(t *testing.T) {
	q, _ := testQueue(t)
	_, err := q.ApproveWorkRequest(context.Background(), "req_missing")
	var notFound *model.NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("error = %v, want NotFoundError", err)
	}
}

func TestCreateValidation(t *testing.T) {
	q, _ := testQueue(t)
	ctx := context.Background()

	_, err := q.CreateWorkRequest(ctx, CreateInput{AgentID: "agent-1", EstimatedHours: 0})
	var validation *model.ValidationError
	if !errors.As(err, &validation) {
		t.Errorf("zero hours error = %v, want ValidationError", err)
	}

	_, err = q.CreateWorkRequest(ctx, CreateInput{AgentID: "agent-1", EstimatedHours: 1, RequestedPriority: "asap"})
	if !errors.As(err, &validation) {
		t.Errorf("bad priority error = %v, want ValidationError", err)
	}
}

type downDirectory struct{ directory.Directory }

func (downDirectory) EmploymentTier(ctx context.Context, employmentID string) (model.EmploymentTier, error) {
	return "", errors.New("directory down")
}

func TestDirectoryOutageDegradesToRequestedPriority(t *testing.T) {
	logger := logging.Discard()
	st, err := store.NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	writer := store.NewWriter(st, 0, logger)
	t.Cleanup(func() {
		writer.Close()
		st.Close()
	})

	q := NewQueue(downDirectory{}, writer, events.NewBus(logger), logger)
	req, err := q.CreateWorkRequest(context.Background(), CreateInput{
		AgentID:           "agent-1",
		CompanyID:         "co-1",
		EmploymentID:      "emp-1",
		EstimatedHours:    1,
		RequestedPriority: model.PriorityLow,
	})
	if err != nil {
		t.Fatalf("CreateWorkRequest during outage: %v", err)
	}
	if req.EffectivePriority != model.PriorityLow {
		t.Errorf("effective priority = %v, want low (no escalation without a tier)", req.EffectivePriority)
	}
}
