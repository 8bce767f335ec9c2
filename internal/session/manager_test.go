package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/me/capsched/internal/activity"
	"github.com/me/capsched/internal/capacity"
	"github.com/me/capsched/internal/directory"
	"github.com/me/capsched/internal/events"
	"github.com/me/capsched/internal/logging"
	"github.com/me/capsched/internal/store"
	"github.com/me/capsched/pkg/model"
)

// testSetup wires a manager against an in-memory store and a static
// directory with agent-1 at 50% allocation (20h week).
func testSetup(t *testing.T) (*Manager, *directory.StaticDirectory) {
	t.Helper()
	logger := logging.Discard()

	dir := directory.NewStaticDirectory()
	dir.SetAllocation("agent-1", 50)

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

	ledger := capacity.NewLedger(dir, 40, logger)
	bus := events.NewBus(logger)
	return NewManager(ledger, writer, activity.NoopRegistry{}, bus, DefaultConfig(), logger), dir
}

func start(t *testing.T, m *Manager, agentID string, hours float64) (*StartResult, error) {
	t.Helper()
	return m.StartWorkSession(context.Background(), StartInput{
		AgentID:        agentID,
		CompanyID:      "co-1",
		EmploymentID:   "emp-1",
		EstimatedHours: hours,
	})
}

// TestAdmissionScenario walks the capacity lifecycle: a 15h session fits a
// 20h week, a second 10h session does not, and ending the first frees the
// hours.
func TestAdmissionScenario(t *testing.T) {
	m, _ := testSetup(t)
	ctx := context.Background()

	resA, err := start(t, m, "agent-1", 15)
	if err != nil {
		t.Fatalf("session A rejected: %v", err)
	}
	if resA.Session.Status != model.SessionStatusActive {
		t.Errorf("session A status = %v", resA.Session.Status)
	}

	_, err = start(t, m, "agent-1", 10)
	var admission *model.AdmissionError
	if !errors.As(err, &admission) {
		t.Fatalf("session B error = %v, want AdmissionError", err)
	}
	if admission.Reason != model.AdmissionInsufficientCapacity {
		t.Errorf("reason = %v, want insufficient_capacity", admission.Reason)
	}
	if admission.RequestedHours != 10 || admission.AvailableHours != 5 {
		t.Errorf("reported hours = %g requested, %g available; want 10, 5", admission.RequestedHours, admission.AvailableHours)
	}

	ended, err := m.EndWorkSession(ctx, resA.Session.ID, 14)
	if err != nil {
		t.Fatalf("EndWorkSession: %v", err)
	}
	if ended.Status != model.SessionStatusCompleted || ended.ActualHours != 14 || ended.EndedAt == nil {
		t.Errorf("ended session = %+v", ended)
	}
	if got := m.ActiveSessionsFor("agent-1"); len(got) != 0 {
		t.Errorf("active sessions after end = %d, want 0", len(got))
	}

	if _, err := start(t, m, "agent-1", 10); err != nil {
		t.Errorf("10h session after freeing capacity rejected: %v", err)
	}
}

func TestFullyAllocatedAgentFailsClosed(t *testing.T) {
	m, _ := testSetup(t)

	_, err := start(t, m, "agent-unknown", 1)
	var admission *model.AdmissionError
	if !errors.As(err, &admission) {
		t.Fatalf("error = %v, want AdmissionError", err)
	}
	if admission.Reason != model.AdmissionFullyAllocated {
		t.Errorf("reason = %v, want agent_fully_allocated", admission.Reason)
	}
}

func TestConcurrentSessionCap(t *testing.T) {
	m, dir := testSetup(t)
	dir.SetAllocation("agent-1", 100) // 40h so hours never reject first

	for i := 0; i < 3; i++ {
		if _, err := start(t, m, "agent-1", 1); err != nil {
			t.Fatalf("session %d rejected: %v", i, err)
		}
	}

	_, err := start(t, m, "agent-1", 1)
	var admission *model.AdmissionError
	if !errors.As(err, &admission) {
		t.Fatalf("error = %v, want AdmissionError", err)
	}
	if admission.Reason != model.AdmissionTooManySessions {
		t.Errorf("reason = %v, want too_many_concurrent_sessions", admission.Reason)
	}
	if admission.ActiveSessions != 3 || admission.MaxSessions != 3 {
		t.Errorf("counts = %d/%d, want 3/3", admission.ActiveSessions, admission.MaxSessions)
	}
}

func TestUtilizationWarnings(t *testing.T) {
	m, _ := testSetup(t) // 20h week

	res, err := start(t, m, "agent-1", 10) // 50%
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if res.Warning != nil {
		t.Errorf("unexpected warning at 50%%: %+v", res.Warning)
	}

	res, err = start(t, m, "agent-1", 7) // 85%
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if res.Warning == nil || res.Warning.Level != "warning" {
		t.Errorf("warning at 85%% = %+v, want level warning", res.Warning)
	}

	res, err = start(t, m, "agent-1", 2.5) // 97.5%
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if res.Warning == nil || res.Warning.Level != "critical" {
		t.Errorf("warning at 97.5%% = %+v, want level critical", res.Warning)
	}
}

func TestEndTwiceErrors(t *testing.T) {
	m, _ := testSetup(t)
	ctx := context.Background()

	res, err := start(t, m, "agent-1", 5)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := m.EndWorkSession(ctx, res.Session.ID, 5); err != nil {
		t.Fatalf("first end: %v", err)
	}

	_, err = m.EndWorkSession(ctx, res.Session.ID, 5)
	var transition *model.InvalidTransitionError
	if !errors.As(err, &transition) {
		t.Errorf("second end error = %v, want InvalidTransitionError", err)
	}
}

func TestEndUnknownSession(t *testing.T) {
	m, _ := testSetup(t)
	_, err := m.EndWorkSession(context.Background(), "ses_missing", 1)
	var notFound *model.NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("error = %v, want NotFoundError", err)
	}
}

func TestValidation(t *testing.T) {
	m, _ := testSetup(t)
	ctx := context.Background()

	if _, err := start(t, m, "agent-1", 0); err == nil {
		t.Error("zero estimated hours accepted")
	}
	if _, err := start(t, m, "agent-1", -3); err == nil {
		t.Error("negative estimated hours accepted")
	}
	if _, err := m.StartWorkSession(ctx, StartInput{AgentID: "agent-1", EstimatedHours: 1, Priority: "urgent"}); err == nil {
		t.Error("unknown priority accepted")
	}

	res, err := start(t, m, "agent-1", 1)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := m.EndWorkSession(ctx, res.Session.ID, -1); err == nil {
		t.Error("negative actual hours accepted")
	}
}

// TestCapacityInvariantUnderConcurrency races many starts for one agent and
// asserts that accepted estimated hours never exceed the weekly budget.
func TestCapacityInvariantUnderConcurrency(t *testing.T) {
	m, dir := testSetup(t)
	dir.SetAllocation("agent-1", 100) // 40h

	cfg := DefaultConfig()
	cfg.MaxConcurrentSessions = 1000 // hours are the only constraint
	m.config = cfg

	var wg sync.WaitGroup
	var mu sync.Mutex
	var accepted float64

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := start(t, m, "agent-1", 3)
			if err == nil {
				mu.Lock()
				accepted += res.Session.EstimatedHours
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if accepted > 40 {
		t.Errorf("accepted %gh of a 40h budget", accepted)
	}
	// 13 sessions of 3h fit in 40h.
	if accepted != 39 {
		t.Errorf("accepted = %gh, want 39h (13 sessions)", accepted)
	}

	_, hours := m.agentLoad("agent-1")
	if hours != accepted {
		t.Errorf("agent load = %gh, accepted = %gh", hours, accepted)
	}
}

// TestAgentsDoNotContend verifies different agents admit independently.
func TestAgentsDoNotContend(t *testing.T) {
	m, dir := testSetup(t)
	for _, a := range []string{"a", "b", "c", "d"} {
		dir.SetAllocation(a, 100)
	}

	var wg sync.WaitGroup
	for _, a := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(agent string) {
			defer wg.Done()
			for i := 0; i < 3; i++ {
				if _, err := start(t, m, agent, 2); err != nil {
					t.Errorf("agent %s start %d: %v", agent, i, err)
				}
			}
		}(a)
	}
	wg.Wait()

	total, active, _ := m.Counts()
	if total != 12 || active != 12 {
		t.Errorf("counts = %d total, %d active; want 12, 12", total, active)
	}
}
