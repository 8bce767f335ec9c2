package report

import (
	"context"
	"testing"
	"time"

	"github.com/me/capsched/internal/activity"
	"github.com/me/capsched/internal/capacity"
	"github.com/me/capsched/internal/directory"
	"github.com/me/capsched/internal/events"
	"github.com/me/capsched/internal/logging"
	"github.com/me/capsched/internal/queue"
	"github.com/me/capsched/internal/session"
	"github.com/me/capsched/internal/store"
	"github.com/me/capsched/internal/timeblock"
	"github.com/me/capsched/pkg/model"
)

type fixture struct {
	service  *Service
	sessions *session.Manager
	blocks   *timeblock.Scheduler
	queue    *queue.Queue
	dir      *directory.StaticDirectory
}

func testFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logging.Discard()

	dir := directory.NewStaticDirectory()
	dir.SetAllocation("agent-1", 50) // 20h week

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
	sessions := session.NewManager(ledger, writer, activity.NoopRegistry{}, bus, session.DefaultConfig(), logger)
	blocks := timeblock.NewScheduler(writer, bus, logger)
	q := queue.NewQueue(dir, writer, bus, logger)

	return &fixture{
		service:  NewService(ledger, sessions, blocks, q, logger),
		sessions: sessions,
		blocks:   blocks,
		queue:    q,
		dir:      dir,
	}
}

func TestCapacityReport(t *testing.T) {
	f := testFixture(t)
	ctx := context.Background()

	if _, err := f.sessions.StartWorkSession(ctx, session.StartInput{
		AgentID: "agent-1", CompanyID: "co-1", EmploymentID: "emp-1", EstimatedHours: 10,
	}); err != nil {
		t.Fatalf("StartWorkSession: %v", err)
	}

	start := time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)
	if _, err := f.blocks.ScheduleTimeBlock(ctx, timeblock.ScheduleInput{
		AgentID: "agent-1", CompanyID: "co-1", EmploymentID: "emp-1",
		StartTime: start, EndTime: start.Add(2 * time.Hour),
	}); err != nil {
		t.Fatalf("ScheduleTimeBlock: %v", err)
	}

	if _, err := f.queue.CreateWorkRequest(ctx, queue.CreateInput{
		AgentID: "agent-1", CompanyID: "co-1", EmploymentID: "emp-1", EstimatedHours: 3,
	}); err != nil {
		t.Fatalf("CreateWorkRequest: %v", err)
	}

	rep, err := f.service.CapacityReport(ctx, "agent-1")
	if err != nil {
		t.Fatalf("CapacityReport: %v", err)
	}

	if rep.AllocationPct != 50 || rep.WeeklyCapacityHours != 20 {
		t.Errorf("allocation/capacity = %v/%v, want 50/20", rep.AllocationPct, rep.WeeklyCapacityHours)
	}
	if rep.ActiveSessions != 1 || rep.ActiveHours != 10 {
		t.Errorf("active = %d/%vh, want 1/10h", rep.ActiveSessions, rep.ActiveHours)
	}
	if rep.PendingRequests != 1 || rep.PendingHours != 3 {
		t.Errorf("pending = %d/%vh, want 1/3h", rep.PendingRequests, rep.PendingHours)
	}
	if rep.ScheduledBlocks != 1 || rep.ScheduledBlockHours != 2 {
		t.Errorf("blocks = %d/%vh, want 1/2h", rep.ScheduledBlocks, rep.ScheduledBlockHours)
	}
	if rep.AvailableHours != 10 {
		t.Errorf("available = %vh, want 10h", rep.AvailableHours)
	}
	if rep.UtilizationPct != 50 || rep.Status != model.AgentStatusAvailable {
		t.Errorf("utilization = %v%% %v, want 50%% available", rep.UtilizationPct, rep.Status)
	}
}

func TestStatusThresholds(t *testing.T) {
	cases := []struct {
		hours float64
		want  model.AgentStatus
	}{
		{10, model.AgentStatusAvailable}, // 50%
		{16, model.AgentStatusBusy},      // 80%
		{19, model.AgentStatusCritical},  // 95%
	}
	for _, c := range cases {
		f := testFixture(t)
		if _, err := f.sessions.StartWorkSession(context.Background(), session.StartInput{
			AgentID: "agent-1", CompanyID: "co-1", EmploymentID: "emp-1", EstimatedHours: c.hours,
		}); err != nil {
			t.Fatalf("StartWorkSession(%vh): %v", c.hours, err)
		}
		rep, err := f.service.CapacityReport(context.Background(), "agent-1")
		if err != nil {
			t.Fatalf("CapacityReport: %v", err)
		}
		if rep.Status != c.want {
			t.Errorf("status at %vh = %v, want %v", c.hours, rep.Status, c.want)
		}
	}
}

func TestZeroCapacityReportsCritical(t *testing.T) {
	f := testFixture(t)

	rep, err := f.service.CapacityReport(context.Background(), "agent-unknown")
	if err != nil {
		t.Fatalf("CapacityReport: %v", err)
	}
	if rep.UtilizationPct != 0 {
		t.Errorf("utilization = %v, want 0 (divide-by-zero guard)", rep.UtilizationPct)
	}
	if rep.Status != model.AgentStatusCritical {
		t.Errorf("status = %v, want critical", rep.Status)
	}
}

func TestStats(t *testing.T) {
	f := testFixture(t)
	ctx := context.Background()

	res, err := f.sessions.StartWorkSession(ctx, session.StartInput{
		AgentID: "agent-1", CompanyID: "co-1", EmploymentID: "emp-1", EstimatedHours: 2,
	})
	if err != nil {
		t.Fatalf("StartWorkSession: %v", err)
	}
	if _, err := f.sessions.StartWorkSession(ctx, session.StartInput{
		AgentID: "agent-1", CompanyID: "co-1", EmploymentID: "emp-1", EstimatedHours: 2,
	}); err != nil {
		t.Fatalf("StartWorkSession: %v", err)
	}
	if _, err := f.sessions.EndWorkSession(ctx, res.Session.ID, 2); err != nil {
		t.Fatalf("EndWorkSession: %v", err)
	}

	req, err := f.queue.CreateWorkRequest(ctx, queue.CreateInput{
		AgentID: "agent-1", CompanyID: "co-1", EmploymentID: "emp-1", EstimatedHours: 1,
	})
	if err != nil {
		t.Fatalf("CreateWorkRequest: %v", err)
	}
	if _, err := f.queue.ApproveWorkRequest(ctx, req.ID); err != nil {
		t.Fatalf("ApproveWorkRequest: %v", err)
	}
	if _, err := f.queue.CreateWorkRequest(ctx, queue.CreateInput{
		AgentID: "agent-1", CompanyID: "co-1", EmploymentID: "emp-1", EstimatedHours: 1,
	}); err != nil {
		t.Fatalf("CreateWorkRequest: %v", err)
	}

	stats := f.service.Stats()
	if stats.TotalSessions != 2 || stats.ActiveSessions != 1 || stats.CompletedSessions != 1 {
		t.Errorf("session stats = %+v", stats)
	}
	if stats.PendingRequests != 1 || stats.ApprovedRequests != 1 {
		t.Errorf("request stats = %+v", stats)
	}
}
