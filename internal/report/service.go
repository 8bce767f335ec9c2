// Package report composes the ledger, session manager, time block
// scheduler, and request queue into read-only capacity views. Nothing
// depends on this package.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/capsched/internal/capacity"
	"github.com/me/capsched/internal/queue"
	"github.com/me/capsched/internal/session"
	"github.com/me/capsched/internal/timeblock"
	"github.com/me/capsched/pkg/model"
)

// Service aggregates capacity state for reporting.
type Service struct {
	ledger   *capacity.Ledger
	sessions *session.Manager
	blocks   *timeblock.Scheduler
	queue    *queue.Queue
	logger   *slog.Logger
}

// NewService creates a reporting service.
func NewService(ledger *capacity.Ledger, sessions *session.Manager, blocks *timeblock.Scheduler, q *queue.Queue, logger *slog.Logger) *Service {
	return &Service{
		ledger:   ledger,
		sessions: sessions,
		blocks:   blocks,
		queue:    q,
		logger:   logger.With("component", "report"),
	}
}

// CapacityReport builds the point-in-time capacity view for one agent.
// A zero-capacity agent reports 0% utilization and status critical.
func (s *Service) CapacityReport(ctx context.Context, agentID string) (*model.CapacityReport, error) {
	allocationPct, err := s.ledger.AllocationPct(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("capacity report for agent %s: %w", agentID, err)
	}
	weekly := allocationPct / 100 * s.ledger.WorkWeekHours()

	var activeHours float64
	active := s.sessions.ActiveSessionsFor(agentID)
	for _, ses := range active {
		activeHours += ses.EstimatedHours
	}

	var pendingHours float64
	pending := s.queue.PrioritizedQueue(agentID)
	for _, req := range pending {
		pendingHours += req.EstimatedHours
	}

	var blockHours float64
	scheduled := s.blocks.ScheduledFor(agentID)
	for _, blk := range scheduled {
		blockHours += blk.DurationHours
	}

	rep := &model.CapacityReport{
		AgentID:             agentID,
		AllocationPct:       allocationPct,
		WeeklyCapacityHours: weekly,
		ActiveSessions:      len(active),
		ActiveHours:         activeHours,
		PendingRequests:     len(pending),
		PendingHours:        pendingHours,
		ScheduledBlocks:     len(scheduled),
		ScheduledBlockHours: blockHours,
		AvailableHours:      weekly - activeHours,
		GeneratedAt:         time.Now().UTC(),
	}

	if weekly <= 0 {
		rep.UtilizationPct = 0
		rep.Status = model.AgentStatusCritical
		return rep, nil
	}
	rep.UtilizationPct = activeHours / weekly * 100
	rep.Status = model.StatusForUtilization(rep.UtilizationPct)
	return rep, nil
}

// Stats returns engine-wide counts across all agents.
func (s *Service) Stats() *model.Stats {
	total, active, completed := s.sessions.Counts()
	pending, approved := s.queue.Counts()
	return &model.Stats{
		TotalSessions:     total,
		ActiveSessions:    active,
		CompletedSessions: completed,
		ScheduledBlocks:   s.blocks.Counts(),
		PendingRequests:   pending,
		ApprovedRequests:  approved,
		GeneratedAt:       time.Now().UTC(),
	}
}
