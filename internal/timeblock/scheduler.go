// Package timeblock owns scheduled time reservations and rejects
// overlapping intervals for the same agent.
package timeblock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/me/capsched/internal/events"
	"github.com/me/capsched/internal/keymutex"
	"github.com/me/capsched/internal/store"
	"github.com/me/capsched/pkg/model"
)

// ScheduleInput carries the caller's request to reserve an interval.
type ScheduleInput struct {
	AgentID      string
	CompanyID    string
	EmploymentID string
	StartTime    time.Time
	EndTime      time.Time
	Recurrence   string
	Purpose      string
	Metadata     map[string]any
}

// Scheduler owns the per-agent time block indexes. The conflict check and
// the reservation run under an exclusive per-agent lock, so two concurrent
// requests can never both claim the same window.
type Scheduler struct {
	writer *store.Writer
	bus    *events.Bus
	logger *slog.Logger

	agents *keymutex.KeyMutex

	mu      sync.RWMutex // guards blocks and byAgent
	blocks  map[string]*model.TimeBlock
	byAgent map[string][]string
}

// NewScheduler creates a time block scheduler.
func NewScheduler(writer *store.Writer, bus *events.Bus, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		writer:  writer,
		bus:     bus,
		logger:  logger.With("component", "timeblock"),
		agents:  keymutex.New(),
		blocks:  make(map[string]*model.TimeBlock),
		byAgent: make(map[string][]string),
	}
}

// ScheduleTimeBlock validates the range, rejects overlaps with the agent's
// scheduled blocks, and reserves the interval.
func (s *Scheduler) ScheduleTimeBlock(ctx context.Context, in ScheduleInput) (*model.TimeBlock, error) {
	if !in.StartTime.Before(in.EndTime) {
		return nil, &model.ValidationError{
			Message: fmt.Sprintf("start time %s must be before end time %s",
				in.StartTime.Format(time.RFC3339), in.EndTime.Format(time.RFC3339)),
		}
	}

	s.agents.Lock(in.AgentID)
	defer s.agents.Unlock(in.AgentID)

	if conflicts := s.FindConflicts(in.AgentID, in.StartTime, in.EndTime); len(conflicts) > 0 {
		return nil, &model.ConflictError{
			AgentID: in.AgentID,
			Start:   in.StartTime,
			End:     in.EndTime,
			Blocks:  conflicts,
		}
	}

	blk := &model.TimeBlock{
		ID:            "blk_" + uuid.New().String(),
		AgentID:       in.AgentID,
		CompanyID:     in.CompanyID,
		EmploymentID:  in.EmploymentID,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		DurationHours: in.EndTime.Sub(in.StartTime).Hours(),
		Recurrence:    in.Recurrence,
		Purpose:       in.Purpose,
		Status:        model.BlockStatusScheduled,
		Metadata:      in.Metadata,
		CreatedAt:     time.Now().UTC(),
	}

	s.mu.Lock()
	s.blocks[blk.ID] = blk
	s.byAgent[in.AgentID] = append(s.byAgent[in.AgentID], blk.ID)
	s.mu.Unlock()

	out := *blk
	s.writer.PersistTimeBlock(&out)
	s.bus.Publish(model.EventTimeBlockScheduled, in.AgentID, &out)
	s.logger.Info("time block scheduled",
		"block_id", blk.ID, "agent_id", in.AgentID,
		"start", blk.StartTime, "end", blk.EndTime, "hours", blk.DurationHours)
	return &out, nil
}

// FindConflicts returns copies of the agent's scheduled blocks overlapping
// [start, end). Cancelled blocks never conflict. Exposed for pre-flight UI
// checks and used internally by ScheduleTimeBlock.
func (s *Scheduler) FindConflicts(agentID string, start, end time.Time) []*model.TimeBlock {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.TimeBlock
	for _, id := range s.byAgent[agentID] {
		blk := s.blocks[id]
		if blk.Status != model.BlockStatusScheduled {
			continue
		}
		if blk.Overlaps(start, end) {
			cp := *blk
			out = append(out, &cp)
		}
	}
	return out
}

// CancelTimeBlock frees a reserved slot. Cancelled blocks are excluded from
// future conflict checks; there is no delete.
func (s *Scheduler) CancelTimeBlock(ctx context.Context, blockID string) (*model.TimeBlock, error) {
	s.mu.RLock()
	blk, ok := s.blocks[blockID]
	s.mu.RUnlock()
	if !ok {
		return nil, &model.NotFoundError{Resource: "time block", ID: blockID}
	}
	agentID := blk.AgentID

	s.agents.Lock(agentID)
	defer s.agents.Unlock(agentID)

	s.mu.Lock()
	if blk.Status != model.BlockStatusScheduled {
		s.mu.Unlock()
		return nil, &model.InvalidTransitionError{
			Entity: "time block",
			ID:     blockID,
			From:   blk.Status.String(),
			To:     model.BlockStatusCancelled.String(),
		}
	}
	blk.Status = model.BlockStatusCancelled
	out := *blk
	s.mu.Unlock()

	s.writer.UpdateTimeBlock(&out)
	s.logger.Info("time block cancelled", "block_id", blockID, "agent_id", agentID)
	return &out, nil
}

// ScheduledFor returns copies of the agent's scheduled blocks.
func (s *Scheduler) ScheduledFor(agentID string) []*model.TimeBlock {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.TimeBlock
	for _, id := range s.byAgent[agentID] {
		if blk := s.blocks[id]; blk.Status == model.BlockStatusScheduled {
			cp := *blk
			out = append(out, &cp)
		}
	}
	return out
}

// Counts returns the global number of scheduled blocks for stats reporting.
func (s *Scheduler) Counts() (scheduled int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, blk := range s.blocks {
		if blk.Status == model.BlockStatusScheduled {
			scheduled++
		}
	}
	return scheduled
}
