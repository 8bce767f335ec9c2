// Package capacity converts Employment Directory allocations into weekly
// hour budgets. The ledger holds no mutable state of its own.
package capacity

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultWorkWeekHours is the standard work week used when none is
// configured.
const DefaultWorkWeekHours = 40.0

// Ledger derives an agent's admissible hour budget from its allocation.
type Ledger struct {
	directory     AllocationSource
	workWeekHours float64
	logger        *slog.Logger
}

// AllocationSource is the slice of the Employment Directory the ledger
// needs.
type AllocationSource interface {
	TotalAllocation(ctx context.Context, agentID string) (float64, error)
}

// NewLedger creates a Ledger. workWeekHours values <= 0 fall back to the
// default of 40.
func NewLedger(dir AllocationSource, workWeekHours float64, logger *slog.Logger) *Ledger {
	if workWeekHours <= 0 {
		workWeekHours = DefaultWorkWeekHours
	}
	return &Ledger{
		directory:     dir,
		workWeekHours: workWeekHours,
		logger:        logger.With("component", "capacity"),
	}
}

// WorkWeekHours returns the configured standard work week.
func (l *Ledger) WorkWeekHours() float64 {
	return l.workWeekHours
}

// AllocationPct returns the agent's total allocation percentage, clamped to
// [0, 100]. The directory enforces the sum-of-allocations invariant; the
// clamp only protects the capacity math from out-of-range replies.
func (l *Ledger) AllocationPct(ctx context.Context, agentID string) (float64, error) {
	pct, err := l.directory.TotalAllocation(ctx, agentID)
	if err != nil {
		return 0, fmt.Errorf("total allocation for agent %s: %w", agentID, err)
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, nil
}

// WeeklyCapacityHours returns allocation% of the work week hours. A zero
// allocation yields zero capacity, which makes every admission check fail
// closed.
func (l *Ledger) WeeklyCapacityHours(ctx context.Context, agentID string) (float64, error) {
	pct, err := l.AllocationPct(ctx, agentID)
	if err != nil {
		return 0, err
	}
	hours := pct / 100 * l.workWeekHours
	l.logger.Debug("weekly capacity", "agent_id", agentID, "allocation_pct", pct, "hours", hours)
	return hours, nil
}
