// Package directory consumes the Employment Directory, the external system
// of record for agent allocations and employment tiers. The scheduler never
// writes to it.
package directory

import (
	"context"

	"github.com/me/capsched/pkg/model"
)

// Directory resolves employment facts for agents.
type Directory interface {
	// TotalAllocation returns the agent's committed allocation percentage
	// across all active employments, in [0, 100]. Unknown agents report 0.
	TotalAllocation(ctx context.Context, agentID string) (float64, error)

	// EmploymentTier returns the tier of an employment. Unknown employments
	// report TierSecondary, so priority escalation only happens on a
	// positive primary signal.
	EmploymentTier(ctx context.Context, employmentID string) (model.EmploymentTier, error)
}
