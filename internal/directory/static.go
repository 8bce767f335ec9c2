package directory

import (
	"context"
	"sync"

	"github.com/me/capsched/pkg/model"
)

// StaticDirectory is an in-memory Directory fed from configuration. Used by
// tests and by the server's standalone mode, where no remote directory is
// deployed.
type StaticDirectory struct {
	mu          sync.RWMutex
	allocations map[string]float64
	tiers       map[string]model.EmploymentTier
}

// NewStaticDirectory creates an empty StaticDirectory.
func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{
		allocations: make(map[string]float64),
		tiers:       make(map[string]model.EmploymentTier),
	}
}

// SetAllocation records an agent's total allocation percentage.
func (d *StaticDirectory) SetAllocation(agentID string, pct float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.allocations[agentID] = pct
}

// SetTier records an employment's tier.
func (d *StaticDirectory) SetTier(employmentID string, tier model.EmploymentTier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tiers[employmentID] = tier
}

// TotalAllocation implements Directory. Unknown agents report 0.
func (d *StaticDirectory) TotalAllocation(ctx context.Context, agentID string) (float64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.allocations[agentID], nil
}

// EmploymentTier implements Directory. Unknown employments report secondary.
func (d *StaticDirectory) EmploymentTier(ctx context.Context, employmentID string) (model.EmploymentTier, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if tier, ok := d.tiers[employmentID]; ok {
		return tier, nil
	}
	return model.TierSecondary, nil
}
