package model

// EmploymentTier distinguishes an agent's main employer from side engagements.
type EmploymentTier string

const (
	TierPrimary   EmploymentTier = "primary"
	TierSecondary EmploymentTier = "secondary"
)

// String returns the string representation of the tier.
func (t EmploymentTier) String() string {
	return string(t)
}

// Employment is a read-only fact owned by the Employment Directory: one
// agent-to-company relationship and the slice of the agent's week it claims.
// The directory guarantees that allocation percentages for one agent sum
// to at most 100.
type Employment struct {
	ID            string         `json:"id"`
	AgentID       string         `json:"agent_id"`
	CompanyID     string         `json:"company_id"`
	Tier          EmploymentTier `json:"tier"`
	AllocationPct float64        `json:"allocation_percentage"`
}
