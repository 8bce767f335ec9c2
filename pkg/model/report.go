package model

import "time"

// Utilization thresholds for agent status classification, in percent.
const (
	UtilizationWarningPct  = 80.0
	UtilizationCriticalPct = 95.0
)

// AgentStatus is the three-level load classification of an agent.
type AgentStatus string

const (
	AgentStatusAvailable AgentStatus = "available"
	AgentStatusBusy      AgentStatus = "busy"
	AgentStatusCritical  AgentStatus = "critical"
)

// String returns the string representation of the agent status.
func (s AgentStatus) String() string {
	return string(s)
}

// StatusForUtilization classifies a utilization percentage.
func StatusForUtilization(pct float64) AgentStatus {
	switch {
	case pct >= UtilizationCriticalPct:
		return AgentStatusCritical
	case pct >= UtilizationWarningPct:
		return AgentStatusBusy
	}
	return AgentStatusAvailable
}

// CapacityReport is a point-in-time view of one agent's committed and
// remaining weekly hours.
type CapacityReport struct {
	AgentID             string      `json:"agent_id"`
	AllocationPct       float64     `json:"allocation_percentage"`
	WeeklyCapacityHours float64     `json:"weekly_capacity_hours"`
	ActiveSessions      int         `json:"active_sessions"`
	ActiveHours         float64     `json:"active_hours"`
	PendingRequests     int         `json:"pending_requests"`
	PendingHours        float64     `json:"pending_hours"`
	ScheduledBlocks     int         `json:"scheduled_blocks"`
	ScheduledBlockHours float64     `json:"scheduled_block_hours"`
	AvailableHours      float64     `json:"available_hours"`
	UtilizationPct      float64     `json:"utilization_percentage"`
	Status              AgentStatus `json:"status"`
	GeneratedAt         time.Time   `json:"generated_at"`
}

// Stats aggregates engine-wide counts across all agents.
type Stats struct {
	TotalSessions     int       `json:"total_sessions"`
	ActiveSessions    int       `json:"active_sessions"`
	CompletedSessions int       `json:"completed_sessions"`
	ScheduledBlocks   int       `json:"scheduled_blocks"`
	PendingRequests   int       `json:"pending_requests"`
	ApprovedRequests  int       `json:"approved_requests"`
	GeneratedAt       time.Time `json:"generated_at"`
}
