package model

import "time"

// RequestStatus represents the lifecycle state of a WorkRequest.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusDeclined RequestStatus = "declined"
)

// String returns the string representation of the request status.
func (s RequestStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the request is in a final state.
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case RequestStatusApproved, RequestStatusDeclined:
		return true
	}
	return false
}

// WorkRequest asks for an agent's attention without reserving capacity.
// EffectivePriority is computed once at creation time (primary-tier
// employments force it to high) and never re-evaluated. Approval does
// not start a session; capacity is checked only if a caller later starts
// one.
type WorkRequest struct {
	ID                string         `json:"id"`
	AgentID           string         `json:"agent_id"`
	CompanyID         string         `json:"company_id"`
	EmploymentID      string         `json:"employment_id"`
	EstimatedHours    float64        `json:"estimated_hours"`
	TaskDescription   string         `json:"task_description,omitempty"`
	RequestedBy       string         `json:"requested_by,omitempty"`
	RequestedPriority Priority       `json:"requested_priority"`
	EffectivePriority Priority       `json:"effective_priority"`
	Deadline          *time.Time     `json:"deadline,omitempty"`
	Status            RequestStatus  `json:"status"`
	DeclineReason     string         `json:"decline_reason,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// Before defines the strict total order used by the prioritized queue:
// effective priority first, then deadline presence, then earlier deadline,
// then earlier creation, then id so the order is total even for requests
// created in the same nanosecond.
func (r *WorkRequest) Before(other *WorkRequest) bool {
	if ri, oi := r.EffectivePriority.Rank(), other.EffectivePriority.Rank(); ri != oi {
		return ri < oi
	}
	switch {
	case r.Deadline != nil && other.Deadline == nil:
		return true
	case r.Deadline == nil && other.Deadline != nil:
		return false
	case r.Deadline != nil && other.Deadline != nil:
		if !r.Deadline.Equal(*other.Deadline) {
			return r.Deadline.Before(*other.Deadline)
		}
	}
	if !r.CreatedAt.Equal(other.CreatedAt) {
		return r.CreatedAt.Before(other.CreatedAt)
	}
	return r.ID < other.ID
}
