package model

import "time"

// SessionStatus represents the lifecycle state of a WorkSession.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

// String returns the string representation of the session status.
func (s SessionStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the session is in a final state.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted
}

// Priority ranks work by urgency.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is a known priority value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// Rank returns the sort rank of the priority; lower ranks sort first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityNormal:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// WorkSession is an accepted, in-progress unit of work counting against an
// agent's weekly capacity. Sessions are created by admission control, closed
// exactly once, and never deleted. A session that is never ended keeps
// occupying capacity; closing what it opens is the caller's responsibility.
type WorkSession struct {
	ID              string         `json:"id"`
	AgentID         string         `json:"agent_id"`
	CompanyID       string         `json:"company_id"`
	EmploymentID    string         `json:"employment_id"`
	EstimatedHours  float64        `json:"estimated_hours"`
	ActualHours     float64        `json:"actual_hours"`
	Priority        Priority       `json:"priority"`
	Status          SessionStatus  `json:"status"`
	TaskDescription string         `json:"task_description,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	StartedAt       time.Time      `json:"started_at"`
	EndedAt         *time.Time     `json:"ended_at,omitempty"`
}
