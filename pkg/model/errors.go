package model

import (
	"fmt"
	"time"
)

// ErrorCode represents a structured API error code.
type ErrorCode string

const (
	ErrValidation        ErrorCode = "VALIDATION_ERROR"
	ErrNotFound          ErrorCode = "NOT_FOUND"
	ErrConflict          ErrorCode = "CONFLICT"
	ErrAdmission         ErrorCode = "ADMISSION_DENIED"
	ErrInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrInternal          ErrorCode = "INTERNAL_ERROR"
)

// APIError is a structured error returned by the capsched API.
type APIError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Reason  string         `json:"reason,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInternalError creates an INTERNAL_ERROR APIError.
func NewInternalError(msg string) *APIError {
	return &APIError{Code: ErrInternal, Message: msg}
}

// AdmissionReason is a machine-readable admission rejection code.
type AdmissionReason string

const (
	AdmissionFullyAllocated       AdmissionReason = "agent_fully_allocated"
	AdmissionTooManySessions      AdmissionReason = "too_many_concurrent_sessions"
	AdmissionInsufficientCapacity AdmissionReason = "insufficient_capacity"
)

// AdmissionError rejects new work that would over-commit an agent's weekly
// budget. Always recoverable by the caller: retry later, reduce hours, or
// pick another agent. The engine never retries on its own.
type AdmissionError struct {
	AgentID        string          `json:"agent_id"`
	Reason         AdmissionReason `json:"reason"`
	Message        string          `json:"message"`
	RequestedHours float64         `json:"requested_hours"`
	AvailableHours float64         `json:"available_hours"`
	ActiveSessions int             `json:"active_sessions"`
	MaxSessions    int             `json:"max_sessions,omitempty"`
}

func (e *AdmissionError) Error() string {
	return fmt.Sprintf("admission denied (%s): %s", e.Reason, e.Message)
}

// ValidationError reports malformed caller input (non-positive hours,
// inverted time range). Not retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConflictError rejects a time reservation that overlaps existing scheduled
// blocks. It carries the conflicting blocks so the caller can re-propose a
// non-overlapping window.
type ConflictError struct {
	AgentID string
	Start   time.Time
	End     time.Time
	Blocks  []*TimeBlock
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("time block [%s, %s) for agent %s conflicts with %d scheduled block(s)",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339), e.AgentID, len(e.Blocks))
}

// NotFoundError reports an unknown entity id. No mutation occurs.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Resource, e.ID)
}

// InvalidTransitionError is returned when a state transition is invalid,
// such as ending a session that is already completed.
type InvalidTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s state transition: %s -> %s (entity %s)", e.Entity, e.From, e.To, e.ID)
}
