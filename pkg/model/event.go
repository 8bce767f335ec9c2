package model

import "time"

// EventType names a state transition the engine announces to subscribers.
type EventType string

const (
	EventSessionStarted      EventType = "session_started"
	EventSessionEnded        EventType = "session_ended"
	EventTimeBlockScheduled  EventType = "time_block_scheduled"
	EventWorkRequestCreated  EventType = "work_request_created"
	EventWorkRequestApproved EventType = "work_request_approved"
	EventWorkRequestDeclined EventType = "work_request_declined"
)

// Event is emitted after a mutation commits. The payload is the full entity
// after the mutation. Delivery is at-most-once and never blocks the
// emitting operation.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	AgentID   string    `json:"agent_id"`
	Payload   any       `json:"payload"`
	EmittedAt time.Time `json:"emitted_at"`
}
