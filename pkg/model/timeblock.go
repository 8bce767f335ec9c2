package model

import "time"

// BlockStatus represents the lifecycle state of a TimeBlock.
type BlockStatus string

const (
	BlockStatusScheduled BlockStatus = "scheduled"
	BlockStatusCancelled BlockStatus = "cancelled"
)

// String returns the string representation of the block status.
func (s BlockStatus) String() string {
	return string(s)
}

// TimeBlock is a concrete reserved interval of an agent's time for one
// employer. Intervals are half-open: [StartTime, EndTime). Cancelling a
// block frees its slot; there is no delete.
type TimeBlock struct {
	ID            string         `json:"id"`
	AgentID       string         `json:"agent_id"`
	CompanyID     string         `json:"company_id"`
	EmploymentID  string         `json:"employment_id"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       time.Time      `json:"end_time"`
	DurationHours float64        `json:"duration_hours"`
	Recurrence    string         `json:"recurrence,omitempty"`
	Purpose       string         `json:"purpose,omitempty"`
	Status        BlockStatus    `json:"status"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Overlaps reports whether the half-open interval [start, end) intersects
// this block's interval. Adjacent intervals (end == b.StartTime) do not
// overlap.
func (b *TimeBlock) Overlaps(start, end time.Time) bool {
	return start.Before(b.EndTime) && end.After(b.StartTime)
}
