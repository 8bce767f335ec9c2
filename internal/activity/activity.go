// Package activity notifies the external Activity Registry of completed
// work. Notifications are fire-and-forget: failures are logged by callers
// and never fail the operation that produced them.
package activity

import "context"

// Activity types recorded with the registry.
const (
	TypeHoursWorked      = "hours_worked"
	TypeProjectCompleted = "project_completed"
)

// Activity is one unit of reputation/billing-relevant work.
type Activity struct {
	AgentID      string         `json:"agent_id"`
	ActivityType string         `json:"activity_type"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Registry records activities with the external registry.
type Registry interface {
	RecordActivity(ctx context.Context, act Activity) error
}

// NoopRegistry drops all activities. Used in standalone mode and tests.
type NoopRegistry struct{}

// RecordActivity implements Registry.
func (NoopRegistry) RecordActivity(ctx context.Context, act Activity) error {
	return nil
}
