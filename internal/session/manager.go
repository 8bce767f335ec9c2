// Package session owns in-progress work sessions and performs admission
// control against the capacity ledger.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/me/capsched/internal/activity"
	"github.com/me/capsched/internal/capacity"
	"github.com/me/capsched/internal/events"
	"github.com/me/capsched/internal/keymutex"
	"github.com/me/capsched/internal/store"
	"github.com/me/capsched/pkg/model"
)

// Config holds session manager configuration.
type Config struct {
	// MaxConcurrentSessions caps active sessions per agent.
	MaxConcurrentSessions int

	// ActivityTimeout bounds the fire-and-forget registry notification.
	ActivityTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentSessions: 3,
		ActivityTimeout:       5 * time.Second,
	}
}

// Warning flags a session that was accepted but pushed the agent near its
// weekly budget. Informational only; it never affects acceptance.
type Warning struct {
	Level          string  `json:"level"` // "warning" or "critical"
	UtilizationPct float64 `json:"utilization_percentage"`
	Message        string  `json:"message"`
}

// StartResult is the outcome of a successful admission.
type StartResult struct {
	Session *model.WorkSession `json:"session"`
	Warning *Warning           `json:"warning,omitempty"`
}

// StartInput carries the caller's request to open a session.
type StartInput struct {
	AgentID         string
	CompanyID       string
	EmploymentID    string
	EstimatedHours  float64
	Priority        model.Priority
	TaskDescription string
	Metadata        map[string]any
}

// Manager owns the per-agent session indexes. The check-then-reserve
// sequence in StartWorkSession runs under an exclusive per-agent lock so
// two concurrent starts for one agent can never both see the same free
// capacity; agents never contend with each other.
type Manager struct {
	ledger   *capacity.Ledger
	writer   *store.Writer
	registry activity.Registry
	bus      *events.Bus
	config   Config
	logger   *slog.Logger

	agents *keymutex.KeyMutex

	mu       sync.RWMutex // guards sessions and byAgent
	sessions map[string]*model.WorkSession
	byAgent  map[string][]string
}

// NewManager creates a session manager.
func NewManager(ledger *capacity.Ledger, writer *store.Writer, registry activity.Registry, bus *events.Bus, cfg Config, logger *slog.Logger) *Manager {
	if cfg.MaxConcurrentSessions <= 0 {
		cfg.MaxConcurrentSessions = DefaultConfig().MaxConcurrentSessions
	}
	if cfg.ActivityTimeout <= 0 {
		cfg.ActivityTimeout = DefaultConfig().ActivityTimeout
	}
	return &Manager{
		ledger:   ledger,
		writer:   writer,
		registry: registry,
		bus:      bus,
		config:   cfg,
		logger:   logger.With("component", "session"),
		agents:   keymutex.New(),
		sessions: make(map[string]*model.WorkSession),
		byAgent:  make(map[string][]string),
	}
}

// StartWorkSession admits or rejects new work. The directory lookup and the
// capacity check both complete inside the agent's critical section; only
// persistence and event emission happen after.
func (m *Manager) StartWorkSession(ctx context.Context, in StartInput) (*StartResult, error) {
	if in.EstimatedHours <= 0 {
		return nil, &model.ValidationError{Message: fmt.Sprintf("estimated hours must be positive, got %g", in.EstimatedHours)}
	}
	if in.Priority == "" {
		in.Priority = model.PriorityNormal
	}
	if !in.Priority.Valid() {
		return nil, &model.ValidationError{Message: fmt.Sprintf("unknown priority %q", in.Priority)}
	}

	m.agents.Lock(in.AgentID)
	defer m.agents.Unlock(in.AgentID)

	weekly, err := m.ledger.WeeklyCapacityHours(ctx, in.AgentID)
	if err != nil {
		return nil, fmt.Errorf("weekly capacity for agent %s: %w", in.AgentID, err)
	}
	if weekly <= 0 {
		return nil, &model.AdmissionError{
			AgentID:        in.AgentID,
			Reason:         model.AdmissionFullyAllocated,
			Message:        fmt.Sprintf("agent %s is fully allocated: no weekly capacity", in.AgentID),
			RequestedHours: in.EstimatedHours,
		}
	}

	activeCount, activeHours := m.agentLoad(in.AgentID)
	if activeCount >= m.config.MaxConcurrentSessions {
		return nil, &model.AdmissionError{
			AgentID:        in.AgentID,
			Reason:         model.AdmissionTooManySessions,
			Message:        fmt.Sprintf("agent %s has %d active sessions (max %d)", in.AgentID, activeCount, m.config.MaxConcurrentSessions),
			RequestedHours: in.EstimatedHours,
			ActiveSessions: activeCount,
			MaxSessions:    m.config.MaxConcurrentSessions,
		}
	}

	available := weekly - activeHours
	if in.EstimatedHours > available {
		return nil, &model.AdmissionError{
			AgentID:        in.AgentID,
			Reason:         model.AdmissionInsufficientCapacity,
			Message:        fmt.Sprintf("insufficient capacity: %gh requested, %gh available", in.EstimatedHours, available),
			RequestedHours: in.EstimatedHours,
			AvailableHours: available,
			ActiveSessions: activeCount,
		}
	}

	ses := &model.WorkSession{
		ID:              "ses_" + uuid.New().String(),
		AgentID:         in.AgentID,
		CompanyID:       in.CompanyID,
		EmploymentID:    in.EmploymentID,
		EstimatedHours:  in.EstimatedHours,
		Priority:        in.Priority,
		Status:          model.SessionStatusActive,
		TaskDescription: in.TaskDescription,
		Metadata:        in.Metadata,
		StartedAt:       time.Now().UTC(),
	}

	m.mu.Lock()
	m.sessions[ses.ID] = ses
	m.byAgent[in.AgentID] = append(m.byAgent[in.AgentID], ses.ID)
	m.mu.Unlock()

	out := *ses
	m.writer.PersistSession(&out)
	m.bus.Publish(model.EventSessionStarted, in.AgentID, &out)
	m.logger.Info("session started",
		"session_id", ses.ID, "agent_id", in.AgentID,
		"estimated_hours", in.EstimatedHours, "remaining_hours", available-in.EstimatedHours)

	result := &StartResult{Session: &out}
	utilization := (activeHours + in.EstimatedHours) / weekly * 100
	switch {
	case utilization >= model.UtilizationCriticalPct:
		result.Warning = &Warning{
			Level:          "critical",
			UtilizationPct: utilization,
			Message:        fmt.Sprintf("agent %s at %.0f%% of weekly capacity", in.AgentID, utilization),
		}
	case utilization >= model.UtilizationWarningPct:
		result.Warning = &Warning{
			Level:          "warning",
			UtilizationPct: utilization,
			Message:        fmt.Sprintf("agent %s at %.0f%% of weekly capacity", in.AgentID, utilization),
		}
	}
	return result, nil
}

// EndWorkSession completes an active session. The Activity Registry
// notification is fire-and-forget: its failure never rolls back the
// completion.
func (m *Manager) EndWorkSession(ctx context.Context, sessionID string, actualHours float64) (*model.WorkSession, error) {
	if actualHours < 0 {
		return nil, &model.ValidationError{Message: fmt.Sprintf("actual hours must not be negative, got %g", actualHours)}
	}

	m.mu.RLock()
	ses, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, &model.NotFoundError{Resource: "session", ID: sessionID}
	}
	agentID := ses.AgentID

	m.agents.Lock(agentID)
	defer m.agents.Unlock(agentID)

	m.mu.Lock()
	if ses.Status != model.SessionStatusActive {
		m.mu.Unlock()
		return nil, &model.InvalidTransitionError{
			Entity: "session",
			ID:     sessionID,
			From:   ses.Status.String(),
			To:     model.SessionStatusCompleted.String(),
		}
	}
	now := time.Now().UTC()
	ses.Status = model.SessionStatusCompleted
	ses.ActualHours = actualHours
	ses.EndedAt = &now
	out := *ses
	m.mu.Unlock()

	m.writer.UpdateSession(&out)
	m.notifyActivity(out)
	m.bus.Publish(model.EventSessionEnded, agentID, &out)
	m.logger.Info("session ended", "session_id", sessionID, "agent_id", agentID, "actual_hours", actualHours)
	return &out, nil
}

// notifyActivity records hours worked on a detached goroutine with its own
// timeout, so a slow or down registry cannot stall or fail the completion.
func (m *Manager) notifyActivity(ses model.WorkSession) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.config.ActivityTimeout)
		defer cancel()
		err := m.registry.RecordActivity(ctx, activity.Activity{
			AgentID:      ses.AgentID,
			ActivityType: activity.TypeHoursWorked,
			Metadata: map[string]any{
				"session_id": ses.ID,
				"company_id": ses.CompanyID,
				"hours":      ses.ActualHours,
			},
		})
		if err != nil {
			m.logger.Error("activity notification failed", "session_id", ses.ID, "error", err)
		}
	}()
}

// ActiveSessionsFor returns copies of the agent's active sessions.
func (m *Manager) ActiveSessionsFor(agentID string) []*model.WorkSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.WorkSession
	for _, id := range m.byAgent[agentID] {
		if ses := m.sessions[id]; ses.Status == model.SessionStatusActive {
			cp := *ses
			out = append(out, &cp)
		}
	}
	return out
}

// agentLoad returns the count and summed estimated hours of the agent's
// active sessions.
func (m *Manager) agentLoad(agentID string) (int, float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int
	var hours float64
	for _, id := range m.byAgent[agentID] {
		if ses := m.sessions[id]; ses.Status == model.SessionStatusActive {
			count++
			hours += ses.EstimatedHours
		}
	}
	return count, hours
}

// Counts returns global session totals for stats reporting.
func (m *Manager) Counts() (total, active, completed int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ses := range m.sessions {
		total++
		if ses.Status == model.SessionStatusActive {
			active++
		} else {
			completed++
		}
	}
	return total, active, completed
}
