// Package queue owns pending work requests, applies tier-based priority
// escalation, and orders competing requests deterministically.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/me/capsched/internal/directory"
	"github.com/me/capsched/internal/events"
	"github.com/me/capsched/internal/store"
	"github.com/me/capsched/pkg/model"
)

// CreateInput carries the caller's request for an agent's attention.
type CreateInput struct {
	AgentID           string
	CompanyID         string
	EmploymentID      string
	EstimatedHours    float64
	TaskDescription   string
	RequestedBy       string
	RequestedPriority model.Priority
	Deadline          *time.Time
	Metadata          map[string]any
}

// Queue owns the per-agent work request indexes. Requests never reserve
// capacity: approval and session start are decoupled, so an approved
// request can still be rejected for capacity later.
type Queue struct {
	directory directory.Directory
	writer    *store.Writer
	bus       *events.Bus
	logger    *slog.Logger

	mu       sync.RWMutex // guards requests and byAgent
	requests map[string]*model.WorkRequest
	byAgent  map[string][]string
}

// NewQueue creates a work request queue.
func NewQueue(dir directory.Directory, writer *store.Writer, bus *events.Bus, logger *slog.Logger) *Queue {
	return &Queue{
		directory: dir,
		writer:    writer,
		bus:       bus,
		logger:    logger.With("component", "queue"),
		requests:  make(map[string]*model.WorkRequest),
		byAgent:   make(map[string][]string),
	}
}

// CreateWorkRequest registers a pending request. The escalation rule is
// evaluated exactly once, here: a primary-tier employment forces the
// effective priority to high, and a later tier change does not re-rank the
// request. A directory outage degrades to the requested priority rather
// than failing the creation.
func (q *Queue) CreateWorkRequest(ctx context.Context, in CreateInput) (*model.WorkRequest, error) {
	if in.EstimatedHours <= 0 {
		return nil, &model.ValidationError{Message: fmt.Sprintf("estimated hours must be positive, got %g", in.EstimatedHours)}
	}
	if in.RequestedPriority == "" {
		in.RequestedPriority = model.PriorityNormal
	}
	if !in.RequestedPriority.Valid() {
		return nil, &model.ValidationError{Message: fmt.Sprintf("unknown priority %q", in.RequestedPriority)}
	}

	effective := in.RequestedPriority
	tier, err := q.directory.EmploymentTier(ctx, in.EmploymentID)
	if err != nil {
		q.logger.Warn("tier lookup failed; using requested priority",
			"employment_id", in.EmploymentID, "error", err)
	} else if tier == model.TierPrimary {
		effective = model.PriorityHigh
	}

	req := &model.WorkRequest{
		ID:                "req_" + uuid.New().String(),
		AgentID:           in.AgentID,
		CompanyID:         in.CompanyID,
		EmploymentID:      in.EmploymentID,
		EstimatedHours:    in.EstimatedHours,
		TaskDescription:   in.TaskDescription,
		RequestedBy:       in.RequestedBy,
		RequestedPriority: in.RequestedPriority,
		EffectivePriority: effective,
		Deadline:          in.Deadline,
		Status:            model.RequestStatusPending,
		Metadata:          in.Metadata,
		CreatedAt:         time.Now().UTC(),
	}

	q.mu.Lock()
	q.requests[req.ID] = req
	q.byAgent[in.AgentID] = append(q.byAgent[in.AgentID], req.ID)
	q.mu.Unlock()

	out := *req
	q.writer.PersistRequest(&out)
	q.bus.Publish(model.EventWorkRequestCreated, in.AgentID, &out)
	q.logger.Info("work request created",
		"request_id", req.ID, "agent_id", in.AgentID,
		"requested_priority", in.RequestedPriority, "effective_priority", effective)
	return &out, nil
}

// ApproveWorkRequest transitions a pending request to approved. It does not
// create a session or reserve capacity.
func (q *Queue) ApproveWorkRequest(ctx context.Context, requestID string) (*model.WorkRequest, error) {
	return q.resolve(requestID, model.RequestStatusApproved, "")
}

// DeclineWorkRequest transitions a pending request to declined with a
// reason.
func (q *Queue) DeclineWorkRequest(ctx context.Context, requestID, reason string) (*model.WorkRequest, error) {
	return q.resolve(requestID, model.RequestStatusDeclined, reason)
}

func (q *Queue) resolve(requestID string, to model.RequestStatus, reason string) (*model.WorkRequest, error) {
	q.mu.Lock()
	req, ok := q.requests[requestID]
	if !ok {
		q.mu.Unlock()
		return nil, &model.NotFoundError{Resource: "work request", ID: requestID}
	}
	if req.Status != model.RequestStatusPending {
		from := req.Status
		q.mu.Unlock()
		return nil, &model.InvalidTransitionError{
			Entity: "work request",
			ID:     requestID,
			From:   from.String(),
			To:     to.String(),
		}
	}
	req.Status = to
	req.DeclineReason = reason
	out := *req
	q.mu.Unlock()

	q.writer.UpdateRequest(&out)
	evt := model.EventWorkRequestApproved
	if to == model.RequestStatusDeclined {
		evt = model.EventWorkRequestDeclined
	}
	q.bus.Publish(evt, out.AgentID, &out)
	q.logger.Info("work request resolved", "request_id", requestID, "status", to, "reason", reason)
	return &out, nil
}

// PrioritizedQueue returns copies of the agent's pending requests in the
// strict total order defined by WorkRequest.Before. The order is
// deterministic: ties on priority, deadline, and creation time fall through
// to the request id.
func (q *Queue) PrioritizedQueue(agentID string) []*model.WorkRequest {
	q.mu.RLock()
	var out []*model.WorkRequest
	for _, id := range q.byAgent[agentID] {
		if req := q.requests[id]; req.Status == model.RequestStatusPending {
			cp := *req
			out = append(out, &cp)
		}
	}
	q.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Before(out[j])
	})
	return out
}

// Counts returns global pending/approved totals for stats reporting.
func (q *Queue) Counts() (pending, approved int) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	for _, req := range q.requests {
		switch req.Status {
		case model.RequestStatusPending:
			pending++
		case model.RequestStatusApproved:
			approved++
		}
	}
	return pending, approved
}
