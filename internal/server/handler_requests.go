package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/me/capsched/internal/queue"
	"github.com/me/capsched/pkg/model"
)

type createRequestRequest struct {
	CompanyID       string         `json:"company_id"`
	EmploymentID    string         `json:"employment_id"`
	EstimatedHours  float64        `json:"estimated_hours"`
	TaskDescription string         `json:"task_description,omitempty"`
	RequestedBy     string         `json:"requested_by,omitempty"`
	Priority        string         `json:"priority,omitempty"`
	Deadline        *time.Time     `json:"deadline,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

type declineRequestRequest struct {
	Reason string `json:"reason,omitempty"`
}

// handleCreateRequest enqueues a work request for an agent.
func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	agentID := chi.URLParam(r, "agentID")

	var req createRequestRequest
	if err := decodeBody(r, &req); err != nil {
		respondDomainError(w, reqID, err)
		return
	}

	wr, err := s.queue.CreateWorkRequest(r.Context(), queue.CreateInput{
		AgentID:           agentID,
		CompanyID:         req.CompanyID,
		EmploymentID:      req.EmploymentID,
		EstimatedHours:    req.EstimatedHours,
		TaskDescription:   req.TaskDescription,
		RequestedBy:       req.RequestedBy,
		RequestedPriority: model.Priority(req.Priority),
		Deadline:          req.Deadline,
		Metadata:          req.Metadata,
	})
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}
	respondCreated(w, reqID, wr, nil)
}

// handleApproveRequest approves a pending request. Approval does not
// reserve capacity; a later session start still passes admission.
func (s *Server) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	wr, err := s.queue.ApproveWorkRequest(r.Context(), id)
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}
	respondOK(w, reqID, wr)
}

// handleDeclineRequest declines a pending request with an optional reason.
func (s *Server) handleDeclineRequest(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req declineRequestRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			respondDomainError(w, reqID, err)
			return
		}
	}

	wr, err := s.queue.DeclineWorkRequest(r.Context(), id, req.Reason)
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}
	respondOK(w, reqID, wr)
}

// handlePrioritizedQueue returns an agent's pending requests in scheduling order.
func (s *Server) handlePrioritizedQueue(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	agentID := chi.URLParam(r, "agentID")
	respondOK(w, reqID, map[string]any{
		"agent_id": agentID,
		"requests": s.queue.PrioritizedQueue(agentID),
	})
}
