package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/me/capsched/internal/session"
	"github.com/me/capsched/pkg/model"
)

type startSessionRequest struct {
	CompanyID       string         `json:"company_id"`
	EmploymentID    string         `json:"employment_id"`
	EstimatedHours  float64        `json:"estimated_hours"`
	Priority        string         `json:"priority,omitempty"`
	TaskDescription string         `json:"task_description,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

type endSessionRequest struct {
	ActualHours float64 `json:"actual_hours"`
}

// handleStartSession admits a new work session for an agent.
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	agentID := chi.URLParam(r, "agentID")

	var req startSessionRequest
	if err := decodeBody(r, &req); err != nil {
		respondDomainError(w, reqID, err)
		return
	}

	result, err := s.sessions.StartWorkSession(r.Context(), session.StartInput{
		AgentID:         agentID,
		CompanyID:       req.CompanyID,
		EmploymentID:    req.EmploymentID,
		EstimatedHours:  req.EstimatedHours,
		Priority:        model.Priority(req.Priority),
		TaskDescription: req.TaskDescription,
		Metadata:        req.Metadata,
	})
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}

	var warning any
	if result.Warning != nil {
		warning = result.Warning
	}
	respondCreated(w, reqID, result.Session, warning)
}

// handleEndSession completes an active session with the hours actually worked.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "id")

	var req endSessionRequest
	if err := decodeBody(r, &req); err != nil {
		respondDomainError(w, reqID, err)
		return
	}

	ses, err := s.sessions.EndWorkSession(r.Context(), sessionID, req.ActualHours)
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}
	respondOK(w, reqID, ses)
}

// handleActiveSessions lists an agent's active sessions.
func (s *Server) handleActiveSessions(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	agentID := chi.URLParam(r, "agentID")
	respondOK(w, reqID, map[string]any{
		"agent_id": agentID,
		"sessions": s.sessions.ActiveSessionsFor(agentID),
	})
}
