package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/me/capsched/internal/timeblock"
	"github.com/me/capsched/pkg/model"
)

type scheduleBlockRequest struct {
	CompanyID    string         `json:"company_id"`
	EmploymentID string         `json:"employment_id"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      time.Time      `json:"end_time"`
	Recurrence   string         `json:"recurrence,omitempty"`
	Purpose      string         `json:"purpose,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// handleScheduleBlock reserves a time window for an agent.
func (s *Server) handleScheduleBlock(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	agentID := chi.URLParam(r, "agentID")

	var req scheduleBlockRequest
	if err := decodeBody(r, &req); err != nil {
		respondDomainError(w, reqID, err)
		return
	}

	block, err := s.blocks.ScheduleTimeBlock(r.Context(), timeblock.ScheduleInput{
		AgentID:      agentID,
		CompanyID:    req.CompanyID,
		EmploymentID: req.EmploymentID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Recurrence:   req.Recurrence,
		Purpose:      req.Purpose,
		Metadata:     req.Metadata,
	})
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}
	respondCreated(w, reqID, block, nil)
}

// handleCancelBlock cancels a scheduled time block, freeing its window.
func (s *Server) handleCancelBlock(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	blockID := chi.URLParam(r, "id")

	block, err := s.blocks.CancelTimeBlock(r.Context(), blockID)
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}
	respondOK(w, reqID, block)
}

// handleFindConflicts reports scheduled blocks overlapping a proposed window.
// The window comes from ?start= and ?end= query params in RFC 3339.
func (s *Server) handleFindConflicts(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	agentID := chi.URLParam(r, "agentID")

	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		respondDomainError(w, reqID, &model.ValidationError{Message: "invalid 'start' query param: expected RFC 3339 timestamp"})
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		respondDomainError(w, reqID, &model.ValidationError{Message: "invalid 'end' query param: expected RFC 3339 timestamp"})
		return
	}

	conflicts := s.blocks.FindConflicts(agentID, start, end)
	respondOK(w, reqID, map[string]any{
		"agent_id":  agentID,
		"start":     start,
		"end":       end,
		"conflicts": conflicts,
	})
}
