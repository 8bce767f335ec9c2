package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleCapacityReport returns a point-in-time capacity report for an agent.
func (s *Server) handleCapacityReport(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	agentID := chi.URLParam(r, "agentID")

	report, err := s.reports.CapacityReport(r.Context(), agentID)
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}
	respondOK(w, reqID, report)
}
