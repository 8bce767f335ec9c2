package server

import (
	"net/http"
	"time"
)

// handleDiscovery describes the API surface.
func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, map[string]any{
		"name":    "capsched",
		"version": "v1",
		"endpoints": map[string]string{
			"health":          "GET /api/v1/health",
			"stats":           "GET /api/v1/stats",
			"start_session":   "POST /api/v1/agents/{agentID}/sessions",
			"active_sessions": "GET /api/v1/agents/{agentID}/sessions",
			"end_session":     "PUT /api/v1/sessions/{id}/end",
			"schedule_block":  "POST /api/v1/agents/{agentID}/blocks",
			"find_conflicts":  "GET /api/v1/agents/{agentID}/blocks/conflicts",
			"cancel_block":    "PUT /api/v1/blocks/{id}/cancel",
			"create_request":  "POST /api/v1/agents/{agentID}/requests",
			"request_queue":   "GET /api/v1/agents/{agentID}/requests/queue",
			"approve_request": "PUT /api/v1/requests/{id}/approve",
			"decline_request": "PUT /api/v1/requests/{id}/decline",
			"capacity_report": "GET /api/v1/agents/{agentID}/report",
			"events":          "GET /api/v1/sse/agents/{agentID}/events",
		},
	})
}

// handleHealth reports server liveness and uptime.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, map[string]any{
		"status": "healthy",
		"uptime": time.Since(s.startTime).String(),
	})
}

// handleStats returns engine-wide counters.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, s.reports.Stats())
}
