package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const sseSubscriberBuffer = 16

// handleSSEEvents streams an agent's scheduling events via Server-Sent Events.
// GET /api/v1/sse/agents/{agentID}/events
func (s *Server) handleSSEEvents(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")

	// Set headers for SSE.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	events, cancel := s.bus.Subscribe(agentID, sseSubscriberBuffer)
	defer cancel()

	if err := sendSSEEvent(w, flusher, "init", map[string]string{"agent_id": agentID}); err != nil {
		s.logger.Debug("sse client disconnected", "agent_id", agentID, "error", err)
		return
	}

	// Heartbeat keeps intermediaries from closing the idle connection.
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := sendSSEEvent(w, flusher, string(evt.Type), evt); err != nil {
				s.logger.Debug("sse client disconnected", "agent_id", agentID)
				return
			}
		case <-ticker.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}

// sendSSEEvent writes a single SSE event with a JSON payload.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
