// Package server exposes the capacity scheduler over a JSON REST API.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/capsched/internal/events"
	"github.com/me/capsched/internal/queue"
	"github.com/me/capsched/internal/report"
	"github.com/me/capsched/internal/session"
	"github.com/me/capsched/internal/timeblock"
)

// Server is the capsched REST API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	startTime time.Time

	sessions *session.Manager
	blocks   *timeblock.Scheduler
	queue    *queue.Queue
	reports  *report.Service
	bus      *events.Bus
}

// New creates a new Server with all routes registered.
func New(sessions *session.Manager, blocks *timeblock.Scheduler, q *queue.Queue, reports *report.Service, bus *events.Bus, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		startTime: time.Now(),
		sessions:  sessions,
		blocks:    blocks,
		queue:     q,
		reports:   reports,
		bus:       bus,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleDiscovery)
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)

		// Agent-scoped resources
		r.Route("/agents/{agentID}", func(r chi.Router) {
			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", s.handleActiveSessions)
				r.Post("/", s.handleStartSession)
			})
			r.Route("/blocks", func(r chi.Router) {
				r.Post("/", s.handleScheduleBlock)
				r.Get("/conflicts", s.handleFindConflicts)
			})
			r.Route("/requests", func(r chi.Router) {
				r.Post("/", s.handleCreateRequest)
				r.Get("/queue", s.handlePrioritizedQueue)
			})
			r.Get("/report", s.handleCapacityReport)
		})

		// Entity-scoped transitions
		r.Put("/sessions/{id}/end", s.handleEndSession)
		r.Put("/blocks/{id}/cancel", s.handleCancelBlock)
		r.Put("/requests/{id}/approve", s.handleApproveRequest)
		r.Put("/requests/{id}/decline", s.handleDeclineRequest)

		// SSE endpoint for real-time updates
		r.Get("/sse/agents/{agentID}/events", s.handleSSEEvents)
	})
}
