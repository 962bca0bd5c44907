package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// buildRouter assembles the middleware chain and route tree.
//
// Route layout:
//
//	GET  /health                      - liveness (no auth)
//	GET  /ws                          - WebSocket upgrade (ticket auth)
//	POST /api/v1/auth/login           - obtain access token (no auth)
//
//	Authenticated under /api/v1:
//	  POST   /auth/ws-ticket
//	  GET    /metrics
//	  users, medicines, schedules, alerts, timeline, checkin, system
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(bodySizeLimitMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get(s.wsPath(), s.handleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/auth/ws-ticket", s.handleWSTicket)

			r.Get("/state", s.handleStateSnapshot)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", s.handleListUsers)
				r.Post("/", s.handleCreateUser)
				r.Get("/{id}/images", s.handleUserImages)
				r.Delete("/{id}", s.handleDeleteUser)
			})

			r.Route("/medicines", func(r chi.Router) {
				r.Get("/", s.handleListMedicines)
				r.Post("/", s.handleCreateMedicine)
				r.Delete("/{id}", s.handleDeleteMedicine)
			})

			r.Route("/schedules", func(r chi.Router) {
				r.Get("/", s.handleListSchedules)
				r.Post("/", s.handleCreateSchedules)
				r.Get("/today", s.handleTodaySchedules)
				r.Get("/pending-reminders", s.handlePendingReminders)
				r.Patch("/{id}/status", s.handleUpdateScheduleStatus)
			})

			r.Route("/alerts", func(r chi.Router) {
				r.Get("/", s.handleListAlerts)
				r.Post("/", s.handleCreateAlert)
				r.Post("/{id}/read", s.handleMarkAlertRead)
				r.Delete("/", s.handleClearAlerts)
			})

			r.Get("/timeline", s.handleTimeline)
			r.Post("/checkin", s.handleCheckin)

			r.Get("/scheduler/status", s.handleSchedulerStatus)
			r.Get("/system/status", s.handleSystemStatus)
			r.Put("/system/status", s.handleUpdateSystemStatus)
			r.Post("/device/test", s.handleDeviceTest)

			r.Get("/statistics", s.handleStatistics)
			r.Get("/inventory", s.handleInventory)
			r.Get("/metrics", s.handleMetrics)
		})
	})

	return r
}

// wsPath returns the configured WebSocket path, defaulting to /ws.
func (s *Server) wsPath() string {
	if s.ws.Path == "" {
		return "/ws"
	}
	return s.ws.Path
}

// handleHealth is the unauthenticated liveness endpoint.
//
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	if err := s.HealthCheck(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"version":   s.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
