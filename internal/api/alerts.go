package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medcab/medcab-core/internal/store"
)

// handleListAlerts returns the alert list, newest last.
//
// GET /api/v1/alerts
func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("alert list failed", "error", err)
		writeInternalError(w, "could not load alerts")
		return
	}

	writeJSON(w, http.StatusOK, doc.Alerts)
}

type alertRequest struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

// validAlertType limits manually created alerts to the display types.
func validAlertType(t string) bool {
	switch store.AlertType(t) {
	case store.AlertInfo, store.AlertSuccess, store.AlertWarning, store.AlertDanger:
		return true
	}
	return false
}

// handleCreateAlert appends a manual alert.
//
// POST /api/v1/alerts
func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Type == "" {
		req.Type = string(store.AlertInfo)
	}
	if !validAlertType(req.Type) {
		writeBadRequest(w, "type must be info, success, warning, or danger")
		return
	}
	if req.Priority == "" {
		req.Priority = "medium"
	}

	alert, err := s.store.AddAlert(store.AlertType(req.Type), req.Message, req.Priority)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("alert create failed", "error", err)
		writeInternalError(w, "could not create alert")
		return
	}

	s.hub.Broadcast(ChannelAlertsUpdated, nil)

	writeJSON(w, http.StatusCreated, alert)
}

// handleMarkAlertRead marks a single alert as read.
//
// POST /api/v1/alerts/{id}/read
func (s *Server) handleMarkAlertRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeBadRequest(w, "invalid alert id")
		return
	}

	alert, err := s.store.MarkAlertRead(id)
	if err != nil {
		if errors.Is(err, store.ErrAlertNotFound) {
			writeNotFound(w, "alert not found")
			return
		}
		s.logger.Error("alert read failed", "alert_id", id, "error", err)
		writeInternalError(w, "could not update alert")
		return
	}

	s.hub.Broadcast(ChannelAlertsUpdated, nil)

	writeJSON(w, http.StatusOK, alert)
}

// handleClearAlerts removes every alert.
//
// DELETE /api/v1/alerts
func (s *Server) handleClearAlerts(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearAlerts(); err != nil {
		s.logger.Error("alert clear failed", "error", err)
		writeInternalError(w, "could not clear alerts")
		return
	}

	s.logger.Info("alerts cleared")
	s.hub.Broadcast(ChannelAlertsUpdated, nil)

	writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
}

// handleTimeline returns the append-only dose history.
//
// GET /api/v1/timeline
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("timeline load failed", "error", err)
		writeInternalError(w, "could not load timeline")
		return
	}

	writeJSON(w, http.StatusOK, doc.Timeline)
}
