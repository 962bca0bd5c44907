package api

import (
	"encoding/json"
	"net/http"

	"github.com/medcab/medcab-core/internal/store"
)

// handleStateSnapshot returns the whole document in one response.
//
// Dashboards fetch this once on connect and then follow WebSocket
// channel events for increments.
//
// GET /api/v1/state
func (s *Server) handleStateSnapshot(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("state snapshot failed", "error", err)
		writeInternalError(w, "could not load state")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleSystemStatus returns the cabinet's environmental status.
//
// GET /api/v1/system/status
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("system status load failed", "error", err)
		writeInternalError(w, "could not load system status")
		return
	}

	writeJSON(w, http.StatusOK, doc.System)
}

// handleUpdateSystemStatus applies a partial system status update.
//
// Normally the sensor feed drives this over MQTT; the endpoint exists for
// installations without a broker and for manual correction.
//
// PUT /api/v1/system/status
func (s *Server) handleUpdateSystemStatus(w http.ResponseWriter, r *http.Request) {
	var update store.SystemStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	status, err := s.store.UpdateSystemStatus(update)
	if err != nil {
		s.logger.Error("system status update failed", "error", err)
		writeInternalError(w, "could not update system status")
		return
	}

	s.hub.Broadcast(ChannelSystemStatus, status)

	writeJSON(w, http.StatusOK, status)
}

// handleDeviceTest triggers a connectivity check against the cabinet
// alert device.
//
// POST /api/v1/device/test
func (s *Server) handleDeviceTest(w http.ResponseWriter, r *http.Request) {
	if s.device == nil {
		writeUnavailable(w, "alert device not configured")
		return
	}

	reachable := s.device.TestConnectivity(r.Context())

	s.logger.Info("device test", "reachable", reachable)

	writeJSON(w, http.StatusOK, map[string]any{"reachable": reachable})
}

// handleStatistics returns the derived adherence view.
//
// GET /api/v1/statistics
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("statistics load failed", "error", err)
		writeInternalError(w, "could not load statistics")
		return
	}

	writeJSON(w, http.StatusOK, doc.Statistics)
}

// handleInventory returns the derived stock-risk view.
//
// GET /api/v1/inventory
func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("inventory load failed", "error", err)
		writeInternalError(w, "could not load inventory")
		return
	}

	writeJSON(w, http.StatusOK, doc.Inventory)
}
