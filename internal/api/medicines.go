package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medcab/medcab-core/internal/store"
)

// handleListMedicines returns the stocked medicines.
//
// GET /api/v1/medicines
func (s *Server) handleListMedicines(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("medicine list failed", "error", err)
		writeInternalError(w, "could not load medicines")
		return
	}

	writeJSON(w, http.StatusOK, doc.Medicines)
}

// handleCreateMedicine adds a medicine to the cabinet stock.
//
// POST /api/v1/medicines
func (s *Server) handleCreateMedicine(w http.ResponseWriter, r *http.Request) {
	var input store.MedicineInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	medicine, err := s.store.AddMedicine(input)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("medicine create failed", "error", err)
		writeInternalError(w, "could not create medicine")
		return
	}

	s.logger.Info("medicine created", "medicine_id", medicine.ID, "name", medicine.Name)
	s.hub.Broadcast(ChannelMedicinesUpdated, nil)
	s.hub.Broadcast(ChannelInventoryUpdated, nil)

	writeJSON(w, http.StatusCreated, medicine)
}

// handleDeleteMedicine removes a medicine. Schedule entries referencing it
// and alerts mentioning it are cleaned up by the store.
//
// DELETE /api/v1/medicines/{id}
func (s *Server) handleDeleteMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeBadRequest(w, "invalid medicine id")
		return
	}

	if err := s.store.DeleteMedicine(id); err != nil {
		if errors.Is(err, store.ErrMedicineNotFound) {
			writeNotFound(w, "medicine not found")
			return
		}
		s.logger.Error("medicine delete failed", "medicine_id", id, "error", err)
		writeInternalError(w, "could not delete medicine")
		return
	}

	s.logger.Info("medicine deleted", "medicine_id", id)
	s.hub.Broadcast(ChannelMedicinesUpdated, nil)
	s.hub.Broadcast(ChannelAlertsUpdated, nil)
	s.hub.Broadcast(ChannelInventoryUpdated, nil)

	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}
