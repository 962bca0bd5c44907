package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medcab/medcab-core/internal/schedule"
	"github.com/medcab/medcab-core/internal/store"
)

// handleListSchedules returns every schedule entry in the document.
//
// GET /api/v1/schedules
func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("schedule list failed", "error", err)
		writeInternalError(w, "could not load schedules")
		return
	}

	writeJSON(w, http.StatusOK, doc.Schedules)
}

// handleCreateSchedules generates dated schedule entries from a dosing
// request and registers an alert trigger for each.
//
// POST /api/v1/schedules
func (s *Server) handleCreateSchedules(w http.ResponseWriter, r *http.Request) {
	var req schedule.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	var created []store.ScheduleEntry
	_, err := s.store.Update(func(doc *store.Document) error {
		entries, err := schedule.Generate(doc, req, s.store.Now(), s.store.Location())
		if err != nil {
			return err
		}
		created = entries
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrUserNotFound):
			writeNotFound(w, "user not found")
		case errors.Is(err, schedule.ErrInvalidRequest):
			writeBadRequest(w, err.Error())
		default:
			s.logger.Error("schedule create failed", "error", err)
			writeInternalError(w, "could not create schedules")
		}
		return
	}

	// Register triggers after the save so a trigger never exists for an
	// entry that failed to persist. Registration failures degrade to the
	// reminder sweep, so they are logged and not fatal.
	if s.sched != nil {
		for i := range created {
			if err := s.sched.Register(&created[i]); err != nil {
				s.logger.Warn("trigger registration failed",
					"schedule_id", created[i].ID,
					"error", err,
				)
			}
		}
	}

	s.logger.Info("schedules created", "count", len(created), "user_id", req.UserID)
	s.hub.Broadcast(ChannelScheduleUpdated, nil)
	s.hub.Broadcast(ChannelMedicinesUpdated, nil)

	writeJSON(w, http.StatusCreated, map[string]any{
		"created": created,
		"count":   len(created),
	})
}

// handleTodaySchedules returns today's entries sorted by reminder time.
//
// GET /api/v1/schedules/today
func (s *Server) handleTodaySchedules(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.TodaySchedules()
	if err != nil {
		s.logger.Error("today schedules failed", "error", err)
		writeInternalError(w, "could not load schedules")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// handlePendingReminders returns today's overdue pending entries.
//
// GET /api/v1/schedules/pending-reminders
func (s *Server) handlePendingReminders(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.PendingReminders()
	if err != nil {
		s.logger.Error("pending reminders failed", "error", err)
		writeInternalError(w, "could not load pending reminders")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

type scheduleStatusRequest struct {
	Status     string `json:"status"`
	ActualTime string `json:"actualTime"`
}

// validScheduleStatus limits manual transitions to the lifecycle states.
func validScheduleStatus(status string) bool {
	switch store.ScheduleStatus(status) {
	case store.SchedulePending, store.ScheduleTaken, store.ScheduleLate, store.ScheduleMissed:
		return true
	}
	return false
}

// handleUpdateScheduleStatus manually transitions a schedule entry.
//
// A transition away from pending cancels the entry's alert trigger.
//
// PATCH /api/v1/schedules/{id}/status
func (s *Server) handleUpdateScheduleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeBadRequest(w, "invalid schedule id")
		return
	}

	var req scheduleStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if !validScheduleStatus(req.Status) {
		writeBadRequest(w, "status must be pending, taken, late, or missed")
		return
	}

	entry, err := s.store.UpdateScheduleStatus(id, store.ScheduleStatus(req.Status), req.ActualTime)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrScheduleNotFound):
			writeNotFound(w, "schedule not found")
		case errors.Is(err, store.ErrValidation):
			writeBadRequest(w, err.Error())
		default:
			s.logger.Error("schedule status update failed", "schedule_id", id, "error", err)
			writeInternalError(w, "could not update schedule")
		}
		return
	}

	if s.sched != nil && entry.Status != store.SchedulePending {
		s.sched.Deregister(entry.ID)
	}

	s.logger.Info("schedule status updated", "schedule_id", id, "status", entry.Status)
	s.hub.Broadcast(ChannelScheduleUpdated, map[string]any{"scheduleId": entry.ID})
	s.hub.Broadcast(ChannelStatsUpdated, nil)

	writeJSON(w, http.StatusOK, entry)
}

// handleSchedulerStatus reports the alert scheduler's trigger set.
//
// GET /api/v1/scheduler/status
func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	if s.sched == nil {
		writeUnavailable(w, "scheduler not running")
		return
	}

	writeJSON(w, http.StatusOK, s.sched.Status())
}
