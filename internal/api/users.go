package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medcab/medcab-core/internal/store"
)

// parseIDParam extracts and parses the {id} URL parameter.
func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// handleListUsers returns all household members.
//
// GET /api/v1/users
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("user list failed", "error", err)
		writeInternalError(w, "could not load users")
		return
	}

	writeJSON(w, http.StatusOK, doc.Users)
}

// handleCreateUser adds a household member.
//
// POST /api/v1/users
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var input store.UserInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	user, err := s.store.AddUser(input)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("user create failed", "error", err)
		writeInternalError(w, "could not create user")
		return
	}

	s.logger.Info("user created", "user_id", user.ID, "name", user.Name)
	s.hub.Broadcast(ChannelUsersUpdated, nil)

	writeJSON(w, http.StatusCreated, user)
}

// handleUserImages returns a user's check-in reference images.
//
// The companion camera service polls this to know which faces belong to
// which household member.
//
// GET /api/v1/users/{id}/images
func (s *Server) handleUserImages(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeBadRequest(w, "invalid user id")
		return
	}

	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("user images load failed", "error", err)
		writeInternalError(w, "could not load user images")
		return
	}

	for i := range doc.Users {
		if doc.Users[i].ID == id {
			images := doc.Users[i].Avatars
			if images == nil {
				images = []string{}
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"userId": id,
				"images": images,
			})
			return
		}
	}

	writeNotFound(w, "user not found")
}

// handleDeleteUser removes a household member and everything that hangs
// off them: schedule entries, their triggers, and their timeline.
//
// DELETE /api/v1/users/{id}
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeBadRequest(w, "invalid user id")
		return
	}

	removed, err := s.store.DeleteUser(id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("user delete failed", "user_id", id, "error", err)
		writeInternalError(w, "could not delete user")
		return
	}

	// Cancel the removed entries' triggers so they never fire for a
	// deleted user.
	if s.sched != nil {
		for _, scheduleID := range removed {
			s.sched.Deregister(scheduleID)
		}
	}

	s.logger.Info("user deleted", "user_id", id, "removed_schedules", len(removed))
	s.hub.Broadcast(ChannelUsersUpdated, nil)
	s.hub.Broadcast(ChannelScheduleUpdated, nil)
	s.hub.Broadcast(ChannelStatsUpdated, nil)

	writeJSON(w, http.StatusOK, map[string]any{
		"deleted":          id,
		"removedSchedules": removed,
	})
}
