package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/medcab/medcab-core/internal/checkin"
)

type checkinRequest struct {
	UserID int64 `json:"userId"`

	// Timestamp is the observed medication time, RFC3339. Empty means now.
	Timestamp string `json:"timestamp"`
}

// handleCheckin resolves a medication check-in signal against the user's
// pending doses for today.
//
// A matched check-in transitions the entry to taken or late, cancels its
// alert trigger, and broadcasts the confirmation. An unmatched check-in
// returns 200 with matched=false and a reason; the signal itself is not
// an error.
//
// POST /api/v1/checkin
func (s *Server) handleCheckin(w http.ResponseWriter, r *http.Request) {
	var req checkinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	observed := s.store.Now()
	if req.Timestamp != "" {
		t, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			writeBadRequest(w, "timestamp must be RFC3339")
			return
		}
		observed = t.In(s.store.Location())
	}

	result, err := s.resolver.Resolve(req.UserID, observed)
	if err != nil {
		if errors.Is(err, checkin.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("checkin resolution failed", "user_id", req.UserID, "error", err)
		writeInternalError(w, "could not resolve check-in")
		return
	}

	if result.Matched {
		if s.sched != nil && result.Schedule != nil {
			s.sched.Deregister(result.Schedule.ID)
		}

		s.logger.Info("checkin confirmed",
			"user_id", result.UserID,
			"schedule_id", scheduleID(result),
			"status", result.Status,
		)

		if s.events != nil {
			s.events.CheckinConfirmed(result)
		} else {
			s.hub.Broadcast(ChannelCheckinConfirmed, result)
		}
		s.hub.Broadcast(ChannelScheduleUpdated, nil)
		s.hub.Broadcast(ChannelStatsUpdated, nil)
	} else {
		s.logger.Info("checkin unmatched",
			"user_id", result.UserID,
			"reason", result.Reason,
		)
	}

	writeJSON(w, http.StatusOK, result)
}

// scheduleID returns the matched entry's ID for logging, or 0.
func scheduleID(result *checkin.Result) int64 {
	if result.Schedule == nil {
		return 0
	}
	return result.Schedule.ID
}
