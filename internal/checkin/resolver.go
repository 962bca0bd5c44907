package checkin

import (
	"fmt"
	"time"

	"github.com/medcab/medcab-core/internal/store"
)

// Check-in window bounds relative to the scheduled instant.
const (
	onTimeBefore = time.Hour     // up to 1h early counts as on time
	onTimeAfter  = time.Hour     // up to 1h after counts as on time
	lateAfter    = 4 * time.Hour // (1h, 4h] after counts as late
)

// Store is the state access the resolver requires. Satisfied by *store.Store.
type Store interface {
	Load() (*store.Document, error)
	CandidateCheckins(userID int64) ([]store.ScheduleEntry, error)
	UpdateScheduleStatus(scheduleID int64, status store.ScheduleStatus, actualTime string) (*store.ScheduleEntry, error)
	AddAlert(alertType store.AlertType, message, priority string) (*store.Alert, error)
}

// Logger is the minimal logging interface the resolver requires.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Result describes the outcome of a check-in resolution.
type Result struct {
	// Matched reports whether a schedule entry was confirmed.
	Matched bool `json:"matched"`

	// Status is taken or late when Matched.
	Status store.ScheduleStatus `json:"status,omitempty"`

	// Reason explains an unmatched check-in.
	Reason string `json:"reason,omitempty"`

	Schedule     *store.ScheduleEntry `json:"schedule,omitempty"`
	UserID       int64                `json:"userId"`
	UserName     string               `json:"userName,omitempty"`
	MedicineName string               `json:"medicineName,omitempty"`
	Timestamp    time.Time            `json:"timestamp"`
}

// Resolver matches check-in signals to pending schedule entries.
type Resolver struct {
	store  Store
	loc    *time.Location
	logger Logger
}

// New creates a Resolver.
func New(st Store, loc *time.Location, logger Logger) *Resolver {
	if logger == nil {
		logger = noopLogger{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{store: st, loc: loc, logger: logger}
}

// Resolve classifies a check-in observed at observedTime for the given user.
//
// Candidates are the user's entries dated today that are not already taken
// or late, evaluated in storage order; the first whose window contains
// observedTime wins. On a match the entry's status and actual time are
// persisted and a descriptive alert is appended.
//
// Returns:
//   - *Result: Classification, or an unmatched result with a reason
//   - error: ErrUserNotFound, or a storage failure
func (r *Resolver) Resolve(userID int64, observedTime time.Time) (*Result, error) {
	doc, err := r.store.Load()
	if err != nil {
		return nil, err
	}

	var user *store.User
	for i := range doc.Users {
		if doc.Users[i].ID == userID {
			user = &doc.Users[i]
			break
		}
	}
	if user == nil {
		return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
	}

	candidates, err := r.store.CandidateCheckins(userID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &Result{
			UserID:    userID,
			UserName:  user.Name,
			Reason:    "no schedules awaiting check-in today",
			Timestamp: observedTime,
		}, nil
	}

	observed := observedTime.In(r.loc)

	// First match in storage order wins, even when a later-stored entry is
	// scheduled earlier.
	for i := range candidates {
		entry := &candidates[i]
		scheduled, err := entry.ScheduledInstant(r.loc)
		if err != nil {
			r.logger.Warn("skipping entry with unparsable date", "schedule_id", entry.ID, "error", err)
			continue
		}

		diff := observed.Sub(scheduled)
		var status store.ScheduleStatus
		switch {
		case diff >= -onTimeBefore && diff <= onTimeAfter:
			status = store.ScheduleTaken
		case diff > onTimeAfter && diff <= lateAfter:
			status = store.ScheduleLate
		default:
			continue
		}

		return r.confirm(doc, user, entry, status, observed)
	}

	return &Result{
		UserID:    userID,
		UserName:  user.Name,
		Reason:    "no schedule within the check-in window",
		Timestamp: observedTime,
	}, nil
}

// confirm persists the classification and appends the descriptive alert.
func (r *Resolver) confirm(doc *store.Document, user *store.User, entry *store.ScheduleEntry, status store.ScheduleStatus, observed time.Time) (*Result, error) {
	updated, err := r.store.UpdateScheduleStatus(entry.ID, status, observed.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}

	medicineName := "medicine"
	for i := range doc.Medicines {
		if doc.Medicines[i].ID == entry.MedicineID {
			medicineName = doc.Medicines[i].Name
			break
		}
	}

	alertType := store.AlertSuccess
	statusText := "on time"
	if status == store.ScheduleLate {
		alertType = store.AlertWarning
		statusText = "late"
	}
	message := fmt.Sprintf("Check-in confirmed: %s took %s - %s", user.Name, medicineName, statusText)
	if _, err := r.store.AddAlert(alertType, message, "high"); err != nil {
		r.logger.Warn("recording check-in alert failed", "error", err)
	}

	r.logger.Info("check-in confirmed",
		"user_id", user.ID,
		"schedule_id", entry.ID,
		"status", status)

	return &Result{
		Matched:      true,
		Status:       status,
		Schedule:     updated,
		UserID:       user.ID,
		UserName:     user.Name,
		MedicineName: medicineName,
		Timestamp:    observed,
	}, nil
}
