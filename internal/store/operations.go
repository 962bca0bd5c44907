package store

import (
	"fmt"
	"strings"
)

// UserInput carries the fields for creating a user.
type UserInput struct {
	Name    string   `json:"name"`
	Avatar  string   `json:"avatar"`
	Avatars []string `json:"avatars"`
}

// MedicineInput carries the fields for creating a medicine.
type MedicineInput struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Dosage       string `json:"dosage"`
	Instructions string `json:"instructions"`
	SideEffects  string `json:"sideEffects"`
	ExpiryDate   string `json:"expiryDate"`
	Quantity     int    `json:"quantity"`
	MinThreshold int    `json:"minThreshold"`
}

// SystemStatusUpdate carries a partial system status change; nil fields are
// left untouched.
type SystemStatusUpdate struct {
	Status      *string  `json:"status"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
}

// AddUser creates a user and initialises their statistics keys.
func (s *Store) AddUser(input UserInput) (*User, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: user name is required", ErrValidation)
	}

	var created User
	_, err := s.Update(func(doc *Document) error {
		created = User{
			ID:        NewID(),
			Name:      input.Name,
			Avatar:    input.Avatar,
			Avatars:   input.Avatars,
			CreatedAt: s.now(),
			IsActive:  true,
		}
		doc.Users = append(doc.Users, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteUser removes a user and cascades: their schedule entries, their
// timeline entries, and their statistics keys all go with them. Other
// users' data is untouched.
//
// Returns:
//   - []int64: IDs of the removed schedule entries, so the caller can
//     deregister their triggers without firing them
//   - error: ErrUserNotFound if the user does not exist
func (s *Store) DeleteUser(userID int64) ([]int64, error) {
	var removedSchedules []int64
	_, err := s.Update(func(doc *Document) error {
		found := false
		users := doc.Users[:0]
		for _, u := range doc.Users {
			if u.ID == userID {
				found = true
				continue
			}
			users = append(users, u)
		}
		if !found {
			return ErrUserNotFound
		}
		doc.Users = users

		schedules := doc.Schedules[:0]
		for _, entry := range doc.Schedules {
			if entry.UserID == userID {
				removedSchedules = append(removedSchedules, entry.ID)
				continue
			}
			schedules = append(schedules, entry)
		}
		doc.Schedules = schedules

		timeline := doc.Timeline[:0]
		for _, ev := range doc.Timeline {
			if ev.UserID == userID {
				continue
			}
			timeline = append(timeline, ev)
		}
		doc.Timeline = timeline

		// Statistics keys are rebuilt on save; deleting here keeps the
		// in-memory document consistent before recomputation.
		delete(doc.Statistics.Compliance, UserKey(userID))
		delete(doc.Statistics.DailyBreakdown, UserKey(userID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removedSchedules, nil
}

// AddMedicine creates a medicine.
func (s *Store) AddMedicine(input MedicineInput) (*Medicine, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: medicine name is required", ErrValidation)
	}
	if input.Quantity < 0 || input.MinThreshold < 0 {
		return nil, fmt.Errorf("%w: quantity and minThreshold must be non-negative", ErrValidation)
	}
	if input.ExpiryDate != "" {
		if _, err := parseDate(input.ExpiryDate); err != nil {
			return nil, fmt.Errorf("%w: expiryDate must be YYYY-MM-DD", ErrValidation)
		}
	}

	var created Medicine
	_, err := s.Update(func(doc *Document) error {
		created = Medicine{
			ID:           NewID(),
			Name:         input.Name,
			Category:     defaultString(input.Category, "other"),
			Dosage:       input.Dosage,
			Instructions: input.Instructions,
			SideEffects:  input.SideEffects,
			ExpiryDate:   input.ExpiryDate,
			Quantity:     input.Quantity,
			MinThreshold: defaultInt(input.MinThreshold, 5),
			CreatedAt:    s.now(),
			IsActive:     true,
		}
		doc.Medicines = append(doc.Medicines, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteMedicine removes a medicine and any alerts whose message mentions
// its name. The alert cleanup is a textual match on the medicine name, not
// an id reference, so unrelated alerts containing the same name are removed
// too; kept for compatibility with existing documents.
func (s *Store) DeleteMedicine(medicineID int64) error {
	_, err := s.Update(func(doc *Document) error {
		var name string
		found := false
		medicines := doc.Medicines[:0]
		for _, m := range doc.Medicines {
			if m.ID == medicineID {
				found = true
				name = m.Name
				continue
			}
			medicines = append(medicines, m)
		}
		if !found {
			return ErrMedicineNotFound
		}
		doc.Medicines = medicines

		if name != "" {
			alerts := doc.Alerts[:0]
			for _, a := range doc.Alerts {
				if strings.Contains(a.Message, name) {
					continue
				}
				alerts = append(alerts, a)
			}
			doc.Alerts = alerts
		}
		return nil
	})
	return err
}

// UpdateScheduleStatus transitions a schedule entry's status and appends a
// timeline event. actualTime, when non-empty (RFC3339), is recorded on the
// entry; taken and late transitions are expected to carry it.
func (s *Store) UpdateScheduleStatus(scheduleID int64, status ScheduleStatus, actualTime string) (*ScheduleEntry, error) {
	var updated ScheduleEntry
	_, err := s.Update(func(doc *Document) error {
		entry := findSchedule(doc, scheduleID)
		if entry == nil {
			return ErrScheduleNotFound
		}

		entry.Status = status
		when := s.now()
		if actualTime != "" {
			t, err := parseTimestamp(actualTime)
			if err != nil {
				return fmt.Errorf("%w: actualTime must be RFC3339", ErrValidation)
			}
			when = t
			entry.ActualTime = &t
		}

		// Timeline entry is only recorded when both referenced entities
		// still exist; the status change itself always lands.
		user := findUser(doc, entry.UserID)
		medicine := findMedicine(doc, entry.MedicineID)
		if user != nil && medicine != nil {
			doc.Timeline = append(doc.Timeline, TimelineEvent{
				ID:         NewID(),
				UserID:     entry.UserID,
				ScheduleID: entry.ID,
				Time:       when,
				User:       user.Name,
				Medicine:   fmt.Sprintf("%s (%s)", medicine.Name, medicine.Dosage),
				Status:     status,
				Period:     entry.Period,
				CustomTime: entry.CustomTime,
			})
		}

		updated = *entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ReminderRecord is the outcome of RecordReminderAttempt.
type ReminderRecord struct {
	Schedule ScheduleEntry
	User     User
	Medicine Medicine
	Alert    Alert
}

// RecordReminderAttempt appends the alert and timeline record of an
// automatic reminder dispatch in a single save. The entry itself stays
// pending; only check-in resolution or a manual update changes its status.
//
// Parameters:
//   - scheduleID: Entry the reminder fired for
//   - deviceOK: Whether the device alert call reported success
//   - cameraOK: Whether the camera trigger reported success
func (s *Store) RecordReminderAttempt(scheduleID int64, deviceOK, cameraOK bool) (*ReminderRecord, error) {
	var rec ReminderRecord
	_, err := s.Update(func(doc *Document) error {
		entry := findSchedule(doc, scheduleID)
		if entry == nil {
			return ErrScheduleNotFound
		}
		user := findUser(doc, entry.UserID)
		if user == nil {
			return ErrUserNotFound
		}
		medicine := findMedicine(doc, entry.MedicineID)
		if medicine == nil {
			return ErrMedicineNotFound
		}

		cameraNote := "camera on"
		if !cameraOK {
			cameraNote = "camera error"
		}

		alertType := AlertSuccess
		message := fmt.Sprintf("Reminder sent: %s should take %s (%s), %s",
			user.Name, medicine.Name, medicine.Dosage, cameraNote)
		if !deviceOK {
			alertType = AlertWarning
			message = fmt.Sprintf("Reminder for %s (%s, %s) could not reach the alert device",
				user.Name, medicine.Name, medicine.Dosage)
		}

		alert := Alert{
			ID:        NewID(),
			Type:      alertType,
			Message:   message,
			CreatedAt: s.now(),
			IsRead:    false,
			Priority:  "high",
		}
		doc.Alerts = append(doc.Alerts, alert)

		doc.Timeline = append(doc.Timeline, TimelineEvent{
			ID:         NewID(),
			UserID:     user.ID,
			ScheduleID: entry.ID,
			Time:       s.now(),
			User:       user.Name,
			Medicine:   fmt.Sprintf("%s (%s)", medicine.Name, medicine.Dosage),
			Status:     ScheduleAutoReminder,
			Period:     entry.Period,
			CustomTime: entry.CustomTime,
		})

		rec = ReminderRecord{
			Schedule: *entry,
			User:     *user,
			Medicine: *medicine,
			Alert:    alert,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// AddAlert appends a user-facing alert.
func (s *Store) AddAlert(alertType AlertType, message, priority string) (*Alert, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: alert message is required", ErrValidation)
	}
	if alertType == "" {
		alertType = AlertInfo
	}
	if priority == "" {
		priority = "normal"
	}

	var created Alert
	_, err := s.Update(func(doc *Document) error {
		created = Alert{
			ID:        NewID(),
			Type:      alertType,
			Message:   message,
			CreatedAt: s.now(),
			IsRead:    false,
			Priority:  priority,
		}
		doc.Alerts = append(doc.Alerts, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// MarkAlertRead flags an alert as read.
func (s *Store) MarkAlertRead(alertID int64) (*Alert, error) {
	var updated Alert
	_, err := s.Update(func(doc *Document) error {
		for i := range doc.Alerts {
			if doc.Alerts[i].ID == alertID {
				doc.Alerts[i].IsRead = true
				updated = doc.Alerts[i]
				return nil
			}
		}
		return ErrAlertNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ClearAlerts empties the alert list.
func (s *Store) ClearAlerts() error {
	_, err := s.Update(func(doc *Document) error {
		doc.Alerts = []Alert{}
		return nil
	})
	return err
}

// UpdateSystemStatus merges a partial sensor update into the system block
// and stamps lastSensorUpdate.
func (s *Store) UpdateSystemStatus(update SystemStatusUpdate) (*SystemStatus, error) {
	var status SystemStatus
	_, err := s.Update(func(doc *Document) error {
		if update.Status != nil {
			doc.System.Status = *update.Status
		}
		if update.Temperature != nil {
			doc.System.Temperature = *update.Temperature
		}
		if update.Humidity != nil {
			doc.System.Humidity = *update.Humidity
		}
		doc.System.LastSensorUpdate = s.now()
		status = doc.System
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func findUser(doc *Document, id int64) *User {
	for i := range doc.Users {
		if doc.Users[i].ID == id {
			return &doc.Users[i]
		}
	}
	return nil
}

func findMedicine(doc *Document, id int64) *Medicine {
	for i := range doc.Medicines {
		if doc.Medicines[i].ID == id {
			return &doc.Medicines[i]
		}
	}
	return nil
}

func findSchedule(doc *Document, id int64) *ScheduleEntry {
	for i := range doc.Schedules {
		if doc.Schedules[i].ID == id {
			return &doc.Schedules[i]
		}
	}
	return nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func defaultInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}
