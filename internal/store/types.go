package store

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used throughout the document.
const DateLayout = "2006-01-02"

// Document is the root aggregate. Exactly one instance exists, owned by
// Store; other components receive a loaded copy or mutate it only through
// Store's save path.
type Document struct {
	Metadata   Metadata           `json:"metadata"`
	System     SystemStatus       `json:"system"`
	Users      []User             `json:"users"`
	Medicines  []Medicine         `json:"medicines"`
	Schedules  []ScheduleEntry    `json:"schedules"`
	Timeline   []TimelineEvent    `json:"timeline"`
	Alerts     []Alert            `json:"alerts"`
	Inventory  InventorySnapshot  `json:"inventory"`
	Statistics StatisticsSnapshot `json:"statistics"`
}

// Metadata describes the document itself.
type Metadata struct {
	Version    string    `json:"version"`
	LastUpdate time.Time `json:"lastUpdate"`
	Created    time.Time `json:"created"`
}

// SystemStatus carries the cabinet's environmental readings, pushed in by
// the sensor feed via UpdateSystemStatus.
type SystemStatus struct {
	Status           string    `json:"status"`
	Temperature      float64   `json:"temperature"`
	Humidity         float64   `json:"humidity"`
	LastSensorUpdate time.Time `json:"lastSensorUpdate"`
}

// User is a household member taking medication.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	Avatars   []string  `json:"avatars,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	IsActive  bool      `json:"isActive"`
}

// Medicine is a stocked medication. May be auto-created by the schedule
// generator when a schedule references a medicine by name only.
type Medicine struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Dosage       string    `json:"dosage"`
	Instructions string    `json:"instructions,omitempty"`
	SideEffects  string    `json:"sideEffects,omitempty"`
	ExpiryDate   string    `json:"expiryDate,omitempty"` // YYYY-MM-DD, empty = no expiry
	Quantity     int       `json:"quantity"`
	MinThreshold int       `json:"minThreshold"`
	CreatedAt    time.Time `json:"createdAt"`
	IsActive     bool      `json:"isActive"`
}

// Period is a coarse daily dosing slot, or "custom" with an explicit HH:MM.
type Period string

const (
	PeriodMorning   Period = "morning"   // 07:00
	PeriodMidday    Period = "midday"    // 12:00
	PeriodAfternoon Period = "afternoon" // 17:00
	PeriodEvening   Period = "evening"   // 20:00
	PeriodCustom    Period = "custom"
)

// ScheduleStatus is the lifecycle state of a schedule entry.
// Pending entries transition via check-in resolution or manual update;
// taken, late, and missed are terminal.
type ScheduleStatus string

const (
	SchedulePending ScheduleStatus = "pending"
	ScheduleTaken   ScheduleStatus = "taken"
	ScheduleLate    ScheduleStatus = "late"
	ScheduleMissed  ScheduleStatus = "missed"

	// ScheduleAutoReminder appears only on timeline events, marking an
	// automatic reminder attempt rather than a status transition.
	ScheduleAutoReminder ScheduleStatus = "automatic_reminder"
)

// parseDate parses a YYYY-MM-DD document date.
func parseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

// parseTimestamp parses an RFC3339 timestamp.
func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}

// ScheduleEntry is one dated, per-medicine dosing obligation for a user.
// The weekday mask and usage duration of the generating request are retained
// for traceability.
type ScheduleEntry struct {
	ID            int64          `json:"id"`
	UserID        int64          `json:"userId"`
	MedicineID    int64          `json:"medicineId"`
	Date          string         `json:"date"` // YYYY-MM-DD
	Period        Period         `json:"period"`
	CustomTime    string         `json:"customTime,omitempty"` // HH:MM, set when Period == custom
	Status        ScheduleStatus `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
	ActualTime    *time.Time     `json:"actualTime,omitempty"` // set only on taken/late
	Notes         string         `json:"notes,omitempty"`
	Weekdays      []int          `json:"weekdays,omitempty"` // 0=Sunday..6=Saturday
	UsageDuration int            `json:"usageDuration"`
	EndDate       string         `json:"endDate,omitempty"`
}

// TimelineEvent is an append-only record of a status change or reminder
// attempt. User and medicine display strings are denormalised so the log
// survives entity deletion.
type TimelineEvent struct {
	ID         int64          `json:"id"`
	UserID     int64          `json:"userId"`
	ScheduleID int64          `json:"scheduleId"`
	Time       time.Time      `json:"time"`
	User       string         `json:"user"`
	Medicine   string         `json:"medicine"`
	Status     ScheduleStatus `json:"status"`
	Period     Period         `json:"period"`
	CustomTime string         `json:"customTime,omitempty"`
}

// AlertType classifies an alert for display.
type AlertType string

const (
	AlertInfo    AlertType = "info"
	AlertSuccess AlertType = "success"
	AlertWarning AlertType = "warning"
	AlertDanger  AlertType = "danger"
)

// Alert is a user-facing notification. Append-only until explicitly cleared.
type Alert struct {
	ID        int64     `json:"id"`
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	IsRead    bool      `json:"isRead"`
	Priority  string    `json:"priority"`
}

// InventorySnapshot is the derived stock-risk view. Fully recomputed on
// every save.
type InventorySnapshot struct {
	TotalMedicines int            `json:"totalMedicines"`
	LowStock       []LowStockItem `json:"lowStock"`
	ExpiringSoon   []ExpiryItem   `json:"expiringSoon"`
	Expired        []ExpiredItem  `json:"expired"`
	LastUpdated    time.Time      `json:"lastUpdated"`
}

// LowStockItem flags a medicine at or below its minimum stock threshold.
type LowStockItem struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Quantity      int    `json:"quantity"`
	Threshold     int    `json:"threshold"`
	DaysRemaining int    `json:"daysRemaining"`
}

// ExpiryItem flags a medicine expiring within the warning horizon.
type ExpiryItem struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ExpiryDate   string `json:"expiryDate"`
	DaysToExpiry int    `json:"daysToExpiry"`
}

// ExpiredItem flags a medicine past its expiry date.
type ExpiredItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ExpiryDate  string `json:"expiryDate"`
	DaysExpired int    `json:"daysExpired"`
}

// StatisticsSnapshot is the derived adherence view. Fully recomputed on
// every save. Per-user maps are keyed "user<id>".
type StatisticsSnapshot struct {
	// Compliance is the rolling 7-day adherence percentage per user.
	Compliance map[string]int `json:"compliance"`

	// Labels is the fixed Monday-first weekday ordering for DailyBreakdown.
	Labels []string `json:"labels"`

	// DailyBreakdown counts taken/late doses per weekday (0=Monday..6=Sunday)
	// within the current calendar week, per user.
	DailyBreakdown map[string][]int `json:"dailyBreakdown"`
}

// WeekdayLabels is the fixed ordered label set for DailyBreakdown.
var WeekdayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// UserKey returns the statistics map key for a user id.
func UserKey(userID int64) string {
	return fmt.Sprintf("user%d", userID)
}

// periodClock is the fixed period-to-wall-clock lookup.
var periodClock = map[Period]int{
	PeriodMorning:   7,
	PeriodMidday:    12,
	PeriodAfternoon: 17,
	PeriodEvening:   20,
}

// ReminderClock resolves the wall-clock hour and minute a schedule entry's
// reminder is due. A custom period uses the entry's explicit HH:MM; an
// unknown period or malformed custom time falls back to 09:00.
func (e *ScheduleEntry) ReminderClock() (hour, minute int) {
	return ResolveClock(e.Period, e.CustomTime)
}

// ResolveClock resolves (period, customTime) to a wall-clock hour and minute.
// Unknown periods and malformed custom times fall back to 09:00.
func ResolveClock(period Period, customTime string) (hour, minute int) {
	if period == PeriodCustom && customTime != "" {
		var h, m int
		if _, err := fmt.Sscanf(customTime, "%d:%d", &h, &m); err == nil &&
			h >= 0 && h <= 23 && m >= 0 && m <= 59 {
			return h, m
		}
	}
	if h, ok := periodClock[period]; ok {
		return h, 0
	}
	return 9, 0
}

// ValidPeriod reports whether a period value is one of the known slots.
func ValidPeriod(p Period) bool {
	if p == PeriodCustom {
		return true
	}
	_, ok := periodClock[p]
	return ok
}

// ScheduledInstant returns the entry's full scheduled time on its calendar
// date in the given location.
func (e *ScheduleEntry) ScheduledInstant(loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, e.Date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing schedule date %q: %w", e.Date, err)
	}
	h, m := e.ReminderClock()
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, loc), nil
}
