package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/medcab/medcab-core/internal/store"
)

// Defaults applied to auto-created medicines.
const (
	autoCreateQuantity  = 30
	autoCreateThreshold = 5
	autoCreateDosage    = "as directed"
)

// MedicineRef names a medicine within a request. Resolution is by exact
// name match against the document; unresolved names auto-create a medicine.
type MedicineRef struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Request describes a recurring schedule to expand.
type Request struct {
	UserID int64 `json:"userId"`

	// Weekdays is the weekday mask: 0=Sunday..6=Saturday.
	Weekdays []int `json:"weekdays"`

	Period     store.Period `json:"period"`
	CustomTime string       `json:"customTime"`

	// UsageDurationDays is the coverage span in days. The expansion is
	// inclusive of both endpoints, so a duration of N spans N+1 calendar
	// days.
	UsageDurationDays int `json:"usageDurationDays"`

	Medicines []MedicineRef `json:"medicines"`
	Notes     string        `json:"notes"`
}

// Validate checks the request against the loaded document.
func Validate(doc *store.Document, req Request) error {
	var errs []string

	userFound := false
	for _, u := range doc.Users {
		if u.ID == req.UserID {
			userFound = true
			break
		}
	}
	if !userFound {
		return fmt.Errorf("%w: id %d", ErrUserNotFound, req.UserID)
	}

	if !store.ValidPeriod(req.Period) {
		errs = append(errs, fmt.Sprintf("unknown period %q", req.Period))
	}
	if req.Period == store.PeriodCustom {
		if _, err := time.Parse("15:04", req.CustomTime); err != nil {
			errs = append(errs, fmt.Sprintf("customTime %q must be HH:MM", req.CustomTime))
		}
	}
	if req.UsageDurationDays < 0 {
		errs = append(errs, "usageDurationDays must be non-negative")
	}
	if len(req.Medicines) == 0 {
		errs = append(errs, "at least one medicine is required")
	}
	for _, ref := range req.Medicines {
		if strings.TrimSpace(ref.Name) == "" {
			errs = append(errs, "medicine name must not be empty")
			break
		}
	}
	for _, wd := range req.Weekdays {
		if wd < 0 || wd > 6 {
			errs = append(errs, fmt.Sprintf("weekday %d out of range 0..6", wd))
			break
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(errs, "; "))
	}
	return nil
}

// Generate validates the request and expands it into schedule entries,
// appending them (and any auto-created medicines) to the document.
//
// The day cursor runs from today through today + UsageDurationDays
// inclusive; each day whose weekday is in the mask yields one entry per
// requested medicine. An empty weekday mask yields no entries.
//
// Parameters:
//   - doc: Loaded document to mutate; callers persist it afterwards
//   - req: Request to expand
//   - now: Reference instant defining "today"
//   - loc: Location calendar days are computed in
//
// Returns:
//   - []store.ScheduleEntry: The created entries, for trigger registration
//   - error: ErrInvalidRequest or ErrUserNotFound; nothing is appended
func Generate(doc *store.Document, req Request, now time.Time, loc *time.Location) ([]store.ScheduleEntry, error) {
	if err := Validate(doc, req); err != nil {
		return nil, err
	}

	mask := make(map[int]bool, len(req.Weekdays))
	for _, wd := range req.Weekdays {
		mask[wd] = true
	}

	medicineIDs := make([]int64, len(req.Medicines))
	for i, ref := range req.Medicines {
		medicineIDs[i] = resolveMedicine(doc, ref, now)
	}

	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, req.UsageDurationDays)
	endDate := end.Format(store.DateLayout)

	var created []store.ScheduleEntry
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if !mask[int(day.Weekday())] {
			continue
		}
		date := day.Format(store.DateLayout)
		for _, medID := range medicineIDs {
			entry := store.ScheduleEntry{
				ID:            store.NewID(),
				UserID:        req.UserID,
				MedicineID:    medID,
				Date:          date,
				Period:        req.Period,
				CustomTime:    req.CustomTime,
				Status:        store.SchedulePending,
				CreatedAt:     now,
				Notes:         req.Notes,
				Weekdays:      req.Weekdays,
				UsageDuration: req.UsageDurationDays,
				EndDate:       endDate,
			}
			created = append(created, entry)
		}
	}

	doc.Schedules = append(doc.Schedules, created...)
	return created, nil
}

// resolveMedicine finds a medicine by exact name or creates one with default
// stock, returning its id.
func resolveMedicine(doc *store.Document, ref MedicineRef, now time.Time) int64 {
	for _, m := range doc.Medicines {
		if m.Name == ref.Name {
			return m.ID
		}
	}

	created := store.Medicine{
		ID:           store.NewID(),
		Name:         ref.Name,
		Category:     ref.Category,
		Dosage:       autoCreateDosage,
		Quantity:     autoCreateQuantity,
		MinThreshold: autoCreateThreshold,
		CreatedAt:    now,
		IsActive:     true,
	}
	if created.Category == "" {
		created.Category = "other"
	}
	doc.Medicines = append(doc.Medicines, created)
	return created.ID
}
