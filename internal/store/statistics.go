package store

import (
	"math"
	"time"
)

// complianceWindow is the rolling adherence window.
const complianceWindow = 7 * 24 * time.Hour

// RecomputeStatistics rebuilds the document's statistics snapshot from
// scratch. It is a pure function of doc.Users and doc.Schedules at the given
// instant; no state survives between calls.
//
// Per user it derives:
//   - Compliance: among schedule entries dated within the trailing 7 days,
//     the rounded percentage marked taken or late (both count as adherence),
//     or 0 when the window is empty.
//   - DailyBreakdown: taken/late dose counts per weekday of the calendar
//     week (Monday to Sunday) containing now, reset to zero each call.
//
// Parameters:
//   - doc: Document to derive from; its Statistics field is replaced
//   - now: Reference instant for both windows
//   - loc: Location schedule dates are interpreted in
func RecomputeStatistics(doc *Document, now time.Time, loc *time.Location) {
	stats := StatisticsSnapshot{
		Compliance:     make(map[string]int, len(doc.Users)),
		Labels:         WeekdayLabels,
		DailyBreakdown: make(map[string][]int, len(doc.Users)),
	}

	monday := startOfWeek(now.In(loc))
	nextMonday := monday.AddDate(0, 0, 7)
	windowStart := now.Add(-complianceWindow)

	for _, user := range doc.Users {
		key := UserKey(user.ID)
		breakdown := make([]int, 7)

		var windowTotal, windowAdherent int
		for _, entry := range doc.Schedules {
			if entry.UserID != user.ID {
				continue
			}
			day, err := time.ParseInLocation(DateLayout, entry.Date, loc)
			if err != nil {
				continue
			}

			adherent := entry.Status == ScheduleTaken || entry.Status == ScheduleLate

			if !day.Before(windowStart) && !day.After(now) {
				windowTotal++
				if adherent {
					windowAdherent++
				}
			}

			if adherent && !day.Before(monday) && day.Before(nextMonday) {
				breakdown[mondayIndex(day.Weekday())]++
			}
		}

		if windowTotal > 0 {
			stats.Compliance[key] = int(math.Round(float64(windowAdherent) / float64(windowTotal) * 100))
		} else {
			stats.Compliance[key] = 0
		}
		stats.DailyBreakdown[key] = breakdown
	}

	doc.Statistics = stats
}

// startOfWeek returns midnight of the Monday of the week containing t.
func startOfWeek(t time.Time) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -mondayIndex(t.Weekday()))
}

// mondayIndex maps a time.Weekday to the Monday-first index 0..6.
func mondayIndex(d time.Weekday) int {
	if d == time.Sunday {
		return 6
	}
	return int(d) - 1
}
