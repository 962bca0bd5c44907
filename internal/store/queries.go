package store

import (
	"sort"
	"time"
)

// TodaySchedules returns the entries dated today, sorted by their resolved
// reminder time. Entries with an unknown period sort last.
func (s *Store) TodaySchedules() ([]ScheduleEntry, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}

	today := s.now().In(s.loc).Format(DateLayout)
	var entries []ScheduleEntry
	for _, entry := range doc.Schedules {
		if entry.Date == today {
			entries = append(entries, entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return sortMinutes(&entries[i]) < sortMinutes(&entries[j])
	})
	return entries, nil
}

// PendingReminders returns today's pending entries whose reminder time has
// already passed, i.e. the doses currently awaiting confirmation.
func (s *Store) PendingReminders() ([]ScheduleEntry, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	today := now.Format(DateLayout)
	nowMinutes := now.Hour()*60 + now.Minute()

	var entries []ScheduleEntry
	for _, entry := range doc.Schedules {
		if entry.Status != SchedulePending || entry.Date != today {
			continue
		}
		h, m := entry.ReminderClock()
		if nowMinutes >= h*60+m {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// PendingEntries returns every pending schedule entry regardless of date.
// Used by the alert scheduler to rebuild its trigger set on startup.
func (s *Store) PendingEntries() ([]ScheduleEntry, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}

	var entries []ScheduleEntry
	for _, entry := range doc.Schedules {
		if entry.Status == SchedulePending {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// CandidateCheckins returns the user's entries dated today that are not
// already taken or late, in storage order.
func (s *Store) CandidateCheckins(userID int64) ([]ScheduleEntry, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}

	today := s.now().In(s.loc).Format(DateLayout)
	var entries []ScheduleEntry
	for _, entry := range doc.Schedules {
		if entry.UserID != userID || entry.Date != today {
			continue
		}
		if entry.Status == ScheduleTaken || entry.Status == ScheduleLate {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// sortMinutes resolves an entry's reminder time as minutes past midnight
// for display ordering. Entries with an unknown period sort last.
func sortMinutes(entry *ScheduleEntry) int {
	if entry.Period != PeriodCustom {
		if _, ok := periodClock[entry.Period]; !ok {
			return 999999
		}
	}
	h, m := entry.ReminderClock()
	return h*60 + m
}

// Now returns the store's current time in its configured location.
// Exposed so collaborating components share the store's clock in tests.
func (s *Store) Now() time.Time {
	return s.now().In(s.loc)
}
