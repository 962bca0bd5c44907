package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/medcab/medcab-core/internal/store"
)

// Device drives the cabinet's physical alert. Satisfied by *actuator.Client.
type Device interface {
	SendTimedReminder(ctx context.Context, duration time.Duration) bool
}

// CheckinNotifier pokes the companion camera service when a reminder fires.
// Satisfied by *actuator.CheckinTrigger.
type CheckinNotifier interface {
	Trigger(ctx context.Context) bool
}

// Store is the state access the scheduler requires. Satisfied by *store.Store.
type Store interface {
	PendingEntries() ([]store.ScheduleEntry, error)
	RecordReminderAttempt(scheduleID int64, deviceOK, cameraOK bool) (*store.ReminderRecord, error)
}

// Events receives reminder-fired notifications for the transport layer to
// broadcast. Implementations must not block.
type Events interface {
	ReminderFired(rec *store.ReminderRecord, deviceOK, cameraOK bool)
}

// Logger is the minimal logging interface the scheduler requires.
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

type noopEvents struct{}

func (noopEvents) ReminderFired(*store.ReminderRecord, bool, bool) {}

// Status reports the scheduler's trigger set.
type Status struct {
	Initialized  bool    `json:"initialized"`
	ActiveAlerts int     `json:"activeAlerts"`
	ScheduledIDs []int64 `json:"scheduledIds"`
}

// Scheduler holds one time trigger per pending schedule entry and runs the
// alert dispatch sequence when a trigger fires.
//
// Thread Safety:
//   - All exported methods are safe for concurrent use.
type Scheduler struct {
	store    Store
	device   Device
	camera   CheckinNotifier
	events   Events
	logger   Logger
	loc      *time.Location
	duration time.Duration // device alert duration per reminder

	cron *cron.Cron

	mu          sync.Mutex
	entries     map[int64]cron.EntryID
	dated       map[int64]bool // entries to deregister after their single firing
	initialized bool
}

// New creates a Scheduler. The cron engine evaluates trigger times in loc.
//
// Parameters:
//   - st: Store for pending entries and reminder records
//   - device: Cabinet alert device
//   - camera: Check-in camera notifier (nil to disable)
//   - events: Reminder-fired event sink (nil for none)
//   - loc: Timezone trigger times are evaluated in
//   - reminderDuration: Device alert duration per firing
//   - logger: Logger (nil for silent operation)
func New(st Store, device Device, camera CheckinNotifier, events Events, loc *time.Location, reminderDuration time.Duration, logger Logger) *Scheduler {
	if logger == nil {
		logger = noopLogger{}
	}
	if events == nil {
		events = noopEvents{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if reminderDuration <= 0 {
		reminderDuration = 30 * time.Second
	}
	return &Scheduler{
		store:    st,
		device:   device,
		camera:   camera,
		events:   events,
		logger:   logger,
		loc:      loc,
		duration: reminderDuration,
		cron:     cron.New(cron.WithLocation(loc)),
		entries:  make(map[int64]cron.EntryID),
		dated:    make(map[int64]bool),
	}
}

// Start loads all pending schedule entries, registers one trigger each, and
// starts the cron engine. Entries that cannot produce a trigger are logged
// and skipped.
func (s *Scheduler) Start() error {
	pending, err := s.store.PendingEntries()
	if err != nil {
		return fmt.Errorf("loading pending entries: %w", err)
	}

	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()

	registered := 0
	for i := range pending {
		if err := s.Register(&pending[i]); err != nil {
			s.logger.Warn("skipping entry without valid trigger", "schedule_id", pending[i].ID, "error", err)
			continue
		}
		registered++
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "pending", len(pending), "registered", registered)
	return nil
}

// Register adds a trigger for a schedule entry. Registering an id that
// already has an active trigger is a no-op.
func (s *Scheduler) Register(entry *store.ScheduleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	if _, exists := s.entries[entry.ID]; exists {
		s.logger.Debug("trigger already registered", "schedule_id", entry.ID)
		return nil
	}

	spec, isDated, err := cronSpec(entry)
	if err != nil {
		return err
	}

	scheduleID := entry.ID
	entryID, err := s.cron.AddFunc(spec, func() {
		s.fire(scheduleID)
	})
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrNoTrigger, spec, err)
	}

	s.entries[scheduleID] = entryID
	if isDated {
		s.dated[scheduleID] = true
	}
	s.logger.Debug("trigger registered", "schedule_id", scheduleID, "spec", spec, "dated", isDated)
	return nil
}

// Deregister removes an entry's trigger without firing it. Unknown ids are
// ignored.
func (s *Scheduler) Deregister(scheduleID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deregisterLocked(scheduleID)
}

func (s *Scheduler) deregisterLocked(scheduleID int64) {
	entryID, exists := s.entries[scheduleID]
	if !exists {
		return
	}
	s.cron.Remove(entryID)
	delete(s.entries, scheduleID)
	delete(s.dated, scheduleID)
	s.logger.Debug("trigger deregistered", "schedule_id", scheduleID)
}

// Status reports whether the scheduler is initialised and which entries
// have active triggers.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return Status{
		Initialized:  s.initialized,
		ActiveAlerts: len(s.entries),
		ScheduledIDs: ids,
	}
}

// Stop halts the cron engine and clears the trigger set. A firing already
// in progress runs to completion.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.mu.Lock()
	for id := range s.entries {
		delete(s.entries, id)
		delete(s.dated, id)
	}
	s.initialized = false
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

// fire runs the dispatch sequence for one entry.
//
// A missing user or medicine is non-fatal: logged and skipped. The device
// call's outcome decides the alert type; the camera outcome is carried into
// the alert message.
func (s *Scheduler) fire(scheduleID int64) {
	s.logger.Info("reminder trigger fired", "schedule_id", scheduleID)

	deviceOK := s.device.SendTimedReminder(context.Background(), s.duration)

	cameraOK := false
	if s.camera != nil {
		cameraOK = s.camera.Trigger(context.Background())
	}

	rec, err := s.store.RecordReminderAttempt(scheduleID, deviceOK, cameraOK)
	if err != nil {
		s.logger.Warn("reminder attempt not recorded", "schedule_id", scheduleID, "error", err)
	} else {
		s.events.ReminderFired(rec, deviceOK, cameraOK)
	}

	// Dated triggers fire once.
	s.mu.Lock()
	if s.dated[scheduleID] {
		s.deregisterLocked(scheduleID)
	}
	s.mu.Unlock()
}

// cronSpec derives a cron expression from an entry.
//
// Dated entries produce "m h d M *" and are marked for one-shot
// deregistration; entries with only a weekday mask produce a weekly
// recurring "m h * * w1,w2,...". Entries with neither, or with an unknown
// period, yield ErrNoTrigger.
func cronSpec(entry *store.ScheduleEntry) (spec string, isDated bool, err error) {
	if entry.Period != store.PeriodCustom && !store.ValidPeriod(entry.Period) {
		return "", false, fmt.Errorf("%w: unknown period %q", ErrNoTrigger, entry.Period)
	}
	if entry.Period == store.PeriodCustom {
		if _, perr := time.Parse("15:04", entry.CustomTime); perr != nil {
			return "", false, fmt.Errorf("%w: bad custom time %q", ErrNoTrigger, entry.CustomTime)
		}
	}
	hour, minute := entry.ReminderClock()

	if entry.Date != "" {
		day, perr := time.Parse(store.DateLayout, entry.Date)
		if perr != nil {
			return "", false, fmt.Errorf("%w: bad date %q", ErrNoTrigger, entry.Date)
		}
		return fmt.Sprintf("%d %d %d %d *", minute, hour, day.Day(), int(day.Month())), true, nil
	}

	if len(entry.Weekdays) > 0 {
		days := make([]string, len(entry.Weekdays))
		for i, wd := range entry.Weekdays {
			days[i] = strconv.Itoa(wd)
		}
		return fmt.Sprintf("%d %d * * %s", minute, hour, strings.Join(days, ",")), false, nil
	}

	return "", false, fmt.Errorf("%w: entry has neither date nor weekdays", ErrNoTrigger)
}
