package monitor

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/medcab/medcab-core/internal/store"
)

// reminderWindow is how far before the scheduled time the sweep considers a
// dose due.
const reminderWindow = 15 * time.Minute

// expiryAlertDays is the health sweep's expiry warning horizon.
const expiryAlertDays = 7

// Device drives the cabinet's physical alert. Satisfied by *actuator.Client.
type Device interface {
	SendTimedReminder(ctx context.Context, duration time.Duration) bool
}

// Store is the state access the monitor requires. Satisfied by *store.Store.
type Store interface {
	Load() (*store.Document, error)
	PendingReminders() ([]store.ScheduleEntry, error)
	AddAlert(alertType store.AlertType, message, priority string) (*store.Alert, error)
}

// Events receives sweep notifications for the transport layer to broadcast.
type Events interface {
	ReminderFired(rec *store.ReminderRecord, deviceOK, cameraOK bool)
	AlertsChanged()
}

// Logger is the minimal logging interface the monitor requires.
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
func (noopEvents) AlertsChanged()                                  {}

// Config holds the sweep cadence.
type Config struct {
	ReminderInterval   time.Duration
	HealthInterval     time.Duration
	HealthInitialDelay time.Duration

	// SweepReminderDuration is the device alert duration for sweep-raised
	// reminders, longer than the cron trigger's since the moment may
	// already be slightly past.
	SweepReminderDuration time.Duration
}

// Monitor runs the reminder and health sweeps.
type Monitor struct {
	store  Store
	device Device
	events Events
	logger Logger
	loc    *time.Location
	cfg    Config

	// now is injectable for tests.
	now func() time.Time

	wg sync.WaitGroup
}

// New creates a Monitor.
func New(st Store, device Device, events Events, loc *time.Location, cfg Config, logger Logger) *Monitor {
	if logger == nil {
		logger = noopLogger{}
	}
	if events == nil {
		events = noopEvents{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if cfg.ReminderInterval <= 0 {
		cfg.ReminderInterval = time.Minute
	}
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = 30 * time.Minute
	}
	if cfg.HealthInitialDelay <= 0 {
		cfg.HealthInitialDelay = 5 * time.Second
	}
	if cfg.SweepReminderDuration <= 0 {
		cfg.SweepReminderDuration = 45 * time.Second
	}
	return &Monitor{
		store:  st,
		device: device,
		events: events,
		logger: logger,
		loc:    loc,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Start launches both sweep loops. They run until ctx is cancelled; Stop
// waits for them to exit.
func (m *Monitor) Start(ctx context.Context) {
	m.wg.Add(2)

	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cfg.ReminderInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.runReminderSweep(ctx)
			}
		}
	}()

	go func() {
		defer m.wg.Done()
		initial := time.NewTimer(m.cfg.HealthInitialDelay)
		defer initial.Stop()
		select {
		case <-ctx.Done():
			return
		case <-initial.C:
			m.runHealthSweep()
		}

		ticker := time.NewTicker(m.cfg.HealthInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.runHealthSweep()
			}
		}
	}()

	m.logger.Info("monitor started",
		"reminder_interval", m.cfg.ReminderInterval,
		"health_interval", m.cfg.HealthInterval)
}

// Stop waits for the sweep loops to exit after their context is cancelled.
func (m *Monitor) Stop() {
	m.wg.Wait()
	m.logger.Info("monitor stopped")
}

// runReminderSweep dispatches device reminders for today's pending entries
// currently inside their reminder window.
func (m *Monitor) runReminderSweep(ctx context.Context) {
	pending, err := m.store.PendingReminders()
	if err != nil {
		m.logger.Error("reminder sweep: loading pending reminders", "error", err)
		return
	}

	now := m.now().In(m.loc)
	for i := range pending {
		entry := &pending[i]
		if !m.inReminderWindow(entry, now) {
			continue
		}

		doc, err := m.store.Load()
		if err != nil {
			m.logger.Error("reminder sweep: loading document", "error", err)
			return
		}
		user := findUser(doc, entry.UserID)
		medicine := findMedicine(doc, entry.MedicineID)
		if user == nil || medicine == nil {
			m.logger.Warn("reminder sweep: missing user or medicine", "schedule_id", entry.ID)
			continue
		}

		deviceOK := m.device.SendTimedReminder(ctx, m.cfg.SweepReminderDuration)

		periodDisplay := string(entry.Period)
		if entry.Period == store.PeriodCustom && entry.CustomTime != "" {
			periodDisplay = entry.CustomTime
		}

		alertType := store.AlertSuccess
		message := fmt.Sprintf("Time for medication: %s should take %s (%s) - %s. Cabinet alert is sounding.",
			user.Name, medicine.Name, medicine.Dosage, periodDisplay)
		if !deviceOK {
			alertType = store.AlertWarning
			message = fmt.Sprintf("Time for medication: %s should take %s (%s) - %s. Cabinet device unreachable.",
				user.Name, medicine.Name, medicine.Dosage, periodDisplay)
		}
		if _, err := m.store.AddAlert(alertType, message, "high"); err != nil {
			m.logger.Error("reminder sweep: recording alert", "error", err)
			continue
		}

		m.events.ReminderFired(&store.ReminderRecord{
			Schedule: *entry,
			User:     *user,
			Medicine: *medicine,
		}, deviceOK, false)

		m.logger.Info("reminder sweep dispatched",
			"schedule_id", entry.ID,
			"user", user.Name,
			"medicine", medicine.Name,
			"device_ok", deviceOK)
	}
}

// inReminderWindow reports whether now lies within [target-15m, target] for
// the entry's scheduled time today.
func (m *Monitor) inReminderWindow(entry *store.ScheduleEntry, now time.Time) bool {
	scheduled, err := entry.ScheduledInstant(m.loc)
	if err != nil {
		return false
	}
	windowStart := scheduled.Add(-reminderWindow)
	return !now.Before(windowStart) && !now.After(scheduled)
}

// runHealthSweep raises stock and expiry alerts from the current inventory.
func (m *Monitor) runHealthSweep() {
	doc, err := m.store.Load()
	if err != nil {
		m.logger.Error("health sweep: loading document", "error", err)
		return
	}

	raised := 0
	now := m.now()

	for _, medicine := range doc.Medicines {
		if medicine.Quantity <= medicine.MinThreshold {
			message := fmt.Sprintf("Medicine %s is running low: %d left (threshold %d)",
				medicine.Name, medicine.Quantity, medicine.MinThreshold)
			if _, err := m.store.AddAlert(store.AlertDanger, message, "high"); err != nil {
				m.logger.Error("health sweep: recording low-stock alert", "error", err)
			} else {
				raised++
			}
		}

		if medicine.ExpiryDate == "" {
			continue
		}
		expiry, err := time.Parse(store.DateLayout, medicine.ExpiryDate)
		if err != nil {
			continue
		}
		daysToExpiry := int(math.Ceil(expiry.Sub(now).Hours() / 24))

		switch {
		case daysToExpiry <= 0:
			message := fmt.Sprintf("Medicine %s has expired", medicine.Name)
			if _, err := m.store.AddAlert(store.AlertDanger, message, "high"); err != nil {
				m.logger.Error("health sweep: recording expired alert", "error", err)
			} else {
				raised++
			}
		case daysToExpiry <= expiryAlertDays:
			message := fmt.Sprintf("Medicine %s expires in %d days", medicine.Name, daysToExpiry)
			if _, err := m.store.AddAlert(store.AlertWarning, message, "medium"); err != nil {
				m.logger.Error("health sweep: recording expiry alert", "error", err)
			} else {
				raised++
			}
		}
	}

	if raised > 0 {
		m.events.AlertsChanged()
	}
	m.logger.Debug("health sweep completed", "alerts_raised", raised)
}

func findUser(doc *store.Document, id int64) *store.User {
	for i := range doc.Users {
		if doc.Users[i].ID == id {
			return &doc.Users[i]
		}
	}
	return nil
}

func findMedicine(doc *store.Document, id int64) *store.Medicine {
	for i := range doc.Medicines {
		if doc.Medicines[i].ID == id {
			return &doc.Medicines[i]
		}
	}
	return nil
}
