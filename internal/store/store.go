package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// documentVersion is stamped into new documents.
const documentVersion = "2.0.0"

// Logger is the minimal logging interface the store requires.
// Satisfied by logging.Logger; a no-op implementation is used when nil.
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

// MetricsSink receives derived adherence and inventory figures after each
// save. Implementations must not block; delivery is best-effort.
type MetricsSink interface {
	RecordCompliance(userID int64, percent int)
	RecordInventoryCounts(lowStock, expiringSoon, expired int)
}

// Store owns the persisted document. It is the single writer: every
// load-mutate-save cycle is serialised through one mutex, so concurrent
// request handlers, trigger firings, and sweeps cannot interleave lost
// updates.
//
// Thread Safety:
//   - All exported methods are safe for concurrent use.
type Store struct {
	path       string
	backupPath string
	loc        *time.Location
	logger     Logger

	mu sync.Mutex

	// now is injectable for tests.
	now func() time.Time

	metrics MetricsSink
}

// New creates a Store persisting to path, with the prior version copied to
// backupPath on every save.
//
// Parameters:
//   - path: Document file location
//   - backupPath: Rolling backup location (may equal "" to disable backups)
//   - loc: Location schedule dates and windows are interpreted in
//   - logger: Logger for storage events (nil for silent operation)
func New(path, backupPath string, loc *time.Location, logger Logger) *Store {
	if logger == nil {
		logger = noopLogger{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		path:       path,
		backupPath: backupPath,
		loc:        loc,
		logger:     logger,
		now:        time.Now,
	}
}

// SetMetricsSink attaches an optional metrics sink. Must be called before
// the store is shared across goroutines.
func (s *Store) SetMetricsSink(m MetricsSink) {
	s.metrics = m
}

// Location returns the store's configured location.
func (s *Store) Location() *time.Location {
	return s.loc
}

// Load reads the document under the writer lock.
//
// An unreadable, missing, or structurally invalid file yields a freshly
// initialised default document, persisted immediately, rather than a
// startup failure.
func (s *Store) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Update runs fn against the loaded document under the writer lock and
// persists the result. Returning an error from fn aborts the cycle without
// saving.
//
// This is the store's general mutation primitive; the convenience
// operations are built on it.
func (s *Store) Update(fn func(doc *Document) error) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	if err := s.save(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// load reads and parses the document file. Callers must hold s.mu.
func (s *Store) load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Info("initialising default document", "path", s.path, "reason", err.Error())
		return s.initialiseDefault()
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("document unreadable, initialising default", "path", s.path, "error", err)
		return s.initialiseDefault()
	}

	s.mergeDefaults(&doc)
	return &doc, nil
}

// initialiseDefault builds, persists, and returns a default document.
func (s *Store) initialiseDefault() (*Document, error) {
	doc := s.defaultDocument()
	if err := s.save(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// defaultDocument returns a fully initialised empty document.
func (s *Store) defaultDocument() *Document {
	now := s.now()
	return &Document{
		Metadata: Metadata{
			Version:    documentVersion,
			LastUpdate: now,
			Created:    now,
		},
		System: SystemStatus{
			Status:           "online",
			Temperature:      25.0,
			Humidity:         65.0,
			LastSensorUpdate: now,
		},
		Users:     []User{},
		Medicines: []Medicine{},
		Schedules: []ScheduleEntry{},
		Timeline:  []TimelineEvent{},
		Alerts:    []Alert{},
		Inventory: InventorySnapshot{
			LowStock:     []LowStockItem{},
			ExpiringSoon: []ExpiryItem{},
			Expired:      []ExpiredItem{},
			LastUpdated:  now,
		},
		Statistics: StatisticsSnapshot{
			Compliance:     map[string]int{},
			Labels:         WeekdayLabels,
			DailyBreakdown: map[string][]int{},
		},
	}
}

// mergeDefaults repairs a structurally partial document so downstream code
// never sees nil collections or missing metadata.
func (s *Store) mergeDefaults(doc *Document) {
	if doc.Metadata.Version == "" {
		doc.Metadata.Version = documentVersion
	}
	if doc.Metadata.Created.IsZero() {
		doc.Metadata.Created = s.now()
	}
	if doc.Users == nil {
		doc.Users = []User{}
	}
	if doc.Medicines == nil {
		doc.Medicines = []Medicine{}
	}
	if doc.Schedules == nil {
		doc.Schedules = []ScheduleEntry{}
	}
	if doc.Timeline == nil {
		doc.Timeline = []TimelineEvent{}
	}
	if doc.Alerts == nil {
		doc.Alerts = []Alert{}
	}
	if doc.Statistics.Compliance == nil {
		doc.Statistics.Compliance = map[string]int{}
	}
	if doc.Statistics.DailyBreakdown == nil {
		doc.Statistics.DailyBreakdown = map[string][]int{}
	}
	if len(doc.Statistics.Labels) != 7 {
		doc.Statistics.Labels = WeekdayLabels
	}
}

// save recomputes derived views and persists the document. Callers must
// hold s.mu.
//
// Order: recompute statistics and inventory, stamp lastUpdate, copy the
// previous on-disk version to the backup slot (best-effort), then write the
// new document via a temp file and rename so readers never observe a
// half-written file.
func (s *Store) save(doc *Document) error {
	now := s.now()
	RecomputeStatistics(doc, now, s.loc)
	RecomputeInventory(doc, now)
	doc.Metadata.LastUpdate = now

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("%w: creating data directory: %w", ErrStorage, err)
	}

	// Backup failure must not block the save.
	if s.backupPath != "" {
		if prev, err := os.ReadFile(s.path); err == nil {
			if err := os.WriteFile(s.backupPath, prev, 0o600); err != nil {
				s.logger.Warn("backup write failed", "path", s.backupPath, "error", err)
			}
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding document: %w", ErrStorage, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%w: writing document: %w", ErrStorage, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: replacing document: %w", ErrStorage, err)
	}

	s.emitMetrics(doc)
	s.logger.Debug("document saved",
		"users", len(doc.Users),
		"medicines", len(doc.Medicines),
		"schedules", len(doc.Schedules),
		"alerts", len(doc.Alerts))
	return nil
}

// emitMetrics pushes derived figures to the optional sink.
func (s *Store) emitMetrics(doc *Document) {
	if s.metrics == nil {
		return
	}
	for _, user := range doc.Users {
		s.metrics.RecordCompliance(user.ID, doc.Statistics.Compliance[UserKey(user.ID)])
	}
	s.metrics.RecordInventoryCounts(
		len(doc.Inventory.LowStock),
		len(doc.Inventory.ExpiringSoon),
		len(doc.Inventory.Expired))
}
