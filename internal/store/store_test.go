package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newTestStore creates a Store in a temp directory with a fixed clock.
func newTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	dir := t.TempDir()
	s := New(filepath.Join(dir, "medcab.json"), filepath.Join(dir, "medcab.backup.json"), time.UTC, nil)
	s.now = func() time.Time { return now }
	return s
}

var testNow = time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC) // a Wednesday

func TestLoad_MissingFileCreatesDefault(t *testing.T) {
	s := newTestStore(t, testNow)

	doc, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(doc.Users) != 0 || len(doc.Medicines) != 0 || len(doc.Schedules) != 0 {
		t.Error("expected empty default document")
	}

	if doc.Metadata.Version == "" {
		t.Error("expected default document to carry a version")
	}

	// The default document must have been persisted.
	if _, err := os.Stat(s.path); err != nil {
		t.Errorf("expected default document on disk: %v", err)
	}
}

func TestLoad_CorruptFileFallsBackToDefault(t *testing.T) {
	s := newTestStore(t, testNow)

	if err := os.WriteFile(s.path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	doc, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(doc.Users) != 0 {
		t.Error("expected fresh default document after corrupt load")
	}
}

func TestLoad_PartialDocumentMergesDefaults(t *testing.T) {
	s := newTestStore(t, testNow)

	partial := `{"users": [{"id": 1, "name": "An", "isActive": true}]}`
	if err := os.WriteFile(s.path, []byte(partial), 0o600); err != nil {
		t.Fatalf("writing partial file: %v", err)
	}

	doc, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(doc.Users) != 1 {
		t.Fatalf("expected existing user preserved, got %d users", len(doc.Users))
	}

	if doc.Medicines == nil || doc.Schedules == nil || doc.Alerts == nil {
		t.Error("expected nil collections repaired")
	}

	if doc.Statistics.Compliance == nil || len(doc.Statistics.Labels) != 7 {
		t.Error("expected statistics structure repaired")
	}
}

func TestSave_RotatesBackup(t *testing.T) {
	s := newTestStore(t, testNow)

	if _, err := s.AddUser(UserInput{Name: "An"}); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	firstVersion, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatalf("reading document: %v", err)
	}

	if _, err := s.AddUser(UserInput{Name: "Binh"}); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}

	backup, err := os.ReadFile(s.backupPath)
	if err != nil {
		t.Fatalf("expected backup file: %v", err)
	}
	if string(backup) != string(firstVersion) {
		t.Error("backup should hold the previous on-disk version")
	}
}

func TestSave_DerivedViewsAreRecomputed(t *testing.T) {
	s := newTestStore(t, testNow)

	user, err := s.AddUser(UserInput{Name: "An"})
	if err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}

	doc, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// After any save the snapshots equal the pure recomputation.
	want := *doc
	RecomputeStatistics(&want, testNow, time.UTC)
	RecomputeInventory(&want, testNow)

	gotStats, _ := json.Marshal(doc.Statistics)
	wantStats, _ := json.Marshal(want.Statistics)
	if string(gotStats) != string(wantStats) {
		t.Errorf("statistics not a pure recomputation:\ngot  %s\nwant %s", gotStats, wantStats)
	}

	if _, ok := doc.Statistics.Compliance[UserKey(user.ID)]; !ok {
		t.Error("expected compliance key for new user")
	}
}

func TestUpdate_AbortsWithoutSaving(t *testing.T) {
	s := newTestStore(t, testNow)

	if _, err := s.AddUser(UserInput{Name: "An"}); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	before, _ := os.ReadFile(s.path)

	wantErr := errors.New("boom")
	if _, err := s.Update(func(doc *Document) error {
		doc.Users = nil
		return wantErr
	}); !errors.Is(err, wantErr) {
		t.Fatalf("Update() error = %v, want %v", err, wantErr)
	}

	after, _ := os.ReadFile(s.path)
	if string(before) != string(after) {
		t.Error("failed Update must not modify the on-disk document")
	}
}

type captureMetrics struct {
	compliance map[int64]int
	lowStock   int
	expiring   int
	expired    int
}

func (c *captureMetrics) RecordCompliance(userID int64, percent int) {
	if c.compliance == nil {
		c.compliance = map[int64]int{}
	}
	c.compliance[userID] = percent
}

func (c *captureMetrics) RecordInventoryCounts(lowStock, expiringSoon, expired int) {
	c.lowStock, c.expiring, c.expired = lowStock, expiringSoon, expired
}

func TestSave_EmitsMetrics(t *testing.T) {
	s := newTestStore(t, testNow)
	sink := &captureMetrics{}
	s.SetMetricsSink(sink)

	user, err := s.AddUser(UserInput{Name: "An"})
	if err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}

	if _, ok := sink.compliance[user.ID]; !ok {
		t.Error("expected compliance metric for new user")
	}
}
