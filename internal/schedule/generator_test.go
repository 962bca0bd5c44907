package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/medcab/medcab-core/internal/store"
)

// Monday 5 January 2026, 08:00 UTC.
var monday = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

func testDoc() *store.Document {
	return &store.Document{
		Users: []store.User{{ID: 1, Name: "An", IsActive: true}},
		Medicines: []store.Medicine{
			{ID: 100, Name: "Paracetamol", Dosage: "500mg", Quantity: 20, MinThreshold: 5},
		},
	}
}

func TestGenerate_InclusiveDayRange(t *testing.T) {
	// A Monday-only mask over a 7-day duration starting on a Monday covers
	// both endpoint Mondays: exactly 2 entries per medicine.
	doc := testDoc()

	entries, err := Generate(doc, Request{
		UserID:            1,
		Weekdays:          []int{1}, // Monday
		Period:            store.PeriodMorning,
		UsageDurationDays: 7,
		Medicines:         []MedicineRef{{Name: "Paracetamol"}},
	}, monday, time.UTC)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Date != "2026-01-05" || entries[1].Date != "2026-01-12" {
		t.Errorf("dates = %q, %q; want both Mondays", entries[0].Date, entries[1].Date)
	}
}

func TestGenerate_EveryDayMask(t *testing.T) {
	doc := testDoc()

	entries, err := Generate(doc, Request{
		UserID:            1,
		Weekdays:          []int{0, 1, 2, 3, 4, 5, 6},
		Period:            store.PeriodEvening,
		UsageDurationDays: 6,
		Medicines:         []MedicineRef{{Name: "Paracetamol"}},
	}, monday, time.UTC)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// 6-day duration spans 7 calendar days inclusive.
	if len(entries) != 7 {
		t.Errorf("got %d entries, want 7", len(entries))
	}
}

func TestGenerate_MultipleMedicinesPerDay(t *testing.T) {
	doc := testDoc()

	entries, err := Generate(doc, Request{
		UserID:            1,
		Weekdays:          []int{1},
		Period:            store.PeriodMorning,
		UsageDurationDays: 0,
		Medicines: []MedicineRef{
			{Name: "Paracetamol"},
			{Name: "Vitamin D", Category: "supplement"},
		},
	}, monday, time.UTC)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (one per medicine)", len(entries))
	}
	if entries[0].MedicineID == entries[1].MedicineID {
		t.Error("expected distinct medicine ids")
	}
}

func TestGenerate_AutoCreatesMedicine(t *testing.T) {
	doc := testDoc()

	_, err := Generate(doc, Request{
		UserID:            1,
		Weekdays:          []int{1},
		Period:            store.PeriodMorning,
		UsageDurationDays: 0,
		Medicines:         []MedicineRef{{Name: "Ibuprofen"}},
	}, monday, time.UTC)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(doc.Medicines) != 2 {
		t.Fatalf("got %d medicines, want 2", len(doc.Medicines))
	}

	created := doc.Medicines[1]
	if created.Name != "Ibuprofen" {
		t.Errorf("Name = %q", created.Name)
	}
	if created.Quantity != 30 || created.MinThreshold != 5 {
		t.Errorf("defaults = quantity %d threshold %d, want 30/5", created.Quantity, created.MinThreshold)
	}
	if created.Category != "other" {
		t.Errorf("Category = %q, want other", created.Category)
	}
}

func TestGenerate_ReusesExistingMedicineByName(t *testing.T) {
	doc := testDoc()

	entries, err := Generate(doc, Request{
		UserID:            1,
		Weekdays:          []int{1},
		Period:            store.PeriodMorning,
		UsageDurationDays: 0,
		Medicines:         []MedicineRef{{Name: "Paracetamol"}},
	}, monday, time.UTC)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(doc.Medicines) != 1 {
		t.Errorf("got %d medicines, want 1 (no auto-create)", len(doc.Medicines))
	}
	if entries[0].MedicineID != 100 {
		t.Errorf("MedicineID = %d, want 100", entries[0].MedicineID)
	}
}

func TestGenerate_EmptyMaskYieldsNothing(t *testing.T) {
	doc := testDoc()

	entries, err := Generate(doc, Request{
		UserID:            1,
		Weekdays:          nil,
		Period:            store.PeriodMorning,
		UsageDurationDays: 7,
		Medicines:         []MedicineRef{{Name: "Paracetamol"}},
	}, monday, time.UTC)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestGenerate_CustomTime(t *testing.T) {
	doc := testDoc()

	entries, err := Generate(doc, Request{
		UserID:            1,
		Weekdays:          []int{1},
		Period:            store.PeriodCustom,
		CustomTime:        "09:30",
		UsageDurationDays: 0,
		Medicines:         []MedicineRef{{Name: "Paracetamol"}},
	}, monday, time.UTC)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	h, m := entries[0].ReminderClock()
	if h != 9 || m != 30 {
		t.Errorf("ReminderClock() = %d:%02d, want 9:30", h, m)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{
			name: "unknown user",
			req: Request{
				UserID:    99,
				Weekdays:  []int{1},
				Period:    store.PeriodMorning,
				Medicines: []MedicineRef{{Name: "X"}},
			},
			wantErr: ErrUserNotFound,
		},
		{
			name: "unknown period",
			req: Request{
				UserID:    1,
				Weekdays:  []int{1},
				Period:    "brunch",
				Medicines: []MedicineRef{{Name: "X"}},
			},
			wantErr: ErrInvalidRequest,
		},
		{
			name: "custom without time",
			req: Request{
				UserID:    1,
				Weekdays:  []int{1},
				Period:    store.PeriodCustom,
				Medicines: []MedicineRef{{Name: "X"}},
			},
			wantErr: ErrInvalidRequest,
		},
		{
			name: "negative duration",
			req: Request{
				UserID:            1,
				Weekdays:          []int{1},
				Period:            store.PeriodMorning,
				UsageDurationDays: -1,
				Medicines:         []MedicineRef{{Name: "X"}},
			},
			wantErr: ErrInvalidRequest,
		},
		{
			name: "no medicines",
			req: Request{
				UserID:   1,
				Weekdays: []int{1},
				Period:   store.PeriodMorning,
			},
			wantErr: ErrInvalidRequest,
		},
		{
			name: "weekday out of range",
			req: Request{
				UserID:    1,
				Weekdays:  []int{7},
				Period:    store.PeriodMorning,
				Medicines: []MedicineRef{{Name: "X"}},
			},
			wantErr: ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testDoc()
			_, err := Generate(doc, tt.req, monday, time.UTC)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Generate() error = %v, want %v", err, tt.wantErr)
			}
			if len(doc.Schedules) != 0 || len(doc.Medicines) != 1 {
				t.Error("rejected request must not mutate the document")
			}
		})
	}
}
