package store

import (
	"math"
	"time"
)

// expiryWarningDays is the "expiring soon" horizon.
const expiryWarningDays = 30

// RecomputeInventory rebuilds the document's inventory snapshot from
// scratch. It is a pure function of doc.Medicines and doc.Schedules at the
// given instant.
//
// Classification rules:
//   - Low stock: quantity <= minThreshold. DaysRemaining estimates how long
//     the stock lasts at the medicine's current dosing frequency (pending
//     schedules spread over a week); with no pending schedules the frequency
//     is unknown and the raw quantity is reported.
//   - Expiry: daysToExpiry = ceil((expiryDate - now) / 24h). Expired when
//     <= 0, expiring soon when in (0, 30].
//
// The checks are independent; a medicine may appear in several categories.
func RecomputeInventory(doc *Document, now time.Time) {
	inv := InventorySnapshot{
		TotalMedicines: len(doc.Medicines),
		LowStock:       []LowStockItem{},
		ExpiringSoon:   []ExpiryItem{},
		Expired:        []ExpiredItem{},
		LastUpdated:    now,
	}

	for _, med := range doc.Medicines {
		if med.Quantity <= med.MinThreshold {
			inv.LowStock = append(inv.LowStock, LowStockItem{
				ID:            med.ID,
				Name:          med.Name,
				Quantity:      med.Quantity,
				Threshold:     med.MinThreshold,
				DaysRemaining: daysRemaining(&med, doc.Schedules),
			})
		}

		if med.ExpiryDate == "" {
			continue
		}
		expiry, err := time.Parse(DateLayout, med.ExpiryDate)
		if err != nil {
			continue
		}
		daysToExpiry := int(math.Ceil(expiry.Sub(now).Hours() / 24))

		switch {
		case daysToExpiry <= 0:
			inv.Expired = append(inv.Expired, ExpiredItem{
				ID:          med.ID,
				Name:        med.Name,
				ExpiryDate:  med.ExpiryDate,
				DaysExpired: -daysToExpiry,
			})
		case daysToExpiry <= expiryWarningDays:
			inv.ExpiringSoon = append(inv.ExpiringSoon, ExpiryItem{
				ID:           med.ID,
				Name:         med.Name,
				ExpiryDate:   med.ExpiryDate,
				DaysToExpiry: daysToExpiry,
			})
		}
	}

	doc.Inventory = inv
}

// daysRemaining estimates how many days a medicine's stock lasts, assuming
// its pending schedules represent a weekly dosing pattern.
func daysRemaining(med *Medicine, schedules []ScheduleEntry) int {
	pending := 0
	for _, entry := range schedules {
		if entry.MedicineID == med.ID && entry.Status == SchedulePending {
			pending++
		}
	}
	if pending == 0 {
		return med.Quantity
	}
	dailyFrequency := float64(pending) / 7
	return int(math.Floor(float64(med.Quantity) / dailyFrequency))
}
