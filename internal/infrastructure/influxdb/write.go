package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordCompliance writes a user's rolling 7-day adherence percentage.
//
// The store calls this after every save, so the series tracks the derived
// figure over time even though the document only holds the latest value.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - userID: The user the percentage belongs to
//   - percent: Adherence percentage, 0-100
func (c *Client) RecordCompliance(userID int64, percent int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"adherence",
		map[string]string{
			"user_id": strconv.FormatInt(userID, 10),
		},
		map[string]interface{}{
			"percent": percent,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordInventoryCounts writes the current inventory risk counts.
//
// Parameters:
//   - lowStock: Medicines at or below their minimum threshold
//   - expiringSoon: Medicines inside the expiry warning horizon
//   - expired: Medicines past their expiry date
func (c *Client) RecordInventoryCounts(lowStock, expiringSoon, expired int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"inventory",
		nil,
		map[string]interface{}{
			"low_stock":     lowStock,
			"expiring_soon": expiringSoon,
			"expired":       expired,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordReminderOutcome writes a reminder dispatch outcome.
//
// Parameters:
//   - userID: The user the reminder was for
//   - deviceOK: Whether the cabinet device acknowledged the alert
func (c *Client) RecordReminderOutcome(userID int64, deviceOK bool) {
	if !c.IsConnected() {
		return
	}

	ok := 0.0
	if deviceOK {
		ok = 1.0
	}

	point := write.NewPoint(
		"reminders",
		map[string]string{
			"user_id": strconv.FormatInt(userID, 10),
		},
		map[string]interface{}{
			"device_ok": ok,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
