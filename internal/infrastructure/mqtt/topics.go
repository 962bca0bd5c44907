package mqtt

import "fmt"

// Topic prefixes for the Medcab event bus.
//
// All topics use the flat scheme: medcab/{category}/{name}
const (
	// TopicPrefix is the base for all Medcab topics.
	TopicPrefix = "medcab"

	// TopicPrefixEvent is the base for medication event topics.
	TopicPrefixEvent = "medcab/event"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "medcab/system"

	// TopicPrefixSensor is the base for cabinet sensor topics.
	TopicPrefixSensor = "medcab/sensor"
)

// Topics provides builders for Medcab MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
type Topics struct{}

// Event returns the topic for a named medication event.
//
// Example: medcab/event/reminder
func (Topics) Event(eventType string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixEvent, eventType)
}

// ReminderFired returns the topic for reminder dispatch events.
//
// Example: medcab/event/reminder
func (t Topics) ReminderFired() string {
	return t.Event("reminder")
}

// CheckinConfirmed returns the topic for check-in confirmation events.
//
// Example: medcab/event/checkin
func (t Topics) CheckinConfirmed() string {
	return t.Event("checkin")
}

// AlertsUpdated returns the topic for alert list change events.
//
// Example: medcab/event/alerts
func (t Topics) AlertsUpdated() string {
	return t.Event("alerts")
}

// SystemStatus returns the Core online/offline status topic.
//
// Example: medcab/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SensorStatus returns the cabinet environmental sensor feed topic.
// The cabinet publishes temperature and humidity readings here.
//
// Example: medcab/sensor/status
func (Topics) SensorStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSensor)
}

// AllEvents returns a pattern matching all medication events.
//
// Pattern: medcab/event/+
func (Topics) AllEvents() string {
	return fmt.Sprintf("%s/+", TopicPrefixEvent)
}

// AllTopics returns a pattern matching all Medcab topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: medcab/#
func (Topics) AllTopics() string {
	return "medcab/#"
}
