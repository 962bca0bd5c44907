package api

import (
	"encoding/json"
	"time"

	"github.com/medcab/medcab-core/internal/checkin"
	"github.com/medcab/medcab-core/internal/infrastructure/logging"
	"github.com/medcab/medcab-core/internal/infrastructure/mqtt"
	"github.com/medcab/medcab-core/internal/store"
)

// EventBridge fans domain events out to WebSocket clients and, when an
// MQTT client is configured, to the household event bus.
//
// It satisfies the Events interfaces of both the alert scheduler and the
// background monitor, so a single bridge instance is shared by every
// event producer in the process.
type EventBridge struct {
	hub     *Hub
	mqtt    *mqtt.Client
	topics  mqtt.Topics
	qos     byte
	logger  *logging.Logger
	metrics ReminderMetrics
}

// ReminderMetrics records reminder dispatch outcomes. Satisfied by
// *influxdb.Client.
type ReminderMetrics interface {
	RecordReminderOutcome(userID int64, deviceOK bool)
}

// NewEventBridge creates an event bridge.
//
// Parameters:
//   - hub: WebSocket hub to broadcast on (required)
//   - mqttClient: Event bus client, nil when MQTT is disabled
//   - qos: MQTT QoS level for event publishes
//   - logger: Structured logger
func NewEventBridge(hub *Hub, mqttClient *mqtt.Client, qos byte, logger *logging.Logger) *EventBridge {
	return &EventBridge{
		hub:    hub,
		mqtt:   mqttClient,
		qos:    qos,
		logger: logger,
	}
}

// SetMetrics attaches an optional reminder outcome recorder. Must be
// called before the bridge is shared across goroutines.
func (b *EventBridge) SetMetrics(m ReminderMetrics) {
	b.metrics = m
}

// reminderEvent is the wire shape of a fired reminder.
type reminderEvent struct {
	ScheduleID   int64  `json:"scheduleId"`
	UserID       int64  `json:"userId"`
	UserName     string `json:"userName"`
	MedicineName string `json:"medicineName"`
	Period       string `json:"period"`
	CustomTime   string `json:"customTime,omitempty"`
	DeviceOK     bool   `json:"deviceOk"`
	CameraOK     bool   `json:"cameraOk"`
	Timestamp    string `json:"timestamp"`
}

// ReminderFired broadcasts a dispatched reminder.
//
// The schedule list and alert list both change as a side effect of a
// reminder (attempt count, new alert), so those channels fire too.
func (b *EventBridge) ReminderFired(rec *store.ReminderRecord, deviceOK, cameraOK bool) {
	event := reminderEvent{
		ScheduleID:   rec.Schedule.ID,
		UserID:       rec.User.ID,
		UserName:     rec.User.Name,
		MedicineName: rec.Medicine.Name,
		Period:       string(rec.Schedule.Period),
		CustomTime:   rec.Schedule.CustomTime,
		DeviceOK:     deviceOK,
		CameraOK:     cameraOK,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}

	b.hub.Broadcast(ChannelReminderFired, event)
	b.hub.Broadcast(ChannelScheduleUpdated, map[string]any{"scheduleId": rec.Schedule.ID})
	b.hub.Broadcast(ChannelAlertsUpdated, nil)

	b.publish(b.topics.ReminderFired(), event)

	if b.metrics != nil {
		b.metrics.RecordReminderOutcome(rec.User.ID, deviceOK)
	}
}

// AlertsChanged broadcasts that the alert list was modified.
func (b *EventBridge) AlertsChanged() {
	b.hub.Broadcast(ChannelAlertsUpdated, nil)
	b.publish(b.topics.AlertsUpdated(), map[string]string{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// checkinEvent is the wire shape of a confirmed check-in.
type checkinEvent struct {
	UserID       int64  `json:"userId"`
	UserName     string `json:"userName,omitempty"`
	MedicineName string `json:"medicineName,omitempty"`
	Status       string `json:"status,omitempty"`
	Matched      bool   `json:"matched"`
	Timestamp    string `json:"timestamp"`
}

// CheckinConfirmed broadcasts a resolved check-in.
func (b *EventBridge) CheckinConfirmed(result *checkin.Result) {
	event := checkinEvent{
		UserID:       result.UserID,
		UserName:     result.UserName,
		MedicineName: result.MedicineName,
		Status:       string(result.Status),
		Matched:      result.Matched,
		Timestamp:    result.Timestamp.UTC().Format(time.RFC3339),
	}

	b.hub.Broadcast(ChannelCheckinConfirmed, event)
	b.publish(b.topics.CheckinConfirmed(), event)
}

// publish serialises and publishes an event to the bus. Failures are
// logged and swallowed; the bus is best-effort.
func (b *EventBridge) publish(topic string, payload any) {
	if b.mqtt == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("event payload marshal failed", "topic", topic, "error", err)
		return
	}

	if err := b.mqtt.Publish(topic, data, b.qos, false); err != nil {
		b.logger.Warn("event publish failed", "topic", topic, "error", err)
	}
}
