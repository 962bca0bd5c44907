package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/medcab/medcab-core/internal/infrastructure/logging"
	"github.com/medcab/medcab-core/internal/infrastructure/mqtt"
	"github.com/medcab/medcab-core/internal/store"
)

// Event channels clients can subscribe to.
const (
	ChannelScheduleUpdated  = "schedule.updated"
	ChannelUsersUpdated     = "users.updated"
	ChannelMedicinesUpdated = "medicines.updated"
	ChannelAlertsUpdated    = "alerts.updated"
	ChannelReminderFired    = "reminder.fired"
	ChannelCheckinConfirmed = "checkin.confirmed"
	ChannelSystemStatus     = "system.status"
	ChannelStatsUpdated     = "stats.updated"
	ChannelInventoryUpdated = "inventory.updated"
)

// WSMessage is the envelope for all WebSocket messages in both directions.
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Channel   string          `json:"channel,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// WebSocket message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"
)

// wsSendBufferSize is the per-client outbound queue depth. A client that
// falls this far behind is disconnected rather than blocking the hub.
const wsSendBufferSize = 256

// WSClient represents one connected dashboard session.
type WSClient struct {
	id            string
	conn          *websocket.Conn
	send          chan WSMessage
	subscriptions map[string]bool
	mu            sync.RWMutex
}

// subscribed reports whether the client listens on a channel.
func (c *WSClient) subscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subscriptions[channel]
}

// Hub fans events out to connected WebSocket clients.
type Hub struct {
	clients map[*WSClient]bool
	mu      sync.RWMutex
	logger  *logging.Logger
}

// NewHub creates a WebSocket hub.
//
// The hub is created by the API server unless an external one is injected
// through Deps, which lets event producers broadcast before Start runs.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		clients: make(map[*WSClient]bool),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("websocket client connected", "client_id", client.id, "total", count)
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("websocket client disconnected", "client_id", client.id, "total", count)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to every client subscribed to the channel.
//
// The payload is serialised once; slow clients are dropped rather than
// allowed to stall the broadcast.
func (h *Hub) Broadcast(channel string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("broadcast payload marshal failed", "channel", channel, "error", err)
		return
	}

	msg := WSMessage{
		Type:      WSTypeEvent,
		Channel:   channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   raw,
	}

	// Snapshot under read lock, send outside it.
	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients))
	for client := range h.clients {
		if client.subscribed(channel) {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		h.trySend(client, msg)
	}
}

// trySend queues a message for a client, dropping the message if the
// client's buffer is full. The recover guards against a send racing the
// channel close in Unregister.
func (h *Hub) trySend(client *WSClient, msg WSMessage) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Debug("send to closing client", "client_id", client.id)
		}
	}()

	select {
	case client.send <- msg:
	default:
		h.logger.Warn("websocket client buffer full, dropping message",
			"client_id", client.id,
			"channel", msg.Channel,
		)
	}
}

// closeAll disconnects every client. Called during shutdown.
func (h *Hub) closeAll() {
	h.mu.Lock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()
}

// upgrader configures the HTTP to WebSocket upgrade.
//
// Origin checking is disabled here; the ticket requirement in
// handleWebSocket is the authentication gate.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWebSocket upgrades a ticket-authenticated connection and runs
// the client's read and write pumps.
//
// GET /ws?ticket=<ticket>
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ticket := r.URL.Query().Get("ticket")
	if ticket == "" || !s.tickets.consume(ticket) {
		writeUnauthorized(w, "missing or invalid ticket")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		id:            uuid.NewString(),
		conn:          conn,
		send:          make(chan WSMessage, wsSendBufferSize),
		subscriptions: make(map[string]bool),
	}

	s.hub.Register(client)

	go s.writePump(client)
	go s.readPump(client)
}

// readPump reads messages from the client until the connection drops.
func (s *Server) readPump(client *WSClient) {
	defer func() {
		s.hub.Unregister(client)
		client.conn.Close()
	}()

	maxSize := int64(s.ws.MaxMessageSize)
	if maxSize <= 0 {
		maxSize = 8192
	}
	pongTimeout := time.Duration(s.ws.PongTimeout) * time.Second
	if pongTimeout <= 0 {
		pongTimeout = 10 * time.Second
	}
	pingInterval := time.Duration(s.ws.PingInterval) * time.Second
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}

	client.conn.SetReadLimit(maxSize)
	deadline := pingInterval + pongTimeout
	//nolint:errcheck // Deadline errors surface on the next read
	client.conn.SetReadDeadline(time.Now().Add(deadline))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		var msg WSMessage
		if err := client.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read error", "client_id", client.id, "error", err)
			}
			return
		}

		s.handleClientMessage(client, msg)
	}
}

// writePump writes queued messages and keepalive pings to the client.
func (s *Server) writePump(client *WSClient) {
	pingInterval := time.Duration(s.ws.PingInterval) * time.Second
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}

	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	const writeWait = 10 * time.Second

	for {
		select {
		case msg, ok := <-client.send:
			//nolint:errcheck // Deadline errors surface on the write below
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				//nolint:errcheck // Connection is being torn down
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			//nolint:errcheck // Deadline errors surface on the write below
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleClientMessage dispatches an inbound client message.
func (s *Server) handleClientMessage(client *WSClient, msg WSMessage) {
	switch msg.Type {
	case WSTypeSubscribe:
		s.handleSubscribe(client, msg)
	case WSTypeUnsubscribe:
		s.handleUnsubscribe(client, msg)
	case WSTypePing:
		s.hub.trySend(client, WSMessage{
			Type:      WSTypePong,
			ID:        msg.ID,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	default:
		s.hub.trySend(client, WSMessage{
			Type:    WSTypeError,
			ID:      msg.ID,
			Payload: json.RawMessage(`{"message":"unknown message type"}`),
		})
	}
}

// handleSubscribe adds the client to the requested channel.
func (s *Server) handleSubscribe(client *WSClient, msg WSMessage) {
	if msg.Channel == "" {
		s.hub.trySend(client, WSMessage{
			Type:    WSTypeError,
			ID:      msg.ID,
			Payload: json.RawMessage(`{"message":"channel is required"}`),
		})
		return
	}

	client.mu.Lock()
	client.subscriptions[msg.Channel] = true
	client.mu.Unlock()

	s.hub.trySend(client, WSMessage{
		Type:    WSTypeResponse,
		ID:      msg.ID,
		Channel: msg.Channel,
		Payload: json.RawMessage(`{"subscribed":true}`),
	})
}

// handleUnsubscribe removes the client from the requested channel.
func (s *Server) handleUnsubscribe(client *WSClient, msg WSMessage) {
	client.mu.Lock()
	delete(client.subscriptions, msg.Channel)
	client.mu.Unlock()

	s.hub.trySend(client, WSMessage{
		Type:    WSTypeResponse,
		ID:      msg.ID,
		Channel: msg.Channel,
		Payload: json.RawMessage(`{"subscribed":false}`),
	})
}

// sensorReport is the payload the cabinet sensor publishes on
// medcab/sensor/status.
type sensorReport struct {
	Status      string   `json:"status"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
}

// subscribeSensorFeed relays cabinet sensor reports into the document's
// system status and on to WebSocket clients.
//
// Returns nil when MQTT is not configured; the sensor feed is optional.
func (s *Server) subscribeSensorFeed() error {
	if s.mqtt == nil {
		return nil
	}

	topics := mqtt.Topics{}

	return s.mqtt.Subscribe(topics.SensorStatus(), 1, func(topic string, payload []byte) error {
		var report sensorReport
		if err := json.Unmarshal(payload, &report); err != nil {
			s.logger.Warn("malformed sensor report", "error", err)
			return nil
		}

		update := store.SystemStatusUpdate{
			Temperature: report.Temperature,
			Humidity:    report.Humidity,
		}
		if report.Status != "" {
			update.Status = &report.Status
		}

		status, err := s.store.UpdateSystemStatus(update)
		if err != nil {
			s.logger.Error("sensor status update failed", "error", err)
			return nil
		}

		s.hub.Broadcast(ChannelSystemStatus, status)
		return nil
	})
}
