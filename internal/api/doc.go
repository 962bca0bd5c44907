// Package api implements the HTTP REST API and WebSocket server for Medcab Core.
//
// This package provides:
//   - REST endpoints for users, medicines, schedules, alerts, and check-ins
//   - WebSocket hub for real-time dashboard updates
//   - JWT authentication with ticket-based WebSocket auth
//   - Middleware stack (request ID, logging, recovery, CORS, body limits)
//   - TLS support for production deployments
//
// # Architecture
//
// The API server sits between the caregiver dashboard and the document
// store + alert scheduler. Mutations flow through the store's single-writer
// gate; resulting events (schedule changes, reminders fired, check-ins
// confirmed) are broadcast to WebSocket clients and, when the event bus is
// configured, published over MQTT for other household automation.
//
// # Security
//
// A single administrative account authenticates with an Argon2id password
// hash from configuration and receives a short-lived JWT. WebSocket
// connections use single-use tickets to keep the bearer token out of URLs.
//
// # Graceful Degradation
//
// The server operates without MQTT and without the alert device: reads,
// writes, and WebSocket connections work; only the hardware side effects
// are skipped.
package api
