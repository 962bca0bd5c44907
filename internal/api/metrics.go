package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/medcab/medcab-core/internal/scheduler"
)

// SystemMetrics is the operational snapshot returned by the metrics
// endpoint.
type SystemMetrics struct {
	Timestamp     string            `json:"timestamp"`
	Version       string            `json:"version"`
	UptimeSeconds float64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics    `json:"runtime"`
	WebSocket     WSMetrics         `json:"websocket"`
	MQTT          MQTTMetrics       `json:"mqtt"`
	Scheduler     *scheduler.Status `json:"scheduler,omitempty"`
	Document      DocumentMetrics   `json:"document"`
}

// RuntimeMetrics reports Go runtime health.
type RuntimeMetrics struct {
	Goroutines   int    `json:"goroutines"`
	MemAllocMB   uint64 `json:"mem_alloc_mb"`
	MemSysMB     uint64 `json:"mem_sys_mb"`
	NumGC        uint32 `json:"num_gc"`
	GCPauseTotal uint64 `json:"gc_pause_total_ns"`
}

// WSMetrics reports WebSocket hub state.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// MQTTMetrics reports event bus state.
type MQTTMetrics struct {
	Configured bool `json:"configured"`
	Connected  bool `json:"connected"`
}

// DocumentMetrics reports document entity counts.
type DocumentMetrics struct {
	Users     int `json:"users"`
	Medicines int `json:"medicines"`
	Schedules int `json:"schedules"`
	Alerts    int `json:"alerts"`
	Timeline  int `json:"timeline"`
}

const bytesPerMB = 1024 * 1024

// handleMetrics returns an operational snapshot of the process.
//
// GET /api/v1/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: time.Since(s.startTime).Seconds(),
		Runtime: RuntimeMetrics{
			Goroutines:   runtime.NumGoroutine(),
			MemAllocMB:   mem.Alloc / bytesPerMB,
			MemSysMB:     mem.Sys / bytesPerMB,
			NumGC:        mem.NumGC,
			GCPauseTotal: mem.PauseTotalNs,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
		MQTT: MQTTMetrics{
			Configured: s.mqtt != nil,
			Connected:  s.mqtt != nil && s.mqtt.IsConnected(),
		},
	}

	if s.sched != nil {
		status := s.sched.Status()
		metrics.Scheduler = &status
	}

	// Entity counts are best-effort; a store failure leaves them zero.
	if doc, err := s.store.Load(); err == nil {
		metrics.Document = DocumentMetrics{
			Users:     len(doc.Users),
			Medicines: len(doc.Medicines),
			Schedules: len(doc.Schedules),
			Alerts:    len(doc.Alerts),
			Timeline:  len(doc.Timeline),
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
