package actuator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/medcab/medcab-core/internal/infrastructure/config"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(config.ActuatorConfig{
		BaseURL:        server.URL,
		AuthToken:      "Token test-token",
		OnKey:          "on-key",
		OffKey:         "off-key",
		TimeoutSeconds: 2,
	}, nil)
	return client, server
}

func TestTurnOn_SendsExpectedPayload(t *testing.T) {
	var gotKey, gotSource, gotAuth string

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != triggerEndpoint {
			t.Errorf("path = %q, want %q", r.URL.Path, triggerEndpoint)
		}
		var payload triggerPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		gotKey = payload.Key
		gotSource = payload.Source
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))

	if !client.TurnOn(context.Background()) {
		t.Fatal("TurnOn() = false, want true")
	}

	if gotKey != "on-key" {
		t.Errorf("key = %q, want on-key", gotKey)
	}
	if gotSource != "internet" {
		t.Errorf("source = %q, want internet", gotSource)
	}
	if gotAuth != "Token test-token" {
		t.Errorf("auth = %q", gotAuth)
	}
}

func TestTurnOn_FailureBecomesFalse(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	if client.TurnOn(context.Background()) {
		t.Error("TurnOn() = true for 502 response, want false")
	}
}

func TestTurnOn_UnreachableBecomesFalse(t *testing.T) {
	client := New(config.ActuatorConfig{
		BaseURL:        "http://127.0.0.1:1",
		AuthToken:      "t",
		TimeoutSeconds: 1,
	}, nil)

	if client.TurnOn(context.Background()) {
		t.Error("TurnOn() = true for unreachable host, want false")
	}
}

func TestSendTimedReminder_AutoOff(t *testing.T) {
	var offCalls atomic.Int32

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload triggerPayload
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload.Key == "off-key" {
			offCalls.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))

	if !client.SendTimedReminder(context.Background(), 30*time.Millisecond) {
		t.Fatal("SendTimedReminder() = false, want true")
	}

	if client.PendingOffs() != 1 {
		t.Errorf("PendingOffs() = %d, want 1", client.PendingOffs())
	}

	deadline := time.After(2 * time.Second)
	for offCalls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("deferred turn-off never fired")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if client.PendingOffs() != 0 {
		t.Errorf("PendingOffs() = %d after auto-off, want 0", client.PendingOffs())
	}
}

func TestSendTimedReminder_NoOffWhenOnFails(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	if client.SendTimedReminder(context.Background(), 10*time.Millisecond) {
		t.Error("SendTimedReminder() = true when turn-on failed")
	}
	if client.PendingOffs() != 0 {
		t.Errorf("PendingOffs() = %d, want 0", client.PendingOffs())
	}
}

func TestClose_CancelsPendingAndTurnsOff(t *testing.T) {
	var offCalls atomic.Int32

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload triggerPayload
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload.Key == "off-key" {
			offCalls.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))

	if !client.SendTimedReminder(context.Background(), time.Hour) {
		t.Fatal("SendTimedReminder() = false, want true")
	}

	client.Close()

	if client.PendingOffs() != 0 {
		t.Errorf("PendingOffs() = %d after Close, want 0", client.PendingOffs())
	}
	if offCalls.Load() != 1 {
		t.Errorf("off calls = %d, want exactly 1 shutdown turn-off", offCalls.Load())
	}

	// Idempotent.
	client.Close()
	if offCalls.Load() != 1 {
		t.Errorf("off calls after second Close = %d, want 1", offCalls.Load())
	}
}

func TestTestConnectivity(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{name: "ok", status: http.StatusOK, want: true},
		{name: "client error is reachable", status: http.StatusNotFound, want: true},
		{name: "server error is reachable", status: http.StatusInternalServerError, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))

			if got := client.TestConnectivity(context.Background()); got != tt.want {
				t.Errorf("TestConnectivity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTestConnectivity_Unreachable(t *testing.T) {
	client := New(config.ActuatorConfig{
		BaseURL:        "http://127.0.0.1:1",
		TimeoutSeconds: 1,
	}, nil)

	if client.TestConnectivity(context.Background()) {
		t.Error("TestConnectivity() = true for unreachable host")
	}
}

func TestCheckinTrigger(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	trigger := NewCheckinTrigger(server.URL, time.Second, nil)
	if !trigger.Trigger(context.Background()) {
		t.Fatal("Trigger() = false, want true")
	}
	if path != "/trigger-checkin" {
		t.Errorf("path = %q, want /trigger-checkin", path)
	}
}

func TestCheckinTrigger_Disabled(t *testing.T) {
	trigger := NewCheckinTrigger("", time.Second, nil)
	if trigger.Trigger(context.Background()) {
		t.Error("Trigger() = true with no camera URL")
	}
}
