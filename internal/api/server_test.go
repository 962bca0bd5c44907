package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/medcab/medcab-core/internal/auth"
	"github.com/medcab/medcab-core/internal/checkin"
	"github.com/medcab/medcab-core/internal/infrastructure/config"
	"github.com/medcab/medcab-core/internal/infrastructure/logging"
	"github.com/medcab/medcab-core/internal/store"
)

// ─── Test Fixtures ───────────────────────────────────────────────────────────

const testJWTSecret = "test-secret-0123456789abcdef0123456789"

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()

	dir := t.TempDir()
	st := store.New(
		filepath.Join(dir, "medcab.json"),
		filepath.Join(dir, "medcab.backup.json"),
		time.UTC,
		nil,
	)

	hash, err := auth.HashPassword("correct-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 8080,
			Timeouts: config.APITimeoutConfig{
				Read: 30, Write: 30, Idle: 60,
			},
		},
		WS: config.WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{
				Secret:         testJWTSecret,
				AccessTokenTTL: 15,
			},
			Admin: config.AdminConfig{
				Username:     "admin",
				PasswordHash: hash,
			},
		},
		Logger:   logging.Default(),
		Store:    st,
		Resolver: checkin.New(st, time.UTC, nil),
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return srv, st
}

func testToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateAccessToken("admin", testJWTSecret, 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	return token
}

func doRequest(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}

// ─── Health & Auth ───────────────────────────────────────────────────────────

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()

	rec := doRequest(t, router, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d, want 200", rec.Code)
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("health status = %v, want ok", body["status"])
	}
}

func TestLogin_Success(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/auth/login", "",
		loginRequest{Username: "admin", Password: "correct-password"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp loginResponse
	decodeBody(t, rec, &resp)
	if resp.AccessToken == "" {
		t.Error("access_token is empty")
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("token_type = %q, want Bearer", resp.TokenType)
	}

	// The issued token must pass the auth middleware.
	rec = doRequest(t, router, http.MethodGet, "/api/v1/users", resp.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated request status = %d, want 200", rec.Code)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/auth/login", "",
		loginRequest{Username: "admin", Password: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("login status = %d, want 401", rec.Code)
	}
}

func TestLogin_WrongUsername(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/auth/login", "",
		loginRequest{Username: "intruder", Password: "correct-password"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("login status = %d, want 401", rec.Code)
	}
}

func TestLogin_NotConfigured(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.security.Admin.PasswordHash = ""
	router := srv.buildRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/auth/login", "",
		loginRequest{Username: "admin", Password: "anything"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("login status = %d, want 503", rec.Code)
	}
}

func TestAuthMiddleware_RejectsMissingToken(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()

	rec := doRequest(t, router, http.MethodGet, "/api/v1/users", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", rec.Code)
	}
}

func TestAuthMiddleware_RejectsBadToken(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()

	rec := doRequest(t, router, http.MethodGet, "/api/v1/users", "not.a.token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}
}

// ─── Tickets ─────────────────────────────────────────────────────────────────

func TestTicketStore_SingleUse(t *testing.T) {
	ts := newTicketStore()

	ticket, err := ts.issue()
	if err != nil {
		t.Fatalf("issue() error = %v", err)
	}

	if !ts.consume(ticket) {
		t.Fatal("first consume() = false, want true")
	}
	if ts.consume(ticket) {
		t.Error("second consume() = true, want false")
	}
}

func TestTicketStore_UnknownTicket(t *testing.T) {
	ts := newTicketStore()
	if ts.consume("never-issued") {
		t.Error("consume() of unknown ticket = true, want false")
	}
}

func TestTicketStore_Expired(t *testing.T) {
	ts := newTicketStore()

	ticket, err := ts.issue()
	if err != nil {
		t.Fatalf("issue() error = %v", err)
	}

	ts.mu.Lock()
	ts.tickets[ticket] = time.Now().Add(-time.Second)
	ts.mu.Unlock()

	if ts.consume(ticket) {
		t.Error("consume() of expired ticket = true, want false")
	}
}

func TestWSTicketEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/auth/ws-ticket", testToken(t), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ws-ticket status = %d, want 200", rec.Code)
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	ticket, _ := body["ticket"].(string)
	if ticket == "" {
		t.Fatal("ticket is empty")
	}
	if !srv.tickets.consume(ticket) {
		t.Error("issued ticket did not validate")
	}
}

// ─── Users ───────────────────────────────────────────────────────────────────

func TestUsers_CreateListDelete(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()
	token := testToken(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/users", token,
		store.UserInput{Name: "Margaret"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	var created store.User
	decodeBody(t, rec, &created)
	if created.ID == 0 {
		t.Fatal("created user has no ID")
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/users", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	var users []store.User
	decodeBody(t, rec, &users)
	if len(users) != 1 || users[0].Name != "Margaret" {
		t.Errorf("users = %+v, want one user named Margaret", users)
	}

	rec = doRequest(t, router, http.MethodDelete,
		fmt.Sprintf("/api/v1/users/%d", created.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, router, http.MethodDelete,
		fmt.Sprintf("/api/v1/users/%d", created.ID), token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("repeat delete status = %d, want 404", rec.Code)
	}
}

func TestUsers_CreateRequiresName(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/users", testToken(t),
		store.UserInput{Name: "   "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("create status = %d, want 400", rec.Code)
	}
}

// ─── Medicines ───────────────────────────────────────────────────────────────

func TestMedicines_CreateAndDelete(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()
	token := testToken(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/medicines", token,
		store.MedicineInput{Name: "Paracetamol", Dosage: "500mg", Quantity: 20, MinThreshold: 5})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	var created store.Medicine
	decodeBody(t, rec, &created)

	rec = doRequest(t, router, http.MethodDelete,
		fmt.Sprintf("/api/v1/medicines/%d", created.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/medicines/99999", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing delete status = %d, want 404", rec.Code)
	}
}

func TestMedicines_RejectsBadExpiry(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/medicines", testToken(t),
		store.MedicineInput{Name: "Aspirin", ExpiryDate: "not-a-date"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("create status = %d, want 400", rec.Code)
	}
}

// ─── Schedules ───────────────────────────────────────────────────────────────

func TestSchedules_CreateGeneratesEntries(t *testing.T) {
	srv, st := newTestServer(t)
	router := srv.buildRouter()
	token := testToken(t)

	user, err := st.AddUser(store.UserInput{Name: "Arthur"})
	if err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}

	rec := doRequest(t, router, http.MethodPost, "/api/v1/schedules", token, map[string]any{
		"userId":            user.ID,
		"weekdays":          []int{0, 1, 2, 3, 4, 5, 6},
		"period":            "morning",
		"usageDurationDays": 2,
		"medicines":         []map[string]any{{"name": "Ibuprofen"}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Created []store.ScheduleEntry `json:"created"`
		Count   int                   `json:"count"`
	}
	decodeBody(t, rec, &resp)
	if resp.Count == 0 || len(resp.Created) != resp.Count {
		t.Errorf("count = %d with %d entries, want matching non-zero", resp.Count, len(resp.Created))
	}

	// The generator auto-creates medicines referenced by name.
	doc, err := st.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(doc.Medicines) != 1 || doc.Medicines[0].Name != "Ibuprofen" {
		t.Errorf("medicines = %+v, want auto-created Ibuprofen", doc.Medicines)
	}
}

func TestSchedules_CreateUnknownUser(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/schedules", testToken(t), map[string]any{
		"userId":            int64(12345),
		"weekdays":          []int{1},
		"period":            "morning",
		"usageDurationDays": 1,
		"medicines":         []map[string]any{{"name": "Ibuprofen"}},
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("create status = %d, want 404; body: %s", rec.Code, rec.Body.String())
	}
}

func TestSchedules_StatusUpdate(t *testing.T) {
	srv, st := newTestServer(t)
	router := srv.buildRouter()
	token := testToken(t)

	user, err := st.AddUser(store.UserInput{Name: "Arthur"})
	if err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	med, err := st.AddMedicine(store.MedicineInput{Name: "Ibuprofen", Quantity: 10})
	if err != nil {
		t.Fatalf("AddMedicine() error = %v", err)
	}

	var entry store.ScheduleEntry
	_, err = st.Update(func(doc *store.Document) error {
		entry = store.ScheduleEntry{
			ID:         store.NewID(),
			UserID:     user.ID,
			MedicineID: med.ID,
			Date:       st.Now().Format(store.DateLayout),
			Period:     store.PeriodMorning,
			Status:     store.SchedulePending,
			CreatedAt:  st.Now(),
		}
		doc.Schedules = append(doc.Schedules, entry)
		return nil
	})
	if err != nil {
		t.Fatalf("seeding schedule: %v", err)
	}

	rec := doRequest(t, router, http.MethodPatch,
		fmt.Sprintf("/api/v1/schedules/%d/status", entry.ID), token,
		scheduleStatusRequest{Status: "taken", ActualTime: time.Now().UTC().Format(time.RFC3339)})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var updated store.ScheduleEntry
	decodeBody(t, rec, &updated)
	if updated.Status != store.ScheduleTaken {
		t.Errorf("status = %s, want taken", updated.Status)
	}
}

func TestSchedules_StatusRejectsUnknownValue(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()

	rec := doRequest(t, router, http.MethodPatch, "/api/v1/schedules/1/status", testToken(t),
		scheduleStatusRequest{Status: "eaten"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("patch status = %d, want 400", rec.Code)
	}
}

// ─── Check-in ────────────────────────────────────────────────────────────────

func TestCheckin_UnknownUser(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/checkin", testToken(t),
		checkinRequest{UserID: 777})
	if rec.Code != http.StatusNotFound {
		t.Errorf("checkin status = %d, want 404", rec.Code)
	}
}

func TestCheckin_MatchesPendingDose(t *testing.T) {
	srv, st := newTestServer(t)
	router := srv.buildRouter()
	token := testToken(t)

	user, err := st.AddUser(store.UserInput{Name: "Arthur"})
	if err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	med, err := st.AddMedicine(store.MedicineInput{Name: "Ibuprofen", Quantity: 10})
	if err != nil {
		t.Fatalf("AddMedicine() error = %v", err)
	}

	// A custom-time dose scheduled exactly now resolves as taken.
	now := st.Now()
	var entry store.ScheduleEntry
	_, err = st.Update(func(doc *store.Document) error {
		entry = store.ScheduleEntry{
			ID:         store.NewID(),
			UserID:     user.ID,
			MedicineID: med.ID,
			Date:       now.Format(store.DateLayout),
			Period:     store.PeriodCustom,
			CustomTime: now.Format("15:04"),
			Status:     store.SchedulePending,
			CreatedAt:  now,
		}
		doc.Schedules = append(doc.Schedules, entry)
		return nil
	})
	if err != nil {
		t.Fatalf("seeding schedule: %v", err)
	}

	rec := doRequest(t, router, http.MethodPost, "/api/v1/checkin", token,
		checkinRequest{UserID: user.ID, Timestamp: now.Format(time.RFC3339)})
	if rec.Code != http.StatusOK {
		t.Fatalf("checkin status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var result checkin.Result
	decodeBody(t, rec, &result)
	if !result.Matched {
		t.Fatalf("matched = false, want true; reason: %s", result.Reason)
	}
	if result.Status != store.ScheduleTaken {
		t.Errorf("status = %s, want taken", result.Status)
	}
}

func TestCheckin_RejectsBadTimestamp(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/checkin", testToken(t),
		checkinRequest{UserID: 1, Timestamp: "yesterday"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("checkin status = %d, want 400", rec.Code)
	}
}

// ─── Alerts ──────────────────────────────────────────────────────────────────

func TestAlerts_CreateReadClear(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()
	token := testToken(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/alerts", token,
		alertRequest{Type: "warning", Message: "Cabinet left open", Priority: "high"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	var created store.Alert
	decodeBody(t, rec, &created)
	if created.Type != store.AlertWarning || created.IsRead {
		t.Errorf("created alert = %+v, want unread warning", created)
	}

	rec = doRequest(t, router, http.MethodPost,
		fmt.Sprintf("/api/v1/alerts/%d/read", created.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/alerts", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/alerts", token, nil)
	var alerts []store.Alert
	decodeBody(t, rec, &alerts)
	if len(alerts) != 0 {
		t.Errorf("alerts after clear = %d, want 0", len(alerts))
	}
}

func TestAlerts_CreateRejectsUnknownType(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/alerts", testToken(t),
		alertRequest{Type: "catastrophe", Message: "boom"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("create status = %d, want 400", rec.Code)
	}
}

// ─── State & User Images ─────────────────────────────────────────────────────

func TestStateSnapshot(t *testing.T) {
	srv, st := newTestServer(t)
	router := srv.buildRouter()

	if _, err := st.AddUser(store.UserInput{Name: "Margaret"}); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}

	rec := doRequest(t, router, http.MethodGet, "/api/v1/state", testToken(t), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("state status = %d, want 200", rec.Code)
	}

	var doc store.Document
	decodeBody(t, rec, &doc)
	if len(doc.Users) != 1 {
		t.Errorf("snapshot users = %d, want 1", len(doc.Users))
	}
	if doc.Statistics.Compliance == nil {
		t.Error("snapshot statistics missing")
	}
}

func TestUserImages(t *testing.T) {
	srv, st := newTestServer(t)
	router := srv.buildRouter()
	token := testToken(t)

	user, err := st.AddUser(store.UserInput{
		Name:    "Margaret",
		Avatars: []string{"margaret-1.jpg", "margaret-2.jpg"},
	})
	if err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}

	rec := doRequest(t, router, http.MethodGet,
		fmt.Sprintf("/api/v1/users/%d/images", user.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("images status = %d, want 200", rec.Code)
	}

	var resp struct {
		UserID int64    `json:"userId"`
		Images []string `json:"images"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Images) != 2 {
		t.Errorf("images = %v, want 2 entries", resp.Images)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/users/9999/images", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing user images status = %d, want 404", rec.Code)
	}
}

// ─── System & Metrics ────────────────────────────────────────────────────────

func TestSystemStatus_Update(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()
	token := testToken(t)

	status := "online"
	temp := 21.5
	rec := doRequest(t, router, http.MethodPut, "/api/v1/system/status", token,
		store.SystemStatusUpdate{Status: &status, Temperature: &temp})
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/system/status", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	var got store.SystemStatus
	decodeBody(t, rec, &got)
	if got.Status != "online" || got.Temperature != 21.5 {
		t.Errorf("system status = %+v, want online at 21.5", got)
	}
}

func TestDeviceTest_NoDevice(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/device/test", testToken(t), nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("device test status = %d, want 503", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.buildRouter()

	rec := doRequest(t, router, http.MethodGet, "/api/v1/metrics", testToken(t), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", rec.Code)
	}

	var metrics SystemMetrics
	decodeBody(t, rec, &metrics)
	if metrics.Version != "test" {
		t.Errorf("version = %q, want test", metrics.Version)
	}
	if metrics.Runtime.Goroutines == 0 {
		t.Error("goroutines = 0, want > 0")
	}
}

// ─── Hub ─────────────────────────────────────────────────────────────────────

func TestHub_BroadcastRespectsSubscriptions(t *testing.T) {
	hub := NewHub(logging.Default())

	subscribed := &WSClient{
		id:            "sub",
		send:          make(chan WSMessage, 4),
		subscriptions: map[string]bool{ChannelAlertsUpdated: true},
	}
	unsubscribed := &WSClient{
		id:            "unsub",
		send:          make(chan WSMessage, 4),
		subscriptions: map[string]bool{},
	}

	hub.Register(subscribed)
	hub.Register(unsubscribed)

	hub.Broadcast(ChannelAlertsUpdated, map[string]string{"k": "v"})

	select {
	case msg := <-subscribed.send:
		if msg.Channel != ChannelAlertsUpdated {
			t.Errorf("channel = %s, want %s", msg.Channel, ChannelAlertsUpdated)
		}
	default:
		t.Error("subscribed client received nothing")
	}

	select {
	case <-unsubscribed.send:
		t.Error("unsubscribed client received a message")
	default:
	}
}

func TestHub_DropsWhenBufferFull(t *testing.T) {
	hub := NewHub(logging.Default())

	client := &WSClient{
		id:            "slow",
		send:          make(chan WSMessage, 1),
		subscriptions: map[string]bool{ChannelAlertsUpdated: true},
	}
	hub.Register(client)

	// Second broadcast overflows the single-slot buffer; it must drop,
	// not block.
	hub.Broadcast(ChannelAlertsUpdated, nil)
	hub.Broadcast(ChannelAlertsUpdated, nil)

	if n := len(client.send); n != 1 {
		t.Errorf("queued messages = %d, want 1", n)
	}
}
