package actuator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medcab/medcab-core/internal/infrastructure/config"
)

// triggerEndpoint is the vendor platform's action endpoint.
const triggerEndpoint = "/api/chip_manager/trigger_action/"

// Logger is the minimal logging interface the actuator requires.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// triggerPayload is the action request body the platform expects.
type triggerPayload struct {
	Key    string `json:"key"`
	Source string `json:"source"`
}

// Client drives the cabinet's alert device over the vendor platform's HTTP
// API. All operations are best-effort: failures become false, never errors.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Client struct {
	baseURL    string
	authToken  string
	onKey      string
	offKey     string
	httpClient *http.Client
	logger     Logger

	mu      sync.Mutex
	pending map[string]*time.Timer // session id -> deferred off
	closed  bool
}

// New creates an actuator client from configuration.
//
// Parameters:
//   - cfg: Actuator configuration (base URL, token, action keys, timeout)
//   - logger: Logger for dispatch outcomes (nil for silent operation)
func New(cfg config.ActuatorConfig, logger Logger) *Client {
	if logger == nil {
		logger = noopLogger{}
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		authToken:  cfg.AuthToken,
		onKey:      cfg.OnKey,
		offKey:     cfg.OffKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		pending:    make(map[string]*time.Timer),
	}
}

// TurnOn activates the cabinet alert (LED and buzzer).
func (c *Client) TurnOn(ctx context.Context) bool {
	return c.triggerAction(ctx, c.onKey)
}

// TurnOff deactivates the cabinet alert.
func (c *Client) TurnOff(ctx context.Context) bool {
	return c.triggerAction(ctx, c.offKey)
}

// SendTimedReminder turns the alert on and, when that succeeds, schedules a
// deferred turn-off after the given duration. The deferred off is
// best-effort: its failure is logged, never retried, and never surfaced.
//
// Returns whether the initial turn-on succeeded.
func (c *Client) SendTimedReminder(ctx context.Context, duration time.Duration) bool {
	if !c.TurnOn(ctx) {
		c.logger.Warn("timed reminder: turn-on failed, no auto-off scheduled")
		return false
	}

	sessionID := uuid.NewString()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		// Shutdown raced the turn-on; do not leave the device sounding.
		c.TurnOff(context.Background())
		return true
	}
	c.pending[sessionID] = time.AfterFunc(duration, func() {
		c.mu.Lock()
		delete(c.pending, sessionID)
		c.mu.Unlock()

		if !c.TurnOff(context.Background()) {
			c.logger.Warn("timed reminder: deferred turn-off failed", "session_id", sessionID)
		}
	})
	c.mu.Unlock()

	c.logger.Debug("timed reminder dispatched", "session_id", sessionID, "duration", duration)
	return true
}

// TestConnectivity probes the platform's root endpoint. Any HTTP response,
// including server errors, proves the platform is reachable; only transport
// failures count as disconnected.
func (c *Client) TestConnectivity(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("connectivity test failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Debug("connectivity test", "status", resp.StatusCode)
	return true
}

// PendingOffs reports the number of deferred turn-offs currently tracked.
func (c *Client) PendingOffs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close cancels all outstanding deferred turn-offs. If any were pending,
// one best-effort turn-off is issued so the device is not left on after
// shutdown.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	hadPending := len(c.pending) > 0
	for id, timer := range c.pending {
		timer.Stop()
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if hadPending {
		if !c.TurnOff(context.Background()) {
			c.logger.Warn("shutdown turn-off failed; device may still be on")
		}
	}
	c.logger.Info("actuator client closed", "had_pending_offs", hadPending)
}

// triggerAction posts an action key to the platform. Success is any 2xx
// response; everything else, including transport errors, is false.
func (c *Client) triggerAction(ctx context.Context, key string) bool {
	body, err := json.Marshal(triggerPayload{Key: key, Source: "internet"})
	if err != nil {
		return false
	}

	url := fmt.Sprintf("%s%s", c.baseURL, triggerEndpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("building trigger request", "error", err)
		return false
	}
	req.Header.Set("Authorization", c.authToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("trigger request failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	c.logger.Debug("trigger action", "status", resp.StatusCode, "success", ok)
	return ok
}
