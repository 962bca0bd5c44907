package actuator

import (
	"context"
	"io"
	"net/http"
	"time"
)

// CheckinTrigger notifies the companion camera service that a reminder has
// fired, so it can start watching for the user taking their medicine.
// Fire-and-forget: failures are logged and ignored.
type CheckinTrigger struct {
	cameraURL  string
	httpClient *http.Client
	logger     Logger
}

// NewCheckinTrigger creates a trigger for the camera service at cameraURL.
// An empty URL disables the trigger; Trigger then always reports false.
func NewCheckinTrigger(cameraURL string, timeout time.Duration, logger Logger) *CheckinTrigger {
	if logger == nil {
		logger = noopLogger{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CheckinTrigger{
		cameraURL:  cameraURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Trigger asks the camera service to start a check-in session.
func (t *CheckinTrigger) Trigger(ctx context.Context) bool {
	if t.cameraURL == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cameraURL+"/trigger-checkin", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Warn("camera trigger failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	t.logger.Debug("camera trigger", "status", resp.StatusCode)
	return resp.StatusCode == http.StatusOK
}
