package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/medcab/medcab-core/internal/auth"
)

// ticketTTL is how long a WebSocket ticket remains valid after issue.
const ticketTTL = 60 * time.Second

// ticketCleanInterval is how often expired tickets are purged.
const ticketCleanInterval = 30 * time.Second

// ticketStore holds single-use WebSocket authentication tickets.
//
// Browsers cannot set Authorization headers on WebSocket upgrades, so the
// client first trades its bearer token for a short-lived ticket and passes
// that as a query parameter instead. Tickets are consumed on first use.
type ticketStore struct {
	mu      sync.Mutex
	tickets map[string]time.Time
}

func newTicketStore() *ticketStore {
	return &ticketStore{
		tickets: make(map[string]time.Time),
	}
}

// issue creates a new single-use ticket.
func (t *ticketStore) issue() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	ticket := hex.EncodeToString(b)

	t.mu.Lock()
	t.tickets[ticket] = time.Now().Add(ticketTTL)
	t.mu.Unlock()

	return ticket, nil
}

// consume validates and burns a ticket. A ticket is valid exactly once.
func (t *ticketStore) consume(ticket string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	expiry, ok := t.tickets[ticket]
	if !ok {
		return false
	}
	delete(t.tickets, ticket)

	return time.Now().Before(expiry)
}

// clean removes expired tickets.
func (t *ticketStore) clean() {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	for ticket, expiry := range t.tickets {
		if now.After(expiry) {
			delete(t.tickets, ticket)
		}
	}
}

// cleanTicketsLoop periodically purges expired tickets until ctx ends.
func (s *Server) cleanTicketsLoop() {
	ticker := time.NewTicker(ticketCleanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tickets.clean()
		}
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// handleLogin authenticates the administrative account and issues a JWT.
//
// POST /api/v1/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	admin := s.security.Admin
	if admin.PasswordHash == "" {
		s.logger.Error("login attempted but no admin password hash configured")
		writeUnavailable(w, "authentication not configured")
		return
	}

	// Verify the password even on a username mismatch so both failure
	// modes take comparable time.
	match, err := auth.VerifyPassword(req.Password, admin.PasswordHash)
	if err != nil {
		s.logger.Error("password verification failed", "error", err)
		writeInternalError(w, "authentication failure")
		return
	}

	if req.Username != admin.Username || !match {
		s.logger.Warn("login rejected",
			"username", req.Username,
			"remote", r.RemoteAddr,
		)
		writeUnauthorized(w, "invalid credentials")
		return
	}

	ttl := s.security.JWT.AccessTokenTTL
	if ttl <= 0 {
		ttl = 15
	}

	token, err := auth.GenerateAccessToken(req.Username, s.security.JWT.Secret, ttl)
	if err != nil {
		s.logger.Error("token generation failed", "error", err)
		writeInternalError(w, "authentication failure")
		return
	}

	s.logger.Info("login succeeded", "username", req.Username)

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   ttl * 60,
	})
}

// handleWSTicket issues a single-use WebSocket ticket.
//
// POST /api/v1/auth/ws-ticket (requires bearer token)
func (s *Server) handleWSTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := s.tickets.issue()
	if err != nil {
		s.logger.Error("ticket generation failed", "error", err)
		writeInternalError(w, "ticket generation failure")
		return
	}

	if claims := getClaims(r.Context()); claims != nil {
		s.logger.Debug("websocket ticket issued", "session_id", claims.SessionID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ticket":     ticket,
		"expires_in": int(ticketTTL.Seconds()),
	})
}
