package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/medcab/medcab-core/internal/actuator"
	"github.com/medcab/medcab-core/internal/checkin"
	"github.com/medcab/medcab-core/internal/infrastructure/config"
	"github.com/medcab/medcab-core/internal/infrastructure/logging"
	"github.com/medcab/medcab-core/internal/infrastructure/mqtt"
	"github.com/medcab/medcab-core/internal/scheduler"
	"github.com/medcab/medcab-core/internal/store"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight
// requests to finish.
const gracefulShutdownTimeout = 10 * time.Second

// Deps carries the dependencies for the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig

	Logger    *logging.Logger
	Store     *store.Store
	Scheduler *scheduler.Scheduler
	Resolver  *checkin.Resolver

	// Actuator is the cabinet alert device. Optional; device endpoints
	// return 503 when absent.
	Actuator *actuator.Client

	// MQTT is the household event bus. Optional.
	MQTT *mqtt.Client

	// Events broadcasts domain events raised by API mutations. Optional;
	// nil disables the bus side of mutations (hub broadcasts still work).
	Events *EventBridge

	// ExternalHub injects a pre-built WebSocket hub so event producers
	// created before the server can share it. Optional.
	ExternalHub *Hub

	// Version is reported by the health and metrics endpoints.
	Version string
}

// Server is the HTTP API and WebSocket server.
type Server struct {
	cfg      config.APIConfig
	ws       config.WebSocketConfig
	security config.SecurityConfig

	logger   *logging.Logger
	store    *store.Store
	sched    *scheduler.Scheduler
	resolver *checkin.Resolver
	device   *actuator.Client
	mqtt     *mqtt.Client
	events   *EventBridge
	version  string

	hub     *Hub
	tickets *ticketStore
	server  *http.Server

	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// New creates an API server from its dependencies.
//
// Returns an error if a required dependency is missing.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, errors.New("api: logger is required")
	}
	if deps.Store == nil {
		return nil, errors.New("api: store is required")
	}
	if deps.Resolver == nil {
		return nil, errors.New("api: check-in resolver is required")
	}

	hub := deps.ExternalHub
	if hub == nil {
		hub = NewHub(deps.Logger)
	}

	s := &Server{
		cfg:      deps.Config,
		ws:       deps.WS,
		security: deps.Security,
		logger:   deps.Logger,
		store:    deps.Store,
		sched:    deps.Scheduler,
		resolver: deps.Resolver,
		device:   deps.Actuator,
		mqtt:     deps.MQTT,
		events:   deps.Events,
		version:  deps.Version,
		hub:      hub,
		tickets:  newTicketStore(),
	}

	return s, nil
}

// Hub returns the server's WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins serving HTTP requests.
//
// It is non-blocking; the listener runs in a goroutine until Close is
// called or the parent context ends.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.startTime = time.Now()

	go s.cleanTicketsLoop()

	if err := s.subscribeSensorFeed(); err != nil {
		// The API works without the sensor feed; log and continue.
		s.logger.Warn("sensor feed subscription failed", "error", err)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.buildRouter(),
		ReadTimeout:  time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("api server starting with TLS", "addr", addr)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("api server starting", "addr", addr)
			err = s.server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server stopped", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts the server down.
//
// In-flight requests get gracefulShutdownTimeout to complete; WebSocket
// clients are disconnected.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}

	s.hub.closeAll()

	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}

	s.logger.Info("api server stopped")
	return nil
}

// HealthCheck reports whether the server's critical dependency (the
// document store) is functional.
func (s *Server) HealthCheck(ctx context.Context) error {
	if _, err := s.store.Load(); err != nil {
		return fmt.Errorf("store unavailable: %w", err)
	}
	return nil
}
