// Medcab Core - Medication Schedule & Alert Engine
//
// This is the main entry point for the Medcab Core application.
// Medcab runs a household medicine cabinet:
//   - Dated dosing schedules with per-entry alert triggers
//   - Physical cabinet alerts (LED + buzzer) over the vendor device API
//   - Check-in resolution from camera or dashboard confirmations
//   - Stock and expiry monitoring with derived adherence statistics
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/medcab/medcab-core/internal/actuator"
	"github.com/medcab/medcab-core/internal/api"
	"github.com/medcab/medcab-core/internal/checkin"
	"github.com/medcab/medcab-core/internal/infrastructure/config"
	"github.com/medcab/medcab-core/internal/infrastructure/influxdb"
	"github.com/medcab/medcab-core/internal/infrastructure/logging"
	"github.com/medcab/medcab-core/internal/infrastructure/mqtt"
	"github.com/medcab/medcab-core/internal/monitor"
	"github.com/medcab/medcab-core/internal/scheduler"
	"github.com/medcab/medcab-core/internal/store"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Pick up a local .env before reading config; absence is fine.
	_ = godotenv.Load()

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Medcab Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	loc := cfg.Location()

	// Open the document store
	st := store.New(cfg.Store.Path, cfg.Store.BackupPath, loc, log.With("component", "store"))
	if _, err := st.Load(); err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}
	log.Info("document store ready", "path", cfg.Store.Path, "timezone", loc.String())

	// Connect to InfluxDB (optional) and wire it as the store's metrics sink
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		st.SetMetricsSink(influxClient)
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Connect to the MQTT event bus (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()

		mqttClient.SetLogger(log.With("component", "mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled, events go out over WebSocket only")
	}

	// Cabinet alert device and check-in camera
	device := actuator.New(cfg.Actuator, log.With("component", "actuator"))
	defer func() {
		log.Info("stopping actuator, cancelling pending device-off timers")
		device.Close()
	}()

	var camera *actuator.CheckinTrigger
	if cfg.Checkin.CameraURL != "" {
		camera = actuator.NewCheckinTrigger(cfg.Checkin.CameraURL, cfg.CheckinTimeout(), log.With("component", "checkin-camera"))
	} else {
		log.Info("check-in camera disabled")
	}

	// WebSocket hub and event bridge are created up front so the
	// scheduler and monitor can broadcast through them.
	hub := api.NewHub(log.With("component", "websocket"))
	// #nosec G115 -- QoS validated to 0..2 by config
	events := api.NewEventBridge(hub, mqttClient, byte(cfg.MQTT.QoS), log.With("component", "events"))
	if influxClient != nil {
		events.SetMetrics(influxClient)
	}

	// Alert scheduler: one trigger per pending entry
	sched := scheduler.New(
		st,
		device,
		schedulerCamera(camera),
		events,
		loc,
		time.Duration(cfg.Actuator.ReminderSeconds)*time.Second,
		log.With("component", "scheduler"),
	)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Background sweeps: overdue reminders and stock/expiry health
	mon := monitor.New(st, device, events, loc, monitor.Config{
		ReminderInterval:      time.Duration(cfg.Monitor.ReminderIntervalSeconds) * time.Second,
		HealthInterval:        time.Duration(cfg.Monitor.HealthIntervalMinutes) * time.Minute,
		HealthInitialDelay:    time.Duration(cfg.Monitor.HealthInitialDelaySeconds) * time.Second,
		SweepReminderDuration: time.Duration(cfg.Actuator.SweepReminderSeconds) * time.Second,
	}, log.With("component", "monitor"))
	mon.Start(ctx)
	defer mon.Stop()

	// Check-in resolver
	resolver := checkin.New(st, loc, log.With("component", "checkin"))

	// API server
	apiDeps := api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Security:    cfg.Security,
		Logger:      log.With("component", "api"),
		Store:       st,
		Scheduler:   sched,
		Resolver:    resolver,
		MQTT:        mqttClient,
		Events:      events,
		ExternalHub: hub,
		Version:     version,
	}
	if cfg.Actuator.BaseURL != "" {
		apiDeps.Actuator = device
	}

	apiServer, err := api.New(apiDeps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, apiServer, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server (stops accepting requests, disconnects WebSockets)
	// 2. Monitor sweeps
	// 3. Scheduler triggers
	// 4. Actuator off-timers
	// 5. MQTT (if enabled)
	// 6. InfluxDB (if enabled)

	log.Info("Medcab Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses MEDCAB_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MEDCAB_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// schedulerCamera converts a possibly-nil camera into the scheduler's
// interface. A typed nil would defeat the scheduler's nil check.
func schedulerCamera(camera *actuator.CheckinTrigger) scheduler.CheckinNotifier {
	if camera == nil {
		return nil
	}
	return camera
}

// healthCheck verifies infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - apiServer: API server, checked via its store dependency
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, apiServer *api.Server, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
