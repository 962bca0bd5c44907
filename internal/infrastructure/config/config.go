package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Medcab Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Store     StoreConfig     `yaml:"store"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Actuator  ActuatorConfig  `yaml:"actuator"`
	Checkin   CheckinConfig   `yaml:"checkin"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// SiteConfig contains household-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// StoreConfig contains document store settings.
//
// The store owns exactly one JSON document plus one rolling backup of the
// previous version; there is no other persistence in the system.
type StoreConfig struct {
	Path       string `yaml:"path"`
	BackupPath string `yaml:"backup_path"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// ActuatorConfig contains the IoT alert device (cabinet LED + buzzer) settings.
//
// The auth token and action keys identify this installation on the vendor
// platform and must be supplied via config file or environment, never
// hardcoded.
type ActuatorConfig struct {
	BaseURL        string `yaml:"base_url"`
	AuthToken      string `yaml:"auth_token"`
	OnKey          string `yaml:"on_key"`
	OffKey         string `yaml:"off_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`

	// ReminderSeconds is the alert duration for cron-triggered reminders.
	ReminderSeconds int `yaml:"reminder_seconds"`

	// SweepReminderSeconds is the (longer) alert duration used by the
	// periodic reminder sweep.
	SweepReminderSeconds int `yaml:"sweep_reminder_seconds"`
}

// CheckinConfig contains the companion check-in camera service settings.
type CheckinConfig struct {
	CameraURL      string `yaml:"camera_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// MonitorConfig contains periodic sweep intervals.
type MonitorConfig struct {
	ReminderIntervalSeconds   int `yaml:"reminder_interval_seconds"`
	HealthIntervalMinutes     int `yaml:"health_interval_minutes"`
	HealthInitialDelaySeconds int `yaml:"health_initial_delay_seconds"`
}

// MQTTConfig contains MQTT event-bus connection settings.
// The event bus is optional; when disabled, events go out over WebSocket only.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains adherence metrics settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT   JWTConfig   `yaml:"jwt"`
	Admin AdminConfig `yaml:"admin"`
}

// JWTConfig contains JWT token settings.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"`
}

// AdminConfig contains the single administrative login credential.
// PasswordHash is an Argon2id PHC string.
type AdminConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: MEDCAB_SECTION_KEY
// For example: MEDCAB_STORE_PATH, MEDCAB_ACTUATOR_TOKEN
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "home-001",
			Name:     "Medcab",
			Timezone: "UTC",
		},
		Store: StoreConfig{
			Path:       "./data/medcab.json",
			BackupPath: "./data/medcab.backup.json",
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Actuator: ActuatorConfig{
			TimeoutSeconds:       10,
			ReminderSeconds:      30,
			SweepReminderSeconds: 45,
		},
		Checkin: CheckinConfig{
			TimeoutSeconds: 5,
		},
		Monitor: MonitorConfig{
			ReminderIntervalSeconds:   60,
			HealthIntervalMinutes:     30,
			HealthInitialDelaySeconds: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "medcab-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 15,
			},
			Admin: AdminConfig{
				Username: "admin",
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: MEDCAB_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Store
	if v := os.Getenv("MEDCAB_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("MEDCAB_STORE_BACKUP_PATH"); v != "" {
		cfg.Store.BackupPath = v
	}

	// API
	if v := os.Getenv("MEDCAB_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// Actuator - credentials should always come from the environment
	if v := os.Getenv("MEDCAB_ACTUATOR_URL"); v != "" {
		cfg.Actuator.BaseURL = v
	}
	if v := os.Getenv("MEDCAB_ACTUATOR_TOKEN"); v != "" {
		cfg.Actuator.AuthToken = v
	}
	if v := os.Getenv("MEDCAB_ACTUATOR_ON_KEY"); v != "" {
		cfg.Actuator.OnKey = v
	}
	if v := os.Getenv("MEDCAB_ACTUATOR_OFF_KEY"); v != "" {
		cfg.Actuator.OffKey = v
	}

	// Check-in camera
	if v := os.Getenv("MEDCAB_CHECKIN_CAMERA_URL"); v != "" {
		cfg.Checkin.CameraURL = v
	}

	// MQTT
	if v := os.Getenv("MEDCAB_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MEDCAB_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("MEDCAB_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("MEDCAB_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Security - JWT secret (IMPORTANT: always override in production)
	if v := os.Getenv("MEDCAB_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
	if v := os.Getenv("MEDCAB_ADMIN_PASSWORD_HASH"); v != "" {
		cfg.Security.Admin.PasswordHash = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Site validation
	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}
	if c.Site.Timezone != "" {
		if _, err := time.LoadLocation(c.Site.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("site.timezone %q is not a valid IANA timezone", c.Site.Timezone))
		}
	}

	// Store validation
	if c.Store.Path == "" {
		errs = append(errs, "store.path is required")
	}
	if c.Store.BackupPath != "" && c.Store.BackupPath == c.Store.Path {
		errs = append(errs, "store.backup_path must differ from store.path")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Actuator validation - the vendor platform rejects anonymous calls,
	// so an enabled actuator without a token is a misconfiguration.
	if c.Actuator.BaseURL != "" && c.Actuator.AuthToken == "" {
		errs = append(errs, "actuator.auth_token is required when actuator.base_url is set (set MEDCAB_ACTUATOR_TOKEN)")
	}

	// Security validation - JWT secret is REQUIRED.
	// The API controls a physical alert device in someone's home; weak
	// secrets would let an attacker forge tokens and drive it.
	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set MEDCAB_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Location returns the configured timezone as a *time.Location.
// Falls back to UTC for an empty or unparsable value.
func (c *Config) Location() *time.Location {
	if c.Site.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Site.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// ActuatorTimeout returns the actuator HTTP timeout as a Duration.
func (c *Config) ActuatorTimeout() time.Duration {
	return time.Duration(c.Actuator.TimeoutSeconds) * time.Second
}

// CheckinTimeout returns the check-in camera HTTP timeout as a Duration.
func (c *Config) CheckinTimeout() time.Duration {
	return time.Duration(c.Checkin.TimeoutSeconds) * time.Second
}
