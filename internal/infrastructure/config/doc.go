// Package config provides YAML-based configuration management for Medcab Core.
//
// Configuration is loaded in three layers, each overriding the last:
//
//  1. Hardcoded defaults (defaultConfig)
//  2. YAML file values
//  3. MEDCAB_* environment variables
//
// Secrets (actuator token, JWT secret, admin password hash, broker
// credentials) are expected to arrive via the environment rather than the
// YAML file, so the file can be committed without leaking credentials.
//
// Load performs full validation before returning; a Config that reaches the
// rest of the application is always internally consistent.
package config
