// Package config provides YAML-based configuration loading for the
// workplace-layout service.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration, loaded from slworklog.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
	MySQL  MySQLConfig  `yaml:"mysql"`
	Sync   SyncConfig   `yaml:"sync"`
	Lease  LeaseConfig  `yaml:"lease"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// MySQLConfig holds connection settings for the MySQL server.
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// SyncConfig controls the change-notification coalescer.
type SyncConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
}

// LeaseConfig controls edit-lease heartbeat and expiry.
type LeaseConfig struct {
	HeartbeatSeconds int  `yaml:"heartbeat_seconds"`
	TimeoutSeconds   int  `yaml:"timeout_seconds"`
	Sweep            bool `yaml:"sweep"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.MySQL.Host == "" {
		c.MySQL.Host = "127.0.0.1"
	}
	if c.MySQL.Port == 0 {
		c.MySQL.Port = 3306
	}
	if c.MySQL.User == "" {
		c.MySQL.User = "root"
	}
	if c.Sync.DebounceMS == 0 {
		c.Sync.DebounceMS = 400
	}
	if c.Lease.HeartbeatSeconds == 0 {
		c.Lease.HeartbeatSeconds = 10
	}
	if c.Lease.TimeoutSeconds == 0 {
		c.Lease.TimeoutSeconds = 90
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.MySQL.Database == "" {
		errs = append(errs, "mysql.database is required")
	}
	if c.Sync.DebounceMS < 0 {
		errs = append(errs, "sync.debounce_ms must not be negative")
	}
	if c.Lease.TimeoutSeconds < c.Lease.HeartbeatSeconds {
		errs = append(errs, "lease.timeout_seconds must be >= lease.heartbeat_seconds")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DebounceWindow returns the coalescer debounce window as a duration.
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.Sync.DebounceMS) * time.Millisecond
}

// HeartbeatInterval returns the lease heartbeat interval as a duration.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Lease.HeartbeatSeconds) * time.Second
}

// LeaseTimeout returns the lease staleness cutoff as a duration.
func (c *Config) LeaseTimeout() time.Duration {
	return time.Duration(c.Lease.TimeoutSeconds) * time.Second
}
