// Package config loads relayd's YAML configuration file: logging,
// the default channel, the generate_events poll budget, and the
// metrics/bridge listen addresses.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level document decoded from a relayd config file.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Bus     BusConfig     `yaml:"bus"`
	Metrics MetricsConfig `yaml:"metrics"`
	Bridge  BridgeConfig  `yaml:"bridge"`
}

// LogConfig controls pkg/log.Init.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// BusConfig controls the root manager's default behavior.
type BusConfig struct {
	// Channel is the manager's own default channel, "*" if unset.
	Channel string `yaml:"channel"`
	// GenerateEventsTimeout overrides bus.DefaultGenerateEventsTimeout.
	GenerateEventsTimeout time.Duration `yaml:"generateEventsTimeout"`
}

// MetricsConfig controls the optional Prometheus HTTP listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// BridgeConfig controls the optional process-link bridge listener.
type BridgeConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration relayd uses when no config file is
// given.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Bus: BusConfig{
			Channel:               "*",
			GenerateEventsTimeout: 100 * time.Millisecond,
		},
		Metrics: MetricsConfig{Enabled: true, Addr: ":9090"},
		Bridge:  BridgeConfig{Enabled: false, Addr: ":9191"},
	}
}

// Load reads and decodes the YAML config file at path, merged onto the
// defaults for any field the file omits.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
