// Package config loads the application configuration from a YAML or JSON
// file with optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/respondhq/respond/core/metrics"
	"github.com/respondhq/respond/infra/position"
	"github.com/respondhq/respond/simulator"
)

type Config struct {
	HTTP       HTTPConfig       `json:"http"`
	Auth       AuthConfig       `json:"auth"`
	ETA        ETAConfig        `json:"eta"`
	Position   PositionConfig   `json:"position"`
	Simulation simulator.Config `json:"simulation"`
	Metrics    metrics.Config   `json:"metrics"`
}

// HTTPConfig configures the JSON/websocket API server.
type HTTPConfig struct {
	Addr string `json:"addr"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// AuthConfig configures the session service.
type AuthConfig struct {
	LatencyMS int `json:"latency_ms"`
}

func (c *AuthConfig) SetDefaults() {
	if c.LatencyMS < 0 {
		c.LatencyMS = 0
	}
}

// ETAConfig selects the arrival-time estimation strategy.
type ETAConfig struct {
	Strategy   string  `json:"strategy"` // "random" or "speed"
	MinMinutes int     `json:"min_minutes"`
	MaxMinutes int     `json:"max_minutes"`
	SpeedKmh   float64 `json:"speed_kmh"`
}

func (c *ETAConfig) SetDefaults() {
	if c.Strategy == "" {
		c.Strategy = "random"
	}
	if c.MinMinutes <= 0 {
		c.MinMinutes = 2
	}
	if c.MaxMinutes <= 0 {
		c.MaxMinutes = 12
	}
	if c.SpeedKmh <= 0 {
		c.SpeedKmh = 40
	}
}

func (c ETAConfig) Validate() error {
	switch c.Strategy {
	case "random", "speed":
	default:
		return fmt.Errorf("unknown eta strategy: %s", c.Strategy)
	}
	if c.MaxMinutes < c.MinMinutes {
		return fmt.Errorf("eta max_minutes must be >= min_minutes")
	}
	return nil
}

// PositionConfig wraps the MQTT position feed settings. When disabled the
// service falls back to the simulated watcher.
type PositionConfig struct {
	Mode string          `json:"mode"` // "mqtt" or "sim"
	MQTT position.Config `json:"mqtt"`
}

func (c *PositionConfig) SetDefaults() {
	if c.Mode == "" {
		c.Mode = "sim"
	}
}

func (c PositionConfig) Validate() error {
	switch c.Mode {
	case "sim":
		return nil
	case "mqtt":
		return c.MQTT.Validate()
	default:
		return fmt.Errorf("unknown position mode: %s", c.Mode)
	}
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("RESPOND_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "respond_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields on every section.
func (c *Config) ApplyDefaults() {
	c.HTTP.SetDefaults()
	c.Auth.SetDefaults()
	c.ETA.SetDefaults()
	c.Position.SetDefaults()
	c.Simulation.SetDefaults()
	c.Metrics.SetDefaults()
	c.Position.MQTT.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.ETA.Validate(); err != nil {
		return err
	}
	return c.Position.Validate()
}
