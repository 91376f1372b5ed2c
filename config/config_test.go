package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
http:
  addr: ":9999"
auth:
  latency_ms: 100
eta:
  strategy: speed
  speed_kmh: 60
position:
  mode: mqtt
  mqtt:
    broker: tcp://localhost:1883
    device_id: unit-1
simulation:
  enabled: true
  seed: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":9999" {
		t.Errorf("http addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Auth.LatencyMS != 100 {
		t.Errorf("auth latency = %d", cfg.Auth.LatencyMS)
	}
	if cfg.ETA.Strategy != "speed" || cfg.ETA.SpeedKmh != 60 {
		t.Errorf("eta = %+v", cfg.ETA)
	}
	if cfg.Position.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("broker = %q", cfg.Position.MQTT.Broker)
	}
	if !cfg.Simulation.Enabled || !cfg.Simulation.Seed {
		t.Errorf("simulation = %+v", cfg.Simulation)
	}
	// Defaults fill untouched fields.
	if cfg.ETA.MinMinutes != 2 || cfg.ETA.MaxMinutes != 12 {
		t.Errorf("eta bounds = %+v", cfg.ETA)
	}
	if cfg.Simulation.IntervalSeconds != 5 {
		t.Errorf("interval = %d", cfg.Simulation.IntervalSeconds)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"http":{"addr":":8081"}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8081" {
		t.Errorf("http addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Position.Mode != "sim" {
		t.Errorf("position mode = %q", cfg.Position.Mode)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "config.toml", "addr = ':8080'")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeFile(t, "config.yaml", `http:
  addr: ":8080"
`)
	t.Setenv("RESPOND_HTTP__ADDR", ":7777")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":7777" {
		t.Errorf("env override ignored, addr = %q", cfg.HTTP.Addr)
	}
}

func TestValidateRejectsBadStrategy(t *testing.T) {
	path := writeFile(t, "config.yaml", `eta:
  strategy: psychic
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown eta strategy")
	}
}

func TestValidateRejectsMQTTWithoutBroker(t *testing.T) {
	path := writeFile(t, "config.yaml", `position:
  mode: mqtt
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing broker")
	}
}
