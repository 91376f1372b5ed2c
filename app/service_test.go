package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/respondhq/respond/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.Simulation.Enabled = true
	cfg.Simulation.Seed = true
	return cfg
}

func TestNewWiresSeededService(t *testing.T) {
	svc, err := New(testConfig())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	}()

	if got := len(svc.Registry.Vehicles()); got != 5 {
		t.Errorf("seeded vehicles = %d", got)
	}
	if got := len(svc.Store.List()); got != 2 {
		t.Errorf("seeded requests = %d", got)
	}
	if _, ok := svc.Auth.Current(); ok {
		t.Error("no session should exist at startup")
	}
}

func TestRunServesAndShutsDown(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.Addr = "127.0.0.1:17893"
	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	var resp *http.Response
	for time.Now().Before(deadline) {
		resp, err = http.Get("http://" + cfg.HTTP.Addr + "/api/vehicles")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		cancel()
		t.Fatalf("server never came up: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}
