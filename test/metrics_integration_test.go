package test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coremetrics "github.com/respondhq/respond/core/metrics"
	"github.com/respondhq/respond/core/registry"
	"github.com/respondhq/respond/infra/metrics"
	"github.com/respondhq/respond/simulator"
	"github.com/respondhq/respond/test/util"

	"github.com/respondhq/respond/core/dispatch"
	"github.com/respondhq/respond/core/eta"
	"github.com/respondhq/respond/core/geo"
	"github.com/respondhq/respond/core/model"
)

// Drives a full request lifecycle through a real Prometheus registry and
// asserts on the scraped output.
func TestRequestLifecycleMetrics(t *testing.T) {
	promReg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(coremetrics.Config{}, promReg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	store := dispatch.New(nil, sink, eta.Fixed(5), nil)
	reg := registry.New(nil, sink)
	reg.Replace(simulator.SeedVehicles())

	user := model.User{ID: "u1", Name: "John Doe", UserType: model.UserClient}
	loc := &geo.Point{Lat: 51.503, Lng: -0.087}
	req, err := store.Create(user, loc, model.RequestMedical, "chest pain")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Accept(req.ID, "driver-1", "Jane", &geo.Point{Lat: 51.51, Lng: -0.09}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := store.Complete(req.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), util.MetricTimeout)
	defer cancel()
	for _, want := range []string{
		`request_transitions_total{request_type="Medical Emergency",to_status="pending"} 1`,
		`request_transitions_total{request_type="Medical Emergency",to_status="accepted"} 1`,
		`request_transitions_total{request_type="Medical Emergency",to_status="completed"} 1`,
		`request_messages_total{is_driver="false",system="true"} 2`,
		`registry_vehicles_total 5`,
	} {
		if err := util.WaitForMetric(ctx, srv.URL+"/metrics", want); err != nil {
			t.Errorf("metric wait: %v", err)
		}
	}
}
