package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRecorder_RegistersAndRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordForecast("AAPL", 191.5)
	r.RecordError("provider")
	r.RecordLatency("train", 0.2)
	r.RecordCacheLookup(true)
	r.RecordEvent("kafka")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := map[string]bool{}
	for _, mf := range families {
		found[mf.GetName()] = true
		if mf.GetName() == "stockcast_last_forecast_price" {
			if v := mf.GetMetric()[0].GetGauge().GetValue(); v != 191.5 {
				t.Fatalf("last forecast=%v", v)
			}
		}
	}
	for _, name := range []string{
		"stockcast_forecasts_total",
		"stockcast_errors_total",
		"stockcast_operation_duration_seconds",
		"stockcast_history_cache_lookups_total",
		"stockcast_forecast_events_total",
	} {
		if !found[name] {
			t.Errorf("metric %s not gathered", name)
		}
	}

	// a second recorder on its own registry must not collide
	_ = New(prometheus.NewRegistry())
}
