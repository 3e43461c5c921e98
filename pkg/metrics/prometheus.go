package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	forecasts     *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastForecast  *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	eventsEmitted *prometheus.CounterVec
}

// New registers the collectors on reg (prometheus.DefaultRegisterer in the
// service, a fresh registry in tests).
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_forecasts_total",
				Help: "Forecasts served, by symbol",
			},
			[]string{"symbol"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_errors_total",
				Help: "Errors encountered, by kind",
			},
			[]string{"type"},
		),
		lastForecast: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockcast_last_forecast_price",
				Help: "Most recent forecast price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockcast_operation_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_history_cache_lookups_total",
				Help: "Price history cache lookups by result",
			},
			[]string{"result"},
		),
		eventsEmitted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_forecast_events_total",
				Help: "Forecast events written, by backend",
			},
			[]string{"backend"},
		),
	}
}

// RecordForecast counts a served forecast and keeps its price.
func (r *Recorder) RecordForecast(symbol string, price float64) {
	r.forecasts.WithLabelValues(symbol).Inc()
	r.lastForecast.WithLabelValues(symbol).Set(price)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordCacheLookup records a cache "hit" or "miss".
func (r *Recorder) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// RecordEvent counts a forecast event written to backend.
func (r *Recorder) RecordEvent(backend string) {
	r.eventsEmitted.WithLabelValues(backend).Inc()
}

// Noop discards every measurement.
type Noop struct{}

func (Noop) RecordForecast(string, float64) {}
func (Noop) RecordError(string) {}
func (Noop) RecordLatency(string, float64) {}
func (Noop) RecordCacheLookup(bool) {}
func (Noop) RecordEvent(string) {}
