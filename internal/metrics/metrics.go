// Package metrics holds the Prometheus collectors shared by the hosts.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stockdash"

var (
	// Registry is the registry every collector below is registered on.
	Registry = prometheus.NewRegistry()

	// ForecastTotal counts forecast calls by outcome (ok, invalid_horizon,
	// missing_symbol, data_unavailable, error).
	ForecastTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forecast_requests_total",
		Help:      "Forecast requests by outcome.",
	}, []string{"outcome"})

	// ForecastDuration observes the wall time of successful forecasts.
	ForecastDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "forecast_duration_seconds",
		Help:      "Forecast latency including the provider fetch.",
		Buckets:   prometheus.DefBuckets,
	})

	// FetchTotal counts provider calls by provider and result.
	FetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_fetch_total",
		Help:      "Outbound market data calls.",
	}, []string{"provider", "result"})

	// HTTPRequests counts API requests by route and status class.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP API requests.",
	}, []string{"method", "route", "status"})
)

func init() {
	Registry.MustRegister(
		ForecastTotal,
		ForecastDuration,
		FetchTotal,
		HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveForecast records one forecast outcome.
func ObserveForecast(outcome string, started time.Time) {
	ForecastTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		ForecastDuration.Observe(time.Since(started).Seconds())
	}
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
