// Package metrics provides the centralized Prometheus metrics registry for
// the grid-picks backend.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PicksSubmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "grid_picks",
		Name:      "picks_submitted_total",
		Help:      "Total number of picks accepted",
	})
	PickRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grid_picks",
		Name:      "pick_rejections_total",
		Help:      "Total number of rejected pick submissions by reason",
	}, []string{"reason"})
	RacesAdvancedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "grid_picks",
		Name:      "races_advanced_total",
		Help:      "Total number of races advanced to in_progress",
	})
	RacesSyncedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "grid_picks",
		Name:      "races_synced_total",
		Help:      "Total number of races successfully reconciled",
	})
	RacesSyncFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "grid_picks",
		Name:      "races_sync_failed_total",
		Help:      "Total number of per-race reconciliation failures",
	})
	StatsRecomputationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "grid_picks",
		Name:      "stats_recomputations_total",
		Help:      "Total number of user season stats recomputations",
	})
	ExternalRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grid_picks",
		Name:      "external_requests_total",
		Help:      "Total number of external API requests by outcome",
	}, []string{"outcome"})
)

// Histogram metrics
var (
	ReconciliationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "grid_picks",
		Name:      "reconciliation_duration_seconds",
		Help:      "Duration of reconciliation runs in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(PicksSubmittedTotal)
		registry.MustRegister(PickRejectionsTotal)
		registry.MustRegister(RacesAdvancedTotal)
		registry.MustRegister(RacesSyncedTotal)
		registry.MustRegister(RacesSyncFailedTotal)
		registry.MustRegister(StatsRecomputationsTotal)
		registry.MustRegister(ExternalRequestsTotal)
		registry.MustRegister(ReconciliationDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// NewServer returns an HTTP server exposing the registry at /metrics on the
// given port. The caller owns its lifecycle.
func NewServer(port string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
