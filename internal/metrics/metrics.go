package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	providerEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skywatch_provider_events_total",
			Help: "Total events returned by each provider.",
		},
		[]string{"provider"},
	)

	providerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skywatch_provider_errors_total",
			Help: "Provider fetch failures by provider and reason.",
		},
		[]string{"provider", "reason"},
	)

	cacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skywatch_forecast_cache_hits_total",
			Help: "Refresh calls served from the forecast cache slot.",
		},
	)

	cacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skywatch_forecast_cache_misses_total",
			Help: "Refresh calls that went out to the providers.",
		},
	)

	refreshDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skywatch_refresh_duration_seconds",
			Help:    "Wall time of a full forecast refresh.",
			Buckets: prometheus.DefBuckets,
		},
	)

	managerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "skywatch_manager_state",
			Help: "Current manager state (1 for the active state, 0 otherwise).",
		},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(
		providerEventsTotal,
		providerErrorsTotal,
		cacheHitsTotal,
		cacheMissesTotal,
		refreshDurationSeconds,
		managerState,
	)
}

func ObserveProviderEvents(provider string, count int) {
	providerEventsTotal.WithLabelValues(provider).Add(float64(count))
}

func IncProviderError(provider, reason string) {
	providerErrorsTotal.WithLabelValues(provider, reason).Inc()
}

func IncCacheHit()  { cacheHitsTotal.Inc() }
func IncCacheMiss() { cacheMissesTotal.Inc() }

func ObserveRefreshDuration(d time.Duration) {
	refreshDurationSeconds.Observe(d.Seconds())
}

var knownStates = []string{"idle", "loading", "ready", "error"}

// SetManagerState flips the state gauge so exactly one label reads 1.
func SetManagerState(state string) {
	for _, s := range knownStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		managerState.WithLabelValues(s).Set(v)
	}
}
