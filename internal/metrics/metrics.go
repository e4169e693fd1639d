package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	GeocodeRequests *prometheus.CounterVec
	GeocodeSeconds  *prometheus.HistogramVec
	DebounceResets  prometheus.Counter
	StaleResults    *prometheus.CounterVec
	ScoreRequests   *prometheus.CounterVec
	ScoreSeconds    prometheus.Histogram
	CacheLookups    *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge
	SessionsExpired prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		GeocodeRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "helios_geocode_requests_total",
			Help: "Total number of geocode lookups issued by address locators.",
		}, []string{"provider", "status"}),
		GeocodeSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helios_geocode_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		DebounceResets: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "helios_locator_debounce_resets_total",
			Help: "Pending recomputes cancelled by a newer address change.",
		}),
		StaleResults: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "helios_stale_results_discarded_total",
			Help: "Responses dropped because a newer request had been issued.",
		}, []string{"kind"}),
		ScoreRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "helios_score_requests_total",
			Help: "Total number of light score requests by outcome.",
		}, []string{"status"}),
		ScoreSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "helios_score_request_duration_seconds",
			Help:    "Duration of requests to the light score backend.",
			Buckets: prometheus.DefBuckets,
		}),
		CacheLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "helios_geocode_cache_lookups_total",
			Help: "Geocode cache lookups by result.",
		}, []string{"result"}),
		ActiveSessions: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "helios_active_sessions",
			Help: "Current number of open form sessions.",
		}),
		SessionsExpired: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "helios_sessions_expired_total",
			Help: "Form sessions closed by the idle sweeper.",
		}),
	}
}
