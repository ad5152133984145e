package weather

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rickykhulal/bolt-earth/internal/fusion"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	fetches *prometheus.CounterVec
	latency *prometheus.HistogramVec
	merges  *prometheus.CounterVec
	cache   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bolt_earth",
			Name:      "provider_fetches_total",
			Help:      "Provider fetches by source and outcome (ok, unavailable, error).",
		}, []string{"source", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bolt_earth",
			Name:      "provider_fetch_seconds",
			Help:      "Provider fetch latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bolt_earth",
			Name:      "merges_total",
			Help:      "Merged readings by AQI path (computed, reported, none).",
		}, []string{"aqi_path"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bolt_earth",
			Name:      "provider_cache_lookups_total",
			Help:      "Provider cache lookups by source and result (hit, miss).",
		}, []string{"source", "result"}),
	}
	reg.MustRegister(m.fetches, m.latency, m.merges, m.cache)
	return m
}

func (m *Metrics) observeFetch(source string, err error, available bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case !available:
		outcome = "unavailable"
	}
	m.fetches.WithLabelValues(source, outcome).Inc()
	m.latency.WithLabelValues(source).Observe(elapsed.Seconds())
}

func (m *Metrics) observeCache(source string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(source, result).Inc()
}

func (m *Metrics) observeMerge(r fusion.MergedReading) {
	if m == nil {
		return
	}
	path := "none"
	switch {
	case r.AQISource == fusion.AQISourceComputed:
		path = "computed"
	case strings.HasPrefix(r.AQISource, fusion.AQISourceReportedPrefix):
		path = "reported"
	}
	m.merges.WithLabelValues(path).Inc()
}
