package services

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "foodwagen"

// Metrics collects upstream and cache counters. A nil *Metrics records nothing.
type Metrics struct {
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	cacheRefreshes   *prometheus.CounterVec
}

// NewMetrics builds the collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "food_api",
			Name:      "requests_total",
			Help:      "Requests sent to the Food API by method and status code (0 for transport errors).",
		}, []string{"method", "code"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "food_api",
			Name:      "request_duration_seconds",
			Help:      "Food API round trip time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "food_cache",
			Name:      "lookups_total",
			Help:      "List cache lookups by result (hit, stale, miss).",
		}, []string{"result"}),
		cacheRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "food_cache",
			Name:      "refreshes_total",
			Help:      "List fetches by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.upstreamRequests, m.upstreamLatency, m.cacheLookups, m.cacheRefreshes)
	}
	return m
}

func (m *Metrics) observeUpstream(method string, code int, took time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.upstreamLatency.WithLabelValues(method).Observe(took.Seconds())
}

func (m *Metrics) cacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) cacheRefresh(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.cacheRefreshes.WithLabelValues(outcome).Inc()
}
