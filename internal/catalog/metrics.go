package catalog

import "github.com/prometheus/client_golang/prometheus"

const (
	labelResult = "result"
	labelTarget = "target"
)

// Metrics counts the outcomes the HTTP status codes cannot show: cache
// efficiency, degraded searches and dropped side effects.
type Metrics struct {
	CacheLookups    *prometheus.CounterVec
	SearchFallbacks prometheus.Counter
	SideEffectFails *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_cache_lookups_total",
				Help: "Parts snapshot cache lookups by result (hit, miss, error)",
			},
			[]string{labelResult},
		),
		SearchFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_search_fallbacks_total",
				Help: "Searches served by the database because the index failed",
			},
		),
		SideEffectFails: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_side_effect_failures_total",
				Help: "Best-effort cache/index writes that failed after a store write",
			},
			[]string{labelTarget},
		),
	}

	reg.MustRegister(m.CacheLookups, m.SearchFallbacks, m.SideEffectFails)
	return m
}

func (m *Metrics) cacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) searchFallback() {
	if m != nil {
		m.SearchFallbacks.Inc()
	}
}

func (m *Metrics) sideEffectFailed(target string) {
	if m != nil {
		m.SideEffectFails.WithLabelValues(target).Inc()
	}
}
