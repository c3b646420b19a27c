package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the reference data snapshot.
type Metrics struct {
	// Snapshot reloads by outcome
	Refreshes *prometheus.CounterVec

	RefreshLatency prometheus.Histogram

	// Codes held in the current snapshot
	Entries prometheus.Gauge

	// Lookups by code list and hit/miss
	Lookups *prometheus.CounterVec
}

// New registers the module metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "yksilo_koodisto_refreshes_total",
			Help: "Reference data snapshot reloads by outcome",
		}, []string{"outcome"}), // outcome: "ok", "error"

		RefreshLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "yksilo_koodisto_refresh_duration_seconds",
			Help:    "Duration of loading and publishing a reference data snapshot",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		Entries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "yksilo_koodisto_entries",
			Help: "Codes in the published reference data snapshot",
		}),

		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "yksilo_koodisto_lookups_total",
			Help: "Code lookups by code list and result",
		}, []string{"koodisto", "result"}),
	}
}

func (m *Metrics) ObserveRefresh(err error, d time.Duration, entries int) {
	if m == nil {
		return
	}
	m.RefreshLatency.Observe(d.Seconds())
	if err != nil {
		m.Refreshes.WithLabelValues("error").Inc()
		return
	}
	m.Refreshes.WithLabelValues("ok").Inc()
	m.Entries.Set(float64(entries))
}

func (m *Metrics) IncrementLookup(koodisto string, found bool) {
	if m == nil {
		return
	}
	result := "miss"
	if found {
		result = "hit"
	}
	m.Lookups.WithLabelValues(koodisto, result).Inc()
}
