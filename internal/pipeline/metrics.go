package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts pipeline outcomes for the /metrics endpoint of the report
// server. All methods are nil-safe so the batch CLI can run without a
// registry.
type Metrics struct {
	companiesProcessed prometheus.Counter
	companiesSkipped   prometheus.Counter
	tradesEmitted      prometheus.Counter
	runDuration        prometheus.Histogram
}

// NewMetrics registers the pipeline metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		companiesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "stockai",
			Name:      "companies_processed_total",
			Help:      "Companies that completed the full analysis pipeline.",
		}),
		companiesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "stockai",
			Name:      "companies_skipped_total",
			Help:      "Companies excluded by schema, data or training failures.",
		}),
		tradesEmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "stockai",
			Name:      "trades_emitted_total",
			Help:      "Actionable (non-Hold) trade records materialized.",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stockai",
			Name:      "run_duration_seconds",
			Help:      "Wall time of full pipeline runs.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) addProcessed(n int) {
	if m != nil {
		m.companiesProcessed.Add(float64(n))
	}
}

func (m *Metrics) addSkipped(n int) {
	if m != nil && n > 0 {
		m.companiesSkipped.Add(float64(n))
	}
}

func (m *Metrics) addTrades(n int) {
	if m != nil {
		m.tradesEmitted.Add(float64(n))
	}
}

func (m *Metrics) observeRun(seconds float64) {
	if m != nil {
		m.runDuration.Observe(seconds)
	}
}
