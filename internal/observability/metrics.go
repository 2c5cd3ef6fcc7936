package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "border_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for one ETL run.
type Metrics struct {
	RowsRead           prometheus.Counter
	RecordsTransformed prometheus.Counter
	TransformErrors    prometheus.Counter
	RecordsStored      prometheus.Counter
	RecordsExported    prometheus.Counter
	RecordsPublished   prometheus.Counter

	StageDuration *prometheus.HistogramVec // labels: stage={load,transform,persist,export,publish}
	LastSuccess   prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates all pipeline metrics and registers them with a dedicated
// registry, which is what gets pushed at the end of a run. Each call gets its
// own registry, so tests can build as many as they need.
func NewMetrics() *Metrics {
	m := newMetrics()
	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(m.collectors()...)
	return m
}

// Gatherer exposes the registry the metrics were registered with.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RowsRead,
		m.RecordsTransformed,
		m.TransformErrors,
		m.RecordsStored,
		m.RecordsExported,
		m.RecordsPublished,
		m.StageDuration,
		m.LastSuccess,
	}
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Total data rows read from the source file.",
		}),
		RecordsTransformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_transformed_total",
			Help:      "Total rows normalized into records.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total rows that failed normalization.",
		}),
		RecordsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_stored_total",
			Help:      "Total records written to the SQLite table.",
		}),
		RecordsExported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_exported_total",
			Help:      "Total records written to the JSON export.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Total records published to Kafka.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed run.",
		}),
	}
}
