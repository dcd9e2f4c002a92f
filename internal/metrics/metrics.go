package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what the exporter does across runs.
type Metrics struct {
	RecordsFetched   prometheus.Counter
	PagesPublished   prometheus.Counter
	PublishErrors    *prometheus.CounterVec
	RecordsMarked    prometheus.Counter
	PublishLatency   prometheus.Histogram
	Runs             *prometheus.CounterVec
	LastSuccessfulAt prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RecordsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "techdebt_export_records_fetched_total",
			Help: "Eligible log applet records read from the database",
		}),
		PagesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "techdebt_export_pages_published_total",
			Help: "Notion pages created",
		}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "techdebt_export_publish_errors_total",
			Help: "Failed page creations by reason",
		}, []string{"reason"}),
		RecordsMarked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "techdebt_export_records_marked_total",
			Help: "Rows flipped to the exported flag",
		}),
		PublishLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "techdebt_export_publish_duration_seconds",
			Help:    "Latency of one page creation",
			Buckets: prometheus.DefBuckets,
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "techdebt_export_runs_total",
			Help: "Export runs by final status",
		}, []string{"status"}),
		LastSuccessfulAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "techdebt_export_last_success_timestamp_seconds",
			Help: "Unix time of the last run that finished without errors",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.RecordsFetched,
			m.PagesPublished,
			m.PublishErrors,
			m.RecordsMarked,
			m.PublishLatency,
			m.Runs,
			m.LastSuccessfulAt,
		)
	}
	return m
}

func (m *Metrics) ObservePublish(d time.Duration, err error, reason string) {
	m.PublishLatency.Observe(d.Seconds())
	if err != nil {
		m.PublishErrors.WithLabelValues(reason).Inc()
		return
	}
	m.PagesPublished.Inc()
}

func (m *Metrics) ObserveRun(status string, at time.Time) {
	m.Runs.WithLabelValues(status).Inc()
	if status == "done" {
		m.LastSuccessfulAt.Set(float64(at.Unix()))
	}
}
