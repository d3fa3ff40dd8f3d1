package ingest

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	batchesTotal    *prometheus.CounterVec
	rowsTotal       *prometheus.CounterVec
	entitiesCreated *prometheus.CounterVec
	batchDuration   prometheus.Histogram
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		batchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "policyhub",
			Subsystem: "ingest",
			Name:      "batches_total",
			Help:      "Total number of import batches by outcome.",
		}, []string{"file_type", "result"}),
		rowsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "policyhub",
			Subsystem: "ingest",
			Name:      "rows_total",
			Help:      "Total number of import rows by outcome.",
		}, []string{"result"}),
		entitiesCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "policyhub",
			Subsystem: "ingest",
			Name:      "entities_created_total",
			Help:      "Entities created by imports, by kind.",
		}, []string{"kind"}),
		batchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "policyhub",
			Subsystem: "ingest",
			Name:      "batch_duration_seconds",
			Help:      "Time spent processing one import batch.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}

func (m *metrics) created(kind string, created bool) {
	if created {
		m.entitiesCreated.WithLabelValues(kind).Inc()
	}
}
