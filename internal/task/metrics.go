package task

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type schedulerMetrics struct {
	firesTotal     *prometheus.CounterVec
	scheduledTotal prometheus.Counter
	cancelledTotal prometheus.Counter
	expiredTotal   prometheus.Counter
	activeTriggers prometheus.Gauge
	fireLag        prometheus.Histogram
}

var schedulerMetricsSingleton = sync.OnceValue(func() *schedulerMetrics {
	return &schedulerMetrics{
		firesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "policyhub",
			Subsystem: "scheduler",
			Name:      "fires_total",
			Help:      "Scheduled message fires by outcome.",
		}, []string{"result"}),
		scheduledTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "policyhub",
			Subsystem: "scheduler",
			Name:      "scheduled_total",
			Help:      "Messages accepted for scheduling.",
		}),
		cancelledTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "policyhub",
			Subsystem: "scheduler",
			Name:      "cancelled_total",
			Help:      "Scheduled messages cancelled before firing.",
		}),
		expiredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "policyhub",
			Subsystem: "scheduler",
			Name:      "expired_total",
			Help:      "Pending messages marked expired by restore or sweep.",
		}),
		activeTriggers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "policyhub",
			Subsystem: "scheduler",
			Name:      "active_triggers",
			Help:      "Timers currently registered in this process.",
		}),
		fireLag: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "policyhub",
			Subsystem: "scheduler",
			Name:      "fire_lag_seconds",
			Help:      "Delay between the scheduled instant and the start of the fire callback.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 60},
		}),
	}
})

func getSchedulerMetrics() *schedulerMetrics {
	return schedulerMetricsSingleton()
}

type poolMetrics struct {
	tasksTotal    *prometheus.CounterVec
	rejectedTotal *prometheus.CounterVec
	taskDuration  *prometheus.HistogramVec
	busyWorkers   prometheus.Gauge
}

var poolMetricsSingleton = sync.OnceValue(func() *poolMetrics {
	return &poolMetrics{
		tasksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "policyhub",
			Subsystem: "worker_pool",
			Name:      "tasks_total",
			Help:      "Background tasks executed by type and outcome.",
		}, []string{"type", "result"}),
		rejectedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "policyhub",
			Subsystem: "worker_pool",
			Name:      "rejected_total",
			Help:      "Tasks refused by the queue because it was full or closed.",
		}, []string{"type", "reason"}),
		taskDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "policyhub",
			Subsystem: "worker_pool",
			Name:      "task_duration_seconds",
			Help:      "Time spent executing a task.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"type"}),
		busyWorkers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "policyhub",
			Subsystem: "worker_pool",
			Name:      "busy_workers",
			Help:      "Workers currently executing a task.",
		}),
	}
})

func getPoolMetrics() *poolMetrics {
	return poolMetricsSingleton()
}
