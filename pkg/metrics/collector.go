package metrics

import (
	"github.com/jzx17/gopool/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
)

// StatsSource is anything that reports pool statistics, such as
// *worker.FixedWorkerPool
type StatsSource interface {
	Stats() types.PoolStats
}

// PoolCollector implements prometheus.Collector over a StatsSource
type PoolCollector struct {
	src StatsSource

	workers       *prometheus.Desc
	activeWorkers *prometheus.Desc
	queuedTasks   *prometheus.Desc
	submitted     *prometheus.Desc
	completed     *prometheus.Desc
	failed        *prometheus.Desc
}

var _ prometheus.Collector = (*PoolCollector)(nil)

// NewPoolCollector creates a collector whose series carry the const label
// pool=poolName. Register one collector per pool.
func NewPoolCollector(namespace, poolName string, src StatsSource) *PoolCollector {
	labels := prometheus.Labels{"pool": poolName}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "pool", name), help, nil, labels)
	}

	return &PoolCollector{
		src:           src,
		workers:       desc("workers", "Number of workers in the pool"),
		activeWorkers: desc("active_workers", "Number of workers currently executing a task"),
		queuedTasks:   desc("queued_tasks", "Number of tasks waiting in the queue"),
		submitted:     desc("tasks_submitted_total", "Total number of tasks accepted by the pool"),
		completed:     desc("tasks_completed_total", "Total number of tasks that finished without error"),
		failed:        desc("tasks_failed_total", "Total number of tasks that returned an error or panicked"),
	}
}

// Describe implements prometheus.Collector
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.workers
	ch <- c.activeWorkers
	ch <- c.queuedTasks
	ch <- c.submitted
	ch <- c.completed
	ch <- c.failed
}

// Collect implements prometheus.Collector
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()

	ch <- prometheus.MustNewConstMetric(c.workers, prometheus.GaugeValue, float64(s.PoolSize))
	ch <- prometheus.MustNewConstMetric(c.activeWorkers, prometheus.GaugeValue, float64(s.ActiveWorkers))
	ch <- prometheus.MustNewConstMetric(c.queuedTasks, prometheus.GaugeValue, float64(s.QueueSize))
	ch <- prometheus.MustNewConstMetric(c.submitted, prometheus.CounterValue, float64(s.TotalSubmitted))
	ch <- prometheus.MustNewConstMetric(c.completed, prometheus.CounterValue, float64(s.TotalCompleted))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(s.TotalFailed))
}
