// Package metrics exports worker pool statistics to Prometheus.
//
// PoolCollector is a pull collector: nothing is recorded on the task path,
// every scrape reads a fresh types.PoolStats snapshot from its source.
//
//	pool, _ := worker.NewFixedWorkerPool(nil)
//	defer pool.Close()
//
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(metrics.NewPoolCollector("gopool", "default", pool))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package metrics
