// Package telemetry exposes prometheus metrics for the job scheduler.
package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	JobsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{Name: "podforge_jobs_submitted_total", Help: "Jobs admitted by the scheduler"})
	JobsRejected  = prometheus.NewCounter(prometheus.CounterOpts{Name: "podforge_jobs_rejected_total", Help: "Submissions rejected by admission control"})
	JobsCompleted = prometheus.NewCounter(prometheus.CounterOpts{Name: "podforge_jobs_completed_total", Help: "Jobs that reached the completed state"})
	JobsFailed    = prometheus.NewCounter(prometheus.CounterOpts{Name: "podforge_jobs_failed_total", Help: "Jobs that reached the failed state"})
	JobsCancelled = prometheus.NewCounter(prometheus.CounterOpts{Name: "podforge_jobs_cancelled_total", Help: "Jobs that reached the cancelled state"})
	JobsRunning   = prometheus.NewGauge(prometheus.GaugeOpts{Name: "podforge_jobs_running", Help: "Jobs currently executing"})
)

// Handler exposes the /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			JobsSubmitted,
			JobsRejected,
			JobsCompleted,
			JobsFailed,
			JobsCancelled,
			JobsRunning,
		)
	})
	return promhttp.Handler()
}
