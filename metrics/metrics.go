// Prometheus collectors shared by the relay components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AdapterRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ncbridge_adapter_retries_total", Help: "Retried headless calls"},
		[]string{"operation"},
	)
	LastBoundary = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "ncbridge_last_boundary", Help: "Last authorization boundary handled by a monitor"},
		[]string{"monitor"},
	)
	RelayedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ncbridge_relayed_events_total", Help: "Source events relayed"},
		[]string{"monitor"},
	)
	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ncbridge_submissions_total", Help: "Destination transactions submitted"},
		[]string{"action", "result"},
	)
)

func init() {
	prometheus.MustRegister(AdapterRetries, LastBoundary, RelayedEvents, Submissions)
}
