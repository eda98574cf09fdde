package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink implements Sink using the Prometheus client library.
// Registration errors are logged by the registry, never propagated here.
type PrometheusSink struct {
	jobFiresTotal    *prometheus.CounterVec
	sendsTotal       *prometheus.CounterVec
	sendDuration     prometheus.Histogram
	emptyDispatches  prometheus.Counter
	subscribersGauge prometheus.Gauge
}

func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		jobFiresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminderbot_scheduler_job_fires_total",
			Help: "Total number of scheduled job firings.",
		}, []string{"job"}),
		sendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminderbot_dispatcher_sends_total",
			Help: "Total number of per-recipient send attempts by outcome.",
		}, []string{"outcome"}),
		sendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reminderbot_dispatcher_send_duration_seconds",
			Help:    "Latency of a single send attempt in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		emptyDispatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminderbot_dispatcher_empty_total",
			Help: "Total number of firings that resolved to zero recipients.",
		}),
		subscribersGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reminderbot_registry_subscribers",
			Help: "Current number of registered subscribers.",
		}),
	}

	for _, c := range []prometheus.Collector{
		s.jobFiresTotal, s.sendsTotal, s.sendDuration, s.emptyDispatches, s.subscribersGauge,
	} {
		_ = reg.Register(c)
	}
	return s
}

func (s *PrometheusSink) JobFired(jobID string) {
	s.jobFiresTotal.WithLabelValues(jobID).Inc()
}

func (s *PrometheusSink) SendCompleted(outcome string, d time.Duration) {
	s.sendsTotal.WithLabelValues(outcome).Inc()
	s.sendDuration.Observe(d.Seconds())
}

func (s *PrometheusSink) EmptyDispatch() {
	s.emptyDispatches.Inc()
}

func (s *PrometheusSink) Subscribers(n int) {
	s.subscribersGauge.Set(float64(n))
}
