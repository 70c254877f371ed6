package mcmc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Parameter family labels used by the metrics.
const (
	familyCodon = "codon"
	familyHyper = "hyperparameter"
	familyPhi   = "synthesis_rate"

	familyPartition = "partition_function"
)

// Metrics are prometheus collectors updated by the sampler.
type Metrics struct {
	// Iterations counts finished iterations.
	Iterations prometheus.Counter
	// Accepted counts accepted proposals by parameter family.
	Accepted *prometheus.CounterVec
	// Proposed counts proposals by parameter family.
	Proposed *prometheus.CounterVec
	// LogLikelihood is the log-likelihood of the last iteration.
	LogLikelihood prometheus.Gauge
	// SPhi is the current sPhi.
	SPhi prometheus.Gauge
	// IterationDuration tracks iteration time.
	IterationDuration prometheus.Histogram
}

// NewMetrics creates and registers sampler metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Iterations: f.NewCounter(prometheus.CounterOpts{
			Name: "ribmc_iterations_total",
			Help: "Total MCMC iterations",
		}),
		Accepted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ribmc_accepted_total",
			Help: "Accepted proposals by parameter family",
		}, []string{"family"}),
		Proposed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ribmc_proposed_total",
			Help: "Proposals by parameter family",
		}, []string{"family"}),
		LogLikelihood: f.NewGauge(prometheus.GaugeOpts{
			Name: "ribmc_log_likelihood",
			Help: "Log-likelihood after the last iteration",
		}),
		SPhi: f.NewGauge(prometheus.GaugeOpts{
			Name: "ribmc_sphi",
			Help: "Current synthesis rate prior scale",
		}),
		IterationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ribmc_iteration_duration_seconds",
			Help:    "MCMC iteration duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
}

// proposals registers n proposals of which accepted were accepted.
func (m *Metrics) proposals(family string, n, accepted int) {
	if m == nil {
		return
	}
	m.Proposed.WithLabelValues(family).Add(float64(n))
	m.Accepted.WithLabelValues(family).Add(float64(accepted))
}
