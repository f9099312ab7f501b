package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/qbdsl/internal/compiler"
)

// Compile outcomes.
const (
	OutcomeOK       = "ok"       // a query without warnings
	OutcomeWarnings = "warnings" // a query or absent result with warnings
	OutcomeAbsent   = "absent"   // nothing to compile, no warnings
	OutcomeInvalid  = "invalid"  // the request or tree could not be decoded
)

// Metrics holds the compile service's Prometheus collectors.
type Metrics struct {
	// compiles counts compile requests.
	// Labels: outcome (ok, warnings, absent, invalid)
	compiles *prometheus.CounterVec

	// warnings counts emitted warnings.
	// Labels: code
	warnings *prometheus.CounterVec

	// duration measures compile time, excluding request decoding.
	duration prometheus.Histogram
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		compiles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qbdsl",
			Subsystem: "compiler",
			Name:      "compiles_total",
			Help:      "Total compile requests by outcome",
		}, []string{"outcome"}),
		warnings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qbdsl",
			Subsystem: "compiler",
			Name:      "warnings_total",
			Help:      "Total compile warnings by code",
		}, []string{"code"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "qbdsl",
			Subsystem: "compiler",
			Name:      "duration_seconds",
			Help:      "Rule tree compile latency in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
	}
}

func (m *Metrics) observe(res *compiler.Result, seconds float64) {
	m.duration.Observe(seconds)
	for _, w := range res.Warnings {
		m.warnings.WithLabelValues(w.Code).Inc()
	}
	switch {
	case len(res.Warnings) > 0:
		m.compiles.WithLabelValues(OutcomeWarnings).Inc()
	case res.Absent():
		m.compiles.WithLabelValues(OutcomeAbsent).Inc()
	default:
		m.compiles.WithLabelValues(OutcomeOK).Inc()
	}
}

func (m *Metrics) invalid() {
	m.compiles.WithLabelValues(OutcomeInvalid).Inc()
}
