package stats

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/influxdata/colstats/table"
	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	LabelSuccess = "success"
	LabelError   = "error"
)

// Metrics holds the operator metrics.
type Metrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec

	clock clock.Clock
}

// NewMetrics returns operator metrics timed by clk, or by the wall clock
// when clk is nil.
func NewMetrics(clk clock.Clock) *Metrics {
	const (
		namespace = "colstats"
		subsystem = "operator"
	)
	if clk == nil {
		clk = clock.New()
	}

	return &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Count of operator evaluations",
		}, []string{"operator", "result"}),

		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "duration_seconds",
			Help:      "Histogram of times spent evaluating an operator",
			Buckets:   prometheus.ExponentialBuckets(1e-3, 5, 7),
		}, []string{"operator"}),

		clock: clk,
	}
}

// PrometheusCollectors returns the collectors to register.
func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Requests,
		m.Duration,
	}
}

// Instrument wraps fn so every evaluation is counted and timed under name.
func (m *Metrics) Instrument(name string, fn Func) Func {
	return func(ctx context.Context, t table.Table) (Result, error) {
		start := m.clock.Now()
		res, err := fn(ctx, t)
		m.Duration.WithLabelValues(name).Observe(m.clock.Now().Sub(start).Seconds())
		label := LabelSuccess
		if err != nil {
			label = LabelError
		}
		m.Requests.WithLabelValues(name, label).Inc()
		return res, err
	}
}
