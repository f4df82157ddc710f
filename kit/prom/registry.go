// Package prom collects the metrics of colstats components into one
// registry and writes them in the prometheus text format.
package prom

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"
)

// PrometheusCollector is implemented by components that expose metrics.
type PrometheusCollector interface {
	PrometheusCollectors() []prometheus.Collector
}

// Registry is a prometheus registry that logs gathering failures.
type Registry struct {
	*prometheus.Registry

	log *zap.Logger
}

// NewRegistry returns an empty registry. A nil log discards messages.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		Registry: prometheus.NewRegistry(),
		log:      log,
	}
}

// MustRegister registers the collectors of every component, panicking on
// a duplicate.
func (r *Registry) MustRegister(cs ...PrometheusCollector) {
	for _, c := range cs {
		r.Registry.MustRegister(c.PrometheusCollectors()...)
	}
}

// WriteText writes every gathered metric family to w. Families gathered
// before a failure are still written.
func (r *Registry) WriteText(w io.Writer) error {
	mfs, gatherErr := r.Gather()
	if gatherErr != nil {
		r.log.Warn("Error while gathering metrics", zap.Error(gatherErr))
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return gatherErr
}
