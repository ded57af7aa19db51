// Package metrics provides a Prometheus-backed implementation of the
// dbmap.Metrics interface.
package metrics

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus records histograms into a Prometheus registry. Histograms are
// created on first use; the label names of the first observation fix the
// label set for that metric name.
type Prometheus struct {
	registerer prometheus.Registerer
	buckets    []float64

	mu         sync.RWMutex
	histograms map[string]*prometheus.HistogramVec
}

// Option configures a Prometheus recorder.
type Option func(*Prometheus)

// WithRegisterer registers metrics somewhere other than the default
// registry.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(p *Prometheus) { p.registerer = r }
}

// WithBuckets replaces the default histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(p *Prometheus) { p.buckets = buckets }
}

// NewPrometheus returns a recorder backed by the default registry unless
// WithRegisterer overrides it.
func NewPrometheus(opts ...Option) *Prometheus {
	p := &Prometheus{
		registerer: prometheus.DefaultRegisterer,
		buckets:    prometheus.DefBuckets,
		histograms: map[string]*prometheus.HistogramVec{},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// RecordHistogram observes value on the named histogram. labels are
// alternating name/value pairs.
func (p *Prometheus) RecordHistogram(_ context.Context, name string, value float64, labels ...string) {
	names, values := splitLabelPairs(labels)

	hist, err := p.histogram(name, names)
	if err != nil {
		return
	}

	observer, err := hist.GetMetricWithLabelValues(values...)
	if err != nil {
		return
	}

	observer.Observe(value)
}

func (p *Prometheus) histogram(name string, labelNames []string) (*prometheus.HistogramVec, error) {
	p.mu.RLock()
	hist, ok := p.histograms[name]
	p.mu.RUnlock()

	if ok {
		return hist, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if hist, ok := p.histograms[name]; ok {
		return hist, nil
	}

	hist = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name,
		Buckets: p.buckets,
	}, labelNames)

	if err := p.registerer.Register(hist); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}

		existing, ok := already.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, err
		}

		hist = existing
	}

	p.histograms[name] = hist

	return hist, nil
}

func splitLabelPairs(labels []string) (names, values []string) {
	for i := 0; i+1 < len(labels); i += 2 {
		names = append(names, labels[i])
		values = append(values, labels[i+1])
	}

	return names, values
}
