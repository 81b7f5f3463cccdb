package metrics

import (
	"errors"
	"time"

	"github.com/LavishGent/redisemu/internal/types"
)

// Fanout forwards every call to each of its publishers in order.
type Fanout []types.Publisher

// NewFanout drops nil publishers and collapses trivial cases: no publishers
// yields a NoOpPublisher and a single one is returned as is.
func NewFanout(publishers ...types.Publisher) types.Publisher {
	var f Fanout
	for _, p := range publishers {
		if p != nil {
			f = append(f, p)
		}
	}
	switch len(f) {
	case 0:
		return NewNoOpPublisher()
	case 1:
		return f[0]
	}
	return f
}

func (f Fanout) Gauge(name string, value float64, tags ...string) {
	for _, p := range f {
		p.Gauge(name, value, tags...)
	}
}

func (f Fanout) Incr(name string, tags ...string) {
	for _, p := range f {
		p.Incr(name, tags...)
	}
}

func (f Fanout) Count(name string, value int64, tags ...string) {
	for _, p := range f {
		p.Count(name, value, tags...)
	}
}

func (f Fanout) Histogram(name string, value float64, tags ...string) {
	for _, p := range f {
		p.Histogram(name, value, tags...)
	}
}

func (f Fanout) Timing(name string, duration time.Duration, tags ...string) {
	for _, p := range f {
		p.Timing(name, duration, tags...)
	}
}

func (f Fanout) PublishHealthMetrics(m *types.PublisherHealthMetrics) {
	for _, p := range f {
		p.PublishHealthMetrics(m)
	}
}

// Close closes every publisher and joins their errors.
func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
