package metrics

import (
	"time"

	"github.com/LavishGent/redisemu/internal/types"
)

// NoOpPublisher discards everything.
type NoOpPublisher struct{}

func NewNoOpPublisher() *NoOpPublisher {
	return &NoOpPublisher{}
}

func (NoOpPublisher) Gauge(string, float64, ...string) {}
func (NoOpPublisher) Incr(string, ...string) {}
func (NoOpPublisher) Count(string, int64, ...string) {}
func (NoOpPublisher) Histogram(string, float64, ...string) {}
func (NoOpPublisher) Timing(string, time.Duration, ...string) {}
func (NoOpPublisher) PublishHealthMetrics(*types.PublisherHealthMetrics) {}
func (NoOpPublisher) Close() error { return nil }

var _ types.Publisher = (*NoOpPublisher)(nil)
