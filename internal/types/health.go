package types

import "time"

type HealthStatus int

const (
	HealthStatusHealthy HealthStatus = iota + 1
	// HealthStatusDegraded means the backend answers but reports trouble,
	// for example an open circuit breaker.
	HealthStatusDegraded
	HealthStatusUnhealthy
)

func (s HealthStatus) String() string {
	switch s {
	case HealthStatusHealthy:
		return "healthy"
	case HealthStatusDegraded:
		return "degraded"
	case HealthStatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// HealthMetrics is a point-in-time view of the active backend.
type HealthMetrics struct {
	Timestamp           time.Time
	Backend             string
	CircuitBreakerState string
	Stats               BackendStats
	Status              HealthStatus
	Available           bool
}

// MetricsSnapshot contains a point-in-time view of tracked metrics.
//
//nolint:govet // Metrics struct with many counters - grouping by category improves readability
type MetricsSnapshot struct {
	Timestamp time.Time

	Hits        int64
	Misses      int64
	ReadCount   int64
	WriteCount  int64
	DeleteCount int64
	ErrorCount  int64

	CommandCount int64
	Commands     map[string]int64

	BytesWritten int64

	// Command latency percentiles, in milliseconds.
	AvgLatencyMs float64
	P50LatencyMs float64
	P95LatencyMs float64
	P99LatencyMs float64

	BackendAvgLatencyMs float64

	CircuitStateChanges int64
}

func (s *MetricsSnapshot) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// PublisherHealthMetrics is the periodic batch handed to a Publisher.
//
//nolint:govet // Metrics struct - grouping by category improves readability
type PublisherHealthMetrics struct {
	Backend      string
	CircuitState string
	Available    bool

	Hits        int64
	Misses      int64
	Writes      int64
	Deletes     int64
	Expirations int64
	Errors      int64

	Commands     map[string]int64
	HitRatio     float64
	AvgLatencyMs float64
	P99LatencyMs float64
}
