package config

import "time"

// DefaultConfig returns a configuration with sensible defaults: an
// in-memory backend, no Redis, metrics tracked but not shipped anywhere.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Type:       BackendMemory,
			Instrument: true,
		},
		Memory: MemoryConfig{
			CleanupInterval: time.Minute,
			MaxSizeMB:       256,
			Shards:          1024,
			MaxEntrySize:    10 * 1024 * 1024, // 10MB
		},
		Redis: RedisConfig{
			Address:             "localhost:6379",
			Password:            SecretString{},
			DB:                  0,
			KeyPrefix:           "redisemu:",
			PoolSize:            100,
			MinIdleConns:        10,
			DialTimeout:         5 * time.Second,
			ReadTimeout:         3 * time.Second,
			WriteTimeout:        3 * time.Second,
			PoolTimeout:         4 * time.Second,
			HealthCheckInterval: 5 * time.Second,
		},
		Bolt: BoltConfig{
			Path:        "redisemu.db",
			Bucket:      "entries",
			OpenTimeout: time.Second,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:             true,
			FailureThreshold:    5,
			SuccessThreshold:    2,
			OpenDuration:        30 * time.Second,
			HalfOpenMaxRequests: 3,
		},
		Retry: RetryConfig{
			Enabled:        true,
			MaxAttempts:    3,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			Multiplier:     2.0,
			Jitter:         true,
		},
		Bulkhead: BulkheadConfig{
			Enabled:        true,
			MaxConcurrent:  100,
			MaxQueue:       50,
			AcquireTimeout: 100 * time.Millisecond,
		},
		Metrics: MetricsConfig{
			Enabled:         true,
			PublishInterval: 10 * time.Second,
			DataDog: DataDogConfig{
				Enabled:   false,
				AgentHost: "127.0.0.1",
				Port:      8125,
				Prefix:    "redisemu",
				Tags:      []string{},
			},
			Prometheus: PrometheusConfig{
				Enabled:   false,
				Namespace: "redisemu",
			},
		},
		KeyValidation: KeyValidationConfig{
			Enabled:           true,
			MaxKeyLength:      0,
			AllowEmpty:        true,
			AllowControlChars: false,
			AllowWhitespace:   true,
		},
		Emulation: EmulationConfig{
			StrictIntegers: false,
		},
	}
}

// ForTesting returns a minimal configuration suitable for unit tests.
func ForTesting() *Config {
	cfg := DefaultConfig()

	cfg.Backend.Instrument = false
	cfg.Memory = MemoryConfig{
		CleanupInterval: 0,
		MaxSizeMB:       16,
		Shards:          64,
		MaxEntrySize:    1024 * 1024, // 1MB
	}

	cfg.Redis.KeyPrefix = "test:"
	cfg.Redis.PoolSize = 10
	cfg.Redis.MinIdleConns = 1
	cfg.Redis.DialTimeout = time.Second
	cfg.Redis.ReadTimeout = time.Second
	cfg.Redis.WriteTimeout = time.Second
	cfg.Redis.PoolTimeout = time.Second
	cfg.Redis.HealthCheckInterval = 0

	cfg.CircuitBreaker.Enabled = false
	cfg.CircuitBreaker.FailureThreshold = 3
	cfg.CircuitBreaker.SuccessThreshold = 1
	cfg.CircuitBreaker.OpenDuration = time.Second
	cfg.CircuitBreaker.HalfOpenMaxRequests = 1

	cfg.Retry = RetryConfig{
		Enabled:        false,
		MaxAttempts:    1,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
		Multiplier:     2.0,
	}

	cfg.Bulkhead.Enabled = false
	cfg.Bulkhead.MaxConcurrent = 10
	cfg.Bulkhead.MaxQueue = 5
	cfg.Bulkhead.AcquireTimeout = 50 * time.Millisecond

	cfg.Metrics.Enabled = false
	cfg.Metrics.PublishInterval = time.Second

	return cfg
}

// ForTestingWithRedis returns a test config backed by the Redis server at addr.
func ForTestingWithRedis(addr string) *Config {
	cfg := ForTesting()
	cfg.Backend.Type = BackendRedis
	cfg.Redis.Address = addr
	return cfg
}
