// Package config provides configuration management for redisemu.
package config

import (
	"time"

	"github.com/LavishGent/redisemu/internal/types"
)

// Backend type names accepted by BackendConfig.Type.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBolt   = "bolt"
	BackendNull   = "null"
)

type SecretString = types.SecretString

func NewSecretString(value string) SecretString {
	return types.NewSecretString(value)
}

// Config contains all configuration for an emulator instance.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type Config struct {
	Backend        BackendConfig        `json:"backend" yaml:"backend"`
	Memory         MemoryConfig         `json:"memory" yaml:"memory"`
	Redis          RedisConfig          `json:"redis" yaml:"redis"`
	Bolt           BoltConfig           `json:"bolt" yaml:"bolt"`
	CircuitBreaker CircuitBreakerConfig `json:"circuitBreaker" yaml:"circuitBreaker"`
	Retry          RetryConfig          `json:"retry" yaml:"retry"`
	Bulkhead       BulkheadConfig       `json:"bulkhead" yaml:"bulkhead"`
	Metrics        MetricsConfig        `json:"metrics" yaml:"metrics"`
	KeyValidation  KeyValidationConfig  `json:"keyValidation" yaml:"keyValidation"`
	Emulation      EmulationConfig      `json:"emulation" yaml:"emulation"`
}

// BackendConfig selects which store backs the emulator.
type BackendConfig struct {
	Type string `json:"type" yaml:"type"`
	// Instrument wraps the backend so every call is recorded by the metrics tracker.
	Instrument bool `json:"instrument" yaml:"instrument"`
}

// EmulationConfig tunes behavior where the emulation has a choice to make.
type EmulationConfig struct {
	// StrictIntegers makes INCR/DECR fail on a non-numeric value instead of
	// treating it as zero.
	StrictIntegers bool `json:"strictIntegers" yaml:"strictIntegers"`
}

type KeyValidationConfig struct {
	ReservedPatterns  []string `json:"reservedPatterns" yaml:"reservedPatterns"`
	MaxKeyLength      int      `json:"maxKeyLength" yaml:"maxKeyLength"`
	Enabled           bool     `json:"enabled" yaml:"enabled"`
	AllowEmpty        bool     `json:"allowEmpty" yaml:"allowEmpty"`
	AllowControlChars bool     `json:"allowControlChars" yaml:"allowControlChars"`
	AllowWhitespace   bool     `json:"allowWhitespace" yaml:"allowWhitespace"`
}

func (c KeyValidationConfig) ToTypesConfig() types.KeyValidationConfig {
	return types.KeyValidationConfig{
		MaxKeyLength:      c.MaxKeyLength,
		AllowEmpty:        c.AllowEmpty,
		AllowControlChars: c.AllowControlChars,
		AllowWhitespace:   c.AllowWhitespace,
		ReservedPatterns:  c.ReservedPatterns,
	}
}

// MemoryConfig configures the bigcache-backed in-process backend.
type MemoryConfig struct {
	// CleanupInterval is how often expired entries are swept. Zero leaves
	// expired entries in place until they are next touched.
	CleanupInterval time.Duration `json:"cleanupInterval" yaml:"cleanupInterval"`
	MaxSizeMB       int           `json:"maxSizeMB" yaml:"maxSizeMB"`
	Shards          int           `json:"shards" yaml:"shards"`
	MaxEntrySize    int           `json:"maxEntrySize" yaml:"maxEntrySize"`
}

// RedisConfig configures the go-redis backed backend.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type RedisConfig struct {
	DialTimeout         time.Duration `json:"dialTimeout" yaml:"dialTimeout"`
	ReadTimeout         time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout        time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	PoolTimeout         time.Duration `json:"poolTimeout" yaml:"poolTimeout"`
	HealthCheckInterval time.Duration `json:"healthCheckInterval" yaml:"healthCheckInterval"`
	Password            SecretString  `json:"password" yaml:"password"`
	Address             string        `json:"address" yaml:"address"`
	KeyPrefix           string        `json:"keyPrefix" yaml:"keyPrefix"`
	DB                  int           `json:"db" yaml:"db"`
	PoolSize            int           `json:"poolSize" yaml:"poolSize"`
	MinIdleConns        int           `json:"minIdleConns" yaml:"minIdleConns"`
	EnableTLS           bool          `json:"enableTLS" yaml:"enableTLS"`
	TLSSkipVerify       bool          `json:"tlsSkipVerify" yaml:"tlsSkipVerify"`
}

// BoltConfig configures the on-disk bolt backend.
type BoltConfig struct {
	Path        string        `json:"path" yaml:"path"`
	Bucket      string        `json:"bucket" yaml:"bucket"`
	OpenTimeout time.Duration `json:"openTimeout" yaml:"openTimeout"`
	NoSync      bool          `json:"noSync" yaml:"noSync"`
}

type CircuitBreakerConfig struct {
	Enabled             bool          `json:"enabled" yaml:"enabled"`
	FailureThreshold    int           `json:"failureThreshold" yaml:"failureThreshold"`
	SuccessThreshold    int           `json:"successThreshold" yaml:"successThreshold"`
	OpenDuration        time.Duration `json:"openDuration" yaml:"openDuration"`
	HalfOpenMaxRequests int           `json:"halfOpenMaxRequests" yaml:"halfOpenMaxRequests"`
}

type RetryConfig struct {
	InitialBackoff time.Duration `json:"initialBackoff" yaml:"initialBackoff"`
	MaxBackoff     time.Duration `json:"maxBackoff" yaml:"maxBackoff"`
	Multiplier     float64       `json:"multiplier" yaml:"multiplier"`
	MaxAttempts    int           `json:"maxAttempts" yaml:"maxAttempts"`
	Enabled        bool          `json:"enabled" yaml:"enabled"`
	Jitter         bool          `json:"jitter" yaml:"jitter"`
}

type BulkheadConfig struct {
	Enabled        bool          `json:"enabled" yaml:"enabled"`
	MaxConcurrent  int           `json:"maxConcurrent" yaml:"maxConcurrent"`
	MaxQueue       int           `json:"maxQueue" yaml:"maxQueue"`
	AcquireTimeout time.Duration `json:"acquireTimeout" yaml:"acquireTimeout"`
}

//nolint:govet // Small config struct - minimal alignment benefit
type MetricsConfig struct {
	PublishInterval time.Duration    `json:"publishInterval" yaml:"publishInterval"`
	DataDog         DataDogConfig    `json:"datadog" yaml:"datadog"`
	Prometheus      PrometheusConfig `json:"prometheus" yaml:"prometheus"`
	Enabled         bool             `json:"enabled" yaml:"enabled"`
}

//nolint:govet // Small config struct - minimal alignment benefit
type DataDogConfig struct {
	Tags      []string `json:"tags" yaml:"tags"`
	AgentHost string   `json:"agentHost" yaml:"agentHost"`
	Prefix    string   `json:"prefix" yaml:"prefix"`
	Port      int      `json:"port" yaml:"port"`
	Enabled   bool     `json:"enabled" yaml:"enabled"`
}

type PrometheusConfig struct {
	ConstLabels map[string]string `json:"constLabels" yaml:"constLabels"`
	Namespace   string            `json:"namespace" yaml:"namespace"`
	Enabled     bool              `json:"enabled" yaml:"enabled"`
}
