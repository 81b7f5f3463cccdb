package backend

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/LavishGent/redisemu/internal/config"
	"github.com/LavishGent/redisemu/internal/resilience"
	"github.com/LavishGent/redisemu/internal/types"
)

const (
	disconnectErrorThreshold = 5
	clearScanCount           = 100
	faultWarnInterval        = 10 * time.Second
)

// RedisBackend stores entries in a Redis server under a key prefix. Every
// call goes through a resilience executor; expiry is native.
type RedisBackend struct {
	client *redis.Client
	config config.RedisConfig
	policy resilience.Executor
	logger *slog.Logger

	mu            sync.RWMutex
	lastError     error
	lastErrorTime time.Time
	onCircuit     func(from, to string)

	connected  atomic.Bool
	errorCount atomic.Int64
	warnLimit  *rate.Limiter

	healthCheckStopCh chan struct{}
	healthCheckWg     sync.WaitGroup
	closeOnce         sync.Once

	hits    atomic.Int64
	misses  atomic.Int64
	writes  atomic.Int64
	deletes atomic.Int64
}

// NewRedisBackend connects to the server in cfg. An unreachable server is
// not an error: the backend starts disconnected and keeps trying.
func NewRedisBackend(cfg config.RedisConfig, policy resilience.Executor, logger *slog.Logger) *RedisBackend {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == nil {
		policy = resilience.NewDisabledPolicy()
	}

	opts := &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password.Value(),
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
	}

	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{
			InsecureSkipVerify: cfg.TLSSkipVerify,
		}
		if cfg.TLSSkipVerify {
			logger.Warn("TLS certificate verification is disabled - this is insecure for production use")
		}
	}

	return newRedisBackend(redis.NewClient(opts), cfg, policy, logger)
}

func newRedisBackend(client *redis.Client, cfg config.RedisConfig, policy resilience.Executor, logger *slog.Logger) *RedisBackend {
	rb := &RedisBackend{
		client:            client,
		config:            cfg,
		policy:            policy,
		logger:            logger.With("component", "redis-backend"),
		warnLimit:         rate.NewLimiter(rate.Every(faultWarnInterval), 1),
		healthCheckStopCh: make(chan struct{}),
	}

	policy.SetOnCircuitStateChange(rb.circuitStateChanged)

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout(cfg))
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		rb.logger.Warn("Redis initial connection failed", "address", cfg.Address, "error", err)
		rb.setError(err)
	} else {
		rb.connected.Store(true)
		rb.logger.Info("Redis connected", "address", cfg.Address)
	}

	if cfg.HealthCheckInterval > 0 {
		rb.healthCheckWg.Add(1)
		go rb.healthCheckWorker()
	}

	return rb
}

func dialTimeout(cfg config.RedisConfig) time.Duration {
	if cfg.DialTimeout > 0 {
		return cfg.DialTimeout
	}
	return 5 * time.Second
}

func (r *RedisBackend) Name() string {
	return config.BackendRedis
}

// IsAvailable reports whether the last contact with the server succeeded.
func (r *RedisBackend) IsAvailable() bool {
	return r.connected.Load()
}

// CircuitState returns the breaker state as a string.
func (r *RedisBackend) CircuitState() string {
	return r.policy.CircuitState().String()
}

// SetOnCircuitStateChange registers fn to run on every breaker transition,
// after the transition is logged.
func (r *RedisBackend) SetOnCircuitStateChange(fn func(from, to string)) {
	r.mu.Lock()
	r.onCircuit = fn
	r.mu.Unlock()
}

func (r *RedisBackend) circuitStateChanged(from, to resilience.State) {
	if to == resilience.StateOpen {
		r.logger.Warn("Redis circuit breaker opened", "from", from.String())
	} else {
		r.logger.Info("Redis circuit breaker state changed", "from", from.String(), "to", to.String())
	}

	r.mu.RLock()
	fn := r.onCircuit
	r.mu.RUnlock()
	if fn != nil {
		fn(from.String(), to.String())
	}
}

func (r *RedisBackend) prefixKey(key string) string {
	return r.config.KeyPrefix + key
}

func (r *RedisBackend) Exists(ctx context.Context, key string) (bool, error) {
	n, err := resilience.Call(ctx, r.policy, func(ctx context.Context) (int64, error) {
		return r.client.Exists(ctx, r.prefixKey(key)).Result()
	})
	if err != nil {
		return false, r.fault("Exists", key, err)
	}

	r.clearError()
	return n > 0, nil
}

func (r *RedisBackend) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := resilience.Call(ctx, r.policy, func(ctx context.Context) ([]byte, error) {
		data, err := r.client.Get(ctx, r.prefixKey(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, types.ErrCacheMiss
		}
		return data, err
	})
	if err != nil {
		if types.IsCacheMiss(err) {
			r.misses.Add(1)
			r.clearError()
			return nil, err
		}
		return nil, r.fault("Read", key, err)
	}

	r.hits.Add(1)
	r.clearError()
	return data, nil
}

// Write issues a plain SET, which also drops any TTL the key had.
func (r *RedisBackend) Write(ctx context.Context, key string, value []byte, opts *types.WriteOptions) error {
	var ttl time.Duration
	if opts != nil && opts.TTL > 0 {
		ttl = opts.TTL
	}

	err := r.policy.Execute(ctx, func(ctx context.Context) error {
		return r.client.Set(ctx, r.prefixKey(key), value, ttl).Err()
	})
	if err != nil {
		return r.fault("Write", key, err)
	}

	r.writes.Add(1)
	r.clearError()
	return nil
}

func (r *RedisBackend) Delete(ctx context.Context, key string) (bool, error) {
	n, err := resilience.Call(ctx, r.policy, func(ctx context.Context) (int64, error) {
		return r.client.Del(ctx, r.prefixKey(key)).Result()
	})
	if err != nil {
		return false, r.fault("Delete", key, err)
	}

	r.clearError()
	if n == 0 {
		return false, nil
	}
	r.deletes.Add(1)
	return true, nil
}

// Clear removes every key under the configured prefix with SCAN and DEL.
func (r *RedisBackend) Clear(ctx context.Context) error {
	pattern := r.prefixKey("*")
	var deleted int64

	err := r.policy.Execute(ctx, func(ctx context.Context) error {
		var cursor uint64
		for {
			keys, next, err := r.client.Scan(ctx, cursor, pattern, clearScanCount).Result()
			if err != nil {
				return err
			}
			if len(keys) > 0 {
				n, err := r.client.Del(ctx, keys...).Result()
				if err != nil {
					return err
				}
				deleted += n
			}
			cursor = next
			if cursor == 0 {
				return nil
			}
		}
	})
	if err != nil {
		return r.fault("Clear", "", err)
	}

	r.logger.Debug("Cleared keys", "pattern", pattern, "deleted", deleted)
	r.clearError()
	return nil
}

func (r *RedisBackend) Stats() types.BackendStats {
	return types.BackendStats{
		Hits:    r.hits.Load(),
		Misses:  r.misses.Load(),
		Writes:  r.writes.Load(),
		Deletes: r.deletes.Load(),
	}
}

func (r *RedisBackend) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.connected.Store(false)
		close(r.healthCheckStopCh)
		r.healthCheckWg.Wait()
		err = r.client.Close()
	})
	return err
}

// LastError returns the most recent fault and when it happened.
func (r *RedisBackend) LastError() (time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErrorTime, r.lastError
}

func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// fault records err and returns it wrapped as a CacheError. Resilience
// sentinels pass through unwrapped so callers can match them directly.
func (r *RedisBackend) fault(op, key string, err error) error {
	if resilience.IsCircuitOpen(err) || resilience.IsBulkheadError(err) {
		return err
	}
	if !resilience.IsFault(err) {
		return err
	}

	r.handleError(op, err)
	return types.NewCacheError(op, key, config.BackendRedis, err)
}

func (r *RedisBackend) healthCheckWorker() {
	defer r.healthCheckWg.Done()

	ticker := time.NewTicker(r.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.healthCheckStopCh:
			return
		case <-ticker.C:
			r.performHealthCheck()
		}
	}
}

func (r *RedisBackend) performHealthCheck() {
	wasConnected := r.connected.Load()

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout(r.config))
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		if wasConnected {
			r.logger.Warn("Redis health check failed", "error", err)
			r.setError(err)
		}
		return
	}

	if !wasConnected {
		r.connected.Store(true)
		r.errorCount.Store(0)
		r.logger.Info("Redis connection restored via health check")
	}
}

func (r *RedisBackend) handleError(op string, err error) {
	r.mu.Lock()
	r.lastError = err
	r.lastErrorTime = time.Now()
	r.mu.Unlock()

	count := r.errorCount.Add(1)

	if r.warnLimit.Allow() {
		r.logger.Warn("Redis operation failed", "op", op, "error", err, "consecutive_errors", count)
	} else {
		r.logger.Debug("Redis operation failed", "op", op, "error", err, "consecutive_errors", count)
	}

	if count >= disconnectErrorThreshold && r.connected.CompareAndSwap(true, false) {
		r.logger.Warn("Redis marked as disconnected after errors",
			"error_count", count,
			"last_error", err,
		)
	}
}

func (r *RedisBackend) clearError() {
	if r.errorCount.Swap(0) > 0 || !r.connected.Load() {
		if r.connected.CompareAndSwap(false, true) {
			r.logger.Info("Redis connection restored")
		}
	}
}

func (r *RedisBackend) setError(err error) {
	r.mu.Lock()
	r.lastError = err
	r.lastErrorTime = time.Now()
	r.mu.Unlock()
	r.connected.Store(false)
}

var (
	_ types.Backend             = (*RedisBackend)(nil)
	_ types.Closer              = (*RedisBackend)(nil)
	_ types.AvailabilityChecker = (*RedisBackend)(nil)
	_ types.StatsProvider       = (*RedisBackend)(nil)
)
