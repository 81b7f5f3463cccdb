// Package redisemu emulates the Redis string command set on top of a simple
// key-value backend.
//
// The backend only needs to read, write, check, delete and clear keys, with
// an optional expiry on write. redisemu ships four of them: an in-process
// bigcache store (the default), a real Redis server, a bolt file and a null
// store. Any type satisfying Backend can be plugged in instead.
//
// # Quick Start
//
//	client, err := redisemu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	ctx := context.Background()
//	client.Set(ctx, "greeting", "hello")
//	value, ok, err := client.Get(ctx, "greeting")
//
// # Commands
//
// GET, SET (NX, XX, EX, PX), DEL, EXISTS, EXPIRE, TTL, KEYS, FLUSHDB, PING,
// INFO, INCR, DECR, INCRBY, DECRBY, MGET, MSET, SETEX, SETNX, GETSET, APPEND
// and STRLEN are available as methods on Client. Do runs a command from its
// name and textual arguments:
//
//	reply, err := client.Do(ctx, "INCRBY", "counter", "5")
//
// # Known Differences From Redis
//
// The backend cannot report remaining time, enumerate keys or update a key
// atomically, so:
//
//   - TTL returns -2 for a missing key and -1 for every other key.
//   - KEYS returns an empty list for every pattern.
//   - INCR, DECR, EXPIRE, SETNX and SET NX/XX read and then write; concurrent
//     callers on the same key can lose updates.
//   - Pipelined and Multi run each command immediately. They are not
//     transactions and nothing is rolled back.
//   - INCR on a value that is not an integer counts from 0, unless
//     WithStrictIntegers is given.
//
// # Configuration
//
// Load configuration from a JSON or YAML file, with REDISEMU_* environment
// overrides:
//
//	client, err := redisemu.NewFromFile("redisemu.yaml")
//
// Or start from the defaults:
//
//	cfg := redisemu.DefaultConfig()
//	cfg.Backend.Type = "redis"
//	cfg.Redis.Address = "localhost:6379"
//	client, err := redisemu.NewFromConfig(cfg)
//
// # Observability
//
// With metrics enabled, backend health and command latencies are published
// periodically to the log, DataDog and/or Prometheus:
//
//	snapshot := client.Metrics()
//	health, err := client.Health(ctx)
package redisemu
