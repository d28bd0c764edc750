package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// DefaultRedisTTL bounds how long a checkpoint survives in Redis. SQLite
// keeps the durable copies.
const DefaultRedisTTL = 24 * time.Hour

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Key string        // key holding the JSON snapshot, e.g. "arrayd:checkpoint"
	TTL time.Duration // zero means DefaultRedisTTL

	// Breaker trips after this many consecutive failures (default 5) and
	// stays open for BreakerReset (default 10s).
	BreakerFailures int
	BreakerReset    time.Duration
}

// RedisStore keeps the latest snapshot as one JSON value under a key.
type RedisStore struct {
	client  *goredis.Client
	key     string
	ttl     time.Duration
	breaker *Breaker
	log     *slog.Logger
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *goredis.Client, cfg RedisConfig) *RedisStore {
	if cfg.Key == "" {
		cfg.Key = "arrayd:checkpoint"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultRedisTTL
	}
	if cfg.BreakerFailures <= 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerReset <= 0 {
		cfg.BreakerReset = 10 * time.Second
	}
	s := &RedisStore{
		client:  client,
		key:     cfg.Key,
		ttl:     cfg.TTL,
		breaker: NewBreaker(cfg.BreakerFailures, cfg.BreakerReset),
		log:     slog.Default().With(slog.String("component", "checkpoint-redis")),
	}
	s.breaker.OnStateChange = func(from, to BreakerState) {
		s.log.Warn("circuit breaker transition", slog.String("from", from.String()), slog.String("to", to.String()))
	}
	return s
}

// DialRedis connects and pings the server.
func DialRedis(ctx context.Context, addr, password string) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, Password: password})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (s *RedisStore) Name() string { return "redis" }

// Client returns the underlying client for health checks.
func (s *RedisStore) Client() *goredis.Client { return s.client }

// Breaker returns the store's circuit breaker.
func (s *RedisStore) Breaker() *Breaker { return s.breaker }

// Save overwrites the stored snapshot and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}
	return s.breaker.Execute(func() error {
		if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
			return fmt.Errorf("redis set %s: %w", s.key, err)
		}
		return nil
	})
}

// Load returns the stored snapshot, or nil and no error if there is none.
func (s *RedisStore) Load(ctx context.Context) (*Snapshot, error) {
	var data []byte
	err := s.breaker.Execute(func() error {
		var err error
		data, err = s.client.Get(ctx, s.key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("redis get %s: %w", s.key, err)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, err
	}
	return decode(data)
}
