package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

const scanBatch = 200

// BreakerConfig controls the circuit breaker guarding Redis calls.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32
}

// DefaultBreakerConfig returns the breaker settings used in production.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
		MaxRequests:      1,
	}
}

// RedisStore is a Store backed by Redis. Every call goes through a circuit
// breaker so an unreachable Redis degrades to immediate errors instead of a
// network timeout per request.
type RedisStore struct {
	client  redis.UniversalClient
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
}

// NewRedisStore wraps client with a circuit breaker.
func NewRedisStore(client redis.UniversalClient, cfg BreakerConfig, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}

	settings := gobreaker.Settings{
		Name:        "availability-cache",
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// A missing key is an answer, not a failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cache circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &RedisStore{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		logger:  logger,
	}
}

// State exposes the breaker state for health reporting.
func (s *RedisStore) State() gobreaker.State {
	return s.breaker.State()
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.breaker.Execute(func() (any, error) {
		return s.client.Get(ctx, key).Bytes()
	})
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.client.Set(ctx, key, value, ttl).Err()
	})
	return err
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.client.Del(ctx, keys...).Err()
	})
	return err
}

// DeletePattern walks the keyspace with SCAN and deletes matches in batches.
func (s *RedisStore) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	v, err := s.breaker.Execute(func() (any, error) {
		var deleted int64
		batch := make([]string, 0, scanBatch)

		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			n, err := s.client.Del(ctx, batch...).Result()
			deleted += n
			batch = batch[:0]
			return err
		}

		iter := s.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) == scanBatch {
				if err := flush(); err != nil {
					return deleted, err
				}
			}
		}
		if err := iter.Err(); err != nil {
			return deleted, err
		}
		if err := flush(); err != nil {
			return deleted, err
		}
		return deleted, nil
	})
	n, _ := v.(int64)
	return n, err
}
