package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"TradeHelper/internal/model"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// ErrCacheMiss is returned by a TickStore when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// TickStore is the key/value backend used by CachedFetcher.
type TickStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// RedisStore is a TickStore backed by Redis with JSON values.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to addr. Connectivity is checked lazily on first use.
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		prefix: "tradehelper:",
	}
}

// Set stores value as JSON under key with a TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+key, data, ttl).Err()
}

// Get decodes the JSON stored under key into dest.
func (s *RedisStore) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// CachedFetcher serves recent replies from a TickStore so sessions polling
// the same symbol share one upstream fetch per TTL.
type CachedFetcher struct {
	Fetcher Fetcher
	Store   TickStore
	TTL     time.Duration
}

func (c *CachedFetcher) Name() string { return c.Fetcher.Name() }

func cacheKey(source, symbol string, iv model.Interval) string {
	return fmt.Sprintf("ticks:%s:%s:%s", source, strings.ToUpper(symbol), iv)
}

func (c *CachedFetcher) FetchTicks(ctx context.Context, symbol string, iv model.Interval) ([]model.Tick, error) {
	key := cacheKey(c.Fetcher.Name(), symbol, iv)

	var cached []model.Tick
	err := c.Store.Get(ctx, key, &cached)
	switch {
	case err == nil && len(cached) > 0:
		return cached, nil
	case err != nil && !errors.Is(err, ErrCacheMiss):
		logrus.WithField("key", key).Warnf("tick cache read failed: %v", err)
	}

	ticks, err := c.Fetcher.FetchTicks(ctx, symbol, iv)
	if err != nil {
		return nil, err
	}
	if err := c.Store.Set(ctx, key, ticks, c.TTL); err != nil {
		logrus.WithField("key", key).Warnf("tick cache write failed: %v", err)
	}
	return ticks, nil
}
