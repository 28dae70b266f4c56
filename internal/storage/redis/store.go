// Package redis backs the session store with Redis. Each session's cart,
// shipping address, and payment-method preference live under their own string
// keys with a sliding TTL, so abandoned sessions age out on their own.
package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long session keys live without being written again.
const DefaultTTL = 30 * 24 * time.Hour

// Store implements the session store contract over a Redis client.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the per-key expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithPrefix namespaces all keys, for shared Redis deployments.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New creates a Store over an existing client.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: "storefront:",
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to the given Redis URL (redis://...) and returns a Store; the
// connection is verified with a ping.
func Open(ctx context.Context, url string, opts ...Option) (*Store, error) {
	cfg, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(cfg)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "ping redis")
	}
	return New(client, opts...), nil
}

// Ping reports connectivity, for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Get returns the value for key and whether it exists. A hit refreshes the
// key's TTL so active sessions never expire mid-checkout.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.GetEx(ctx, s.prefix+key, s.ttl).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "redis get")
	}
	return val, true, nil
}

// Set stores value under key with the configured TTL.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}
