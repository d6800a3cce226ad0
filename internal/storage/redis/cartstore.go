// Package redis stores serialized session carts in Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/digital-hub/internal/domain/cart"
)

var _ cart.Store = (*CartStore)(nil)

// CartStore keeps one string key per session. Entries do not expire unless
// a TTL is set, matching a browser's persistent storage slot.
type CartStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// Option configures a CartStore.
type Option func(*CartStore)

// WithPrefix sets the key namespace. Defaults to "unifiedCart".
func WithPrefix(prefix string) Option {
	return func(s *CartStore) { s.prefix = prefix }
}

// WithTTL expires idle carts after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *CartStore) { s.ttl = ttl }
}

// NewCartStore creates a CartStore on top of client.
func NewCartStore(client redis.UniversalClient, opts ...Option) *CartStore {
	s := &CartStore{client: client, prefix: "unifiedCart"}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load returns the stored payload, or cart.ErrNotFound.
func (s *CartStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}
	return data, nil
}

// Save overwrites the payload stored under key.
func (s *CartStore) Save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.key(key), data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// Ping checks the connection, for readiness probes.
func (s *CartStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *CartStore) key(session string) string {
	return fmt.Sprintf("%s:%s", s.prefix, session)
}
