package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/digital-hub/internal/domain/cart"
)

const (
	loadCartSQL = `SELECT data FROM cart_sessions WHERE key = $1`

	saveCartSQL = `INSERT INTO cart_sessions (key, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`
)

var _ cart.Store = (*CartStore)(nil)

// CartStore keeps serialized carts in the cart_sessions table, one row per
// session key.
type CartStore struct {
	pool *pgxpool.Pool
}

// NewCartStore returns a CartStore that uses the given pool.
func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// Load returns the stored payload, or cart.ErrNotFound.
func (s *CartStore) Load(ctx context.Context, key string) ([]byte, error) {
	var data string
	if err := s.pool.QueryRow(ctx, loadCartSQL, key).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("loading cart %q: %w", key, err)
	}
	return []byte(data), nil
}

// Save overwrites the payload stored under key.
func (s *CartStore) Save(ctx context.Context, key string, data []byte) error {
	if _, err := s.pool.Exec(ctx, saveCartSQL, key, string(data)); err != nil {
		return fmt.Errorf("saving cart %q: %w", key, err)
	}
	return nil
}
