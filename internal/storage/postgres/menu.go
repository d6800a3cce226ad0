package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/digital-hub/internal/domain/menu"
)

const (
	menuColumns = `id, name, description, price, category, image_url, available`

	listMenuSQL = `SELECT ` + menuColumns + ` FROM menu_items ORDER BY category, name`

	getMenuItemSQL = `SELECT ` + menuColumns + ` FROM menu_items WHERE id = $1`

	upsertMenuItemSQL = `INSERT INTO menu_items (` + menuColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			image_url = EXCLUDED.image_url,
			available = EXCLUDED.available`
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// List returns the whole menu grouped by category.
func (r *MenuRepository) List(ctx context.Context) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, listMenuSQL)
	if err != nil {
		return nil, fmt.Errorf("listing menu: %w", err)
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

// GetByID returns a single menu item.
func (r *MenuRepository) GetByID(ctx context.Context, id string) (*menu.Item, error) {
	rows, err := r.pool.Query(ctx, getMenuItemSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting menu item %q: %w", id, err)
	}

	it, err := pgx.CollectExactlyOneRow(rows, scanMenuItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrNotFound
		}
		return nil, fmt.Errorf("getting menu item %q: %w", id, err)
	}
	return &it, nil
}

// Upsert inserts or replaces a menu item.
func (r *MenuRepository) Upsert(ctx context.Context, it menu.Item) error {
	_, err := r.pool.Exec(ctx, upsertMenuItemSQL,
		it.ID, it.Name, it.Description, it.Price, it.Category, it.ImageURL, it.Available,
	)
	if err != nil {
		return fmt.Errorf("upserting menu item %q: %w", it.ID, err)
	}
	return nil
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var it menu.Item
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.Category, &it.ImageURL, &it.Available)
	return it, err
}
