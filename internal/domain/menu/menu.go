// Package menu holds the restaurant catalog that restaurant cart lines are
// priced from.
package menu

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/digital-hub/internal/domain/cart"
)

var (
	// ErrNotFound is returned when a requested menu item does not exist.
	ErrNotFound = errors.New("menu item not found")
	// ErrUnavailable is returned when a menu item exists but cannot be ordered.
	ErrUnavailable = errors.New("menu item unavailable")
)

// Item is a dish or drink on the menu.
type Item struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	ImageURL    string
	Available   bool
}

// Listing converts the menu item into a cart listing at its catalog price.
func (i Item) Listing() cart.Listing {
	return cart.Listing{
		ID:       i.ID,
		Name:     i.Name,
		Price:    i.Price,
		ImageURL: i.ImageURL,
	}
}

// Repository defines read operations for the menu.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	GetByID(ctx context.Context, id string) (*Item, error)
}

// Orderable fetches a menu item and checks it can be added to a cart.
func Orderable(ctx context.Context, repo Repository, id string) (*Item, error) {
	it, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !it.Available {
		return nil, ErrUnavailable
	}
	return it, nil
}
