//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/digital-hub/internal/domain/auth"
	"github.com/xenking/digital-hub/internal/domain/cart"
	"github.com/xenking/digital-hub/internal/domain/menu"
	"github.com/xenking/digital-hub/internal/domain/order"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("hub"),
		tcpostgres.WithUsername("hub"),
		tcpostgres.WithPassword("hub"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %s", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))
	// Migrations are idempotent.
	require.NoError(t, RunMigrations(ctx, pool))
	return pool
}

func TestRepositories(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	t.Run("menu", func(t *testing.T) {
		repo := NewMenuRepository(pool)
		require.NoError(t, repo.Upsert(ctx, menu.Item{
			ID: "fries", Name: "Crispy French Fries", Price: decimal.NewFromInt(1500),
			Category: "Sides", Available: true,
		}))
		require.NoError(t, repo.Upsert(ctx, menu.Item{
			ID: "shake", Name: "Hub Monster Shake", Price: decimal.RequireFromString("2500.50"),
			Category: "Drinks",
		}))

		items, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "shake", items[0].ID)
		assert.True(t, decimal.RequireFromString("2500.50").Equal(items[0].Price))
		assert.False(t, items[0].Available)

		it, err := repo.GetByID(ctx, "fries")
		require.NoError(t, err)
		assert.Equal(t, "Crispy French Fries", it.Name)

		_, err = repo.GetByID(ctx, "missing")
		require.ErrorIs(t, err, menu.ErrNotFound)
	})

	t.Run("orders", func(t *testing.T) {
		repo := NewOrderRepository(pool)
		o := &order.Order{
			ID:        "3f1c6a9e-0000-4000-8000-000000000001",
			DisplayID: "DH-12345678",
			SessionID: "s1",
			Items: []order.Item{{
				ItemID: "ps5", ServiceType: cart.ServiceGame, Name: "PS5",
				Price: decimal.NewFromInt(2000), Qty: 2,
				Details: cart.Details{"duration": float64(60), "sessionType": "casual"},
			}},
			Total:         decimal.NewFromInt(4000),
			Status:        order.StatusPending,
			PaymentStatus: order.PaymentPending,
			PaymentMethod: order.PaymentBankTransfer,
			CreatedAt:     time.Now().UTC().Truncate(time.Millisecond),
		}
		require.NoError(t, repo.Create(ctx, o))

		got, err := repo.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, o.DisplayID, got.DisplayID)
		assert.True(t, o.Total.Equal(got.Total))
		require.Len(t, got.Items, 1)
		assert.Equal(t, "casual", got.Items[0].Details["sessionType"])
		assert.True(t, o.CreatedAt.Equal(got.CreatedAt))

		require.NoError(t, repo.Transition(ctx, o.ID, order.Transition{
			FromStatus:        order.StatusPending,
			FromPaymentStatus: order.PaymentPending,
			Status:            order.StatusPending,
			PaymentStatus:     order.PaymentPendingVerification,
		}))
		got, err = repo.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.PaymentPendingVerification, got.PaymentStatus)

		// The order is no longer pending/pending: the stale transition is refused.
		err = repo.Transition(ctx, o.ID, order.Transition{
			FromStatus:        order.StatusPending,
			FromPaymentStatus: order.PaymentPending,
			Status:            order.StatusCancelled,
			PaymentStatus:     order.PaymentFailed,
		})
		require.ErrorIs(t, err, order.ErrInvalidTransition)
		got, err = repo.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPending, got.Status)

		err = repo.Transition(ctx, "missing", order.Transition{
			FromStatus: order.StatusPending, FromPaymentStatus: order.PaymentPending,
			Status: order.StatusConfirmed, PaymentStatus: order.PaymentVerified,
		})
		require.ErrorIs(t, err, order.ErrNotFound)

		newer := *o
		newer.ID = "3f1c6a9e-0000-4000-8000-000000000002"
		newer.CreatedAt = o.CreatedAt.Add(time.Minute)
		require.NoError(t, repo.Create(ctx, &newer))
		other := *o
		other.ID = "3f1c6a9e-0000-4000-8000-000000000003"
		other.SessionID = "s2"
		require.NoError(t, repo.Create(ctx, &other))

		list, err := repo.ListBySession(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newer.ID, list[0].ID)
		assert.Equal(t, o.ID, list[1].ID)

		_, err = repo.Get(ctx, "missing")
		require.ErrorIs(t, err, order.ErrNotFound)
	})

	t.Run("api keys", func(t *testing.T) {
		repo := NewAPIKeyRepository(pool)
		pepper := []byte("pepper")
		require.NoError(t, repo.Upsert(ctx, auth.APIKeyInfo{
			ID: "default", KeyHash: auth.HashKey(pepper, "secret"), Name: "Front desk", Scopes: []string{"orders"},
		}))

		info, err := auth.NewVerifier(repo, pepper).Verify(ctx, "secret")
		require.NoError(t, err)
		assert.Equal(t, []string{"orders"}, info.Scopes)

		_, err = repo.FindByHash(ctx, "nope")
		require.ErrorIs(t, err, auth.ErrUnknownKey)
	})

	t.Run("cart store", func(t *testing.T) {
		store := NewCartStore(pool)

		_, err := store.Load(ctx, "s1")
		require.ErrorIs(t, err, cart.ErrNotFound)

		require.NoError(t, store.Save(ctx, "s1", []byte(`[]`)))
		require.NoError(t, store.Save(ctx, "s1", []byte(`[{"id":"1"}]`)))

		data, err := store.Load(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, `[{"id":"1"}]`, string(data))

		m := cart.NewManager(store)
		c, err := m.Update(ctx, "s2", func(c *cart.Cart) error {
			c.AddGameSession(cart.Listing{ID: "ps5", Name: "PS5"}, 120, cart.SessionCasual)
			return nil
		})
		require.NoError(t, err)
		reloaded, err := m.Load(ctx, "s2")
		require.NoError(t, err)
		assert.True(t, c.TotalAmount().Equal(reloaded.TotalAmount()))
	})
}
