package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	loadErr error
	saveErr error
	saves   int
}

func (s *failingStore) Load(_ context.Context, _ string) ([]byte, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return nil, ErrNotFound
}

func (s *failingStore) Save(_ context.Context, _ string, _ []byte) error {
	s.saves++
	return s.saveErr
}

func addBurger(c *Cart) error {
	c.AddRestaurantItem(Listing{ID: "b1", Name: "Burger", Price: decimal.NewFromInt(2500)}, 1, nil)
	return nil
}

func TestManager_WritesThrough(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(store)

	_, err := m.Update(ctx, "s1", addBurger)
	require.NoError(t, err)
	_, err = m.Update(ctx, "s1", addBurger)
	require.NoError(t, err)

	data, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	items, err := UnmarshalItems(data)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Qty)

	c, err := m.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5000).Equal(c.TotalAmount()))

	other, err := m.Load(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())
}

func TestManager_CorruptStateLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, "s1", []byte(`[{"id":`)))
	m := NewManager(store)

	c, err := m.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	c, err = m.Update(ctx, "s1", addBurger)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestManager_SaveFailureIsIgnored(t *testing.T) {
	store := &failingStore{saveErr: errors.New("disk full")}
	m := NewManager(store)

	c, err := m.Update(context.Background(), "s1", addBurger)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, store.saves)
}

func TestManager_LoadFailure(t *testing.T) {
	store := &failingStore{loadErr: errors.New("connection refused")}
	m := NewManager(store)

	_, err := m.Update(context.Background(), "s1", addBurger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load cart")
	assert.Zero(t, store.saves)
}

func TestManager_MutationErrorSkipsSave(t *testing.T) {
	store := &failingStore{}
	m := NewManager(store)
	boom := errors.New("boom")

	_, err := m.Update(context.Background(), "s1", func(c *Cart) error {
		c.Clear()
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, store.saves)
}

func TestManager_Clear(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())

	_, err := m.Update(ctx, "s1", addBurger)
	require.NoError(t, err)
	require.NoError(t, m.Clear(ctx, "s1"))

	c, err := m.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestManager_SerializesSession(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			_, err := m.Update(ctx, "shared", addBurger)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := m.Load(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, workers, c.TotalItems())
	assert.Empty(t, m.locks)
}
