package cart

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Manager gives each session a cart backed by a Store. Mutations for the same
// session are serialized; every mutation is written through to the store.
type Manager struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager creates a Manager persisting to store.
func NewManager(store Store) *Manager {
	return &Manager{
		store: store,
		locks: make(map[string]*sessionLock),
	}
}

// Load returns the current cart of a session. Missing or unreadable state
// yields an empty cart.
func (m *Manager) Load(ctx context.Context, session string) (*Cart, error) {
	return m.load(ctx, session)
}

// Update loads the session cart, applies fn and saves the result. If fn
// returns an error nothing is saved. A failed save is logged and otherwise
// ignored; the updated cart is still returned.
func (m *Manager) Update(ctx context.Context, session string, fn func(c *Cart) error) (*Cart, error) {
	unlock := m.lock(session)
	defer unlock()

	c, err := m.load(ctx, session)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}

	data, err := MarshalItems(c.items)
	if err != nil {
		zctx.From(ctx).Warn("Encode cart", zap.String("session", session), zap.Error(err))
		return c, nil
	}
	if err := m.store.Save(ctx, session, data); err != nil {
		zctx.From(ctx).Warn("Save cart", zap.String("session", session), zap.Error(err))
	}
	return c, nil
}

// Clear empties the session cart.
func (m *Manager) Clear(ctx context.Context, session string) error {
	_, err := m.Update(ctx, session, func(c *Cart) error {
		c.Clear()
		return nil
	})
	return err
}

func (m *Manager) load(ctx context.Context, session string) (*Cart, error) {
	data, err := m.store.Load(ctx, session)
	if errors.Is(err, ErrNotFound) {
		return New(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	items, err := UnmarshalItems(data)
	if err != nil {
		zctx.From(ctx).Warn("Discarding unreadable cart",
			zap.String("session", session),
			zap.Error(err),
		)
		return New(), nil
	}
	return &Cart{items: items}, nil
}

func (m *Manager) lock(session string) func() {
	m.mu.Lock()
	l, ok := m.locks[session]
	if !ok {
		l = &sessionLock{}
		m.locks[session] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, session)
		}
		m.mu.Unlock()
	}
}
