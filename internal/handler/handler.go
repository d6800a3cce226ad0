// Package handler exposes the cart engine, menu and checkout over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/digital-hub/internal/domain/auth"
	"github.com/xenking/digital-hub/internal/domain/cart"
	"github.com/xenking/digital-hub/internal/domain/menu"
	"github.com/xenking/digital-hub/internal/domain/order"
)

// Carts is the session cart store the handlers mutate.
type Carts interface {
	Load(ctx context.Context, session string) (*cart.Cart, error)
	Update(ctx context.Context, session string, fn func(c *cart.Cart) error) (*cart.Cart, error)
	Clear(ctx context.Context, session string) error
}

// Orders is the checkout service.
type Orders interface {
	PlaceOrder(ctx context.Context, req order.PlaceOrderRequest) (*order.Order, error)
	Get(ctx context.Context, session, id string) (*order.Order, error)
	List(ctx context.Context, session string) ([]order.Order, error)
	ConfirmPayment(ctx context.Context, session, id string) (*order.Order, error)
	VerifyPayment(ctx context.Context, req order.VerifyPaymentRequest) (*order.Order, error)
	UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error)
}

// KeyVerifier authenticates API keys.
type KeyVerifier interface {
	Verify(ctx context.Context, key string) (*auth.APIKeyInfo, error)
}

var (
	_ Carts       = (*cart.Manager)(nil)
	_ Orders      = (*order.Service)(nil)
	_ KeyVerifier = (*auth.Verifier)(nil)
)

// Config holds non-dependency settings of the Handler.
type Config struct {
	// Meter records cart and order counters. Defaults to a no-op meter.
	Meter metric.Meter
}

// Handler serves the /api routes.
type Handler struct {
	carts  Carts
	menu   menu.Repository
	orders Orders
	keys   KeyVerifier

	// menuCalls coalesces concurrent catalog reads.
	menuCalls singleflight.Group

	mutations metric.Int64Counter
	placed    metric.Int64Counter
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(cfg Config, carts Carts, menuRepo menu.Repository, orders Orders, keys KeyVerifier) (*Handler, error) {
	meter := cfg.Meter
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("hub")
	}
	mutations, err := meter.Int64Counter("hub.cart.mutations",
		metric.WithDescription("Cart mutations by operation and service type"),
	)
	if err != nil {
		return nil, err
	}
	placed, err := meter.Int64Counter("hub.orders.placed",
		metric.WithDescription("Orders placed"),
	)
	if err != nil {
		return nil, err
	}
	return &Handler{
		carts:     carts,
		menu:      menuRepo,
		orders:    orders,
		keys:      keys,
		mutations: mutations,
		placed:    placed,
	}, nil
}

// Routes registers the API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/menu", h.listMenu)

		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.getCart)
				r.Delete("/", h.clearCart)
				r.Get("/services/{serviceType}", h.getService)

				r.Post("/items", h.addItem)
				r.Patch("/items/{serviceType}/{id}", h.updateQuantity)
				r.Delete("/items/{serviceType}/{id}", h.removeItem)

				r.Post("/restaurant", h.addRestaurantItem)
				r.Post("/game", h.addGameSession)
				r.Post("/print", h.addPrintJob)
				r.Post("/ecommerce", h.addProduct)
				r.Post("/logistics", h.addDelivery)
				r.Post("/streaming", h.addStreamingContent)
				r.Post("/download", h.addDownload)
			})

			r.Group(func(r chi.Router) {
				r.Use(h.requireAPIKey(auth.ScopeOrders))
				r.Get("/orders", h.listOrders)
				r.Post("/orders", h.placeOrder)
				r.Get("/orders/{id}", h.getOrder)
				r.Post("/orders/{id}/confirm-payment", h.confirmPayment)
			})
		})

		// Staff routes act on any order, not on a session.
		r.Group(func(r chi.Router) {
			r.Use(h.requireAPIKey(auth.ScopeStaff))
			r.Post("/payments/verify", h.verifyPayment)
			r.Put("/orders/{id}/status", h.updateOrderStatus)
		})
	})
}

// Router returns a chi router with only the API routes, for tests and
// embedding.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	h.Routes(r)
	return r
}
