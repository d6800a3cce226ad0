package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/digital-hub/internal/domain/cart"
)

// mutate applies fn to the session cart and responds with the updated cart.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op string, st cart.ServiceType, fn func(c *cart.Cart) error) {
	ctx := r.Context()
	c, err := h.carts.Update(ctx, sessionFrom(ctx), fn)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.countMutation(ctx, op, st)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCart(e, c)
	})
}

func (h *Handler) countMutation(ctx context.Context, op string, st cart.ServiceType) {
	attrs := []attribute.KeyValue{attribute.String("op", op)}
	if st != "" {
		attrs = append(attrs, attribute.String("service_type", string(st)))
	}
	h.mutations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Load(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCart(e, c)
	})
}

func (h *Handler) getService(w http.ResponseWriter, r *http.Request) {
	st, err := parseServiceType(chi.URLParam(r, "serviceType"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.carts.Load(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeServiceView(e, c, st)
	})
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "clear", "", func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := requireNonNegative("price", req.Price); err != nil {
		h.fail(w, r, err)
		return
	}
	it := req.item()
	h.mutate(w, r, "add", it.ServiceType, func(c *cart.Cart) error {
		c.Add(it)
		return nil
	})
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	st, err := parseServiceType(chi.URLParam(r, "serviceType"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req updateQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	h.mutate(w, r, "update_qty", st, func(c *cart.Cart) error {
		c.UpdateQuantity(id, st, *req.Qty)
		return nil
	})
}

// removeItem deletes every line with the id and service type. With a
// details query parameter only the line with exactly those details goes.
func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	st, err := parseServiceType(chi.URLParam(r, "serviceType"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")

	if !r.URL.Query().Has("details") {
		h.mutate(w, r, "remove", st, func(c *cart.Cart) error {
			c.Remove(id, st)
			return nil
		})
		return
	}

	var details cart.Details
	if err := json.Unmarshal([]byte(r.URL.Query().Get("details")), &details); err != nil {
		h.fail(w, r, badRequest("details must be a JSON object or null"))
		return
	}
	h.mutate(w, r, "remove_line", st, func(c *cart.Cart) error {
		c.RemoveLine(id, st, details)
		return nil
	})
}

func (h *Handler) addRestaurantItem(w http.ResponseWriter, r *http.Request) {
	var req restaurantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	it, err := h.orderable(r.Context(), req.MenuItemID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	qty := req.Qty
	if qty == 0 {
		qty = 1
	}
	h.mutate(w, r, "add", cart.ServiceRestaurant, func(c *cart.Cart) error {
		c.AddRestaurantItem(it.Listing(), qty, req.Details)
		return nil
	})
}

func (h *Handler) addGameSession(w http.ResponseWriter, r *http.Request) {
	var req gameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	h.mutate(w, r, "add", cart.ServiceGame, func(c *cart.Cart) error {
		c.AddGameSession(req.listing(), req.Duration, req.SessionType)
		return nil
	})
}

func (h *Handler) addPrintJob(w http.ResponseWriter, r *http.Request) {
	var req printRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	job := req.details()
	h.mutate(w, r, "add", cart.ServicePrint, func(c *cart.Cart) error {
		c.AddPrintJob(req.listing(), job)
		return nil
	})
}

func (h *Handler) addProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := requireNonNegative("price", req.Price); err != nil {
		h.fail(w, r, err)
		return
	}
	l := req.listing()
	l.Price = req.Price
	h.mutate(w, r, "add", cart.ServiceEcommerce, func(c *cart.Cart) error {
		c.AddProduct(l, req.details())
		return nil
	})
}

func (h *Handler) addDelivery(w http.ResponseWriter, r *http.Request) {
	var req deliveryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	d := req.details()
	h.mutate(w, r, "add", cart.ServiceLogistics, func(c *cart.Cart) error {
		c.AddDelivery(req.listing(), d)
		return nil
	})
}

func (h *Handler) addStreamingContent(w http.ResponseWriter, r *http.Request) {
	var req streamingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	s := req.details()
	h.mutate(w, r, "add", cart.ServiceStreaming, func(c *cart.Cart) error {
		c.AddStreamingContent(req.listing(), s)
		return nil
	})
}

func (h *Handler) addDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	d := req.details()
	h.mutate(w, r, "add", cart.ServiceDownload, func(c *cart.Cart) error {
		c.AddDownload(req.listing(), d)
		return nil
	})
}
