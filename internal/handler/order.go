package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/digital-hub/internal/domain/order"
)

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	o, err := h.orders.PlaceOrder(ctx, order.PlaceOrderRequest{
		Session:      sessionFrom(ctx),
		ClaimedTotal: req.Total,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.placed.Add(ctx, 1)

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("orderId")
		e.Str(o.ID)
		e.FieldStart("orderIdDisplay")
		e.Str(o.DisplayID)
		e.FieldStart("total")
		encodeDecimal(e, o.Total)
		e.ObjEnd()
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	o, err := h.orders.Get(ctx, sessionFrom(ctx), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	o, err := h.orders.ConfirmPayment(ctx, sessionFrom(ctx), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orders, err := h.orders.List(ctx, sessionFrom(ctx))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("orders")
		e.ArrStart()
		for i := range orders {
			encodeOrder(e, &orders[i])
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	o, err := h.orders.VerifyPayment(r.Context(), order.VerifyPaymentRequest{
		OrderID:  req.OrderID,
		Verified: *req.Verified,
		Notes:    req.Notes,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), order.Status(req.Status))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}
