package handler

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/digital-hub/internal/domain/auth"
	"github.com/xenking/digital-hub/internal/domain/cart"
	"github.com/xenking/digital-hub/internal/domain/menu"
	"github.com/xenking/digital-hub/internal/domain/order"
)

func writeJSON(w http.ResponseWriter, code int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeErrorFields(w, code, message, nil)
}

func writeErrorFields(w http.ResponseWriter, code int, message string, fields map[string]string) {
	writeJSON(w, code, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(code)
		e.FieldStart("message")
		e.Str(message)
		if len(fields) > 0 {
			keys := make([]string, 0, len(fields))
			for k := range fields {
				keys = append(keys, k)
			}
			slices.Sort(keys)

			e.FieldStart("fields")
			e.ObjStart()
			for _, k := range keys {
				e.FieldStart(k)
				e.Str(fields[k])
			}
			e.ObjEnd()
		}
		e.ObjEnd()
	})
}

// fail maps err to an HTTP error response. Unexpected errors are logged and
// reported as 500 without detail.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr   *requestError
		mismatch *order.TotalMismatchError
	)
	switch {
	case errors.As(err, &reqErr):
		writeErrorFields(w, http.StatusBadRequest, reqErr.msg, reqErr.fields)
	case errors.As(err, &mismatch):
		writeError(w, http.StatusUnprocessableEntity, mismatch.Error())
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, menu.ErrNotFound), errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, menu.ErrUnavailable), errors.Is(err, order.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "invalid or missing API key")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, http.StatusForbidden, "API key lacks the required scope")
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func encodeDetails(e *jx.Encoder, d cart.Details) {
	if d == nil {
		e.Null()
		return
	}
	raw, err := json.Marshal(d)
	if err != nil {
		e.Null()
		return
	}
	e.Raw(raw)
}

func encodeCartItem(e *jx.Encoder, it cart.Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(it.ID)
	e.FieldStart("serviceType")
	e.Str(string(it.ServiceType))
	e.FieldStart("name")
	e.Str(it.Name)
	e.FieldStart("price")
	encodeDecimal(e, it.Price)
	if it.ImageURL != "" {
		e.FieldStart("imageUrl")
		e.Str(it.ImageURL)
	}
	e.FieldStart("qty")
	e.Int(it.Qty)
	e.FieldStart("subtotal")
	encodeDecimal(e, it.Subtotal())
	e.FieldStart("details")
	encodeDetails(e, it.Details)
	e.ObjEnd()
}

func encodeCartItems(e *jx.Encoder, items []cart.Item) {
	e.ArrStart()
	for _, it := range items {
		encodeCartItem(e, it)
	}
	e.ArrEnd()
}

func encodeCart(e *jx.Encoder, c *cart.Cart) {
	e.ObjStart()
	e.FieldStart("items")
	encodeCartItems(e, c.Items())
	e.FieldStart("total")
	encodeDecimal(e, c.TotalAmount())
	e.FieldStart("totalItems")
	e.Int(c.TotalItems())

	e.FieldStart("services")
	e.ArrStart()
	for _, g := range c.Groups() {
		e.ObjStart()
		e.FieldStart("serviceType")
		e.Str(string(g.ServiceType))
		e.FieldStart("label")
		e.Str(g.ServiceType.Label())
		e.FieldStart("total")
		encodeDecimal(e, g.Total)
		e.FieldStart("count")
		e.Int(g.Count)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeServiceView(e *jx.Encoder, c *cart.Cart, st cart.ServiceType) {
	e.ObjStart()
	e.FieldStart("serviceType")
	e.Str(string(st))
	e.FieldStart("label")
	e.Str(st.Label())
	e.FieldStart("items")
	encodeCartItems(e, c.ServiceItems(st))
	e.FieldStart("total")
	encodeDecimal(e, c.ServiceTotal(st))
	e.FieldStart("count")
	e.Int(c.ItemCount(st))
	e.ObjEnd()
}

func encodeMenuItem(e *jx.Encoder, it menu.Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(it.ID)
	e.FieldStart("name")
	e.Str(it.Name)
	if it.Description != "" {
		e.FieldStart("description")
		e.Str(it.Description)
	}
	e.FieldStart("price")
	encodeDecimal(e, it.Price)
	e.FieldStart("category")
	e.Str(it.Category)
	if it.ImageURL != "" {
		e.FieldStart("imageUrl")
		e.Str(it.ImageURL)
	}
	e.FieldStart("available")
	e.Bool(it.Available)
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("orderId")
	e.Str(o.ID)
	e.FieldStart("orderIdDisplay")
	e.Str(o.DisplayID)
	e.FieldStart("total")
	encodeDecimal(e, o.Total)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("paymentStatus")
	e.Str(string(o.PaymentStatus))
	e.FieldStart("paymentMethod")
	e.Str(string(o.PaymentMethod))
	e.FieldStart("createdAt")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339))

	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		e.ObjStart()
		e.FieldStart("itemId")
		e.Str(it.ItemID)
		e.FieldStart("serviceType")
		e.Str(string(it.ServiceType))
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("price")
		encodeDecimal(e, it.Price)
		e.FieldStart("qty")
		e.Int(it.Qty)
		e.FieldStart("subtotal")
		encodeDecimal(e, it.Subtotal())
		e.FieldStart("details")
		encodeDetails(e, it.Details)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}
