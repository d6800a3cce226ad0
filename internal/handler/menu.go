package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/digital-hub/internal/domain/menu"
)

func (h *Handler) listMenu(w http.ResponseWriter, r *http.Request) {
	v, err, _ := h.menuCalls.Do("list", func() (any, error) {
		return h.menu.List(r.Context())
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items := v.([]menu.Item)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("items")
		e.ArrStart()
		for _, it := range items {
			encodeMenuItem(e, it)
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// orderable looks up a menu item for a restaurant add. Concurrent lookups of
// the same item share one repository call.
func (h *Handler) orderable(ctx context.Context, id string) (menu.Item, error) {
	v, err, _ := h.menuCalls.Do("item:"+id, func() (any, error) {
		it, err := menu.Orderable(ctx, h.menu, id)
		if err != nil {
			return nil, err
		}
		return *it, nil
	})
	if err != nil {
		return menu.Item{}, err
	}
	return v.(menu.Item), nil
}
