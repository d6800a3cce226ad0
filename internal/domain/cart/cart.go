// Package cart implements the unified shopping cart shared by every hub
// service: merging adds, quantity updates, per-service pricing and totals.
package cart

import (
	"github.com/shopspring/decimal"
)

// Cart is an ordered collection of line items owned by a single session.
// It is not safe for concurrent use; see Manager for serialized access.
type Cart struct {
	items []Item
}

// New returns a cart holding a copy of items.
func New(items ...Item) *Cart {
	c := &Cart{items: make([]Item, 0, len(items))}
	for _, it := range items {
		c.items = append(c.items, it.clone())
	}
	return c
}

// Add inserts item, or merges it into an existing line with the same ID,
// service type and details by adding its quantity. A non-positive quantity
// on a new line becomes 1.
func (c *Cart) Add(item Item) {
	key := detailsKey(item.Details)
	for i := range c.items {
		existing := &c.items[i]
		if existing.ID == item.ID &&
			existing.ServiceType == item.ServiceType &&
			detailsKey(existing.Details) == key {
			existing.Qty += item.Qty
			return
		}
	}

	item = item.clone()
	if item.Qty <= 0 {
		item.Qty = 1
	}
	c.items = append(c.items, item)
}

// Remove deletes every line with the given ID and service type, regardless of
// details.
func (c *Cart) Remove(id string, st ServiceType) {
	c.items = filter(c.items, func(it Item) bool {
		return !(it.ID == id && it.ServiceType == st)
	})
}

// RemoveLine deletes the single line identified by the full merge key.
func (c *Cart) RemoveLine(id string, st ServiceType, details Details) {
	key := detailsKey(details)
	for i, it := range c.items {
		if it.ID == id && it.ServiceType == st && detailsKey(it.Details) == key {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// UpdateQuantity sets the quantity of the first line matching id and st.
// A quantity of zero or less removes that line only.
func (c *Cart) UpdateQuantity(id string, st ServiceType, qty int) {
	for i, it := range c.items {
		if it.ID != id || it.ServiceType != st {
			continue
		}
		if qty <= 0 {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
		c.items[i].Qty = qty
		return
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of all lines in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	for i, it := range c.items {
		out[i] = it.clone()
	}
	return out
}

// ServiceItems returns copies of the lines of one service, order preserved.
func (c *Cart) ServiceItems(st ServiceType) []Item {
	var out []Item
	for _, it := range c.items {
		if it.ServiceType == st {
			out = append(out, it.clone())
		}
	}
	return out
}

// ServiceTotal returns the sum of price * qty over lines of one service.
func (c *Cart) ServiceTotal(st ServiceType) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.items {
		if it.ServiceType == st {
			sum = sum.Add(it.Subtotal())
		}
	}
	return sum
}

// TotalAmount returns the sum of price * qty over all lines.
func (c *Cart) TotalAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.items {
		sum = sum.Add(it.Subtotal())
	}
	return sum
}

// TotalItems returns the sum of quantities over all lines.
func (c *Cart) TotalItems() int {
	n := 0
	for _, it := range c.items {
		n += it.Qty
	}
	return n
}

// ItemCount returns the sum of quantities over lines of one service.
func (c *Cart) ItemCount(st ServiceType) int {
	n := 0
	for _, it := range c.items {
		if it.ServiceType == st {
			n += it.Qty
		}
	}
	return n
}

// HasItems reports whether the cart holds at least one line.
func (c *Cart) HasItems() bool { return len(c.items) > 0 }

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// Len returns the number of lines.
func (c *Cart) Len() int { return len(c.items) }

func filter(items []Item, keep func(Item) bool) []Item {
	out := items[:0]
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
