package cart

import "github.com/shopspring/decimal"

// Line is the part of an item handed to checkout.
type Line struct {
	ID          string
	ServiceType ServiceType
	Name        string
	Price       decimal.Decimal
	Qty         int
	Details     Details
}

// Snapshot is the cart contents and total handed to checkout.
type Snapshot struct {
	Lines []Line
	Total decimal.Decimal
}

// Group summarizes one service inside the cart.
type Group struct {
	ServiceType ServiceType
	Items       []Item
	Total       decimal.Decimal
	Count       int
}

// Snapshot returns a copy of the cart suitable for building an order.
func (c *Cart) Snapshot() Snapshot {
	lines := make([]Line, len(c.items))
	for i, it := range c.items {
		it = it.clone()
		lines[i] = Line{
			ID:          it.ID,
			ServiceType: it.ServiceType,
			Name:        it.Name,
			Price:       it.Price,
			Qty:         it.Qty,
			Details:     it.Details,
		}
	}
	return Snapshot{Lines: lines, Total: c.TotalAmount()}
}

// Groups returns one Group per service present in the cart, in ServiceTypes
// order.
func (c *Cart) Groups() []Group {
	var groups []Group
	for _, st := range ServiceTypes {
		items := c.ServiceItems(st)
		if len(items) == 0 {
			continue
		}
		groups = append(groups, Group{
			ServiceType: st,
			Items:       items,
			Total:       c.ServiceTotal(st),
			Count:       c.ItemCount(st),
		})
	}
	return groups
}
