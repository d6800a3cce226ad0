package cart

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ServiceType is the business domain a line item belongs to.
type ServiceType string

const (
	ServiceRestaurant ServiceType = "restaurant"
	ServiceGame       ServiceType = "game"
	ServicePrint      ServiceType = "print"
	ServiceEcommerce  ServiceType = "ecommerce"
	ServiceLogistics  ServiceType = "logistics"
	ServiceStreaming  ServiceType = "streaming"
	ServiceDownload   ServiceType = "download"
)

// ServiceTypes lists every service type in display order.
var ServiceTypes = []ServiceType{
	ServiceRestaurant,
	ServiceGame,
	ServicePrint,
	ServiceEcommerce,
	ServiceLogistics,
	ServiceStreaming,
	ServiceDownload,
}

var serviceLabels = map[ServiceType]string{
	ServiceRestaurant: "Food & Drinks",
	ServiceGame:       "Gaming",
	ServicePrint:      "Printing",
	ServiceEcommerce:  "Shopping",
	ServiceLogistics:  "Delivery",
	ServiceStreaming:  "Streaming",
	ServiceDownload:   "Downloads",
}

// Valid reports whether s is one of the known service types.
func (s ServiceType) Valid() bool {
	_, ok := serviceLabels[s]
	return ok
}

// Label returns the human-readable name of the service.
func (s ServiceType) Label() string {
	if l, ok := serviceLabels[s]; ok {
		return l
	}
	return string(s)
}

// Details is the service-specific attribute bag of a line item. The cart never
// interprets it; it only takes part in the merge key.
type Details map[string]any

// UnmarshalJSON keeps numbers as json.Number so integers beyond float64
// precision survive a round trip.
func (d *Details) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*d = m
	return nil
}

// Item is one line in the cart.
type Item struct {
	ID          string
	ServiceType ServiceType
	Name        string
	Price       decimal.Decimal
	ImageURL    string
	Qty         int
	Details     Details
}

// Subtotal returns Price * Qty.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Qty)))
}

func (i Item) clone() Item {
	if i.Details != nil {
		d := make(Details, len(i.Details))
		for k, v := range i.Details {
			d[k] = v
		}
		i.Details = d
	}
	return i
}

// detailsKey returns the canonical form of d used in the merge key. Map keys
// are sorted by encoding/json, so two bags with the same content always match.
// Unserializable content is a caller error; it collapses to an empty key.
func detailsKey(d Details) string {
	if d == nil {
		return "null"
	}
	b, err := json.Marshal(d)
	if err != nil {
		return ""
	}
	return string(b)
}
