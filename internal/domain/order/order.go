package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/digital-hub/internal/domain/cart"
)

var (
	// ErrNotFound is returned when an order does not exist or belongs to
	// another session.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidTransition is returned when an order is not in a state that
	// allows the requested change.
	ErrInvalidTransition = errors.New("order state does not allow this change")
)

// Status tracks fulfilment of an order.
type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusReady          Status = "ready"
	StatusOutForDelivery Status = "out-for-delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

var statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

// Final reports whether no further status change is possible.
func (s Status) Final() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// PaymentStatus tracks the bank transfer of an order.
type PaymentStatus string

const (
	PaymentPending             PaymentStatus = "pending"
	PaymentPendingVerification PaymentStatus = "pending_verification"
	PaymentVerified            PaymentStatus = "verified"
	PaymentFailed              PaymentStatus = "failed"
)

// PaymentMethod is how the customer pays.
type PaymentMethod string

// PaymentBankTransfer is the only method the hub accepts.
const PaymentBankTransfer PaymentMethod = "bank_transfer"

// Order is a checked-out cart awaiting payment and fulfilment.
type Order struct {
	ID            string
	DisplayID     string
	SessionID     string
	Items         []Item
	Total         decimal.Decimal
	Status        Status
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod
	CreatedAt     time.Time
}

// Item is a line of an order, copied from the cart at checkout.
type Item struct {
	ItemID      string           `json:"itemId"`
	ServiceType cart.ServiceType `json:"serviceType"`
	Name        string           `json:"name"`
	Price       decimal.Decimal  `json:"price"`
	Qty         int              `json:"qty"`
	Details     cart.Details     `json:"details,omitempty"`
}

// Subtotal returns price times quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// HasService reports whether any line belongs to st.
func (o *Order) HasService(st cart.ServiceType) bool {
	for _, it := range o.Items {
		if it.ServiceType == st {
			return true
		}
	}
	return false
}

// Transition moves an order to Status and PaymentStatus, provided it is still
// in the From states it was read in. A repository that finds the order in any
// other state changes nothing and returns ErrInvalidTransition.
type Transition struct {
	FromStatus        Status
	FromPaymentStatus PaymentStatus
	Status            Status
	PaymentStatus     PaymentStatus
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// ListBySession returns the session's orders, newest first.
	ListBySession(ctx context.Context, session string) ([]Order, error)
	Transition(ctx context.Context, id string, t Transition) error
}
