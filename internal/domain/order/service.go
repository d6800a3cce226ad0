package order

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/digital-hub/internal/domain/cart"
)

// ErrEmptyCart is returned when checking out a cart with no items.
var ErrEmptyCart = errors.New("cart is empty")

// TotalMismatchError indicates the client-side total disagrees with the cart.
type TotalMismatchError struct {
	Claimed decimal.Decimal
	Actual  decimal.Decimal
}

func (e *TotalMismatchError) Error() string {
	return fmt.Sprintf("total %s does not match cart total %s", e.Claimed, e.Actual)
}

// Carts is the view of session carts checkout needs.
type Carts interface {
	Load(ctx context.Context, session string) (*cart.Cart, error)
	Clear(ctx context.Context, session string) error
}

// Notifier tells staff about order events.
type Notifier interface {
	NewOrder(ctx context.Context, o *Order) error
	PaymentSubmitted(ctx context.Context, o *Order) error
	// PaymentVerified is where fulfilment starts; the kitchen hears of
	// an order only from here.
	PaymentVerified(ctx context.Context, o *Order) error
	PaymentRejected(ctx context.Context, o *Order) error
}

// VerifyPaymentRequest is a staff decision on a submitted bank transfer.
type VerifyPaymentRequest struct {
	OrderID  string
	Verified bool
	Notes    string
}

// PlaceOrderRequest holds the input for checking out a session cart.
type PlaceOrderRequest struct {
	Session string
	// ClaimedTotal is the total shown to the customer, if the client sent one.
	ClaimedTotal *decimal.Decimal
}

// Service turns session carts into orders.
type Service struct {
	carts    Carts
	orders   Repository
	notifier Notifier
	now      func() time.Time
}

// NewService creates an order Service.
func NewService(carts Carts, orders Repository, notifier Notifier) *Service {
	return &Service{
		carts:    carts,
		orders:   orders,
		notifier: notifier,
		now:      time.Now,
	}
}

// PlaceOrder snapshots the session cart into a pending order, persists it and
// notifies staff. The cart is left intact until payment is confirmed.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	c, err := s.carts.Load(ctx, req.Session)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	snap := c.Snapshot()
	if req.ClaimedTotal != nil && !req.ClaimedTotal.Equal(snap.Total) {
		return nil, &TotalMismatchError{Claimed: *req.ClaimedTotal, Actual: snap.Total}
	}

	items := make([]Item, len(snap.Lines))
	for i, l := range snap.Lines {
		items[i] = Item{
			ItemID:      l.ID,
			ServiceType: l.ServiceType,
			Name:        l.Name,
			Price:       l.Price,
			Qty:         l.Qty,
			Details:     l.Details,
		}
	}

	now := s.now()
	o := &Order{
		ID:            uuid.New().String(),
		DisplayID:     DisplayID(now),
		SessionID:     req.Session,
		Items:         items,
		Total:         snap.Total,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		PaymentMethod: PaymentBankTransfer,
		CreatedAt:     now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("order.id", o.ID),
		attribute.String("order.display_id", o.DisplayID),
		attribute.Int("order.lines", len(o.Items)),
	)

	if err := s.notifier.NewOrder(ctx, o); err != nil {
		zctx.From(ctx).Warn("Notify new order", zap.String("order", o.DisplayID), zap.Error(err))
	}
	return o, nil
}

// Get returns an order placed by the session.
func (s *Service) Get(ctx context.Context, session, id string) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.SessionID != session {
		return nil, ErrNotFound
	}
	return o, nil
}

// List returns the orders placed by the session, newest first.
func (s *Service) List(ctx context.Context, session string) ([]Order, error) {
	orders, err := s.orders.ListBySession(ctx, session)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// ConfirmPayment records that the customer says they have paid. A pending
// order moves to pending verification and the session cart is emptied.
// Confirming again returns the order as is and leaves the cart alone.
func (s *Service) ConfirmPayment(ctx context.Context, session, id string) (*Order, error) {
	o, err := s.Get(ctx, session, id)
	if err != nil {
		return nil, err
	}

	switch {
	case o.Status == StatusPending && o.PaymentStatus == PaymentPendingVerification:
		return o, nil
	case o.Status != StatusPending || o.PaymentStatus != PaymentPending:
		return nil, ErrInvalidTransition
	}

	if err := s.transition(ctx, o, StatusPending, PaymentPendingVerification); err != nil {
		return nil, err
	}

	if err := s.carts.Clear(ctx, session); err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}

	if err := s.notifier.PaymentSubmitted(ctx, o); err != nil {
		zctx.From(ctx).Warn("Notify payment", zap.String("order", o.DisplayID), zap.Error(err))
	}
	return o, nil
}

// VerifyPayment applies a staff decision on the transfer of a pending order.
// A verified payment confirms the order; a rejected one cancels it.
func (s *Service) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*Order, error) {
	o, err := s.orders.Get(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusPending ||
		(o.PaymentStatus != PaymentPending && o.PaymentStatus != PaymentPendingVerification) {
		return nil, ErrInvalidTransition
	}

	lg := zctx.From(ctx).With(zap.String("order", o.DisplayID), zap.Bool("verified", req.Verified))
	if req.Notes != "" {
		lg = lg.With(zap.String("notes", req.Notes))
	}

	if !req.Verified {
		if err := s.transition(ctx, o, StatusCancelled, PaymentFailed); err != nil {
			return nil, err
		}
		lg.Info("Payment rejected")
		if err := s.notifier.PaymentRejected(ctx, o); err != nil {
			lg.Warn("Notify payment rejected", zap.Error(err))
		}
		return o, nil
	}

	if err := s.transition(ctx, o, StatusConfirmed, PaymentVerified); err != nil {
		return nil, err
	}
	lg.Info("Payment verified")
	if err := s.notifier.PaymentVerified(ctx, o); err != nil {
		lg.Warn("Notify payment verified", zap.Error(err))
	}
	return o, nil
}

// UpdateStatus moves an order through fulfilment. Only paid orders advance
// past pending; any unfinished order can be cancelled. Setting the current
// status again is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Order, error) {
	if !status.Valid() {
		return nil, errors.Wrapf(ErrInvalidTransition, "unknown status %q", status)
	}
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case o.Status == status:
		return o, nil
	case o.Status.Final(), status == StatusPending:
		return nil, ErrInvalidTransition
	case status != StatusCancelled && o.PaymentStatus != PaymentVerified:
		return nil, ErrInvalidTransition
	}

	from := o.Status
	if err := s.transition(ctx, o, status, o.PaymentStatus); err != nil {
		return nil, err
	}
	zctx.From(ctx).Info("Order status changed",
		zap.String("order", o.DisplayID),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
	)
	return o, nil
}

// transition persists the move of o from its current state and updates o.
func (s *Service) transition(ctx context.Context, o *Order, status Status, payment PaymentStatus) error {
	err := s.orders.Transition(ctx, o.ID, Transition{
		FromStatus:        o.Status,
		FromPaymentStatus: o.PaymentStatus,
		Status:            status,
		PaymentStatus:     payment,
	})
	switch {
	case errors.Is(err, ErrInvalidTransition):
		return ErrInvalidTransition
	case err != nil:
		return errors.Wrap(err, "update order")
	}
	o.Status = status
	o.PaymentStatus = payment
	return nil
}

// DisplayID returns the customer-facing order reference for an order placed
// at t: "DH-" followed by the last eight digits of the Unix millisecond time.
func DisplayID(t time.Time) string {
	ms := strconv.FormatInt(t.UnixMilli(), 10)
	if len(ms) > 8 {
		ms = ms[len(ms)-8:]
	}
	return "DH-" + ms
}
