// Package notify tells hub staff about orders and their payments.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/digital-hub/internal/domain/cart"
	"github.com/xenking/digital-hub/internal/domain/order"
)

var _ order.Notifier = Log{}

// Log writes order events to the request logger. Used when no bot is
// configured.
type Log struct{}

// NewOrder implements order.Notifier.
func (Log) NewOrder(ctx context.Context, o *order.Order) error {
	zctx.From(ctx).Info("New order",
		zap.String("order", o.DisplayID),
		zap.Int("lines", len(o.Items)),
		zap.String("total", o.Total.String()),
	)
	return nil
}

// PaymentSubmitted implements order.Notifier.
func (Log) PaymentSubmitted(ctx context.Context, o *order.Order) error {
	zctx.From(ctx).Info("Payment submitted",
		zap.String("order", o.DisplayID),
		zap.String("total", o.Total.String()),
	)
	return nil
}

// PaymentVerified implements order.Notifier.
func (Log) PaymentVerified(ctx context.Context, o *order.Order) error {
	zctx.From(ctx).Info("Payment verified",
		zap.String("order", o.DisplayID),
		zap.Bool("kitchen", o.HasService(cart.ServiceRestaurant)),
	)
	return nil
}

// PaymentRejected implements order.Notifier.
func (Log) PaymentRejected(ctx context.Context, o *order.Order) error {
	zctx.From(ctx).Info("Payment rejected", zap.String("order", o.DisplayID))
	return nil
}

var serviceEmoji = map[cart.ServiceType]string{
	cart.ServiceRestaurant: "🍔",
	cart.ServiceGame:       "🎮",
	cart.ServicePrint:      "🖨️",
	cart.ServiceEcommerce:  "🛍️",
	cart.ServiceLogistics:  "🚗",
	cart.ServiceStreaming:  "📺",
	cart.ServiceDownload:   "📥",
}

const timeLayout = "2006-01-02 15:04"

// newOrderMessage renders the admin notification, lines grouped by service.
func newOrderMessage(o *order.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>🆕 New Order %s</b>\n\n", html.EscapeString(o.DisplayID))
	fmt.Fprintf(&b, "<b>Time:</b> %s\n", o.CreatedAt.Format(timeLayout))
	fmt.Fprintf(&b, "<b>Total:</b> ₦%s\n", o.Total.StringFixed(2))
	fmt.Fprintf(&b, "<b>Payment:</b> %s\n", o.PaymentMethod)

	for _, st := range cart.ServiceTypes {
		var lines []order.Item
		for _, it := range o.Items {
			if it.ServiceType == st {
				lines = append(lines, it)
			}
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s <b>%s</b>\n", serviceEmoji[st], html.EscapeString(st.Label()))
		writeLines(&b, lines)
	}

	fmt.Fprintf(&b, "\n<b>Status:</b> %s", o.Status)
	return b.String()
}

// kitchenMessage lists only the food and drink lines of an order.
func kitchenMessage(o *order.Order) string {
	var lines []order.Item
	for _, it := range o.Items {
		if it.ServiceType == cart.ServiceRestaurant {
			lines = append(lines, it)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>👨‍🍳 Kitchen Order %s</b>\n\n", html.EscapeString(o.DisplayID))
	writeLines(&b, lines)
	for _, it := range lines {
		if note, ok := it.Details["specialInstructions"].(string); ok && note != "" {
			fmt.Fprintf(&b, "\n📝 %s: %s", html.EscapeString(it.Name), html.EscapeString(note))
		}
	}
	return b.String()
}

func paymentMessage(o *order.Order) string {
	var b strings.Builder
	b.WriteString("💰 <b>Payment Submitted</b>\n\n")
	fmt.Fprintf(&b, "<b>Order:</b> %s\n", html.EscapeString(o.DisplayID))
	fmt.Fprintf(&b, "<b>Amount:</b> ₦%s\n", o.Total.StringFixed(2))
	fmt.Fprintf(&b, "<b>Method:</b> %s\n\n", o.PaymentMethod)
	b.WriteString("Please verify the payment and confirm the order.")
	return b.String()
}

func verifiedMessage(o *order.Order) string {
	return fmt.Sprintf("✅ <b>Payment verified</b> for %s\n\n<b>Amount:</b> ₦%s\n<b>Status:</b> %s",
		html.EscapeString(o.DisplayID), o.Total.StringFixed(2), o.Status)
}

func rejectedMessage(o *order.Order) string {
	return fmt.Sprintf("❌ <b>Payment rejected</b> for %s\n\nThe order is %s.",
		html.EscapeString(o.DisplayID), o.Status)
}

func writeLines(b *strings.Builder, lines []order.Item) {
	for _, it := range lines {
		fmt.Fprintf(b, "• %s x%d - ₦%s\n",
			html.EscapeString(it.Name), it.Qty, it.Subtotal().StringFixed(2))
	}
}
