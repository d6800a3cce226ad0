package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/digital-hub/internal/domain/cart"
	"github.com/xenking/digital-hub/internal/domain/order"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// TelegramConfig configures the Telegram notifier.
type TelegramConfig struct {
	Token        string
	APIURL       string
	AdminChats   []string
	KitchenChats []string
	Timeout      time.Duration
}

var _ order.Notifier = (*Telegram)(nil)

// Telegram posts order events to admin and kitchen chats through the Bot API.
type Telegram struct {
	cfg    TelegramConfig
	client *http.Client
	cb     *gobreaker.CircuitBreaker[struct{}]
}

// NewTelegram creates a Telegram notifier. A nil client gets one with
// cfg.Timeout.
func NewTelegram(cfg TelegramConfig, client *http.Client) *Telegram {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Telegram{
		cfg:    cfg,
		client: client,
		cb: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        "telegram",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
	}
}

// NewOrder tells admins about an order awaiting payment.
func (t *Telegram) NewOrder(ctx context.Context, o *order.Order) error {
	return t.broadcast(ctx, t.toAdmins(newOrderMessage(o)))
}

// PaymentSubmitted asks admins to verify a bank transfer.
func (t *Telegram) PaymentSubmitted(ctx context.Context, o *order.Order) error {
	return t.broadcast(ctx, t.toAdmins(paymentMessage(o)))
}

// PaymentVerified tells admins the order is confirmed and sends the kitchen
// its food lines.
func (t *Telegram) PaymentVerified(ctx context.Context, o *order.Order) error {
	targets := t.toAdmins(verifiedMessage(o))
	if o.HasService(cart.ServiceRestaurant) {
		kitchen := kitchenMessage(o)
		for _, chat := range t.cfg.KitchenChats {
			targets = append(targets, message{chat: chat, text: kitchen})
		}
	}
	return t.broadcast(ctx, targets)
}

// PaymentRejected tells admins the order was cancelled.
func (t *Telegram) PaymentRejected(ctx context.Context, o *order.Order) error {
	return t.broadcast(ctx, t.toAdmins(rejectedMessage(o)))
}

func (t *Telegram) toAdmins(text string) []message {
	msgs := make([]message, 0, len(t.cfg.AdminChats)+len(t.cfg.KitchenChats))
	for _, chat := range t.cfg.AdminChats {
		msgs = append(msgs, message{chat: chat, text: text})
	}
	return msgs
}

type message struct {
	chat string
	text string
}

// broadcast sends every message concurrently and returns all failures.
func (t *Telegram) broadcast(ctx context.Context, msgs []message) error {
	errs := make([]error, len(msgs))
	var g errgroup.Group
	for i, m := range msgs {
		g.Go(func() error {
			if err := t.send(ctx, m); err != nil {
				errs[i] = errors.Wrapf(err, "chat %s", m.chat)
			}
			return nil
		})
	}
	_ = g.Wait()
	return multierr.Combine(errs...)
}

func (t *Telegram) send(ctx context.Context, m message) error {
	_, err := t.cb.Execute(func() (struct{}, error) {
		return struct{}{}, t.sendMessage(ctx, m)
	})
	return err
}

func (t *Telegram) sendMessage(ctx context.Context, m message) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.ObjStart()
	e.FieldStart("chat_id")
	e.Str(m.chat)
	e.FieldStart("text")
	e.Str(m.text)
	e.FieldStart("parse_mode")
	e.Str("HTML")
	e.ObjEnd()

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.cfg.APIURL, t.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(e.Bytes()))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// Drop the URL, it carries the bot token.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return errors.Wrap(err, "send message")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	ok, desc, err := decodeResult(body)
	if err != nil {
		return errors.Wrapf(err, "decode response (status %d)", resp.StatusCode)
	}
	if !ok {
		return errors.Errorf("telegram: %s (status %d)", desc, resp.StatusCode)
	}

	zctx.From(ctx).Debug("Telegram message sent", zap.String("chat", m.chat))
	return nil
}

// decodeResult reads the ok and description fields of a Bot API response.
func decodeResult(body []byte) (ok bool, desc string, err error) {
	d := jx.DecodeBytes(body)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "ok":
			v, err := d.Bool()
			ok = v
			return err
		case "description":
			v, err := d.Str()
			desc = v
			return err
		default:
			return d.Skip()
		}
	})
	return ok, desc, err
}
