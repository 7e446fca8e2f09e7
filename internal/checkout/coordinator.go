// Package checkout drives the external-payment redirect flow. Initiation
// creates a provisional order and persists everything needed to resume
// BEFORE the browser leaves for the payment domain; resumption picks that
// state back up when the gateway bounces the user to the return URL with a
// token. The process in between may not exist at all, so durable storage is
// the only memory this flow can trust.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/francoabl/HuertoHogar/internal/cart"
	"github.com/francoabl/HuertoHogar/internal/domain"
	"github.com/francoabl/HuertoHogar/internal/gateway"
	"github.com/francoabl/HuertoHogar/internal/store"
)

type PaymentGateway interface {
	CreateTransaction(ctx context.Context, buyOrder, sessionID string, amount float64, returnURL string) (token, url string, err error)
	CommitTransaction(ctx context.Context, token string) (*domain.PaymentResult, error)
	Health(ctx context.Context) bool
}

type OrderService interface {
	CreateFromCart(ctx context.Context, token string) (*domain.Order, error)
	ConfirmPayment(ctx context.Context, token, orderID string, p gateway.PaymentConfirmation) error
}

// Session identifies the user behind a request: who they are and the auth
// token their backend calls carry.
type Session struct {
	ID       string
	Token    string
	Customer domain.Customer
}

type sessionTokens struct{ sess Session }

func (s sessionTokens) Token(context.Context) (string, bool) {
	return s.sess.Token, s.sess.Token != ""
}

type Coordinator struct {
	carts     *cart.Manager
	orders    OrderService
	payments  PaymentGateway
	store     store.Store
	bridge    *Bridge
	returnURL string
}

func NewCoordinator(carts *cart.Manager, orders OrderService, payments PaymentGateway, st store.Store, bridge *Bridge, returnURL string) *Coordinator {
	return &Coordinator{
		carts:     carts,
		orders:    orders,
		payments:  payments,
		store:     st,
		bridge:    bridge,
		returnURL: returnURL,
	}
}

type InitiateResult struct {
	OrderID     string
	BuyOrder    string
	Amount      float64
	RedirectURL string
}

// GatewayAvailable is the pre-checkout health probe the UI gates on.
func (c *Coordinator) GatewayAvailable(ctx context.Context) bool {
	return c.payments.Health(ctx)
}

// Initiate runs the first phase: provisional order, durable pending state,
// then the gateway transaction whose URL the browser must be sent to.
func (c *Coordinator) Initiate(ctx context.Context, sess Session) (*InitiateResult, error) {
	if sess.Token == "" || sess.Customer.Email == "" {
		return nil, ErrNotAuthenticated
	}

	rec, err := c.carts.Session(ctx, sess.ID, sessionTokens{sess})
	if err != nil {
		return nil, err
	}
	if rec.Count() == 0 {
		return nil, ErrEmptyCart
	}

	if !c.payments.Health(ctx) {
		return nil, ErrGatewayUnavailable
	}

	order, err := c.orders.CreateFromCart(ctx, sess.Token)
	if err != nil {
		return nil, err
	}

	pending := &domain.PendingOrder{
		OrderID:   order.ID,
		BuyOrder:  newBuyOrder(),
		Items:     order.Items,
		Customer:  sess.Customer,
		Status:    domain.CheckoutStatusOrderCreated,
		CreatedAt: time.Now().UTC(),
	}
	// This write must land before any redirect can happen. Navigation tears
	// the process down; the pending record is all that survives.
	if err := c.savePending(ctx, sess.ID, pending); err != nil {
		return nil, err
	}

	gwSession := fmt.Sprintf("SES-%s-%d", sess.Customer.Email, time.Now().Unix())
	token, payURL, err := c.payments.CreateTransaction(ctx, pending.BuyOrder, gwSession, order.Total, c.returnURL)
	if err != nil {
		return nil, err
	}

	if err := c.transition(ctx, sess.ID, pending, domain.CheckoutStatusRedirected); err != nil {
		return nil, err
	}

	return &InitiateResult{
		OrderID:     order.ID,
		BuyOrder:    pending.BuyOrder,
		Amount:      order.Total,
		RedirectURL: payURL + "?token_ws=" + token,
	}, nil
}

type Outcome struct {
	Status domain.CheckoutStatus
	Result *domain.PaymentResult
	Order  *domain.PendingOrder
}

// Resume handles the browser's return from the payment domain. The token in
// the URL is the only signal; everything else comes from the pending record
// written before the redirect.
func (c *Coordinator) Resume(ctx context.Context, sess Session, token string) (*Outcome, error) {
	pending, err := c.loadPending(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	// The gateway already confirmed this payment but the backend commit
	// failed last time. Retry the commit only; committing the gateway
	// transaction twice would fail.
	if pending.Status == domain.CheckoutStatusConfirmed && pending.LastResult != nil {
		return c.finishConfirmed(ctx, sess, pending)
	}

	// A checkout that already failed stays failed. Reloading the return URL
	// re-renders the terminal result; it must not re-run the commit.
	if pending.Status == domain.CheckoutStatusFailed {
		return &Outcome{Status: domain.CheckoutStatusFailed, Result: pending.LastResult, Order: pending}, nil
	}

	if !domain.CanTransitionTo(pending.Status, domain.CheckoutStatusReturned) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, pending.Status, domain.CheckoutStatusReturned)
	}
	if err := c.transition(ctx, sess.ID, pending, domain.CheckoutStatusReturned); err != nil {
		return nil, err
	}

	result, err := c.payments.CommitTransaction(ctx, token)
	if err != nil {
		if terr := c.transition(ctx, sess.ID, pending, domain.CheckoutStatusFailed); terr != nil {
			log.Printf("checkout %s: record failed status: %v", sess.ID, terr)
		}
		return nil, err
	}

	if !result.Approved() {
		if terr := c.transition(ctx, sess.ID, pending, domain.CheckoutStatusRejected); terr != nil {
			log.Printf("checkout %s: record rejected status: %v", sess.ID, terr)
		}
		// The pending order stays; the user may retry the payment.
		return &Outcome{Status: domain.CheckoutStatusRejected, Result: result, Order: pending}, nil
	}

	pending.LastResult = result
	if err := c.transition(ctx, sess.ID, pending, domain.CheckoutStatusConfirmed); err != nil {
		return nil, err
	}
	return c.finishConfirmed(ctx, sess, pending)
}

func (c *Coordinator) finishConfirmed(ctx context.Context, sess Session, pending *domain.PendingOrder) (*Outcome, error) {
	outcome := &Outcome{Status: domain.CheckoutStatusConfirmed, Result: pending.LastResult, Order: pending}
	if err := c.bridge.Commit(ctx, sess, pending.OrderID, pending.LastResult); err != nil {
		log.Printf("checkout %s: order %s commit failed, pending record kept: %v", sess.ID, pending.OrderID, err)
		return outcome, fmt.Errorf("%w: %v", ErrConfirmationPending, err)
	}
	return outcome, nil
}

// HasPendingOrder reports whether a resumable checkout exists for the
// session.
func (c *Coordinator) HasPendingOrder(ctx context.Context, sessionID string) bool {
	_, err := c.loadPending(ctx, sessionID)
	return err == nil
}

func (c *Coordinator) transition(ctx context.Context, sessionID string, pending *domain.PendingOrder, to domain.CheckoutStatus) error {
	if pending.Status != to && !domain.CanTransitionTo(pending.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, pending.Status, to)
	}
	pending.Status = to
	return c.savePending(ctx, sessionID, pending)
}

func (c *Coordinator) savePending(ctx context.Context, sessionID string, pending *domain.PendingOrder) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("marshal pending order: %w", err)
	}
	return c.store.Set(ctx, store.PendingOrderKey(sessionID), data)
}

func (c *Coordinator) loadPending(ctx context.Context, sessionID string) (*domain.PendingOrder, error) {
	data, err := c.store.Get(ctx, store.PendingOrderKey(sessionID))
	if err == store.ErrNotFound {
		return nil, ErrNoPendingOrder
	}
	if err != nil {
		return nil, err
	}

	var pending domain.PendingOrder
	if err := json.Unmarshal(data, &pending); err != nil {
		log.Printf("checkout %s: corrupt pending order record: %v", sessionID, err)
		return nil, ErrNoPendingOrder
	}
	return &pending, nil
}

// newBuyOrder generates a fresh buy-order id. The gateway caps the field at
// 26 characters, so the uuid is squeezed.
func newBuyOrder() string {
	return "ORD-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}
