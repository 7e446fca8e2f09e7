package checkout

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/francoabl/HuertoHogar/internal/cart"
	"github.com/francoabl/HuertoHogar/internal/domain"
	"github.com/francoabl/HuertoHogar/internal/gateway"
	"github.com/francoabl/HuertoHogar/internal/store"
)

// Events receives best-effort notifications about confirmed orders. Failures
// are logged and dropped on purpose: notification is at-most-once and never
// holds up the purchase.
type Events interface {
	OrderConfirmed(ctx context.Context, orderID string, result *domain.PaymentResult) error
}

// Bridge commits an approved payment to the order backend and purges every
// piece of transient checkout state the client was holding.
type Bridge struct {
	orders OrderService
	carts  *cart.Manager
	store  store.Store
	events Events
}

func NewBridge(orders OrderService, carts *cart.Manager, st store.Store, events Events) *Bridge {
	return &Bridge{
		orders: orders,
		carts:  carts,
		store:  st,
		events: events,
	}
}

// Commit reports the authorization to the order backend. Only when the
// backend acknowledged does it clear the cart and delete the pending
// record; on failure everything stays so a reload can retry.
func (b *Bridge) Commit(ctx context.Context, sess Session, orderID string, result *domain.PaymentResult) error {
	conf := gateway.PaymentConfirmation{
		NumeroOrden:        result.BuyOrder,
		CodigoAutorizacion: result.AuthorizationCode,
		CodigoRespuesta:    strconv.Itoa(result.ResponseCode),
		DetallesTarjeta:    result.CardLast4,
		TipoTarjeta:        string(result.CardType),
		Cuotas:             result.Installments,
	}
	if conf.Cuotas == 0 {
		conf.Cuotas = 1
	}

	if err := b.orders.ConfirmPayment(ctx, sess.Token, orderID, conf); err != nil {
		return err
	}

	rec, err := b.carts.Session(ctx, sess.ID, sessionTokens{sess})
	if err != nil {
		log.Printf("bridge: cart session %s: %v", sess.ID, err)
	} else if err := rec.Clear(ctx); err != nil {
		log.Printf("bridge: clear cart %s: %v", sess.ID, err)
	}

	if err := b.store.Delete(ctx, store.PendingOrderKey(sess.ID)); err != nil {
		log.Printf("bridge: delete pending order %s: %v", sess.ID, err)
	}

	b.notify(orderID, result)
	return nil
}

func (b *Bridge) notify(orderID string, result *domain.PaymentResult) {
	if b.events == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.events.OrderConfirmed(ctx, orderID, result); err != nil {
			log.Printf("bridge: order %s confirmed event dropped: %v", orderID, err)
		}
	}()
}
