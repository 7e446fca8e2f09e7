package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/francoabl/HuertoHogar/internal/cart"
	"github.com/francoabl/HuertoHogar/internal/domain"
	"github.com/francoabl/HuertoHogar/internal/store"
)

type captureEvents struct {
	ch  chan string
	err error
}

func (e *captureEvents) OrderConfirmed(_ context.Context, orderID string, _ *domain.PaymentResult) error {
	e.ch <- orderID
	return e.err
}

func TestBridgeCommit_NotifiesAfterBackendAck(t *testing.T) {
	cartGW := &mockCartGW{}
	st := newMemStore()
	orders := &mockOrders{}
	events := &captureEvents{ch: make(chan string, 1)}
	bridge := NewBridge(orders, cart.NewManager(cartGW, st), st, events)

	err := bridge.Commit(context.Background(), testSession(), "42", approvedResult())
	require.NoError(t, err)

	select {
	case orderID := <-events.ch:
		assert.Equal(t, "42", orderID)
	case <-time.After(time.Second):
		t.Fatal("confirmed event never fired")
	}
}

func TestBridgeCommit_BackendFailureSkipsPurge(t *testing.T) {
	cartGW := &mockCartGW{items: []domain.CartItem{{ID: 1, Name: "Pan", UnitPrice: 900, Quantity: 1}}}
	st := newMemStore()
	sess := testSession()
	require.NoError(t, st.Set(context.Background(), store.PendingOrderKey(sess.ID), []byte(`{}`)))

	orders := &mockOrders{confirmErr: assert.AnError}
	events := &captureEvents{ch: make(chan string, 1)}
	bridge := NewBridge(orders, cart.NewManager(cartGW, st), st, events)

	err := bridge.Commit(context.Background(), sess, "42", approvedResult())
	require.Error(t, err)

	assert.False(t, cartGW.cleared)
	_, err = st.Get(context.Background(), store.PendingOrderKey(sess.ID))
	assert.NoError(t, err, "pending record must survive a failed backend commit")
	assert.Empty(t, events.ch)
}

func TestBridgeCommit_NilEventsIsSafe(t *testing.T) {
	cartGW := &mockCartGW{}
	st := newMemStore()
	bridge := NewBridge(&mockOrders{}, cart.NewManager(cartGW, st), st, nil)

	err := bridge.Commit(context.Background(), testSession(), "42", approvedResult())
	assert.NoError(t, err)
}
