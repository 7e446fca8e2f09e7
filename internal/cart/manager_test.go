package cart

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/francoabl/HuertoHogar/internal/domain"
)

func TestManager_ReusesSession(t *testing.T) {
	g := &mockGateway{items: []domain.CartItem{{ID: 1, Name: "a", UnitPrice: 100, Quantity: 1}}}
	m := NewManager(g, newMemStore())
	tokens := staticTokens{"tok", true}

	r1, err := m.Session(context.Background(), "s1", tokens)
	require.NoError(t, err)
	r2, err := m.Session(context.Background(), "s1", tokens)
	require.NoError(t, err)

	assert.Same(t, r1, r2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&g.getCalls))
}

func TestManager_ConcurrentFirstLoadsShareOneFetch(t *testing.T) {
	g := &mockGateway{items: []domain.CartItem{{ID: 1, Name: "a", UnitPrice: 100, Quantity: 1}}}
	m := NewManager(g, newMemStore())
	tokens := staticTokens{"tok", true}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Session(context.Background(), "s1", tokens)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&g.getCalls))
}

func TestManager_DropForgetsSession(t *testing.T) {
	g := &mockGateway{}
	m := NewManager(g, newMemStore())
	tokens := staticTokens{"tok", true}

	r1, err := m.Session(context.Background(), "s1", tokens)
	require.NoError(t, err)

	m.Drop("s1")

	r2, err := m.Session(context.Background(), "s1", tokens)
	require.NoError(t, err)
	assert.NotSame(t, r1, r2)
}
