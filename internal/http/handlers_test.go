package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/francoabl/HuertoHogar/internal/cart"
	"github.com/francoabl/HuertoHogar/internal/checkout"
	"github.com/francoabl/HuertoHogar/internal/domain"
	"github.com/francoabl/HuertoHogar/internal/gateway"
	"github.com/francoabl/HuertoHogar/internal/store"
)

// ---- test doubles ----

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type mockCartGW struct {
	items []domain.CartItem
	err   error
}

func (g *mockCartGW) Get(context.Context, string) ([]domain.CartItem, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.items, nil
}

func (g *mockCartGW) Add(_ context.Context, _ string, productID int64, quantity int) ([]domain.CartItem, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.items = append(g.items, domain.CartItem{ID: productID, Name: "srv", UnitPrice: 100, Quantity: quantity})
	return g.items, nil
}

func (g *mockCartGW) UpdateQuantity(context.Context, string, int64, int) ([]domain.CartItem, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.items, nil
}

func (g *mockCartGW) Remove(context.Context, string, int64) ([]domain.CartItem, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.items, nil
}

func (g *mockCartGW) Clear(context.Context, string) error { return g.err }

type mockOrders struct {
	order      *domain.Order
	confirmErr error
}

func (o *mockOrders) CreateFromCart(context.Context, string) (*domain.Order, error) {
	return o.order, nil
}

func (o *mockOrders) ConfirmPayment(context.Context, string, string, gateway.PaymentConfirmation) error {
	return o.confirmErr
}

type mockPayments struct {
	healthy   bool
	result    *domain.PaymentResult
	commitErr error
}

func (p *mockPayments) CreateTransaction(context.Context, string, string, float64, string) (string, string, error) {
	return "tbk-token-123", "https://webpay.example/init", nil
}

func (p *mockPayments) CommitTransaction(context.Context, string) (*domain.PaymentResult, error) {
	if p.commitErr != nil {
		return nil, p.commitErr
	}
	return p.result, nil
}

func (p *mockPayments) Health(context.Context) bool { return p.healthy }

type fixture struct {
	router   chi.Router
	cartGW   *mockCartGW
	payments *mockPayments
}

func newFixture() *fixture {
	cartGW := &mockCartGW{items: []domain.CartItem{
		{ID: 1, Name: "Manzana Fuji", UnitPrice: 1000, Quantity: 2},
	}}
	st := newMemStore()
	carts := cart.NewManager(cartGW, st)
	orders := &mockOrders{order: &domain.Order{ID: "42", Items: cartGW.items, Total: 2000}}
	payments := &mockPayments{healthy: true, result: &domain.PaymentResult{
		BuyOrder:     "ORD-abc",
		Status:       "AUTHORIZED",
		ResponseCode: 0,
		Amount:       2000,
	}}
	bridge := checkout.NewBridge(orders, carts, st, nil)
	coord := checkout.NewCoordinator(carts, orders, payments, st, bridge, "https://tienda.example/checkout")

	router := NewRouter(
		NewCartHandler(carts, 5*time.Second),
		NewCheckoutHandler(coord, 5*time.Second),
		10*time.Second,
	)
	return &fixture{router: router, cartGW: cartGW, payments: payments}
}

func doRequest(t *testing.T, router chi.Router, method, target string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "sess-1"})
	if authed {
		req.Header.Set("Authorization", "Bearer jwt-abc")
		req.Header.Set("X-User-Name", "Ana Rojas")
		req.Header.Set("X-User-Email", "ana@example.cl")
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeCart(t *testing.T, rr *httptest.ResponseRecorder) CartResponseDTO {
	t.Helper()
	var dto CartResponseDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	return dto
}

// ---- cart ----

func TestGetCart(t *testing.T) {
	f := newFixture()

	rr := doRequest(t, f.router, http.MethodGet, "/api/v1/cart/", nil, true)

	require.Equal(t, http.StatusOK, rr.Code)
	dto := decodeCart(t, rr)
	assert.Equal(t, 2, dto.Count)
	assert.Equal(t, 2000.0, dto.Total)
	assert.False(t, dto.Offline)
}

func TestGetCart_SetsSessionCookie(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, sessionCookie, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestAddItem(t *testing.T) {
	f := newFixture()
	body := AddItemRequestDTO{
		Product:  domain.Product{ID: 7, Name: "Miel", UnitPrice: 500},
		Quantity: 3,
	}

	rr := doRequest(t, f.router, http.MethodPost, "/api/v1/cart/items", body, true)

	require.Equal(t, http.StatusCreated, rr.Code)
	dto := decodeCart(t, rr)
	assert.False(t, dto.Offline)
	assert.Equal(t, 5, dto.Count)
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	f := newFixture()
	body := AddItemRequestDTO{
		Product:  domain.Product{ID: 7, Name: "Miel", UnitPrice: 500},
		Quantity: 0,
	}

	rr := doRequest(t, f.router, http.MethodPost, "/api/v1/cart/items", body, true)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAddItem_OfflineFallback(t *testing.T) {
	f := newFixture()
	// Load the session once while online, then cut the backend off.
	doRequest(t, f.router, http.MethodGet, "/api/v1/cart/", nil, true)
	f.cartGW.err = &gateway.ConnectivityError{Op: "cart.add", Err: assert.AnError}

	body := AddItemRequestDTO{
		Product:  domain.Product{ID: 7, Name: "Miel", UnitPrice: 500},
		Quantity: 1,
	}
	rr := doRequest(t, f.router, http.MethodPost, "/api/v1/cart/items", body, true)

	require.Equal(t, http.StatusCreated, rr.Code)
	dto := decodeCart(t, rr)
	assert.True(t, dto.Offline)
	assert.Equal(t, 3, dto.Count)
}

func TestAddItem_ApplicationErrorPassesThrough(t *testing.T) {
	f := newFixture()
	doRequest(t, f.router, http.MethodGet, "/api/v1/cart/", nil, true)
	f.cartGW.err = &gateway.ApplicationError{
		Op:         "cart.add",
		StatusCode: http.StatusConflict,
		Code:       "OUT_OF_STOCK",
		Message:    "stock insuficiente",
	}

	body := AddItemRequestDTO{
		Product:  domain.Product{ID: 7, Name: "Miel", UnitPrice: 500},
		Quantity: 1,
	}
	rr := doRequest(t, f.router, http.MethodPost, "/api/v1/cart/items", body, true)

	require.Equal(t, http.StatusConflict, rr.Code)
	var er ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &er))
	assert.Equal(t, "OUT_OF_STOCK", er.Code)
	assert.Equal(t, "stock insuficiente", er.Error)
}

func TestUpdateQuantity_ZeroRemoves(t *testing.T) {
	f := newFixture()

	rr := doRequest(t, f.router, http.MethodPut, "/api/v1/cart/items/1", UpdateQuantityRequestDTO{Quantity: 0}, true)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRemoveItem_BadProductID(t *testing.T) {
	f := newFixture()

	rr := doRequest(t, f.router, http.MethodDelete, "/api/v1/cart/items/abc", nil, true)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// ---- checkout ----

func TestInitiateCheckout_RequiresAuth(t *testing.T) {
	f := newFixture()

	rr := doRequest(t, f.router, http.MethodPost, "/api/v1/checkout/", nil, false)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestInitiateCheckout(t *testing.T) {
	f := newFixture()

	rr := doRequest(t, f.router, http.MethodPost, "/api/v1/checkout/", nil, true)

	require.Equal(t, http.StatusCreated, rr.Code)
	var dto InitiateResponseDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	assert.Equal(t, "42", dto.OrderID)
	assert.Equal(t, "https://webpay.example/init?token_ws=tbk-token-123", dto.RedirectURL)
}

func TestReturn_MissingToken(t *testing.T) {
	f := newFixture()

	rr := doRequest(t, f.router, http.MethodGet, "/api/v1/checkout/return", nil, true)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReturn_WithoutPendingOrder(t *testing.T) {
	f := newFixture()

	rr := doRequest(t, f.router, http.MethodGet, "/api/v1/checkout/return?token_ws=tbk-token-123", nil, true)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestReturn_Confirmed(t *testing.T) {
	f := newFixture()
	require.Equal(t, http.StatusCreated,
		doRequest(t, f.router, http.MethodPost, "/api/v1/checkout/", nil, true).Code)

	rr := doRequest(t, f.router, http.MethodGet, "/api/v1/checkout/return?token_ws=tbk-token-123", nil, true)

	require.Equal(t, http.StatusOK, rr.Code)
	var dto OutcomeResponseDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	assert.Equal(t, "CONFIRMED", dto.Status)
	assert.Equal(t, "42", dto.OrderID)
}

func TestReturn_ReloadAfterTransportFailure(t *testing.T) {
	f := newFixture()
	require.Equal(t, http.StatusCreated,
		doRequest(t, f.router, http.MethodPost, "/api/v1/checkout/", nil, true).Code)

	f.payments.commitErr = &gateway.ConnectivityError{Op: "webpay.commit", Err: assert.AnError}
	rr := doRequest(t, f.router, http.MethodGet, "/api/v1/checkout/return?token_ws=tbk-token-123", nil, true)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	// Reloading the return URL re-renders the terminal result instead of
	// erroring about internal state.
	f.payments.commitErr = nil
	rr = doRequest(t, f.router, http.MethodGet, "/api/v1/checkout/return?token_ws=tbk-token-123", nil, true)

	require.Equal(t, http.StatusOK, rr.Code)
	var dto OutcomeResponseDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	assert.Equal(t, "FAILED", dto.Status)
	assert.Equal(t, "42", dto.OrderID)
	assert.NotContains(t, rr.Body.String(), "FAILED -> RETURNED")
}

func TestGatewayStatus(t *testing.T) {
	f := newFixture()

	rr := doRequest(t, f.router, http.MethodGet, "/api/v1/checkout/gateway", nil, false)

	require.Equal(t, http.StatusOK, rr.Code)
	var dto GatewayStatusDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	assert.True(t, dto.Available)
}

func TestPendingStatus(t *testing.T) {
	f := newFixture()

	rr := doRequest(t, f.router, http.MethodGet, "/api/v1/checkout/pending", nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	var dto PendingStatusDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	assert.False(t, dto.Pending)

	require.Equal(t, http.StatusCreated,
		doRequest(t, f.router, http.MethodPost, "/api/v1/checkout/", nil, true).Code)

	rr = doRequest(t, f.router, http.MethodGet, "/api/v1/checkout/pending", nil, true)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	assert.True(t, dto.Pending)
}
