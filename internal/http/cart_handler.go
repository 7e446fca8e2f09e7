package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/francoabl/HuertoHogar/internal/cart"
	"github.com/francoabl/HuertoHogar/internal/checkout"
	"github.com/francoabl/HuertoHogar/internal/domain"
)

type CartHandler struct {
	carts   *cart.Manager
	timeout time.Duration
}

func NewCartHandler(carts *cart.Manager, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type sessionTokens struct{ sess checkout.Session }

func (s sessionTokens) Token(context.Context) (string, bool) {
	return s.sess.Token, s.sess.Token != ""
}

// AddItemRequestDTO carries the full product, not just its id. When the
// backend is unreachable the item still has to land in the local cart, and
// there is nobody left to ask for the name and price.
type AddItemRequestDTO struct {
	Product  domain.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	Items   []domain.CartItem `json:"items"`
	Count   int               `json:"count"`
	Total   float64           `json:"total"`
	Offline bool              `json:"offline"`
}

func cartResponse(rec *cart.Reconciler, offline bool) CartResponseDTO {
	return CartResponseDTO{
		Items:   rec.Snapshot(),
		Count:   rec.Count(),
		Total:   rec.Total(),
		Offline: offline,
	}
}

func (h *CartHandler) session(w http.ResponseWriter, r *http.Request) (*cart.Reconciler, context.Context, context.CancelFunc, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)

	sess := sessionFromContext(r.Context())
	rec, err := h.carts.Session(ctx, sess.ID, sessionTokens{sess})
	if err != nil {
		cancel()
		handleError(w, err)
		return nil, nil, nil, false
	}
	return rec, ctx, cancel, true
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	rec, _, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	respondJSON(w, http.StatusOK, cartResponse(rec, false))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	rec, ctx, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Product.ID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be positive")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	res, err := rec.AddItem(ctx, req.Product, req.Quantity)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(rec, res.Offline))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	rec, ctx, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	productID, err := productIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at most 99")
		return
	}

	// Zero or negative quantity removes the item.
	res, err := rec.SetQuantity(ctx, productID, req.Quantity)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(rec, res.Offline))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	rec, ctx, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	productID, err := productIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}

	res, err := rec.RemoveItem(ctx, productID)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(rec, res.Offline))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	rec, ctx, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	if err := rec.Clear(ctx); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(rec, false))
}

func productIDParam(r *http.Request) (int64, error) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		return 0, strconv.ErrSyntax
	}
	return productID, nil
}
