package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/francoabl/HuertoHogar/internal/checkout"
	"github.com/francoabl/HuertoHogar/internal/domain"
)

type CheckoutHandler struct {
	coord   *checkout.Coordinator
	timeout time.Duration
}

func NewCheckoutHandler(coord *checkout.Coordinator, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		coord:   coord,
		timeout: timeout,
	}
}

type InitiateResponseDTO struct {
	OrderID     string  `json:"order_id"`
	BuyOrder    string  `json:"buy_order"`
	Amount      float64 `json:"amount"`
	RedirectURL string  `json:"redirect_url"`
}

type OutcomeResponseDTO struct {
	Status            string  `json:"status"`
	OrderID           string  `json:"order_id,omitempty"`
	BuyOrder          string  `json:"buy_order,omitempty"`
	Amount            float64 `json:"amount,omitempty"`
	AuthorizationCode string  `json:"authorization_code,omitempty"`
	ResponseCode      int     `json:"response_code"`
	CardLast4         string  `json:"card_last4,omitempty"`
	CardType          string  `json:"card_type,omitempty"`
	Installments      int     `json:"installments,omitempty"`
	Pending           bool    `json:"pending,omitempty"`
}

type GatewayStatusDTO struct {
	Available bool `json:"available"`
}

type PendingStatusDTO struct {
	Pending bool `json:"pending"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.coord.Initiate(ctx, sessionFromContext(r.Context()))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, InitiateResponseDTO{
		OrderID:     res.OrderID,
		BuyOrder:    res.BuyOrder,
		Amount:      res.Amount,
		RedirectURL: res.RedirectURL,
	})
}

// GET /api/v1/checkout/return?token_ws=...
//
// The payment gateway sends the browser back here. Everything about the
// purchase is reconstructed from durable state; the request itself only
// carries the transaction token.
func (h *CheckoutHandler) Return(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token := r.URL.Query().Get("token_ws")
	if token == "" {
		respondError(w, http.StatusBadRequest, "missing_token", "token_ws query parameter is required")
		return
	}

	outcome, err := h.coord.Resume(ctx, sessionFromContext(r.Context()), token)
	if err != nil {
		// The payment went through but the order backend has not
		// acknowledged yet. Report the confirmed payment; a reload retries.
		if errors.Is(err, checkout.ErrConfirmationPending) && outcome != nil {
			dto := outcomeDTO(outcome)
			dto.Pending = true
			respondJSON(w, http.StatusAccepted, dto)
			return
		}
		handleError(w, err)
		return
	}

	status := http.StatusOK
	if outcome.Status == domain.CheckoutStatusRejected {
		status = http.StatusPaymentRequired
	}
	respondJSON(w, status, outcomeDTO(outcome))
}

// GET /api/v1/checkout/gateway
func (h *CheckoutHandler) GatewayStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	respondJSON(w, http.StatusOK, GatewayStatusDTO{Available: h.coord.GatewayAvailable(ctx)})
}

// GET /api/v1/checkout/pending
func (h *CheckoutHandler) PendingStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())
	respondJSON(w, http.StatusOK, PendingStatusDTO{Pending: h.coord.HasPendingOrder(ctx, sess.ID)})
}

func outcomeDTO(o *checkout.Outcome) OutcomeResponseDTO {
	dto := OutcomeResponseDTO{Status: string(o.Status)}
	if o.Order != nil {
		dto.OrderID = o.Order.OrderID
		dto.BuyOrder = o.Order.BuyOrder
	}
	if o.Result != nil {
		dto.Amount = o.Result.Amount
		dto.AuthorizationCode = o.Result.AuthorizationCode
		dto.ResponseCode = o.Result.ResponseCode
		dto.CardLast4 = o.Result.CardLast4
		dto.CardType = string(o.Result.CardType)
		dto.Installments = o.Result.Installments
	}
	return dto
}
