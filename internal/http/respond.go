package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/francoabl/HuertoHogar/internal/checkout"
	"github.com/francoabl/HuertoHogar/internal/gateway"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps the error taxonomy to HTTP. Application errors pass
// through with the collaborator's own status and message; connectivity
// failures read as the service being unavailable.
func handleError(w http.ResponseWriter, err error) {
	var ae *gateway.ApplicationError
	if errors.As(err, &ae) {
		respondError(w, ae.StatusCode, ae.Code, ae.Message)
		return
	}

	var ve *gateway.ValidationError
	if errors.As(err, &ve) {
		respondError(w, http.StatusBadGateway, "bad_upstream_response", "upstream service returned a malformed response")
		return
	}

	if gateway.IsConnectivity(err) {
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "upstream service unreachable")
		return
	}

	switch {
	case errors.Is(err, checkout.ErrNotAuthenticated):
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", "cart is empty")
	case errors.Is(err, checkout.ErrGatewayUnavailable):
		respondError(w, http.StatusServiceUnavailable, "gateway_unavailable", "payment gateway is not available")
	case errors.Is(err, checkout.ErrNoPendingOrder):
		respondError(w, http.StatusNotFound, "no_pending_order", "no pending order for this session")
	case errors.Is(err, checkout.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_state", "checkout is not in a resumable state")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
