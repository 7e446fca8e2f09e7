package domain

import "time"

// Order is the backend's view of an order created from the current cart.
type Order struct {
	ID    string     `json:"id"`
	Items []CartItem `json:"items"`
	Total float64    `json:"total"`
}

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PendingOrder is the checkout state that must survive the redirect to the
// external payment domain. It is written to durable storage before the
// browser navigates away and resolved (committed or discarded) when it
// comes back.
type PendingOrder struct {
	OrderID   string         `json:"order_id"`
	BuyOrder  string         `json:"buy_order"`
	Items     []CartItem     `json:"items"`
	Customer  Customer       `json:"customer"`
	Status    CheckoutStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`

	// LastResult is set once the gateway confirmed the payment, so a retry
	// of the backend commit after a partial failure does not re-commit the
	// transaction at the gateway.
	LastResult *PaymentResult `json:"last_result,omitempty"`
}

// PaymentStatusAuthorized is the gateway's sentinel for an approved
// transaction. A matching status alone is not enough, see Approved.
const PaymentStatusAuthorized = "AUTHORIZED"

type CardType string

const (
	CardTypeDebit  CardType = "DEBIT"
	CardTypeCredit CardType = "CREDIT"
)

// PaymentResult is the confirmed transaction outcome from the payment
// gateway. Consumed once by the confirmation bridge, then discarded.
type PaymentResult struct {
	BuyOrder          string   `json:"buy_order"`
	AuthorizationCode string   `json:"authorization_code"`
	ResponseCode      int      `json:"response_code"`
	Status            string   `json:"status"`
	Amount            float64  `json:"amount"`
	TransactionDate   string   `json:"transaction_date"`
	CardLast4         string   `json:"card_last4,omitempty"`
	CardType          CardType `json:"card_type,omitempty"`
	Installments      int      `json:"installments,omitempty"`
}

// Approved reports whether the transaction was actually authorized.
// Both conditions are required: an AUTHORIZED status with a non-zero
// response code (or a zero code with some other status) is a rejection.
func (r *PaymentResult) Approved() bool {
	return r.Status == PaymentStatusAuthorized && r.ResponseCode == 0
}
