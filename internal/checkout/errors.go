package checkout

import "errors"

var (
	ErrNotAuthenticated   = errors.New("user is not authenticated")
	ErrEmptyCart          = errors.New("cart is empty, nothing to check out")
	ErrGatewayUnavailable = errors.New("payment gateway is unavailable")

	// ErrNoPendingOrder means a return token arrived but durable storage has
	// no matching pending order. There is nothing to confirm against, and
	// fabricating a success is not an option.
	ErrNoPendingOrder = errors.New("no pending order for this session")

	// ErrConfirmationPending means the gateway captured the payment but the
	// order backend could not be told. The pending record is kept so a
	// reload retries the commit.
	ErrConfirmationPending = errors.New("payment captured, order confirmation pending")

	ErrIllegalTransition = errors.New("illegal checkout status transition")
)
