package domain

type CheckoutStatus string

const (
	CheckoutStatusOrderCreated CheckoutStatus = "ORDER_CREATED"
	CheckoutStatusRedirected   CheckoutStatus = "REDIRECTED"
	CheckoutStatusReturned     CheckoutStatus = "RETURNED"
	CheckoutStatusConfirmed    CheckoutStatus = "CONFIRMED"
	CheckoutStatusRejected     CheckoutStatus = "REJECTED"
	CheckoutStatusFailed       CheckoutStatus = "FAILED"
)

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusConfirmed || s == CheckoutStatusRejected || s == CheckoutStatusFailed
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}

var checkoutTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusOrderCreated: {CheckoutStatusRedirected, CheckoutStatusFailed},
	CheckoutStatusRedirected:   {CheckoutStatusReturned, CheckoutStatusFailed},
	CheckoutStatusReturned:     {CheckoutStatusConfirmed, CheckoutStatusRejected, CheckoutStatusFailed},
	// A rejected payment may be retried from the same pending order.
	CheckoutStatusRejected: {CheckoutStatusReturned, CheckoutStatusRedirected},
	// A confirmed payment whose backend commit failed is re-committed on
	// the next load, so CONFIRMED must allow re-entering itself.
	CheckoutStatusConfirmed: {CheckoutStatusConfirmed},
}

func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, allowed := range checkoutTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
