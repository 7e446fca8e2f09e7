// Package store is the durable key-value storage behind the cart's offline
// mirror and the pending-order record. Values are JSON blobs; keys are
// namespaced so they cannot collide with unrelated session data.
package store

import (
	"context"
	"errors"
	"fmt"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

var ErrNotFound = errors.New("key not found")

const namespace = "storefront"

// CartKey is where a session's cart snapshot mirror lives.
func CartKey(sessionID string) string {
	return fmt.Sprintf("%s:cart:%s", namespace, sessionID)
}

// PendingOrderKey holds the checkout state that must survive the redirect
// to the external payment domain.
func PendingOrderKey(sessionID string) string {
	return fmt.Sprintf("%s:pending_order:%s", namespace, sessionID)
}
