package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/francoabl/HuertoHogar/internal/domain"
)

// CartClient wraps the remote cart REST resource. All calls require the
// session's bearer token; the server keeps the authoritative copy and
// returns the full item list after every mutation.
type CartClient struct {
	c *Client
}

func NewCartClient(baseURL string, timeout time.Duration) *CartClient {
	return &CartClient{c: NewClient(baseURL, timeout)}
}

type cartResponse struct {
	Items []domain.CartItem `json:"items"`
}

func (cc *CartClient) Get(ctx context.Context, token string) ([]domain.CartItem, error) {
	var resp cartResponse
	if err := cc.c.Do(ctx, "cart.get", http.MethodGet, "/cart", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (cc *CartClient) Add(ctx context.Context, token string, productID int64, quantity int) ([]domain.CartItem, error) {
	body := map[string]any{"productId": productID, "quantity": quantity}
	var resp cartResponse
	if err := cc.c.Do(ctx, "cart.add", http.MethodPost, "/cart", token, body, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (cc *CartClient) UpdateQuantity(ctx context.Context, token string, productID int64, quantity int) ([]domain.CartItem, error) {
	body := map[string]any{"quantity": quantity}
	path := fmt.Sprintf("/cart/%d", productID)
	var resp cartResponse
	if err := cc.c.Do(ctx, "cart.update", http.MethodPut, path, token, body, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (cc *CartClient) Remove(ctx context.Context, token string, productID int64) ([]domain.CartItem, error) {
	path := fmt.Sprintf("/cart/%d", productID)
	var resp cartResponse
	if err := cc.c.Do(ctx, "cart.remove", http.MethodDelete, path, token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (cc *CartClient) Clear(ctx context.Context, token string) error {
	return cc.c.Do(ctx, "cart.clear", http.MethodPost, "/cart/clear", token, nil, nil)
}
