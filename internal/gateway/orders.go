package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/francoabl/HuertoHogar/internal/domain"
)

// OrdersClient talks to the order backend. Field names on the confirm
// payload follow the backend's contract and are not ours to rename.
type OrdersClient struct {
	c *Client
}

func NewOrdersClient(baseURL string, timeout time.Duration) *OrdersClient {
	return &OrdersClient{c: NewClient(baseURL, timeout)}
}

// CreateFromCart creates a provisional order from the server-side cart.
func (oc *OrdersClient) CreateFromCart(ctx context.Context, token string) (*domain.Order, error) {
	var order domain.Order
	if err := oc.c.Do(ctx, "orders.create", http.MethodPost, "/orders/from-cart", token, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

type PaymentConfirmation struct {
	NumeroOrden        string `json:"numeroOrden"`
	CodigoAutorizacion string `json:"codigoAutorizacion"`
	CodigoRespuesta    string `json:"codigoRespuesta"`
	DetallesTarjeta    string `json:"detallesTarjeta"`
	TipoTarjeta        string `json:"tipoTarjeta"`
	Cuotas             int    `json:"cuotas"`
}

// ConfirmPayment marks the order as paid with the gateway's authorization
// details.
func (oc *OrdersClient) ConfirmPayment(ctx context.Context, token, orderID string, p PaymentConfirmation) error {
	return oc.c.Do(ctx, "orders.confirm", http.MethodPost, "/orders/"+orderID+"/confirm-payment", token, p, nil)
}
