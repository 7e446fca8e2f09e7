// Package webpay wraps the hosted payment gateway (Webpay Plus style):
// create a transaction, redirect the user to the gateway's domain, then
// commit with the token the gateway appends to the return URL.
package webpay

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/francoabl/HuertoHogar/internal/domain"
	"github.com/francoabl/HuertoHogar/internal/gateway"
)

// MinAmount is the gateway's transaction floor in minor currency units.
// Requests below it are rejected server-side anyway; validating here gives
// the user a real message instead of a gateway error page.
const MinAmount = 50

const healthTimeout = 3 * time.Second

type Client struct {
	c      *gateway.Client
	health *gateway.Client
	cb     *gobreaker.CircuitBreaker[struct{}]
}

func New(baseURL string, timeout time.Duration) *Client {
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "webpay",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Application errors are real answers from the gateway; only
		// connectivity failures should trip the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || !gateway.IsConnectivity(err)
		},
	})
	return &Client{
		c:      gateway.NewClient(baseURL, timeout),
		health: gateway.NewClient(baseURL, healthTimeout),
		cb:     cb,
	}
}

func (w *Client) execute(op string, fn func() error) error {
	_, err := w.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return &gateway.ConnectivityError{Op: op, Err: err}
	}
	return err
}

type createRequest struct {
	BuyOrder  string  `json:"buyOrder"`
	SessionID string  `json:"sessionId"`
	Amount    float64 `json:"amount"`
	ReturnURL string  `json:"returnUrl"`
}

type createResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// CreateTransaction registers the payment and returns the token plus the
// external URL the browser must be sent to.
func (w *Client) CreateTransaction(ctx context.Context, buyOrder, sessionID string, amount float64, returnURL string) (token, url string, err error) {
	if amount < MinAmount {
		return "", "", fmt.Errorf("amount %.0f is below the gateway minimum of %d", amount, MinAmount)
	}

	req := createRequest{BuyOrder: buyOrder, SessionID: sessionID, Amount: amount, ReturnURL: returnURL}
	var resp createResponse
	err = w.execute("webpay.create", func() error {
		return w.c.Do(ctx, "webpay.create", http.MethodPost, "/create", "", req, &resp)
	})
	if err != nil {
		return "", "", err
	}
	return resp.Token, resp.URL, nil
}

type commitResponse struct {
	Status             string  `json:"status"`
	ResponseCode       int     `json:"responseCode"`
	BuyOrder           string  `json:"buyOrder"`
	AuthorizationCode  string  `json:"authorizationCode"`
	Amount             float64 `json:"amount"`
	TransactionDate    string  `json:"transactionDate"`
	PaymentTypeCode    string  `json:"paymentTypeCode"`
	InstallmentsNumber int     `json:"installmentsNumber"`
	CardDetail         *struct {
		CardNumber string `json:"card_number"`
	} `json:"cardDetail"`
}

// CommitTransaction confirms the transaction the user just completed on the
// gateway's domain. Whether the payment was actually approved is the
// caller's call via PaymentResult.Approved.
func (w *Client) CommitTransaction(ctx context.Context, token string) (*domain.PaymentResult, error) {
	var resp commitResponse
	err := w.execute("webpay.commit", func() error {
		return w.c.Do(ctx, "webpay.commit", http.MethodPost, "/commit", "", map[string]string{"token": token}, &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp.toResult(), nil
}

// Status fetches the current transaction state without committing it.
func (w *Client) Status(ctx context.Context, token string) (*domain.PaymentResult, error) {
	var resp commitResponse
	err := w.execute("webpay.status", func() error {
		return w.c.Do(ctx, "webpay.status", http.MethodGet, "/status/"+token, "", nil, &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp.toResult(), nil
}

// Refund reverses (part of) a committed transaction.
func (w *Client) Refund(ctx context.Context, token string, amount float64) error {
	body := map[string]any{"token": token, "amount": amount}
	return w.execute("webpay.refund", func() error {
		return w.c.Do(ctx, "webpay.refund", http.MethodPost, "/refund", "", body, nil)
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

// Health probes the gateway with a short timeout. Any failure, including
// timeout, reads as unavailable.
func (w *Client) Health(ctx context.Context) bool {
	var resp healthResponse
	if err := w.health.Do(ctx, "webpay.health", http.MethodGet, "/health", "", nil, &resp); err != nil {
		return false
	}
	return resp.Status == "OK"
}

func (r *commitResponse) toResult() *domain.PaymentResult {
	res := &domain.PaymentResult{
		BuyOrder:          r.BuyOrder,
		AuthorizationCode: r.AuthorizationCode,
		ResponseCode:      r.ResponseCode,
		Status:            r.Status,
		Amount:            r.Amount,
		TransactionDate:   r.TransactionDate,
		CardType:          domain.CardTypeCredit,
		Installments:      r.InstallmentsNumber,
	}
	// Payment type VD is a debit card; everything else maps to credit.
	if r.PaymentTypeCode == "VD" {
		res.CardType = domain.CardTypeDebit
	}
	if r.InstallmentsNumber == 0 {
		res.Installments = 1
	}
	if r.CardDetail != nil {
		res.CardLast4 = lastDigits(r.CardDetail.CardNumber, 4)
	}
	return res
}

func lastDigits(s string, n int) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if len(digits) <= n {
		return digits
	}
	return digits[len(digits)-n:]
}
