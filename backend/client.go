// Package backend is the REST client for the merchant backend: payment
// intents, order mappings and the price feed. All calls run behind a shared
// circuit breaker so a failing backend degrades fast instead of piling up
// slow requests.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/Pavankumar07s/ETHF/logger"
	"github.com/Pavankumar07s/ETHF/types"
)

// Client talks to the merchant backend. Authenticated endpoints rely on the
// session cookie carried by the injected http.Client's cookie jar.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     logger.Logger
}

func NewClient(baseURL string, httpClient *http.Client, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		breaker: newBreaker(),
		log:     log,
	}
}

func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "backend",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests > 10 && ratio >= 0.6
		},
	})
}

// Pagination mirrors the backend's list envelope.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalOrders int  `json:"totalOrders"`
	HasMore     bool `json:"hasMore"`
}

// IntentPage is one page of the caller's payment intents.
type IntentPage struct {
	Intents    []types.PaymentIntent `json:"orders"`
	Pagination Pagination            `json:"pagination"`
}

type listResponse struct {
	Success bool       `json:"success"`
	Data    IntentPage `json:"data"`
	Message string     `json:"message"`
}

type intentResponse struct {
	Success bool `json:"success"`
	Data    *struct {
		Order types.PaymentIntent `json:"order"`
	} `json:"data"`
	Order   *types.PaymentIntent `json:"order"`
	Message string               `json:"message"`
}

type statusResponse struct {
	Success bool                `json:"success"`
	Status  types.IntentStatus  `json:"status"`
	Order   types.PaymentIntent `json:"order"`
	Message string              `json:"message"`
}

// CreateIntentRequest is the body of POST /order/.
type CreateIntentRequest struct {
	Merchant    string `json:"merchant" validate:"required,eth_addr"`
	OutToken    string `json:"outToken" validate:"required,eth_addr"`
	OutChain    uint64 `json:"outChain,string" validate:"required"`
	UsdCents    int64  `json:"usdCents,string" validate:"required,gt=0"`
	DeadlineSec int64  `json:"deadlineSec,string" validate:"required,gt=0"`
}

var validateRequest = validator.New()

// Validate checks the request before it leaves the process.
func (r CreateIntentRequest) Validate() error {
	return validateRequest.Struct(r)
}

type createResponse struct {
	Success bool                 `json:"success"`
	UID     string               `json:"uid"`
	Order   *types.PaymentIntent `json:"order"`
	Message string               `json:"message"`
}

// TokenPrice is the spot quote for one token.
type TokenPrice struct {
	Price decimal.Decimal `json:"price"`
	Token types.TokenInfo `json:"token"`
}

type priceResponse struct {
	Success bool            `json:"success"`
	Price   decimal.Decimal `json:"price"`
	Token   types.TokenInfo `json:"token"`
	Data    *TokenPrice     `json:"data"`
	Message string          `json:"message"`
}

type requiredAmountResponse struct {
	Success        bool            `json:"success"`
	RequiredAmount decimal.Decimal `json:"requiredAmount"`
	Message        string          `json:"message"`
}

// ListIntents fetches one page of the authenticated caller's intents.
func (c *Client) ListIntents(ctx context.Context, page, limit int) (*IntentPage, error) {
	var out listResponse
	path := fmt.Sprintf("/order?page=%d&limit=%d", page, limit)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Intent fetches a single intent by uid (authenticated).
func (c *Client) Intent(ctx context.Context, uid string) (*types.PaymentIntent, error) {
	var out intentResponse
	if err := c.get(ctx, "/order/orderId/"+url.PathEscape(uid), &out); err != nil {
		return nil, err
	}
	return pickIntent(&out)
}

// PublicIntent fetches a single intent by uid without authentication; this
// backs the payer-facing payment page.
func (c *Client) PublicIntent(ctx context.Context, uid string) (*types.PaymentIntent, error) {
	var out intentResponse
	if err := c.get(ctx, "/order/public/"+url.PathEscape(uid), &out); err != nil {
		return nil, err
	}
	return pickIntent(&out)
}

func pickIntent(out *intentResponse) (*types.PaymentIntent, error) {
	if out.Data != nil {
		return &out.Data.Order, nil
	}
	if out.Order != nil {
		return out.Order, nil
	}
	return nil, types.NewPaymentError(types.ErrNetwork, "backend returned no order")
}

// IntentStatus fetches the reconciled status of an intent.
func (c *Client) IntentStatus(ctx context.Context, uid string) (types.IntentStatus, error) {
	var out statusResponse
	if err := c.get(ctx, "/order/status/orderId/"+url.PathEscape(uid), &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// CreateIntent creates a new payment intent for the merchant.
func (c *Client) CreateIntent(ctx context.Context, req CreateIntentRequest) (*types.PaymentIntent, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid create request: %w", err)
	}
	var out createResponse
	if err := c.post(ctx, "/order/", req, &out); err != nil {
		return nil, err
	}
	if out.Order == nil {
		return nil, types.NewPaymentError(types.ErrNetwork, "backend returned no order")
	}
	if out.Order.UID == "" {
		out.Order.UID = out.UID
	}
	return out.Order, nil
}

// RecordMapping posts the intent→settlement-order association. For
// cross-chain orders this payload carries the secrets the backend needs to
// settle the fill; callers treat a failure here as non-fatal but must log it.
func (c *Client) RecordMapping(ctx context.Context, mapping types.OrderMapping) error {
	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.post(ctx, "/order/mapping", mapping, &out); err != nil {
		return types.NewPaymentError(types.ErrMappingRecordFailed, "record order mapping: %v", err)
	}
	return nil
}

// TokenPrice fetches the spot price and token metadata for one token.
func (c *Client) TokenPrice(ctx context.Context, chainID uint64, token string) (*TokenPrice, error) {
	var out priceResponse
	path := fmt.Sprintf("/price/chain/%d/token/%s/", chainID, url.PathEscape(token))
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	if out.Data != nil {
		return out.Data, nil
	}
	return &TokenPrice{Price: out.Price, Token: out.Token}, nil
}

// RequiredTokenAmount asks the backend how much of the token covers the given
// USD amount at spot.
func (c *Client) RequiredTokenAmount(ctx context.Context, chainID uint64, token string, usdCents int64) (decimal.Decimal, error) {
	usd := decimal.New(usdCents, -2)
	var out requiredAmountResponse
	path := fmt.Sprintf(
		"/price/get-required-token-amount/chain/%d/token/%s/requiredUsd/%s",
		chainID, url.PathEscape(token), usd.String(),
	)
	if err := c.get(ctx, path, &out); err != nil {
		return decimal.Zero, err
	}
	return out.RequiredAmount, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		var reader io.Reader
		if body != nil {
			encoded, err := json.Marshal(body)
			if err != nil {
				return nil, err
			}
			reader = bytes.NewReader(encoded)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		requestID := uuid.NewString()
		req.Header.Set("X-Request-Id", requestID)

		resp, err := c.http.Do(req)
		if err != nil {
			c.log.Warn("backend request failed", map[string]any{
				"method": method, "path": path, "requestId": requestID, "err": err.Error(),
			})
			return nil, err
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 400 {
			return nil, httpError(resp.StatusCode, payload)
		}
		if out != nil {
			if err := json.Unmarshal(payload, out); err != nil {
				return nil, fmt.Errorf("decode %s %s: %w", method, path, err)
			}
		}
		return nil, nil
	})
	return err
}

func httpError(status int, body []byte) error {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(body, &envelope)
	msg := envelope.Message
	if msg == "" {
		msg = envelope.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return fmt.Errorf("backend %d: %s", status, msg)
}
