package fusion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Pavankumar07s/ETHF/logger"
	"github.com/Pavankumar07s/ETHF/types"
)

const (
	sameChainPath  = "/1inch/same-chain-x"
	crossChainPath = "/1inch/cross-chain-x"
)

// Client talks to the settlement network through the backend proxy.
type Client struct {
	sameBase  string
	crossBase string
	http      *http.Client
	log       logger.Logger
}

func NewClient(backendURL string, httpClient *http.Client, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logger.NoopLogger{}
	}
	base := strings.TrimRight(backendURL, "/")
	return &Client{
		sameBase:  base + sameChainPath,
		crossBase: base + crossChainPath,
		http:      httpClient,
		log:       log,
	}
}

// GetQuote requests a same-chain quote for the exact input/output pair and
// amount. Fails with QUOTE_FAILED; an invalid quote (no settlement address)
// is also a quote failure, since without a spender nothing can be approved.
func (c *Client) GetQuote(ctx context.Context, params QuoteParams) (*Quote, error) {
	q := url.Values{}
	q.Set("fromTokenAddress", params.FromToken)
	q.Set("toTokenAddress", params.ToToken)
	q.Set("amount", params.Amount.String())
	q.Set("walletAddress", params.WalletAddress)
	if params.Receiver != "" {
		q.Set("receiver", params.Receiver)
	}
	if params.EnableEstimate {
		q.Set("enableEstimate", "true")
	}

	path := fmt.Sprintf("%s/quoter/v2.0/%d/quote/receive?%s", c.sameBase, params.ChainID, q.Encode())
	var quote Quote
	if err := c.getJSON(ctx, path, &quote); err != nil {
		return nil, types.NewPaymentError(types.ErrQuoteFailed, "same-chain quote: %v", err)
	}
	if quote.SettlementAddress == "" {
		return nil, types.NewPaymentError(types.ErrQuoteFailed, "quote carries no settlement address")
	}
	return &quote, nil
}

// PlaceOrder places a same-chain order using the fast preset. The venue
// builds, has the wallet sign, and relays the order; this call only receives
// the resulting order hash. Placement failures are classified into the
// venue's known categories so the payer gets an actionable message.
func (c *Client) PlaceOrder(ctx context.Context, params PlaceOrderParams) (*PlacedOrder, error) {
	if params.Preset == "" {
		params.Preset = PresetFast
	}
	path := fmt.Sprintf("%s/relayer/v2.0/%d/order/submit", c.sameBase, params.ChainID)

	body, status, err := c.postJSON(ctx, path, params)
	if err != nil {
		return nil, types.NewPaymentError(types.ErrOrderPlacementFailed, "place order: %v", err)
	}
	if status >= 400 {
		return nil, classifyPlacement(status, body)
	}

	var placed PlacedOrder
	if err := json.Unmarshal(body, &placed); err != nil {
		return nil, types.NewPaymentError(types.ErrOrderPlacementFailed, "decode placement response: %v", err)
	}
	if placed.OrderHash == "" {
		return nil, types.NewPaymentError(types.ErrOrderPlacementFailed, "venue returned no order hash")
	}
	return &placed, nil
}

// SameChainOrderStatus polls a same-chain order.
func (c *Client) SameChainOrderStatus(ctx context.Context, chainID uint64, orderHash string) (*OrderStatus, error) {
	path := fmt.Sprintf("%s/orders/v2.0/%d/order/status/%s", c.sameBase, chainID, url.PathEscape(orderHash))
	var st OrderStatus
	if err := c.getJSON(ctx, path, &st); err != nil {
		return nil, fmt.Errorf("order status: %w", err)
	}
	if st.OrderHash == "" {
		st.OrderHash = orderHash
	}
	return &st, nil
}

// GetCrossQuote requests a cross-chain quote for (srcChain, dstChain,
// srcToken, dstToken, amount).
func (c *Client) GetCrossQuote(ctx context.Context, params CrossQuoteParams) (*CrossQuote, error) {
	q := url.Values{}
	q.Set("srcChain", fmt.Sprintf("%d", params.SrcChainID))
	q.Set("dstChain", fmt.Sprintf("%d", params.DstChainID))
	q.Set("srcTokenAddress", params.SrcToken)
	q.Set("dstTokenAddress", params.DstToken)
	q.Set("amount", params.Amount.String())
	q.Set("walletAddress", params.WalletAddress)
	if params.EnableEstimate {
		q.Set("enableEstimate", "true")
	}

	path := fmt.Sprintf("%s/quoter/v1.0/quote/receive?%s", c.crossBase, q.Encode())
	var quote CrossQuote
	if err := c.getJSON(ctx, path, &quote); err != nil {
		return nil, types.NewPaymentError(types.ErrQuoteFailed, "cross-chain quote: %v", err)
	}
	if quote.QuoteID == "" {
		return nil, types.NewPaymentError(types.ErrQuoteFailed, "cross-chain quote carries no quote id")
	}
	return &quote, nil
}

// SubmitOrder submits a locally constructed cross-chain order to the
// settlement network for the source chain.
func (c *Client) SubmitOrder(ctx context.Context, srcChainID uint64, order *CrossOrder, quoteID string, secretHashes []string) error {
	payload := struct {
		SrcChainID   uint64      `json:"srcChainId"`
		Order        *CrossOrder `json:"order"`
		QuoteID      string      `json:"quoteId"`
		SecretHashes []string    `json:"secretHashes"`
	}{srcChainID, order, quoteID, secretHashes}

	body, status, err := c.postJSON(ctx, c.crossBase+"/relayer/v1.0/submit", payload)
	if err != nil {
		return types.NewPaymentError(types.ErrOrderPlacementFailed, "submit order: %v", err)
	}
	if status >= 400 {
		return classifyPlacement(status, body)
	}
	return nil
}

// OrderStatus resolves the status of any order by hash, trying the
// cross-chain registry first and falling back to same-chain venues. An order
// unknown to both is reported as pending, never as an error: absence of a
// terminal status means the order is still in progress.
func (c *Client) OrderStatus(ctx context.Context, orderHash string) (*OrderStatus, error) {
	path := c.crossBase + "/orders/v1.0/order/status/" + url.PathEscape(orderHash)
	var st OrderStatus
	err := c.getJSON(ctx, path, &st)
	if err == nil && st.Status != "" {
		if st.OrderHash == "" {
			st.OrderHash = orderHash
		}
		return &st, nil
	}
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("order status: %w", err)
	}
	return &OrderStatus{OrderHash: orderHash, Status: OrderPending}, nil
}

type httpStatusError struct {
	status int
	body   []byte
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.status, string(e.body))
}

func isNotFound(err error) bool {
	se, ok := err.(*httpStatusError)
	return ok && se.status == http.StatusNotFound
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return &httpStatusError{status: resp.StatusCode, body: body}
	}
	return json.Unmarshal(body, out)
}

func (c *Client) postJSON(ctx context.Context, rawURL string, payload interface{}) ([]byte, int, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(string(encoded)))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}
