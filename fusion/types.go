// Package fusion is the client for the settlement network the payments are
// routed through. Its endpoints are proxied by the merchant backend, so the
// base URL points at the backend, not at the venue directly.
package fusion

import (
	"encoding/json"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// PresetFast is the only execution preset this engine uses.
const PresetFast = "fast"

// OrderState is the settlement network's view of an order.
type OrderState string

const (
	OrderPending   OrderState = "pending"
	OrderFilled    OrderState = "filled"
	OrderExecuted  OrderState = "executed"
	OrderExpired   OrderState = "expired"
	OrderCancelled OrderState = "cancelled"
	OrderRefunded  OrderState = "refunded"
)

// Is compares states ignoring case; venue responses are inconsistent about
// capitalization.
func (s OrderState) Is(other OrderState) bool {
	return strings.EqualFold(string(s), string(other))
}

// QuoteParams requests a same-chain quote.
type QuoteParams struct {
	ChainID        uint64
	FromToken      string
	ToToken        string
	Amount         *big.Int
	WalletAddress  string
	Receiver       string
	EnableEstimate bool
}

// Quote is a same-chain quote. SettlementAddress is the spender the payer's
// allowance must authorize: it comes from the quote, never from a constant.
type Quote struct {
	QuoteID           string          `json:"quoteId"`
	SettlementAddress string          `json:"settlementAddress"`
	ToTokenAmount     string          `json:"toTokenAmount,omitempty"`
	Presets           map[string]json.RawMessage `json:"presets,omitempty"`
}

// PlaceOrderParams places a same-chain order through the venue's
// order-placement call; the venue builds and relays the order itself.
type PlaceOrderParams struct {
	ChainID       uint64 `json:"-"`
	FromToken     string `json:"fromTokenAddress"`
	ToToken       string `json:"toTokenAddress"`
	Amount        string `json:"amount"`
	WalletAddress string `json:"walletAddress"`
	Receiver      string `json:"receiver"`
	Preset        string `json:"preset"`
	QuoteID       string `json:"quoteId,omitempty"`
}

// PlacedOrder is the venue's acknowledgment of a placed order.
type PlacedOrder struct {
	OrderHash string `json:"orderHash"`
	QuoteID   string `json:"quoteId,omitempty"`
}

// Fill is one resolver fill of an order.
type Fill struct {
	TxHash         string `json:"txHash"`
	FilledMakerAmount string `json:"filledMakerAmount,omitempty"`
}

// OrderStatus is a point-in-time status snapshot of an order.
type OrderStatus struct {
	OrderHash string     `json:"orderHash"`
	Status    OrderState `json:"status"`
	Fills     []Fill     `json:"fills,omitempty"`
}

// CrossQuoteParams requests a cross-chain quote.
type CrossQuoteParams struct {
	SrcChainID     uint64
	DstChainID     uint64
	SrcToken       string
	DstToken       string
	Amount         *big.Int
	WalletAddress  string
	EnableEstimate bool
}

// CrossPreset is an execution preset inside a cross-chain quote.
type CrossPreset struct {
	SecretsCount int    `json:"secretsCount"`
	AuctionDuration int `json:"auctionDuration,omitempty"`
}

// CrossQuote is a cross-chain quote. The fast preset's secretsCount tells the
// payer how many secrets the fill will be split across.
type CrossQuote struct {
	QuoteID string                 `json:"quoteId"`
	Presets map[string]CrossPreset `json:"presets"`
	SrcSafetyDeposit string        `json:"srcSafetyDeposit,omitempty"`
	DstSafetyDeposit string        `json:"dstSafetyDeposit,omitempty"`
}

// SecretsCount returns the fast preset's secret count, defaulting to 1 when
// the preset is absent or empty.
func (q *CrossQuote) SecretsCount() int {
	if preset, ok := q.Presets[PresetFast]; ok && preset.SecretsCount > 0 {
		return preset.SecretsCount
	}
	return 1
}

// CrossOrder is a cross-chain order constructed locally before submission.
// Its hash is deterministically derivable from its contents, so the
// intent→order mapping can be recorded before the network ever sees it.
type CrossOrder struct {
	Maker        string   `json:"maker"`
	Receiver     string   `json:"receiver"`
	SrcChainID   uint64   `json:"srcChainId"`
	DstChainID   uint64   `json:"dstChainId"`
	SrcToken     string   `json:"srcToken"`
	DstToken     string   `json:"dstToken"`
	Amount       string   `json:"amount"`
	HashLock     string   `json:"hashLock"`
	SecretHashes []string `json:"secretHashes"`
	Preset       string   `json:"preset"`
	QuoteID      string   `json:"quoteId"`
}

// Hash derives the order's identifying hash from its canonical JSON
// encoding.
func (o *CrossOrder) Hash() (string, error) {
	encoded, err := json.Marshal(o)
	if err != nil {
		return "", err
	}
	return crypto.Keccak256Hash(encoded).Hex(), nil
}
