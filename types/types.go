package types

import (
	"fmt"
	"time"
)

// IntentStatus is the externally visible status of a payment intent.
type IntentStatus string

const (
	StatusPending    IntentStatus = "pending"
	StatusProcessing IntentStatus = "processing"
	StatusCompleted  IntentStatus = "completed"
	StatusFailed     IntentStatus = "failed"
	StatusExpired    IntentStatus = "expired"
)

// Terminal reports whether a status can no longer change.
func (s IntentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusExpired
}

// PaymentIntent is a merchant's request for a fixed USD-equivalent amount,
// identified by a UID. The backend owns the record; the core only reads it
// and drives its status through settlement.
type PaymentIntent struct {
	UID         string       `json:"uid"`
	Merchant    string       `json:"merchant"`
	OutChain    uint64       `json:"outChain,string"`
	OutToken    string       `json:"outToken"`
	UsdCents    int64        `json:"usdCents,string"`
	DeadlineSec int64        `json:"deadlineSec,string"`
	Deadline    int64        `json:"deadline,omitempty"`
	Status      IntentStatus `json:"status,omitempty"`
	CreatedAt   time.Time    `json:"createdAt,omitempty"`
	UpdatedAt   time.Time    `json:"updatedAt,omitempty"`
}

// EffectiveStatus computes the display status at a given instant. Expiry is
// purely a clock comparison: a pending intent whose deadline has passed is
// shown as expired without any server-side mutation.
func (p *PaymentIntent) EffectiveStatus(now time.Time) IntentStatus {
	status := p.Status
	if status == "" {
		status = StatusPending
	}
	if status == StatusPending && p.Deadline > 0 && now.Unix() > p.Deadline {
		return StatusExpired
	}
	return status
}

// OrderMapping links a payment intent to its settlement order. For
// cross-chain orders it is the only channel by which the secrets reach the
// backend, which needs them to claim the fill on behalf of the payer.
type OrderMapping struct {
	MerchantOrderUUID string   `json:"merchantOrderUuid"`
	OrderHash         string   `json:"orderhash"`
	QuoteID           string   `json:"quoteId"`
	Secrets           []string `json:"secrets"`
}

// TokenInfo describes the payer-selected input token as reported by the
// price feed.
type TokenInfo struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	LogoURI  string `json:"logoURI,omitempty"`
}

// PaymentError is the error type surfaced by every component of the payment
// core. Code is one of the Err* constants below; Message is user-facing and
// actionable; Data optionally carries the upstream payload.
type PaymentError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewPaymentError builds a PaymentError with a formatted message.
func NewPaymentError(code, format string, args ...interface{}) *PaymentError {
	return &PaymentError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode extracts the payment error code from err, or the empty string if
// no *PaymentError is found in its chain.
func ErrorCode(err error) string {
	for err != nil {
		if pe, ok := err.(*PaymentError); ok {
			return pe.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// Error taxonomy. Validation codes abort before any wallet or network call;
// the rest surface after the step that produced them. MAPPING_RECORD_FAILED
// is never fatal to the payment outcome.
const (
	ErrNoWalletProvider        = "NO_WALLET_PROVIDER"
	ErrChainSwitchRejected     = "CHAIN_SWITCH_REJECTED"
	ErrUnsupportedChain        = "UNSUPPORTED_CHAIN"
	ErrSameTokenSwap           = "SAME_TOKEN_SWAP"
	ErrAmountTooSmall          = "AMOUNT_TOO_SMALL"
	ErrPriceUnavailable        = "PRICE_UNAVAILABLE"
	ErrInsufficientBalance     = "INSUFFICIENT_BALANCE"
	ErrAllowanceApprovalFailed = "ALLOWANCE_APPROVAL_FAILED"
	ErrQuoteFailed             = "QUOTE_FAILED"
	ErrUnsupportedTokenVenue   = "UNSUPPORTED_TOKEN_FOR_VENUE"
	ErrAmountBelowMinimum      = "AMOUNT_BELOW_MINIMUM"
	ErrOrderPlacementFailed    = "ORDER_PLACEMENT_FAILED"
	ErrOrderExpired            = "ORDER_EXPIRED"
	ErrOrderCancelled          = "ORDER_CANCELLED"
	ErrMonitoringTimedOut      = "MONITORING_TIMED_OUT"
	ErrMappingRecordFailed     = "MAPPING_RECORD_FAILED"
	ErrPaymentInProgress       = "PAYMENT_IN_PROGRESS"
	ErrNetwork                 = "NETWORK_ERROR"
)
