// Package payment drives the payment-intent side of settlement: it turns a
// payer's chosen input asset into a placed settlement order and reports the
// terminal outcome back in intent terms. Both submitter variants walk their
// steps strictly in order; no step starts before its predecessor succeeds.
package payment

import (
	"context"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Pavankumar07s/ETHF/fusion"
	"github.com/Pavankumar07s/ETHF/types"
)

// State names the steps of a payment attempt, for logging and for the
// terminal result.
type State string

const (
	StateIdle             State = "idle"
	StateNetworkReady     State = "network_ready"
	StateBalanceChecked   State = "balance_checked"
	StateAllowanceReady   State = "allowance_ready"
	StateQuoted           State = "quoted"
	StateSecretsGenerated State = "secrets_generated"
	StateOrderConstructed State = "order_constructed"
	StateMappingRecorded  State = "mapping_recorded"
	StateSubmitted        State = "submitted"
	StateMonitoring       State = "monitoring"
	StateFilled           State = "filled"
	StateExpired          State = "expired"
	StateCancelled        State = "cancelled"
	StateTimedOut         State = "timed_out"
)

// SettlementClient is the slice of the settlement network the submitters
// depend on. *fusion.Client implements it.
type SettlementClient interface {
	GetQuote(ctx context.Context, params fusion.QuoteParams) (*fusion.Quote, error)
	PlaceOrder(ctx context.Context, params fusion.PlaceOrderParams) (*fusion.PlacedOrder, error)
	SameChainOrderStatus(ctx context.Context, chainID uint64, orderHash string) (*fusion.OrderStatus, error)
	GetCrossQuote(ctx context.Context, params fusion.CrossQuoteParams) (*fusion.CrossQuote, error)
	SubmitOrder(ctx context.Context, srcChainID uint64, order *fusion.CrossOrder, quoteID string, secretHashes []string) error
	OrderStatus(ctx context.Context, orderHash string) (*fusion.OrderStatus, error)
}

// MappingRecorder persists the intent→order association on the backend.
// *backend.Client implements it.
type MappingRecorder interface {
	RecordMapping(ctx context.Context, mapping types.OrderMapping) error
}

// Result is the outcome of a payment attempt. A TimedOut state is reported,
// not treated as failure: the order may still fill and its status must be
// checked out of band.
type Result struct {
	MerchantOrderUUID string
	OrderHash         string
	QuoteID           string
	State             State
	Status            fusion.OrderState
	Fills             []fusion.Fill
}

// minTokenAmount is the dust threshold below which an attempt is rejected
// locally, before any wallet or network call.
var minTokenAmount = decimal.RequireFromString("0.000001")

// amountToUnits converts a display amount to the token's atomic units.
func amountToUnits(amount decimal.Decimal, decimals uint8) *big.Int {
	return amount.Shift(int32(decimals)).Truncate(0).BigInt()
}

// monitorOrder polls order status on a fixed cadence up to maxAttempts. A
// transient status error does not abort monitoring unless it happens on the
// final allowed attempt. Exhausting all attempts without a terminal state is
// MONITORING_TIMED_OUT.
func monitorOrder(
	ctx context.Context,
	orderHash string,
	interval time.Duration,
	maxAttempts int,
	statusFn func(ctx context.Context) (*fusion.OrderStatus, error),
) (*fusion.OrderStatus, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		st, err := statusFn(ctx)
		if err != nil {
			if attempt == maxAttempts {
				return nil, types.NewPaymentError(
					types.ErrMonitoringTimedOut,
					"order %s status monitoring failed: %v; check the order status manually", orderHash, err,
				)
			}
			continue
		}

		switch {
		case st.Status.Is(fusion.OrderFilled) || st.Status.Is(fusion.OrderExecuted):
			return st, nil
		case st.Status.Is(fusion.OrderExpired):
			return nil, types.NewPaymentError(types.ErrOrderExpired, "order %s expired; create a new order and try again", orderHash)
		case st.Status.Is(fusion.OrderCancelled):
			return nil, types.NewPaymentError(types.ErrOrderCancelled, "order %s was cancelled", orderHash)
		case st.Status.Is(fusion.OrderRefunded):
			return nil, types.NewPaymentError(types.ErrOrderCancelled, "order %s was refunded", orderHash)
		}
	}

	return nil, types.NewPaymentError(
		types.ErrMonitoringTimedOut,
		"order %s did not reach a terminal state in time. It may still fill; check the order status manually", orderHash,
	)
}
