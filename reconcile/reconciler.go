// Package reconcile maps settlement-network order states back onto merchant
// intent statuses and keeps in-flight intents fresh in the background.
package reconcile

import (
	"context"

	"github.com/Pavankumar07s/ETHF/fusion"
	"github.com/Pavankumar07s/ETHF/logger"
	"github.com/Pavankumar07s/ETHF/types"
)

// StatusSource reads an order's state from the settlement network.
type StatusSource interface {
	OrderStatus(ctx context.Context, orderHash string) (*fusion.OrderStatus, error)
}

// Reconciler folds order states into intent statuses.
type Reconciler struct {
	source StatusSource
	log    logger.Logger
}

func NewReconciler(source StatusSource, log logger.Logger) *Reconciler {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Reconciler{source: source, log: log}
}

// Resolve returns the intent status implied by the order's current state.
// Unknown orders and unrecognized states resolve to processing rather than
// an error: the venue's registry lags submission and a transient gap must
// not flip an intent to failed.
func (r *Reconciler) Resolve(ctx context.Context, orderHash string) (types.IntentStatus, error) {
	st, err := r.source.OrderStatus(ctx, orderHash)
	if err != nil {
		return "", err
	}
	return StatusFor(st.Status), nil
}

// StatusFor maps one order state to an intent status.
func StatusFor(state fusion.OrderState) types.IntentStatus {
	switch {
	case state.Is(fusion.OrderExecuted), state.Is(fusion.OrderFilled):
		return types.StatusCompleted
	case state.Is(fusion.OrderExpired), state.Is(fusion.OrderRefunded), state.Is(fusion.OrderCancelled):
		return types.StatusFailed
	default:
		return types.StatusProcessing
	}
}
