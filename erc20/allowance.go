package erc20

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Pavankumar07s/ETHF/logger"
	"github.com/Pavankumar07s/ETHF/types"
	"github.com/Pavankumar07s/ETHF/wallet"
)

// AllowanceManager guarantees the settlement contract can spend the payer's
// input token before an order is submitted.
type AllowanceManager struct {
	wallet      wallet.Provider
	log         logger.Logger
	settleDelay time.Duration
}

func NewAllowanceManager(provider wallet.Provider, settleDelay time.Duration, log logger.Logger) *AllowanceManager {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &AllowanceManager{wallet: provider, log: log, settleDelay: settleDelay}
}

// EnsureAllowance checks the owner's balance and current allowance for
// spender, approving MaxUint256 when the allowance falls short. The approval
// is always for the maximum so later payments with the same token/spender
// pair need no further approval. Idempotent: a second call with the same
// parameters issues no transaction.
//
// A balance below required is reported as INSUFFICIENT_BALANCE before any
// approval is attempted, since approving cannot fix it.
func (m *AllowanceManager) EnsureAllowance(
	ctx context.Context,
	token *Token,
	owner, spender common.Address,
	required *big.Int,
) error {
	balance, err := token.BalanceOf(ctx, owner)
	if err != nil {
		return types.NewPaymentError(types.ErrNetwork, "read balance: %v", err)
	}
	if balance.Cmp(required) < 0 {
		return types.NewPaymentError(
			types.ErrInsufficientBalance,
			"insufficient balance: required %s, available %s", required, balance,
		)
	}

	allowance, err := token.Allowance(ctx, owner, spender)
	if err != nil {
		return types.NewPaymentError(types.ErrNetwork, "read allowance: %v", err)
	}
	if allowance.Cmp(required) >= 0 {
		return nil
	}

	m.log.Info("approving token spend", map[string]any{
		"token":   token.Address().Hex(),
		"spender": spender.Hex(),
	})

	calldata, err := ApproveCalldata(spender, MaxUint256)
	if err != nil {
		return types.NewPaymentError(types.ErrAllowanceApprovalFailed, "build approval: %v", err)
	}

	txHash, err := m.wallet.SendTransaction(ctx, wallet.TxRequest{
		From: owner.Hex(),
		To:   token.Address().Hex(),
		Data: calldata,
	})
	if err != nil {
		return types.NewPaymentError(types.ErrAllowanceApprovalFailed, "approval rejected: %v", err)
	}
	if err := m.wallet.WaitMined(ctx, txHash); err != nil {
		return types.NewPaymentError(types.ErrAllowanceApprovalFailed, "approval tx %s not mined: %v", txHash, err)
	}

	// Nodes can serve stale state right after confirmation; give the
	// approval a moment before the confirming re-read.
	if m.settleDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.settleDelay):
		}
	}

	confirmed, err := token.Allowance(ctx, owner, spender)
	if err != nil {
		return types.NewPaymentError(types.ErrNetwork, "re-read allowance: %v", err)
	}
	if confirmed.Cmp(required) < 0 {
		return types.NewPaymentError(
			types.ErrAllowanceApprovalFailed,
			"allowance still %s after approval %s", confirmed, txHash,
		)
	}

	m.log.Info("approval confirmed", map[string]any{"tx": txHash})
	return nil
}
