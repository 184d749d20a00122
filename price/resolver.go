// Package price converts a fiat-cent amount into the input-token amount a
// payer must provide at current spot price.
package price

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Pavankumar07s/ETHF/backend"
	"github.com/Pavankumar07s/ETHF/logger"
	"github.com/Pavankumar07s/ETHF/types"
)

// maxDisplayDecimals caps computed amounts at 8 fractional digits regardless
// of the token's native precision.
const maxDisplayDecimals = 8

// Quote is the resolved price for one (chain, token, usdCents) triple.
type Quote struct {
	// Amount is the required input-token amount, rounded to
	// min(token decimals, 8) places.
	Amount decimal.Decimal
	// Price is the token's spot price in USD.
	Price decimal.Decimal
	Token types.TokenInfo
}

// Resolver is stateless beyond its backend handle; every call asks the feed
// for a fresh quote.
type Resolver struct {
	backend *backend.Client
	log     logger.Logger
}

func NewResolver(client *backend.Client, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Resolver{backend: client, log: log}
}

// RequiredAmount resolves how much of token on chainID covers usdCents at
// spot. Fails with PRICE_UNAVAILABLE when the feed cannot quote the pair;
// callers must not proceed to order submission on error.
func (r *Resolver) RequiredAmount(ctx context.Context, chainID uint64, token string, usdCents int64) (*Quote, error) {
	spot, err := r.backend.TokenPrice(ctx, chainID, token)
	if err != nil {
		return nil, types.NewPaymentError(types.ErrPriceUnavailable, "fetch token price: %v", err)
	}
	if spot.Price.Sign() <= 0 {
		return nil, types.NewPaymentError(types.ErrPriceUnavailable, "no spot price for token %s on chain %d", token, chainID)
	}

	amount, err := r.backend.RequiredTokenAmount(ctx, chainID, token, usdCents)
	if err != nil {
		return nil, types.NewPaymentError(types.ErrPriceUnavailable, "fetch required amount: %v", err)
	}
	if amount.Sign() <= 0 {
		// Feed answered the price but not the conversion; derive it.
		amount = decimal.New(usdCents, -2).Div(spot.Price)
	}

	return &Quote{
		Amount: RoundTokenAmount(amount, spot.Token.Decimals),
		Price:  spot.Price,
		Token:  spot.Token,
	}, nil
}

// RoundTokenAmount rounds an amount to min(decimals, 8) fractional places:
// never more precision than the token supports, capped at 8 for high-decimal
// tokens.
func RoundTokenAmount(amount decimal.Decimal, decimals int) decimal.Decimal {
	places := decimals
	if places > maxDisplayDecimals {
		places = maxDisplayDecimals
	}
	if places < 0 {
		places = 0
	}
	return amount.Round(int32(places))
}
