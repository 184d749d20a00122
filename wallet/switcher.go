package wallet

import (
	"context"

	"github.com/Pavankumar07s/ETHF/logger"
	"github.com/Pavankumar07s/ETHF/types"
)

// SwitchCoordinator makes sure the wallet is attached to the chain a token
// operation targets before the operation runs. It is safe to call repeatedly:
// a wallet already on the target chain is left alone.
type SwitchCoordinator struct {
	provider Provider
	networks map[uint64]types.NetworkConfig
	log      logger.Logger
}

func NewSwitchCoordinator(provider Provider, networks map[uint64]types.NetworkConfig, log logger.Logger) *SwitchCoordinator {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &SwitchCoordinator{provider: provider, networks: networks, log: log}
}

// EnsureChain switches the wallet to chainID if it is not already there. When
// the wallet reports the chain as unknown (EIP-1193 code 4902), the full
// network descriptor is supplied via AddChain and the switch is retried
// exactly once. A denial from the wallet is terminal for the current payment
// attempt and is reported as CHAIN_SWITCH_REJECTED.
func (c *SwitchCoordinator) EnsureChain(ctx context.Context, chainID uint64) error {
	if c.provider == nil {
		return types.NewPaymentError(types.ErrNoWalletProvider, "no wallet provider found")
	}

	network, ok := c.networks[chainID]
	if !ok {
		return types.NewPaymentError(types.ErrUnsupportedChain, "no network configuration for chain %d", chainID)
	}

	active, err := c.provider.ChainID(ctx)
	if err == nil && active == chainID {
		return nil
	}

	switchErr := c.provider.SwitchChain(ctx, chainID)
	if switchErr == nil {
		c.log.Info("switched wallet chain", map[string]any{"chain": chainID})
		return nil
	}

	if !IsUnrecognizedChain(switchErr) {
		return c.rejected(chainID, switchErr)
	}

	c.log.Info("chain unknown to wallet, adding it", map[string]any{"chain": chainID})
	if err := c.provider.AddChain(ctx, network); err != nil {
		return c.rejected(chainID, err)
	}
	if err := c.provider.SwitchChain(ctx, chainID); err != nil {
		return c.rejected(chainID, err)
	}

	c.log.Info("switched wallet chain after add", map[string]any{"chain": chainID})
	return nil
}

func (c *SwitchCoordinator) rejected(chainID uint64, cause error) error {
	pe := types.NewPaymentError(
		types.ErrChainSwitchRejected,
		"wallet refused to switch to chain %d: %v", chainID, cause,
	)
	pe.Data = cause.Error()
	return pe
}
