package types

import "fmt"

// NativeCurrency describes a chain's gas token for wallet_addEthereumChain.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// NetworkConfig is the full descriptor of a supported chain. It is injected
// configuration, not code: adding a chain is a config change, not a redeploy.
type NetworkConfig struct {
	ChainID        uint64         `json:"chainId" validate:"required"`
	Name           string         `json:"chainName" validate:"required"`
	NativeCurrency NativeCurrency `json:"nativeCurrency"`
	RPCURLs        []string       `json:"rpcUrls" validate:"required,min=1"`
	ExplorerURLs   []string       `json:"blockExplorerUrls"`

	// SettlementContract is the limit-order settlement contract on this
	// chain, used as the allowance spender for cross-chain orders.
	SettlementContract string `json:"settlementContract,omitempty"`
}

// HexChainID renders the chain id the way wallet RPCs expect it ("0x1").
func (n NetworkConfig) HexChainID() string {
	return fmt.Sprintf("0x%x", n.ChainID)
}

// settlementContract is the 1inch limit-order protocol address, identical on
// every chain it is deployed to.
const settlementContract = "0x111111125421cA6dc452d289314280a0f8842A65"

// DefaultNetworks returns descriptors for the chains supported out of the
// box. Callers may pass their own map to Config instead.
func DefaultNetworks() map[uint64]NetworkConfig {
	return map[uint64]NetworkConfig{
		1: {
			ChainID:            1,
			Name:               "Ethereum Mainnet",
			NativeCurrency:     NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18},
			RPCURLs:            []string{"https://eth.llamarpc.com"},
			ExplorerURLs:       []string{"https://etherscan.io"},
			SettlementContract: settlementContract,
		},
		10: {
			ChainID:            10,
			Name:               "Optimism",
			NativeCurrency:     NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18},
			RPCURLs:            []string{"https://mainnet.optimism.io"},
			ExplorerURLs:       []string{"https://optimistic.etherscan.io"},
			SettlementContract: settlementContract,
		},
		56: {
			ChainID:            56,
			Name:               "BNB Smart Chain",
			NativeCurrency:     NativeCurrency{Name: "BNB", Symbol: "BNB", Decimals: 18},
			RPCURLs:            []string{"https://bsc-dataseed.binance.org"},
			ExplorerURLs:       []string{"https://bscscan.com"},
			SettlementContract: settlementContract,
		},
		137: {
			ChainID:            137,
			Name:               "Polygon Mainnet",
			NativeCurrency:     NativeCurrency{Name: "MATIC", Symbol: "MATIC", Decimals: 18},
			RPCURLs:            []string{"https://polygon-rpc.com"},
			ExplorerURLs:       []string{"https://polygonscan.com"},
			SettlementContract: settlementContract,
		},
		324: {
			ChainID:        324,
			Name:           "zkSync Era",
			NativeCurrency: NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18},
			RPCURLs:        []string{"https://mainnet.era.zksync.io"},
			ExplorerURLs:   []string{"https://explorer.zksync.io"},
		},
		8453: {
			ChainID:            8453,
			Name:               "Base",
			NativeCurrency:     NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18},
			RPCURLs:            []string{"https://mainnet.base.org"},
			ExplorerURLs:       []string{"https://basescan.org"},
			SettlementContract: settlementContract,
		},
		42161: {
			ChainID:            42161,
			Name:               "Arbitrum One",
			NativeCurrency:     NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18},
			RPCURLs:            []string{"https://arb1.arbitrum.io/rpc"},
			ExplorerURLs:       []string{"https://arbiscan.io"},
			SettlementContract: settlementContract,
		},
		43114: {
			ChainID:            43114,
			Name:               "Avalanche Network",
			NativeCurrency:     NativeCurrency{Name: "AVAX", Symbol: "AVAX", Decimals: 18},
			RPCURLs:            []string{"https://api.avax.network/ext/bc/C/rpc"},
			ExplorerURLs:       []string{"https://snowtrace.io"},
			SettlementContract: settlementContract,
		},
	}
}
