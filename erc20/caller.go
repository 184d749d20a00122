package erc20

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Pavankumar07s/ETHF/types"
)

// CallerFactory resolves a read-only chain caller for a chain id. The default
// implementation dials the configured RPC endpoint; tests inject fakes.
type CallerFactory interface {
	CallerFor(ctx context.Context, chainID uint64) (ContractCaller, error)
}

type rpcCallerFactory struct {
	networks map[uint64]types.NetworkConfig

	mu      sync.Mutex
	clients map[uint64]*ethclient.Client
}

// NewRPCCallerFactory returns a factory dialing each chain's first configured
// RPC URL lazily and caching the client.
func NewRPCCallerFactory(networks map[uint64]types.NetworkConfig) CallerFactory {
	return &rpcCallerFactory{
		networks: networks,
		clients:  make(map[uint64]*ethclient.Client),
	}
}

func (f *rpcCallerFactory) CallerFor(ctx context.Context, chainID uint64) (ContractCaller, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[chainID]; ok {
		return client, nil
	}

	network, ok := f.networks[chainID]
	if !ok || len(network.RPCURLs) == 0 {
		return nil, types.NewPaymentError(types.ErrUnsupportedChain, "no RPC endpoint configured for chain %d", chainID)
	}

	client, err := ethclient.DialContext(ctx, network.RPCURLs[0])
	if err != nil {
		return nil, types.NewPaymentError(types.ErrNetwork, "dial chain %d rpc: %v", chainID, err)
	}
	f.clients[chainID] = client
	return client, nil
}
