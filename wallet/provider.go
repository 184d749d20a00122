// Package wallet abstracts the payer's EIP-1193 wallet so the payment core
// never reads ambient global state. Implementations forward to the browser
// provider (via a JS bridge), to walletconnect, or to a test fake.
package wallet

import (
	"context"
	"fmt"

	"github.com/Pavankumar07s/ETHF/types"
)

// TxRequest is an unsigned transaction handed to the wallet for signing and
// broadcast.
type TxRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Data  []byte `json:"data,omitempty"`
	Value string `json:"value,omitempty"`
}

// Provider is the wallet capability surface the payment core depends on.
type Provider interface {
	// RequestAccounts prompts for connection and returns the unlocked
	// accounts (eth_requestAccounts).
	RequestAccounts(ctx context.Context) ([]string, error)

	// ChainID returns the wallet's currently active chain.
	ChainID(ctx context.Context) (uint64, error)

	// SwitchChain asks the wallet to activate the given chain
	// (wallet_switchEthereumChain).
	SwitchChain(ctx context.Context, chainID uint64) error

	// AddChain registers a chain the wallet has never seen
	// (wallet_addEthereumChain).
	AddChain(ctx context.Context, network types.NetworkConfig) error

	// SendTransaction signs and broadcasts a transaction, returning its hash.
	SendTransaction(ctx context.Context, tx TxRequest) (string, error)

	// WaitMined blocks until the given transaction is included in a block.
	WaitMined(ctx context.Context, txHash string) error
}

// EIP-1193 provider error codes the core reacts to.
const (
	CodeUserRejected      = 4001
	CodeUnrecognizedChain = 4902
)

// RPCError is a structured provider error carrying its EIP-1193 code.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("wallet rpc error %d: %s", e.Code, e.Message)
}

// IsUnrecognizedChain reports whether err is the wallet telling us it has
// never seen the requested chain id.
func IsUnrecognizedChain(err error) bool {
	return rpcCode(err) == CodeUnrecognizedChain
}

// IsUserRejected reports whether err is an explicit user denial.
func IsUserRejected(err error) bool {
	return rpcCode(err) == CodeUserRejected
}

func rpcCode(err error) int {
	for err != nil {
		if re, ok := err.(*RPCError); ok {
			return re.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0
		}
		err = u.Unwrap()
	}
	return 0
}
