package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/Pavankumar07s/ETHF/types"
)

// FakeProvider is an in-memory wallet used by tests across the module. It
// records every call and lets tests script failures per method.
type FakeProvider struct {
	mu sync.Mutex

	Accounts    []string
	ActiveChain uint64
	KnownChains map[uint64]bool

	SwitchErr error
	AddErr    error
	SendErr   error
	MinedErr  error

	SwitchCalls []uint64
	AddCalls    []uint64
	SentTxs     []TxRequest
	WaitedFor   []string

	nextTx int

	// OnSend, when set, observes each transaction after it is recorded.
	OnSend func(tx TxRequest)
}

func NewFakeProvider(account string, activeChain uint64) *FakeProvider {
	return &FakeProvider{
		Accounts:    []string{account},
		ActiveChain: activeChain,
		KnownChains: map[uint64]bool{activeChain: true},
	}
}

func (f *FakeProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Accounts) == 0 {
		return nil, &RPCError{Code: CodeUserRejected, Message: "user rejected connection"}
	}
	return f.Accounts, nil
}

func (f *FakeProvider) ChainID(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ActiveChain, nil
}

func (f *FakeProvider) SwitchChain(ctx context.Context, chainID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SwitchCalls = append(f.SwitchCalls, chainID)
	if f.SwitchErr != nil {
		return f.SwitchErr
	}
	if !f.KnownChains[chainID] {
		return &RPCError{Code: CodeUnrecognizedChain, Message: "unrecognized chain"}
	}
	f.ActiveChain = chainID
	return nil
}

func (f *FakeProvider) AddChain(ctx context.Context, network types.NetworkConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AddCalls = append(f.AddCalls, network.ChainID)
	if f.AddErr != nil {
		return f.AddErr
	}
	if f.KnownChains == nil {
		f.KnownChains = map[uint64]bool{}
	}
	f.KnownChains[network.ChainID] = true
	return nil
}

func (f *FakeProvider) SendTransaction(ctx context.Context, tx TxRequest) (string, error) {
	f.mu.Lock()
	if f.SendErr != nil {
		f.mu.Unlock()
		return "", f.SendErr
	}
	f.SentTxs = append(f.SentTxs, tx)
	f.nextTx++
	hash := fmt.Sprintf("0x%064x", f.nextTx)
	onSend := f.OnSend
	f.mu.Unlock()
	if onSend != nil {
		onSend(tx)
	}
	return hash, nil
}

func (f *FakeProvider) WaitMined(ctx context.Context, txHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.WaitedFor = append(f.WaitedFor, txHash)
	return f.MinedErr
}
