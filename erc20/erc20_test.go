package erc20

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pavankumar07s/ETHF/types"
	"github.com/Pavankumar07s/ETHF/wallet"
)

var (
	owner   = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	spender = common.HexToAddress("0x111111125421cA6dc452d289314280a0f8842A65")
	tokenAddr = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
)

// fakeCaller serves ERC-20 view calls from in-memory state, decoding the
// calldata with the same ABI the token uses.
type fakeCaller struct {
	decimals   uint8
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
	callErr    error
}

func newFakeCaller(decimals uint8) *fakeCaller {
	return &fakeCaller{
		decimals:   decimals,
		balances:   map[common.Address]*big.Int{},
		allowances: map[common.Address]map[common.Address]*big.Int{},
	}
}

func (f *fakeCaller) setAllowance(owner, spender common.Address, v *big.Int) {
	if f.allowances[owner] == nil {
		f.allowances[owner] = map[common.Address]*big.Int{}
	}
	f.allowances[owner][spender] = v
}

func (f *fakeCaller) allowance(owner, spender common.Address) *big.Int {
	if v := f.allowances[owner][spender]; v != nil {
		return v
	}
	return big.NewInt(0)
}

func (f *fakeCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	method, err := parsedABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "decimals":
		return method.Outputs.Pack(f.decimals)
	case "balanceOf":
		bal := f.balances[args[0].(common.Address)]
		if bal == nil {
			bal = big.NewInt(0)
		}
		return method.Outputs.Pack(bal)
	case "allowance":
		return method.Outputs.Pack(f.allowance(args[0].(common.Address), args[1].(common.Address)))
	}
	return nil, errors.New("unexpected method " + method.Name)
}

func TestTokenReads(t *testing.T) {
	caller := newFakeCaller(6)
	caller.balances[owner] = big.NewInt(123_000_000)
	caller.setAllowance(owner, spender, big.NewInt(500))

	token := NewToken(tokenAddr, caller)
	ctx := context.Background()

	decimals, err := token.Decimals(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), decimals)

	balance, err := token.BalanceOf(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(123_000_000), balance)

	allowance, err := token.Allowance(ctx, owner, spender)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), allowance)
}

func TestApproveCalldata(t *testing.T) {
	data, err := ApproveCalldata(spender, MaxUint256)
	require.NoError(t, err)

	method, err := parsedABI.MethodById(data[:4])
	require.NoError(t, err)
	assert.Equal(t, "approve", method.Name)

	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, spender, args[0].(common.Address))
	assert.Zero(t, args[1].(*big.Int).Cmp(MaxUint256))
}

func TestEnsureAllowance_ApprovesMaxOnce(t *testing.T) {
	caller := newFakeCaller(6)
	caller.balances[owner] = big.NewInt(1_000_000)
	token := NewToken(tokenAddr, caller)

	provider := wallet.NewFakeProvider(owner.Hex(), 1)
	// The fake chain grants the allowance once the approval is "sent".
	provider.OnSend = func(tx wallet.TxRequest) {
		caller.setAllowance(owner, spender, new(big.Int).Set(MaxUint256))
	}

	m := NewAllowanceManager(provider, time.Millisecond, nil)
	required := big.NewInt(500_000)

	require.NoError(t, m.EnsureAllowance(context.Background(), token, owner, spender, required))
	require.Len(t, provider.SentTxs, 1)
	assert.Equal(t, token.Address().Hex(), provider.SentTxs[0].To)
	assert.Len(t, provider.WaitedFor, 1)

	// Second call with the same pair finds MaxUint256 already granted and
	// sends nothing.
	require.NoError(t, m.EnsureAllowance(context.Background(), token, owner, spender, required))
	assert.Len(t, provider.SentTxs, 1)
}

func TestEnsureAllowance_SufficientAllowanceSkipsApproval(t *testing.T) {
	caller := newFakeCaller(6)
	caller.balances[owner] = big.NewInt(1_000_000)
	caller.setAllowance(owner, spender, big.NewInt(900_000))
	token := NewToken(tokenAddr, caller)

	provider := wallet.NewFakeProvider(owner.Hex(), 1)
	m := NewAllowanceManager(provider, 0, nil)

	require.NoError(t, m.EnsureAllowance(context.Background(), token, owner, spender, big.NewInt(500_000)))
	assert.Empty(t, provider.SentTxs)
}

func TestEnsureAllowance_InsufficientBalance(t *testing.T) {
	caller := newFakeCaller(6)
	caller.balances[owner] = big.NewInt(100)
	token := NewToken(tokenAddr, caller)

	provider := wallet.NewFakeProvider(owner.Hex(), 1)
	m := NewAllowanceManager(provider, 0, nil)

	err := m.EnsureAllowance(context.Background(), token, owner, spender, big.NewInt(500_000))
	require.Error(t, err)
	assert.Equal(t, types.ErrInsufficientBalance, types.ErrorCode(err))
	assert.Empty(t, provider.SentTxs, "no approval attempt when the balance cannot cover the payment")
}

func TestEnsureAllowance_ApprovalRejected(t *testing.T) {
	caller := newFakeCaller(6)
	caller.balances[owner] = big.NewInt(1_000_000)
	token := NewToken(tokenAddr, caller)

	provider := wallet.NewFakeProvider(owner.Hex(), 1)
	provider.SendErr = &wallet.RPCError{Code: wallet.CodeUserRejected, Message: "user rejected"}
	m := NewAllowanceManager(provider, 0, nil)

	err := m.EnsureAllowance(context.Background(), token, owner, spender, big.NewInt(500_000))
	assert.Equal(t, types.ErrAllowanceApprovalFailed, types.ErrorCode(err))
}

func TestEnsureAllowance_StaleAllowanceAfterApproval(t *testing.T) {
	caller := newFakeCaller(6)
	caller.balances[owner] = big.NewInt(1_000_000)
	token := NewToken(tokenAddr, caller)

	// The approval "succeeds" but the node keeps serving the old allowance.
	provider := wallet.NewFakeProvider(owner.Hex(), 1)
	m := NewAllowanceManager(provider, 0, nil)

	err := m.EnsureAllowance(context.Background(), token, owner, spender, big.NewInt(500_000))
	assert.Equal(t, types.ErrAllowanceApprovalFailed, types.ErrorCode(err))
}

func TestEnsureAllowance_BalanceReadFailure(t *testing.T) {
	caller := newFakeCaller(6)
	caller.callErr = errors.New("rpc unreachable")
	token := NewToken(tokenAddr, caller)

	m := NewAllowanceManager(wallet.NewFakeProvider(owner.Hex(), 1), 0, nil)
	err := m.EnsureAllowance(context.Background(), token, owner, spender, big.NewInt(1))
	assert.Equal(t, types.ErrNetwork, types.ErrorCode(err))
}
