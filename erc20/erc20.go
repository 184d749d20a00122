// Package erc20 provides the minimal ERC-20 surface the payment core needs:
// balance, allowance and decimals reads plus approval calldata.
package erc20

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20ABI = `
[
  {
    "name": "balanceOf",
    "type": "function",
    "stateMutability": "view",
    "inputs": [{ "name": "owner", "type": "address" }],
    "outputs": [{ "name": "", "type": "uint256" }]
  },
  {
    "name": "allowance",
    "type": "function",
    "stateMutability": "view",
    "inputs": [
      { "name": "owner", "type": "address" },
      { "name": "spender", "type": "address" }
    ],
    "outputs": [{ "name": "", "type": "uint256" }]
  },
  {
    "name": "decimals",
    "type": "function",
    "stateMutability": "view",
    "inputs": [],
    "outputs": [{ "name": "", "type": "uint8" }]
  },
  {
    "name": "approve",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      { "name": "spender", "type": "address" },
      { "name": "value", "type": "uint256" }
    ],
    "outputs": [{ "name": "", "type": "bool" }]
  }
]
`

// MaxUint256 is the approval amount used for every allowance grant, so later
// payments with the same token/spender pair skip the approval step.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ContractCaller is the read-only chain access the token needs. Satisfied by
// *ethclient.Client.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

var parsedABI = mustParseABI()

func mustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Token binds an ERC-20 contract address to a caller.
type Token struct {
	address common.Address
	caller  ContractCaller
}

func NewToken(address string, caller ContractCaller) *Token {
	return &Token{address: common.HexToAddress(address), caller: caller}
}

func (t *Token) Address() common.Address { return t.address }

func (t *Token) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return t.callUint256(ctx, "balanceOf", owner)
}

func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return t.callUint256(ctx, "allowance", owner, spender)
}

func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	data, err := parsedABI.Pack("decimals")
	if err != nil {
		return 0, err
	}
	out, err := t.call(ctx, data)
	if err != nil {
		return 0, err
	}
	results, err := parsedABI.Unpack("decimals", out)
	if err != nil {
		return 0, fmt.Errorf("decode decimals: %w", err)
	}
	return results[0].(uint8), nil
}

// ApproveCalldata builds the calldata for approve(spender, value); the wallet
// signs and broadcasts it.
func ApproveCalldata(spender common.Address, value *big.Int) ([]byte, error) {
	return parsedABI.Pack("approve", spender, value)
}

func (t *Token) callUint256(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	data, err := parsedABI.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	out, err := t.call(ctx, data)
	if err != nil {
		return nil, err
	}
	results, err := parsedABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", method, err)
	}
	return results[0].(*big.Int), nil
}

func (t *Token) call(ctx context.Context, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{To: &t.address, Data: data}
	out, err := t.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", t.address.Hex(), err)
	}
	return out, nil
}
