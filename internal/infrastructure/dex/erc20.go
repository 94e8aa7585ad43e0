package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/dex-gateway/internal/domain/entities"
)

// ERC20 function selectors for the fixed-size calls.
var (
	// balanceOf(address) returns (uint256)
	balanceOfSelector = selector("balanceOf(address)")
	// allowance(address,address) returns (uint256)
	allowanceSelector = selector("allowance(address,address)")
	// approve(address,uint256) returns (bool)
	approveSelector = selector("approve(address,uint256)")
)

// ERC20 calls token contracts for metadata, balances, and the allowance
// protocol.
type ERC20 struct {
	reader    ChainReader
	submitter TxSubmitter
}

// NewERC20 creates an ERC20 caller. submitter may be nil for read-only
// deployments; Approve then fails.
func NewERC20(reader ChainReader, submitter TxSubmitter) *ERC20 {
	return &ERC20{reader: reader, submitter: submitter}
}

// Metadata reads name, symbol, and decimals from the token contract.
// decimals is required; a failed name or symbol read falls back to the
// sentinel values so the token stays listable.
func (e *ERC20) Metadata(ctx context.Context, token common.Address) (entities.Token, error) {
	parsed, err := erc20MetadataABIInstance()
	if err != nil {
		return entities.Token{}, fmt.Errorf("parse erc20 abi: %w", err)
	}

	call := func(method string) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		result, err := e.reader.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data})
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		return parsed.Unpack(method, result)
	}

	values, err := call("decimals")
	if err != nil {
		return entities.Token{}, err
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return entities.Token{}, fmt.Errorf("unexpected decimals type %T", values[0])
	}

	meta := entities.Token{
		Address:  token,
		Name:     entities.UnknownTokenName,
		Symbol:   entities.UnknownTokenSymbol,
		Decimals: decimals,
	}

	if values, err := call("name"); err == nil {
		if name, ok := values[0].(string); ok && name != "" {
			meta.Name = name
		}
	}
	if values, err := call("symbol"); err == nil {
		if symbol, ok := values[0].(string); ok && symbol != "" {
			meta.Symbol = symbol
		}
	}

	return meta, nil
}

// BalanceOf returns the owner's token balance.
func (e *ERC20) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	data := encodeCall(balanceOfSelector, addressWord(owner))

	result, err := e.reader.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data})
	if err != nil {
		return nil, fmt.Errorf("call balanceOf: %w", err)
	}

	return decodeBigInt(result, 0)
}

// Allowance returns the amount the owner has authorized the spender to move.
func (e *ERC20) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	data := encodeCall(allowanceSelector, addressWord(owner), addressWord(spender))

	result, err := e.reader.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data})
	if err != nil {
		return nil, fmt.Errorf("call allowance: %w", err)
	}

	return decodeBigInt(result, 0)
}

// Approve submits an approval transaction and returns its hash.
func (e *ERC20) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	if e.submitter == nil {
		return common.Hash{}, fmt.Errorf("erc20 caller is read-only: no submitter configured")
	}

	data := encodeCall(approveSelector, addressWord(spender), amountWord(amount))
	return e.submitter.SubmitCall(ctx, token, data)
}
