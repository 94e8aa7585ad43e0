package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// Pair contract function selectors.
var (
	// getReserves() returns (uint112 reserve0, uint112 reserve1, uint32 blockTimestampLast)
	getReservesSelector = selector("getReserves()")
	// token0() returns (address)
	token0Selector = selector("token0()")
	// totalSupply() returns (uint256); the pair contract is also the LP token
	totalSupplySelector = selector("totalSupply()")
)

// Pair reads reserve and LP-supply state from pair contracts.
type Pair struct {
	reader ChainReader
}

// NewPair creates a pair caller.
func NewPair(reader ChainReader) *Pair {
	return &Pair{reader: reader}
}

// Reserves returns the raw (reserve0, reserve1) of a pair. The mapping
// onto the caller's token ordering is the resolver's job.
func (p *Pair) Reserves(ctx context.Context, pair common.Address) (*big.Int, *big.Int, error) {
	result, err := p.reader.CallContract(ctx, ethereum.CallMsg{To: &pair, Data: getReservesSelector})
	if err != nil {
		return nil, nil, fmt.Errorf("call getReserves: %w", err)
	}

	reserve0, err := decodeBigInt(result, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("decode reserve0: %w", err)
	}
	reserve1, err := decodeBigInt(result, 1)
	if err != nil {
		return nil, nil, fmt.Errorf("decode reserve1: %w", err)
	}

	return reserve0, reserve1, nil
}

// Token0 returns the pair's canonical first token.
func (p *Pair) Token0(ctx context.Context, pair common.Address) (common.Address, error) {
	result, err := p.reader.CallContract(ctx, ethereum.CallMsg{To: &pair, Data: token0Selector})
	if err != nil {
		return common.Address{}, fmt.Errorf("call token0: %w", err)
	}
	return decodeAddress(result)
}

// TotalSupply returns the pair's LP token supply.
func (p *Pair) TotalSupply(ctx context.Context, pair common.Address) (*big.Int, error) {
	result, err := p.reader.CallContract(ctx, ethereum.CallMsg{To: &pair, Data: totalSupplySelector})
	if err != nil {
		return nil, fmt.Errorf("call totalSupply: %w", err)
	}
	return decodeBigInt(result, 0)
}

// BalanceOf returns the owner's LP token balance in the pair.
func (p *Pair) BalanceOf(ctx context.Context, pair, owner common.Address) (*big.Int, error) {
	data := encodeCall(balanceOfSelector, addressWord(owner))

	result, err := p.reader.CallContract(ctx, ethereum.CallMsg{To: &pair, Data: data})
	if err != nil {
		return nil, fmt.Errorf("call balanceOf: %w", err)
	}
	return decodeBigInt(result, 0)
}
