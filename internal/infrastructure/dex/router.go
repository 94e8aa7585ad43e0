package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Router submits swap and liquidity transactions to the AMM router
// contract. Amount bounds and deadlines are computed by the orchestrator;
// the router only encodes and broadcasts.
type Router struct {
	submitter TxSubmitter
	address   common.Address
}

// NewRouter creates a router caller. submitter may be nil for read-only
// deployments; every submit method then fails.
func NewRouter(submitter TxSubmitter, address common.Address) *Router {
	return &Router{submitter: submitter, address: address}
}

func (r *Router) submit(ctx context.Context, data []byte) (common.Hash, error) {
	if r.submitter == nil {
		return common.Hash{}, fmt.Errorf("router caller is read-only: no submitter configured")
	}
	return r.submitter.SubmitCall(ctx, r.address, data)
}

// Address returns the router contract address, the spender for approvals.
func (r *Router) Address() common.Address {
	return r.address
}

func (r *Router) pack(method string, args ...interface{}) ([]byte, error) {
	parsed, err := routerABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return data, nil
}

// SwapExactTokensForTokens submits a swap along the given path.
func (r *Router) SwapExactTokensForTokens(ctx context.Context, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) (common.Hash, error) {
	data, err := r.pack("swapExactTokensForTokens", amountIn, amountOutMin, path, to, deadline)
	if err != nil {
		return common.Hash{}, err
	}
	return r.submit(ctx, data)
}

// AddLiquidity submits an add-liquidity transaction.
func (r *Router) AddLiquidity(ctx context.Context, tokenA, tokenB common.Address, amountA, amountB, amountAMin, amountBMin *big.Int, to common.Address, deadline *big.Int) (common.Hash, error) {
	data, err := r.pack("addLiquidity", tokenA, tokenB, amountA, amountB, amountAMin, amountBMin, to, deadline)
	if err != nil {
		return common.Hash{}, err
	}
	return r.submit(ctx, data)
}

// RemoveLiquidity submits a remove-liquidity transaction burning LP tokens.
func (r *Router) RemoveLiquidity(ctx context.Context, tokenA, tokenB common.Address, liquidity, amountAMin, amountBMin *big.Int, to common.Address, deadline *big.Int) (common.Hash, error) {
	data, err := r.pack("removeLiquidity", tokenA, tokenB, liquidity, amountAMin, amountBMin, to, deadline)
	if err != nil {
		return common.Hash{}, err
	}
	return r.submit(ctx, data)
}
