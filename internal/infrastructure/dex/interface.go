package dex

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/bimakw/dex-gateway/internal/domain/entities"
)

// ChainReader is the read-only chain surface the callers consume.
type ChainReader interface {
	CodeAt(ctx context.Context, addr common.Address) ([]byte, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
}

// TxSubmitter broadcasts signed contract calls and waits for receipts.
type TxSubmitter interface {
	From() common.Address
	SubmitCall(ctx context.Context, to common.Address, data []byte) (common.Hash, error)
	WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// TokenFactoryAPI is the token factory surface: enumeration, factory-side
// metadata, and minting of new tokens.
type TokenFactoryAPI interface {
	Deployed(ctx context.Context) (bool, error)
	AllTokens(ctx context.Context) ([]common.Address, error)
	TokenInfo(ctx context.Context, token common.Address) (name, symbol string, err error)
	CreateToken(ctx context.Context, name, symbol string, initialSupply *big.Int) (common.Hash, error)
}

// PairFactoryAPI looks up pair addresses for unordered token pairs.
// A zero address result means no pool exists.
type PairFactoryAPI interface {
	PairFor(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error)
}

// ERC20API is the token contract surface consumed by the registry and
// the orchestrator's allowance protocol.
type ERC20API interface {
	Metadata(ctx context.Context, token common.Address) (entities.Token, error)
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error)
}

// PairAPI reads liquidity pair state.
type PairAPI interface {
	Reserves(ctx context.Context, pair common.Address) (reserve0, reserve1 *big.Int, err error)
	Token0(ctx context.Context, pair common.Address) (common.Address, error)
	TotalSupply(ctx context.Context, pair common.Address) (*big.Int, error)
	BalanceOf(ctx context.Context, pair, owner common.Address) (*big.Int, error)
}

// RouterAPI submits swap and liquidity transactions. Every call carries
// min-amount bounds and a deadline after which the chain rejects it.
// Address is the spender account for the approval protocol.
type RouterAPI interface {
	Address() common.Address
	SwapExactTokensForTokens(ctx context.Context, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) (common.Hash, error)
	AddLiquidity(ctx context.Context, tokenA, tokenB common.Address, amountA, amountB, amountAMin, amountBMin *big.Int, to common.Address, deadline *big.Int) (common.Hash, error)
	RemoveLiquidity(ctx context.Context, tokenA, tokenB common.Address, liquidity, amountAMin, amountBMin *big.Int, to common.Address, deadline *big.Int) (common.Hash, error)
}
