package services

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/bimakw/dex-gateway/internal/domain/entities"
)

type fakeTokenFactory struct {
	deployed    bool
	deployedErr error
	tokens      []common.Address
	tokensErr   error
	info        map[common.Address][2]string
	createHash  common.Hash
	createErr   error
	createCalls int
}

func (f *fakeTokenFactory) Deployed(ctx context.Context) (bool, error) {
	return f.deployed, f.deployedErr
}

func (f *fakeTokenFactory) AllTokens(ctx context.Context) ([]common.Address, error) {
	return f.tokens, f.tokensErr
}

func (f *fakeTokenFactory) TokenInfo(ctx context.Context, token common.Address) (string, string, error) {
	if info, ok := f.info[token]; ok {
		return info[0], info[1], nil
	}
	return "", "", errors.New("no factory info")
}

func (f *fakeTokenFactory) CreateToken(ctx context.Context, name, symbol string, initialSupply *big.Int) (common.Hash, error) {
	f.createCalls++
	return f.createHash, f.createErr
}

type fakeERC20 struct {
	mu         sync.Mutex
	metadata   map[common.Address]entities.Token
	balances   map[common.Address]*big.Int
	allowances map[common.Address]*big.Int
	approveFn  func(token common.Address) (common.Hash, error)
	approved   []common.Address
}

func (f *fakeERC20) Metadata(ctx context.Context, token common.Address) (entities.Token, error) {
	if t, ok := f.metadata[token]; ok {
		return t, nil
	}
	return entities.Token{}, errors.New("metadata unavailable")
}

func (f *fakeERC20) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	if b, ok := f.balances[token]; ok {
		return b, nil
	}
	return big.NewInt(0), nil
}

func (f *fakeERC20) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.allowances[token]; ok {
		return a, nil
	}
	return big.NewInt(0), nil
}

func (f *fakeERC20) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	f.mu.Lock()
	f.approved = append(f.approved, token)
	f.mu.Unlock()
	if f.approveFn != nil {
		return f.approveFn(token)
	}
	return common.BytesToHash(append([]byte("approve:"), token.Bytes()...)), nil
}

func (f *fakeERC20) approvedTokens() []common.Address {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]common.Address, len(f.approved))
	copy(out, f.approved)
	return out
}

type fakePairFactory struct {
	pairs map[string]common.Address
	err   error
}

func (f *fakePairFactory) PairFor(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	if f.err != nil {
		return common.Address{}, f.err
	}
	return f.pairs[pairKey(tokenA, tokenB)], nil
}

type fakePair struct {
	reserve0    *big.Int
	reserve1    *big.Int
	reservesErr error
	token0      common.Address
	supply      *big.Int
	supplyErr   error
	balances    map[common.Address]*big.Int
}

func (f *fakePair) Reserves(ctx context.Context, pair common.Address) (*big.Int, *big.Int, error) {
	return f.reserve0, f.reserve1, f.reservesErr
}

func (f *fakePair) Token0(ctx context.Context, pair common.Address) (common.Address, error) {
	return f.token0, nil
}

func (f *fakePair) TotalSupply(ctx context.Context, pair common.Address) (*big.Int, error) {
	return f.supply, f.supplyErr
}

func (f *fakePair) BalanceOf(ctx context.Context, pair, owner common.Address) (*big.Int, error) {
	if b, ok := f.balances[owner]; ok {
		return b, nil
	}
	return big.NewInt(0), nil
}

type routerCall struct {
	method string
	hash   common.Hash
}

type fakeRouter struct {
	mu       sync.Mutex
	address  common.Address
	swapHash common.Hash
	swapErr  error
	addHash  common.Hash
	addErr   error
	remHash  common.Hash
	remErr   error
	calls    []routerCall
}

func (f *fakeRouter) Address() common.Address { return f.address }

func (f *fakeRouter) SwapExactTokensForTokens(ctx context.Context, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) (common.Hash, error) {
	f.record("swap", f.swapHash)
	return f.swapHash, f.swapErr
}

func (f *fakeRouter) AddLiquidity(ctx context.Context, tokenA, tokenB common.Address, amountA, amountB, amountAMin, amountBMin *big.Int, to common.Address, deadline *big.Int) (common.Hash, error) {
	f.record("addLiquidity", f.addHash)
	return f.addHash, f.addErr
}

func (f *fakeRouter) RemoveLiquidity(ctx context.Context, tokenA, tokenB common.Address, liquidity, amountAMin, amountBMin *big.Int, to common.Address, deadline *big.Int) (common.Hash, error) {
	f.record("removeLiquidity", f.remHash)
	return f.remHash, f.remErr
}

func (f *fakeRouter) record(method string, hash common.Hash) {
	f.mu.Lock()
	f.calls = append(f.calls, routerCall{method, hash})
	f.mu.Unlock()
}

// fakeWaiter resolves receipts per hash. A hash with no entry blocks
// on the release channel when one is set, so tests can hold an action
// in flight.
type fakeWaiter struct {
	mu       sync.Mutex
	receipts map[common.Hash]*types.Receipt
	release  chan struct{}
}

func (f *fakeWaiter) WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	receipt, ok := f.receipts[hash]
	release := f.release
	f.mu.Unlock()

	if ok {
		return receipt, nil
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		f.mu.Lock()
		receipt, ok = f.receipts[hash]
		f.mu.Unlock()
		if ok {
			return receipt, nil
		}
	}
	return nil, errors.New("receipt unavailable")
}

func (f *fakeWaiter) resolve(hash common.Hash, status uint64) {
	f.mu.Lock()
	f.receipts[hash] = &types.Receipt{Status: status}
	f.mu.Unlock()
}

type fakeLogSub struct {
	unsubscribed bool
}

func (f *fakeLogSub) Unsubscribe() { f.unsubscribed = true }

type fakeLogWatcher struct {
	mu       sync.Mutex
	handlers map[common.Address]func(types.Log)
	subs     []*fakeLogSub
	err      error
}

func (f *fakeLogWatcher) WatchLogs(ctx context.Context, addr common.Address, eventSig string, handler func(types.Log)) (LogSubscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handlers == nil {
		f.handlers = make(map[common.Address]func(types.Log))
	}
	f.handlers[addr] = handler
	sub := &fakeLogSub{}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeLogWatcher) emit(addr common.Address) {
	f.mu.Lock()
	handler := f.handlers[addr]
	f.mu.Unlock()
	if handler != nil {
		handler(types.Log{Address: addr})
	}
}

type fakeReceiptReader struct {
	receipts map[common.Hash]*types.Receipt
}

func (f *fakeReceiptReader) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if r, ok := f.receipts[hash]; ok {
		return r, nil
	}
	return nil, errors.New("not found")
}

func addr(b byte) common.Address {
	return common.BytesToAddress([]byte{b})
}

func hash(b byte) common.Hash {
	return common.BytesToHash([]byte{b})
}
