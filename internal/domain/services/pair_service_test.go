package services

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairResolveOrdersReserves(t *testing.T) {
	tokenA := addr(0x0a)
	tokenB := addr(0x0b)
	pairAddr := addr(0x11)

	factory := &fakePairFactory{pairs: map[string]common.Address{
		pairKey(tokenA, tokenB): pairAddr,
	}}

	// token0 == tokenA: raw ordering already matches the query.
	pair := &fakePair{
		reserve0: big.NewInt(1000),
		reserve1: big.NewInt(2000),
		token0:   tokenA,
	}
	svc := NewPairService(factory, pair, nil, nil)

	state, err := svc.Resolve(context.Background(), tokenA, tokenB)
	require.NoError(t, err)
	require.True(t, state.Exists())
	assert.Equal(t, big.NewInt(1000), state.ReserveA)
	assert.Equal(t, big.NewInt(2000), state.ReserveB)

	// token0 == tokenB: reserves must swap.
	pair.token0 = tokenB
	state, err = svc.Resolve(context.Background(), tokenA, tokenB)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2000), state.ReserveA)
	assert.Equal(t, big.NewInt(1000), state.ReserveB)
}

func TestPairResolveNoPool(t *testing.T) {
	tokenA := addr(0x0a)
	tokenB := addr(0x0b)

	svc := NewPairService(&fakePairFactory{pairs: map[string]common.Address{}}, &fakePair{}, nil, nil)

	state, err := svc.Resolve(context.Background(), tokenA, tokenB)
	require.NoError(t, err)
	assert.False(t, state.Exists())
	assert.False(t, state.HasLiquidity())

	// The absent state is cached, distinguishable from never-queried.
	cached, ok := svc.Cached(tokenA, tokenB)
	require.True(t, ok)
	assert.False(t, cached.Exists())

	_, ok = svc.Cached(tokenA, addr(0x0c))
	assert.False(t, ok)
}

func TestPairCachedIsUnordered(t *testing.T) {
	tokenA := addr(0x0a)
	tokenB := addr(0x0b)
	pairAddr := addr(0x11)

	factory := &fakePairFactory{pairs: map[string]common.Address{
		pairKey(tokenA, tokenB): pairAddr,
	}}
	pair := &fakePair{reserve0: big.NewInt(10), reserve1: big.NewInt(20), token0: tokenA}
	svc := NewPairService(factory, pair, nil, nil)

	_, err := svc.Resolve(context.Background(), tokenA, tokenB)
	require.NoError(t, err)

	_, ok := svc.Cached(tokenB, tokenA)
	assert.True(t, ok)
}

func TestPairLiquidityShare(t *testing.T) {
	pairAddr := addr(0x11)
	account := addr(0x22)

	pair := &fakePair{
		supply:   big.NewInt(1000),
		balances: map[common.Address]*big.Int{account: big.NewInt(250)},
	}
	svc := NewPairService(&fakePairFactory{}, pair, nil, nil)

	share, err := svc.LiquidityShare(context.Background(), pairAddr, account)
	require.NoError(t, err)
	require.NotNil(t, share)

	pct, _ := share.Float64()
	assert.InDelta(t, 25.0, pct, 1e-9)
}

func TestPairWatchRefreshesOnSyncEvent(t *testing.T) {
	tokenA := addr(0x0a)
	tokenB := addr(0x0b)
	pairAddr := addr(0x11)

	factory := &fakePairFactory{pairs: map[string]common.Address{
		pairKey(tokenA, tokenB): pairAddr,
	}}
	pair := &fakePair{reserve0: big.NewInt(1000), reserve1: big.NewInt(2000), token0: tokenA}
	watcher := &fakeLogWatcher{}
	svc := NewPairService(factory, pair, watcher, nil)
	defer svc.Close()

	_, err := svc.Resolve(context.Background(), tokenA, tokenB)
	require.NoError(t, err)
	require.Len(t, watcher.subs, 1, "one subscription per pair")

	// Reserves change on chain; the sync event refreshes the cache.
	pair.reserve0 = big.NewInt(1500)
	watcher.emit(pairAddr)

	cached, ok := svc.Cached(tokenA, tokenB)
	require.True(t, ok)
	assert.Equal(t, big.NewInt(1500), cached.ReserveA)

	// Re-resolving does not open a second subscription.
	_, err = svc.Resolve(context.Background(), tokenA, tokenB)
	require.NoError(t, err)
	assert.Len(t, watcher.subs, 1)

	svc.Close()
	assert.True(t, watcher.subs[0].unsubscribed)
}

func TestPairWatchSubscribeFailureDegrades(t *testing.T) {
	tokenA := addr(0x0a)
	tokenB := addr(0x0b)
	pairAddr := addr(0x11)

	factory := &fakePairFactory{pairs: map[string]common.Address{
		pairKey(tokenA, tokenB): pairAddr,
	}}
	pair := &fakePair{reserve0: big.NewInt(10), reserve1: big.NewInt(20), token0: tokenA}
	watcher := &fakeLogWatcher{err: assert.AnError}
	svc := NewPairService(factory, pair, watcher, nil)
	defer svc.Close()

	state, err := svc.Resolve(context.Background(), tokenA, tokenB)
	require.NoError(t, err, "resolution works without a subscription")
	assert.True(t, state.Exists())
}

func TestPairLiquidityShareUnknownSupply(t *testing.T) {
	pair := &fakePair{supply: big.NewInt(0)}
	svc := NewPairService(&fakePairFactory{}, pair, nil, nil)

	share, err := svc.LiquidityShare(context.Background(), addr(0x11), addr(0x22))
	require.NoError(t, err)
	assert.Nil(t, share, "zero supply means unknown share, not 0%")
}
