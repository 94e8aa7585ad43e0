package services

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bimakw/dex-gateway/internal/domain/entities"
	"github.com/bimakw/dex-gateway/internal/infrastructure/dex"
)

// pairSyncEvent is emitted by the pair contract whenever its reserves
// change.
const pairSyncEvent = "Sync(uint112,uint112)"

// LogSubscription is an active contract log watch.
type LogSubscription interface {
	Unsubscribe()
}

// LogWatcher subscribes to contract log events. Optional: over a
// transport without subscription support the service degrades to
// on-demand resolution only.
type LogWatcher interface {
	WatchLogs(ctx context.Context, addr common.Address, eventSig string, handler func(types.Log)) (LogSubscription, error)
}

// PairService resolves liquidity pair state for unordered token pairs
// and owns the per-pair cached snapshots. With a watcher configured it
// also refreshes a pair's state whenever the contract emits Sync.
type PairService struct {
	factory dex.PairFactoryAPI
	pairs   dex.PairAPI
	watcher LogWatcher
	logger  *zap.Logger

	mu    sync.RWMutex
	cache map[string]entities.PairState
	subs  map[common.Address]LogSubscription
}

// NewPairService creates a new pair service. watcher may be nil.
func NewPairService(factory dex.PairFactoryAPI, pairs dex.PairAPI, watcher LogWatcher, logger *zap.Logger) *PairService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PairService{
		factory: factory,
		pairs:   pairs,
		watcher: watcher,
		logger:  logger,
		cache:   make(map[string]entities.PairState),
		subs:    make(map[common.Address]LogSubscription),
	}
}

// Resolve looks up the pair for (tokenA, tokenB) and returns its current
// state. A factory answer of the zero address is the valid "no pool"
// state, not an error. When a pair exists, reserves and token ordering
// are read in the same resolution pass so a quote never mixes reserves
// from two different reads; the raw (reserve0, reserve1) are mapped onto
// (reserveA, reserveB) by comparing the pair's token0 against tokenA.
func (s *PairService) Resolve(ctx context.Context, tokenA, tokenB common.Address) (entities.PairState, error) {
	pairAddr, err := s.factory.PairFor(ctx, tokenA, tokenB)
	if err != nil {
		return entities.PairState{}, fmt.Errorf("resolve pair: %w", err)
	}

	if pairAddr == (common.Address{}) {
		state := entities.AbsentPairState()
		s.publish(tokenA, tokenB, state)
		return state, nil
	}

	var (
		reserve0, reserve1 *big.Int
		token0             common.Address
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reserve0, reserve1, err = s.pairs.Reserves(gctx, pairAddr)
		return err
	})
	g.Go(func() error {
		var err error
		token0, err = s.pairs.Token0(gctx, pairAddr)
		return err
	})
	if err := g.Wait(); err != nil {
		return entities.PairState{}, fmt.Errorf("read pair %s: %w", pairAddr.Hex(), err)
	}

	reserveA, reserveB := reserve0, reserve1
	if token0 != tokenA {
		reserveA, reserveB = reserve1, reserve0
	}

	state := entities.NewPairState(pairAddr, reserveA, reserveB)
	s.publish(tokenA, tokenB, state)
	s.watchPair(pairAddr, tokenA, tokenB)
	return state, nil
}

// watchPair subscribes to the pair's Sync events so the cached state
// follows on-chain reserve changes. One subscription per pair; a failed
// subscribe marks the pair unwatchable rather than retrying on every
// resolution.
func (s *PairService) watchPair(pairAddr, tokenA, tokenB common.Address) {
	if s.watcher == nil {
		return
	}

	s.mu.Lock()
	if _, ok := s.subs[pairAddr]; ok {
		s.mu.Unlock()
		return
	}
	s.subs[pairAddr] = nil
	s.mu.Unlock()

	sub, err := s.watcher.WatchLogs(context.Background(), pairAddr, pairSyncEvent, func(types.Log) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := s.Resolve(ctx, tokenA, tokenB); err != nil {
			s.logger.Debug("pair refresh on sync event",
				zap.String("pair", pairAddr.Hex()),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		s.logger.Debug("log subscription unavailable",
			zap.String("pair", pairAddr.Hex()),
			zap.Error(err),
		)
		return
	}

	s.mu.Lock()
	s.subs[pairAddr] = sub
	s.mu.Unlock()
}

// Close unsubscribes every pair watch.
func (s *PairService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for addr, sub := range s.subs {
		if sub != nil {
			sub.Unsubscribe()
		}
		delete(s.subs, addr)
	}
}

// Cached returns the last resolved state for the pair, distinguishing
// "no pool" (a cached absent state) from "not yet queried" (ok=false).
func (s *PairService) Cached(tokenA, tokenB common.Address) (entities.PairState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.cache[pairKey(tokenA, tokenB)]
	return state, ok
}

// LiquidityShare returns the account's share of the pair's liquidity as
// a percentage. Both the LP balance and the total supply come from the
// same resolution pass. A zero or unreadable supply yields nil: the
// share is unknown, which the caller must not render as 0%.
func (s *PairService) LiquidityShare(ctx context.Context, pair, account common.Address) (*big.Float, error) {
	var balance, supply *big.Int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balance, err = s.pairs.BalanceOf(gctx, pair, account)
		return err
	})
	g.Go(func() error {
		var err error
		supply, err = s.pairs.TotalSupply(gctx, pair)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("read liquidity share: %w", err)
	}

	if supply == nil || supply.Sign() == 0 {
		return nil, nil
	}

	share := new(big.Float).Quo(new(big.Float).SetInt(balance), new(big.Float).SetInt(supply))
	return share.Mul(share, big.NewFloat(100)), nil
}

func (s *PairService) publish(tokenA, tokenB common.Address, state entities.PairState) {
	s.mu.Lock()
	s.cache[pairKey(tokenA, tokenB)] = state
	s.mu.Unlock()
}

// pairKey builds the unordered, case-insensitive cache key for a pair.
func pairKey(tokenA, tokenB common.Address) string {
	a := strings.ToLower(tokenA.Hex())
	b := strings.ToLower(tokenB.Hex())
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}
