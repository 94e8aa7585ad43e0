package entities

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PairState is the resolved state of a liquidity pair for an unordered
// token pair (A, B). It is derived from chain reads and recomputed on
// demand, never mutated in place.
//
// A nil PairAddress means the factory reported no pool for the pair,
// which is a valid state, distinct from "not yet queried" (the resolver
// cache carries that distinction). Prices are nil whenever either
// reserve is zero or the pair does not exist.
type PairState struct {
	PairAddress *common.Address `json:"pairAddress"`
	ReserveA    *big.Int        `json:"reserveA"`
	ReserveB    *big.Int        `json:"reserveB"`
	PriceAToB   *big.Float      `json:"priceAToB"`
	PriceBToA   *big.Float      `json:"priceBToA"`
	UpdatedAt   int64           `json:"updatedAt"`
}

// AbsentPairState returns the state for a token pair with no pool.
func AbsentPairState() PairState {
	return PairState{UpdatedAt: time.Now().Unix()}
}

// NewPairState builds the state for an existing pair, deriving both
// directional prices from the reserves. reserveA and reserveB must
// already be mapped onto the caller's (tokenA, tokenB) ordering.
func NewPairState(pair common.Address, reserveA, reserveB *big.Int) PairState {
	state := PairState{
		PairAddress: &pair,
		ReserveA:    reserveA,
		ReserveB:    reserveB,
		UpdatedAt:   time.Now().Unix(),
	}

	if reserveA != nil && reserveB != nil && reserveA.Sign() > 0 && reserveB.Sign() > 0 {
		fa := new(big.Float).SetInt(reserveA)
		fb := new(big.Float).SetInt(reserveB)
		state.PriceAToB = new(big.Float).Quo(fb, fa)
		state.PriceBToA = new(big.Float).Quo(fa, fb)
	}

	return state
}

// Exists reports whether a pool exists for the token pair.
func (s PairState) Exists() bool {
	return s.PairAddress != nil
}

// HasLiquidity reports whether both reserves are non-zero.
func (s PairState) HasLiquidity() bool {
	return s.ReserveA != nil && s.ReserveB != nil &&
		s.ReserveA.Sign() > 0 && s.ReserveB.Sign() > 0
}
