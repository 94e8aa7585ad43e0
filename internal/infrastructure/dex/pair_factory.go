package dex

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// getPair(address,address) returns (address)
var getPairSelector = selector("getPair(address,address)")

// PairFactory resolves pair addresses from the AMM factory contract.
type PairFactory struct {
	reader  ChainReader
	address common.Address
}

// NewPairFactory creates a pair factory caller.
func NewPairFactory(reader ChainReader, address common.Address) *PairFactory {
	return &PairFactory{reader: reader, address: address}
}

// PairFor returns the pair address for an unordered token pair. The
// factory answers the same address regardless of argument order; a zero
// address means no pool has been created.
func (f *PairFactory) PairFor(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	data := encodeCall(getPairSelector, addressWord(tokenA), addressWord(tokenB))

	result, err := f.reader.CallContract(ctx, ethereum.CallMsg{To: &f.address, Data: data})
	if err != nil {
		return common.Address{}, fmt.Errorf("call getPair: %w", err)
	}

	return decodeAddress(result)
}
