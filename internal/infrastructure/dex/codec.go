package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// selector returns the 4-byte function selector for a signature.
func selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

// encodeCall packs a selector and 32-byte argument words into calldata.
func encodeCall(sel []byte, words ...[]byte) []byte {
	data := make([]byte, 0, 4+32*len(words))
	data = append(data, sel...)
	for _, w := range words {
		data = append(data, w...)
	}
	return data
}

// addressWord left-pads an address into a 32-byte ABI word.
func addressWord(addr common.Address) []byte {
	word := make([]byte, 32)
	copy(word[12:], addr.Bytes())
	return word
}

// amountWord encodes an unsigned big.Int into a 32-byte ABI word.
func amountWord(v *big.Int) []byte {
	word := make([]byte, 32)
	v.FillBytes(word)
	return word
}

// decodeAddress extracts an address from the first return word.
func decodeAddress(result []byte) (common.Address, error) {
	if len(result) < 32 {
		return common.Address{}, fmt.Errorf("invalid response length %d", len(result))
	}
	return common.BytesToAddress(result[12:32]), nil
}

// decodeBigInt extracts an unsigned integer from the return word at the
// given 32-byte offset.
func decodeBigInt(result []byte, word int) (*big.Int, error) {
	start := word * 32
	if len(result) < start+32 {
		return nil, fmt.Errorf("invalid response length %d", len(result))
	}
	return new(big.Int).SetBytes(result[start : start+32]), nil
}
