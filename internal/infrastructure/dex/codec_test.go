package dex

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorMatchesKnownSignatures(t *testing.T) {
	// Cross-checked against the canonical 4-byte selectors.
	assert.Equal(t, common.Hex2Bytes("0902f1ac"), selector("getReserves()"))
	assert.Equal(t, common.Hex2Bytes("0dfe1681"), selector("token0()"))
	assert.Equal(t, common.Hex2Bytes("e6a43905"), selector("getPair(address,address)"))
	assert.Equal(t, common.Hex2Bytes("70a08231"), selector("balanceOf(address)"))
	assert.Equal(t, common.Hex2Bytes("095ea7b3"), selector("approve(address,uint256)"))
	assert.Equal(t, common.Hex2Bytes("dd62ed3e"), selector("allowance(address,address)"))
	assert.Equal(t, common.Hex2Bytes("18160ddd"), selector("totalSupply()"))
}

func TestEncodeCallLayout(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000Aa")
	data := encodeCall(balanceOfSelector, addressWord(owner))

	require.Len(t, data, 36)
	assert.Equal(t, balanceOfSelector, data[:4])
	assert.Equal(t, owner.Bytes(), data[16:36])
	// padding ahead of the address is zero
	for _, b := range data[4:16] {
		assert.Zero(t, b)
	}
}

func TestAmountWordRoundTrip(t *testing.T) {
	v, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	word := amountWord(v)
	require.Len(t, word, 32)

	got, err := decodeBigInt(word, 0)
	require.NoError(t, err)
	assert.Zero(t, got.Cmp(v))
}

func TestDecodeAddress(t *testing.T) {
	addr := common.HexToAddress("0x1234567890abcdef1234567890abcdef12345678")
	got, err := decodeAddress(addressWord(addr))
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	_, err = decodeAddress([]byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestDecodeBigIntOffsets(t *testing.T) {
	// getReserves-style payload: two value words plus a timestamp word.
	payload := append(amountWord(big.NewInt(1000)), amountWord(big.NewInt(2000))...)
	payload = append(payload, amountWord(big.NewInt(1_700_000_000))...)

	r0, err := decodeBigInt(payload, 0)
	require.NoError(t, err)
	r1, err := decodeBigInt(payload, 1)
	require.NoError(t, err)

	assert.Equal(t, "1000", r0.String())
	assert.Equal(t, "2000", r1.String())

	_, err = decodeBigInt(payload, 3)
	assert.Error(t, err)
}
