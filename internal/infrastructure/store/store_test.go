package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bimakw/dex-gateway/internal/domain/entities"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	records := []entities.TxRecord{
		{
			Hash:    common.HexToHash("0x01"),
			Status:  entities.TxPending,
			Kind:    entities.TxKindSwap,
			ChainID: 31337,
			Account: common.HexToAddress("0xabc"),
		},
		{
			Hash:   common.HexToHash("0x02"),
			Status: entities.TxSuccess,
			Kind:   entities.TxKindApprove,
		},
	}
	require.NoError(t, s.Save(ctx, records))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, records, loaded)

	// The loaded slice is a copy; mutating it must not affect the store.
	loaded[0].Status = entities.TxReverted
	again, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.TxPending, again[0].Status)
}

func TestMemoryStoreEmptyLoad(t *testing.T) {
	s := NewMemoryStore()

	loaded, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestRecordWireFormat(t *testing.T) {
	rec := entities.TxRecord{
		Hash:    common.HexToHash("0x0badc0de"),
		Status:  entities.TxReverted,
		Kind:    entities.TxKindAddLiquidity,
		ChainID: 1,
		Account: common.HexToAddress("0x1"),
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Contains(t, decoded, "hash")
	assert.Equal(t, "reverted", decoded["status"])
	assert.Equal(t, "addLiquidity", decoded["kind"])
	assert.Equal(t, float64(1), decoded["chainId"])
	assert.Contains(t, decoded, "account")

	var back entities.TxRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec, back)
}
