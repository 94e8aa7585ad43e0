package handlers

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bimakw/dex-gateway/internal/domain/entities"
	"github.com/bimakw/dex-gateway/internal/domain/services"
	"github.com/bimakw/dex-gateway/internal/infrastructure/store"
)

type stubPairFactory struct {
	pair common.Address
}

func (s *stubPairFactory) PairFor(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	return s.pair, nil
}

type stubPair struct {
	reserve0 *big.Int
	reserve1 *big.Int
	token0   common.Address
}

func (s *stubPair) Reserves(ctx context.Context, pair common.Address) (*big.Int, *big.Int, error) {
	return s.reserve0, s.reserve1, nil
}

func (s *stubPair) Token0(ctx context.Context, pair common.Address) (common.Address, error) {
	return s.token0, nil
}

func (s *stubPair) TotalSupply(ctx context.Context, pair common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (s *stubPair) BalanceOf(ctx context.Context, pair, owner common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func TestGetQuote(t *testing.T) {
	tokenA := common.HexToAddress("0x0a")
	tokenB := common.HexToAddress("0x0b")

	pairs := services.NewPairService(
		&stubPairFactory{pair: common.HexToAddress("0x11")},
		&stubPair{reserve0: big.NewInt(1000), reserve1: big.NewInt(2000), token0: tokenA},
		nil,
		nil,
	)
	handler := NewQuoteHandler(pairs, 100, 9000)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/quote?tokenIn="+tokenA.Hex()+"&tokenOut="+tokenB.Hex()+"&amountIn=1000", nil)
	rec := httptest.NewRecorder()
	handler.GetQuote(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "998", resp.AmountOut)
	assert.Equal(t, "3", resp.FeeAmount)
	assert.Equal(t, "988", resp.MinAmountOut)
}

func TestGetQuoteValidation(t *testing.T) {
	pairs := services.NewPairService(&stubPairFactory{}, &stubPair{}, nil, nil)
	handler := NewQuoteHandler(pairs, 100, 9000)

	cases := []struct {
		name  string
		query string
		code  string
	}{
		{"missing params", "", "missing_params"},
		{"bad tokenIn", "tokenIn=zzz&tokenOut=0x0b&amountIn=10", "invalid_token_in"},
		{"bad amount", "tokenIn=0x0a&tokenOut=0x0b&amountIn=-5", "invalid_amount"},
		{"same token", "tokenIn=0x0a&tokenOut=0x0a&amountIn=10", "invalid_params"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/quote?"+tc.query, nil)
			rec := httptest.NewRecorder()
			handler.GetQuote(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.code, resp.Error)
		})
	}
}

func TestGetQuoteNoPool(t *testing.T) {
	pairs := services.NewPairService(&stubPairFactory{}, &stubPair{}, nil, nil)
	handler := NewQuoteHandler(pairs, 100, 9000)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/quote?tokenIn=0x0a&tokenOut=0x0b&amountIn=10", nil)
	rec := httptest.NewRecorder()
	handler.GetQuote(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactionsListAndClear(t *testing.T) {
	tracker := services.NewTrackerService(store.NewMemoryStore(), time.Minute, nil)
	defer tracker.Close()

	hash := common.HexToHash("0x42")
	tracker.Add(context.Background(), entities.TxRecord{
		Hash:    hash,
		Status:  entities.TxPending,
		Kind:    entities.TxKindSwap,
		ChainID: 31337,
		Account: common.HexToAddress("0x1"),
	})

	handler := NewTxHandler(tracker)
	router := chi.NewRouter()
	router.Get("/api/v1/transactions", handler.ListTransactions)
	router.Delete("/api/v1/transactions/{hash}", handler.ClearTransaction)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []TxResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "pending", listed[0].Status)
	assert.Equal(t, "swap", listed[0].Kind)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/transactions/"+hash.Hex(), nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, tracker.Records())
}

func TestGetPairAbsent(t *testing.T) {
	pairs := services.NewPairService(&stubPairFactory{}, &stubPair{}, nil, nil)
	handler := NewPairHandler(pairs)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pair?tokenA=0x0a&tokenB=0x0b", nil)
	rec := httptest.NewRecorder()
	handler.GetPair(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp PairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Exists)
	assert.Empty(t, resp.PairAddress)
}
