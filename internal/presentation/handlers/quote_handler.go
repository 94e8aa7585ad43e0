package handlers

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/dex-gateway/internal/domain/entities"
	"github.com/bimakw/dex-gateway/internal/domain/services"
)

// QuoteHandler handles quote requests
type QuoteHandler struct {
	pairs       *services.PairService
	slippageBps uint64
	maxInputBps uint64
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(pairs *services.PairService, slippageBps, maxInputBps uint64) *QuoteHandler {
	return &QuoteHandler{pairs: pairs, slippageBps: slippageBps, maxInputBps: maxInputBps}
}

// QuoteResponse represents a quote response. Amounts are decimal strings
// in the tokens' smallest units.
type QuoteResponse struct {
	TokenIn      string `json:"tokenIn"`
	TokenOut     string `json:"tokenOut"`
	AmountIn     string `json:"amountIn"`
	AmountOut    string `json:"amountOut"`
	FeeAmount    string `json:"feeAmount"`
	MinAmountOut string `json:"minAmountOut"`
	SlippageBps  uint64 `json:"slippageBps"`
}

// GetQuote handles GET /api/v1/quote
func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	tokenInStr := r.URL.Query().Get("tokenIn")
	tokenOutStr := r.URL.Query().Get("tokenOut")
	amountInStr := r.URL.Query().Get("amountIn")

	if tokenInStr == "" || tokenOutStr == "" || amountInStr == "" {
		writeError(w, http.StatusBadRequest, "missing_params", "tokenIn, tokenOut, and amountIn are required")
		return
	}
	if !common.IsHexAddress(tokenInStr) {
		writeError(w, http.StatusBadRequest, "invalid_token_in", "tokenIn is not a valid address")
		return
	}
	if !common.IsHexAddress(tokenOutStr) {
		writeError(w, http.StatusBadRequest, "invalid_token_out", "tokenOut is not a valid address")
		return
	}

	amountIn, ok := new(big.Int).SetString(amountInStr, 10)
	if !ok || amountIn.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_amount", "amountIn must be a positive integer")
		return
	}

	tokenIn := common.HexToAddress(tokenInStr)
	tokenOut := common.HexToAddress(tokenOutStr)
	if tokenIn == tokenOut {
		writeError(w, http.StatusBadRequest, "invalid_params", "tokenIn and tokenOut must be distinct")
		return
	}

	state, err := h.pairs.Resolve(r.Context(), tokenIn, tokenOut)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !state.Exists() || !state.HasLiquidity() {
		writeError(w, http.StatusNotFound, "no_pool", "no liquidity pool for this pair")
		return
	}

	if err := entities.CheckMaxInput(amountIn, state.ReserveA, h.maxInputBps); err != nil {
		writeDomainError(w, err)
		return
	}

	quote, err := entities.ComputeQuote(amountIn, state.ReserveA, state.ReserveB)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, QuoteResponse{
		TokenIn:      tokenIn.Hex(),
		TokenOut:     tokenOut.Hex(),
		AmountIn:     quote.AmountIn.String(),
		AmountOut:    quote.AmountOut.String(),
		FeeAmount:    quote.FeeAmount.String(),
		MinAmountOut: entities.ApplySlippage(quote.AmountOut, h.slippageBps).String(),
		SlippageBps:  h.slippageBps,
	})
}
