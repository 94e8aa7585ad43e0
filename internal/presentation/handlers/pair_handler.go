package handlers

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/dex-gateway/internal/domain/services"
)

// PairHandler handles liquidity pair requests
type PairHandler struct {
	pairs *services.PairService
}

// NewPairHandler creates a new pair handler
func NewPairHandler(pairs *services.PairService) *PairHandler {
	return &PairHandler{pairs: pairs}
}

// PairResponse represents pair state. Share is omitted entirely when it
// is unknown; the client must not render a missing share as 0%.
type PairResponse struct {
	Exists      bool    `json:"exists"`
	PairAddress string  `json:"pairAddress,omitempty"`
	ReserveA    string  `json:"reserveA,omitempty"`
	ReserveB    string  `json:"reserveB,omitempty"`
	PriceAToB   string  `json:"priceAToB,omitempty"`
	PriceBToA   string  `json:"priceBToA,omitempty"`
	SharePct    *string `json:"sharePct,omitempty"`
}

// GetPair handles GET /api/v1/pair
func (h *PairHandler) GetPair(w http.ResponseWriter, r *http.Request) {
	tokenAStr := r.URL.Query().Get("tokenA")
	tokenBStr := r.URL.Query().Get("tokenB")
	accountStr := r.URL.Query().Get("account")

	if !common.IsHexAddress(tokenAStr) || !common.IsHexAddress(tokenBStr) {
		writeError(w, http.StatusBadRequest, "invalid_params", "tokenA and tokenB must be valid addresses")
		return
	}
	tokenA := common.HexToAddress(tokenAStr)
	tokenB := common.HexToAddress(tokenBStr)
	if tokenA == tokenB {
		writeError(w, http.StatusBadRequest, "invalid_params", "tokenA and tokenB must be distinct")
		return
	}

	state, err := h.pairs.Resolve(r.Context(), tokenA, tokenB)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := PairResponse{Exists: state.Exists()}
	if state.Exists() {
		resp.PairAddress = state.PairAddress.Hex()
		resp.ReserveA = state.ReserveA.String()
		resp.ReserveB = state.ReserveB.String()
		if state.PriceAToB != nil {
			resp.PriceAToB = state.PriceAToB.Text('f', 18)
		}
		if state.PriceBToA != nil {
			resp.PriceBToA = state.PriceBToA.Text('f', 18)
		}

		if accountStr != "" {
			if !common.IsHexAddress(accountStr) {
				writeError(w, http.StatusBadRequest, "invalid_account", "account is not a valid address")
				return
			}
			share, err := h.pairs.LiquidityShare(r.Context(), *state.PairAddress, common.HexToAddress(accountStr))
			if err != nil {
				writeDomainError(w, err)
				return
			}
			if share != nil {
				s := share.Text('f', 6)
				resp.SharePct = &s
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
