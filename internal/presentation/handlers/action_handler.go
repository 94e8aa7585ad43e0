package handlers

import (
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/dex-gateway/internal/domain/services"
)

// ActionHandler handles swap and liquidity action requests
type ActionHandler struct {
	orchestrator *services.Orchestrator
}

// NewActionHandler creates a new action handler
func NewActionHandler(orchestrator *services.Orchestrator) *ActionHandler {
	return &ActionHandler{orchestrator: orchestrator}
}

// SwapRequest represents a swap action request
type SwapRequest struct {
	Account  string `json:"account"`
	TokenIn  string `json:"tokenIn"`
	TokenOut string `json:"tokenOut"`
	AmountIn string `json:"amountIn"`
}

// SwapResponse represents a confirmed swap
type SwapResponse struct {
	TxHash       string `json:"txHash"`
	AmountOut    string `json:"amountOut"`
	FeeAmount    string `json:"feeAmount"`
	AmountOutMin string `json:"amountOutMin"`
}

// Swap handles POST /api/v1/actions/swap
func (h *ActionHandler) Swap(w http.ResponseWriter, r *http.Request) {
	var req SwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body is not valid JSON")
		return
	}

	account, ok := parseAddress(w, "account", req.Account)
	if !ok {
		return
	}
	tokenIn, ok := parseAddress(w, "tokenIn", req.TokenIn)
	if !ok {
		return
	}
	tokenOut, ok := parseAddress(w, "tokenOut", req.TokenOut)
	if !ok {
		return
	}
	amountIn, ok := parseAmount(w, "amountIn", req.AmountIn)
	if !ok {
		return
	}

	result, err := h.orchestrator.Swap(r.Context(), services.SwapRequest{
		Account:  account,
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		AmountIn: amountIn,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SwapResponse{
		TxHash:       result.TxHash.Hex(),
		AmountOut:    result.Quote.AmountOut.String(),
		FeeAmount:    result.Quote.FeeAmount.String(),
		AmountOutMin: result.AmountOutMin.String(),
	})
}

// AddLiquidityRequest represents an add-liquidity action request
type AddLiquidityRequest struct {
	Account string `json:"account"`
	TokenA  string `json:"tokenA"`
	TokenB  string `json:"tokenB"`
	AmountA string `json:"amountA"`
	AmountB string `json:"amountB"`
}

// AddLiquidity handles POST /api/v1/actions/liquidity/add
func (h *ActionHandler) AddLiquidity(w http.ResponseWriter, r *http.Request) {
	var req AddLiquidityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body is not valid JSON")
		return
	}

	account, ok := parseAddress(w, "account", req.Account)
	if !ok {
		return
	}
	tokenA, ok := parseAddress(w, "tokenA", req.TokenA)
	if !ok {
		return
	}
	tokenB, ok := parseAddress(w, "tokenB", req.TokenB)
	if !ok {
		return
	}
	amountA, ok := parseAmount(w, "amountA", req.AmountA)
	if !ok {
		return
	}
	amountB, ok := parseAmount(w, "amountB", req.AmountB)
	if !ok {
		return
	}

	result, err := h.orchestrator.AddLiquidity(r.Context(), services.AddLiquidityRequest{
		Account: account,
		TokenA:  tokenA,
		TokenB:  tokenB,
		AmountA: amountA,
		AmountB: amountB,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"txHash": result.TxHash.Hex()})
}

// RemoveLiquidityRequest represents a remove-liquidity action request
type RemoveLiquidityRequest struct {
	Account   string `json:"account"`
	TokenA    string `json:"tokenA"`
	TokenB    string `json:"tokenB"`
	Liquidity string `json:"liquidity"`
}

// RemoveLiquidity handles POST /api/v1/actions/liquidity/remove
func (h *ActionHandler) RemoveLiquidity(w http.ResponseWriter, r *http.Request) {
	var req RemoveLiquidityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body is not valid JSON")
		return
	}

	account, ok := parseAddress(w, "account", req.Account)
	if !ok {
		return
	}
	tokenA, ok := parseAddress(w, "tokenA", req.TokenA)
	if !ok {
		return
	}
	tokenB, ok := parseAddress(w, "tokenB", req.TokenB)
	if !ok {
		return
	}
	liquidity, ok := parseAmount(w, "liquidity", req.Liquidity)
	if !ok {
		return
	}

	result, err := h.orchestrator.RemoveLiquidity(r.Context(), services.RemoveLiquidityRequest{
		Account:   account,
		TokenA:    tokenA,
		TokenB:    tokenB,
		Liquidity: liquidity,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"txHash": result.TxHash.Hex()})
}

// ActionStatusResponse represents the observable state of one action
type ActionStatusResponse struct {
	Account   string `json:"account"`
	Kind      string `json:"kind"`
	State     string `json:"state"`
	TxHash    string `json:"txHash,omitempty"`
	Reason    string `json:"reason,omitempty"`
	UpdatedAt string `json:"updatedAt"`
}

// Status handles GET /api/v1/actions/status
func (h *ActionHandler) Status(w http.ResponseWriter, r *http.Request) {
	accountStr := r.URL.Query().Get("account")
	kindStr := r.URL.Query().Get("kind")

	account, ok := parseAddress(w, "account", accountStr)
	if !ok {
		return
	}

	kind := services.ActionKind(kindStr)
	switch kind {
	case services.ActionSwap, services.ActionAddLiquidity, services.ActionRemoveLiquidity, services.ActionCreateToken:
	default:
		writeError(w, http.StatusBadRequest, "invalid_kind", "kind must be one of swap, addLiquidity, removeLiquidity, createToken")
		return
	}

	status, found := h.orchestrator.Status(account, kind)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "no action recorded for this account and kind")
		return
	}

	resp := ActionStatusResponse{
		Account:   status.Account.Hex(),
		Kind:      string(status.Kind),
		State:     string(status.State),
		Reason:    status.Reason,
		UpdatedAt: status.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if status.TxHash != nil {
		resp.TxHash = status.TxHash.Hex()
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseAddress(w http.ResponseWriter, field, value string) (common.Address, bool) {
	if !common.IsHexAddress(value) {
		writeError(w, http.StatusBadRequest, "invalid_"+field, field+" is not a valid address")
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}

func parseAmount(w http.ResponseWriter, field, value string) (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_"+field, field+" must be a positive integer")
		return nil, false
	}
	return amount, true
}
