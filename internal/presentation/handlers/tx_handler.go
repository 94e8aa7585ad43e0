package handlers

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/bimakw/dex-gateway/internal/domain/services"
)

// TxHandler handles tracked transaction requests
type TxHandler struct {
	tracker *services.TrackerService
}

// NewTxHandler creates a new transaction handler
func NewTxHandler(tracker *services.TrackerService) *TxHandler {
	return &TxHandler{tracker: tracker}
}

// TxResponse represents one tracked transaction
type TxResponse struct {
	Hash    string `json:"hash"`
	Status  string `json:"status"`
	Kind    string `json:"kind"`
	ChainID int64  `json:"chainId"`
	Account string `json:"account"`
}

// ListTransactions handles GET /api/v1/transactions
func (h *TxHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	records := h.tracker.Records()

	out := make([]TxResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, TxResponse{
			Hash:    rec.Hash.Hex(),
			Status:  string(rec.Status),
			Kind:    rec.Kind,
			ChainID: rec.ChainID,
			Account: rec.Account.Hex(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// ClearTransaction handles DELETE /api/v1/transactions/{hash}
func (h *TxHandler) ClearTransaction(w http.ResponseWriter, r *http.Request) {
	hashStr := chi.URLParam(r, "hash")
	if !strings.HasPrefix(hashStr, "0x") || len(hashStr) != 66 {
		writeError(w, http.StatusBadRequest, "invalid_hash", "hash must be a 0x-prefixed 32-byte hex string")
		return
	}

	h.tracker.Clear(r.Context(), common.HexToHash(hashStr))
	w.WriteHeader(http.StatusNoContent)
}
