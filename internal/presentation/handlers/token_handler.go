package handlers

import (
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/dex-gateway/internal/domain/entities"
	"github.com/bimakw/dex-gateway/internal/domain/services"
)

// TokenHandler handles token registry requests
type TokenHandler struct {
	registry     *services.RegistryService
	orchestrator *services.Orchestrator
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(registry *services.RegistryService, orchestrator *services.Orchestrator) *TokenHandler {
	return &TokenHandler{registry: registry, orchestrator: orchestrator}
}

// TokenResponse represents one token in the registry
type TokenResponse struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// ListTokens handles GET /api/v1/tokens
func (h *TokenHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	tokens := h.registry.Tokens()

	out := make([]TokenResponse, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, tokenResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

// Discover handles POST /api/v1/tokens/discover
func (h *TokenHandler) Discover(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.registry.Discover(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]TokenResponse, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, tokenResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateTokenRequest represents a create-token request
type CreateTokenRequest struct {
	Account       string `json:"account"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	InitialSupply string `json:"initialSupply"`
}

// CreateToken handles POST /api/v1/tokens
func (h *TokenHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	var req CreateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body is not valid JSON")
		return
	}

	if !common.IsHexAddress(req.Account) {
		writeError(w, http.StatusBadRequest, "invalid_account", "account is not a valid address")
		return
	}

	supply, ok := new(big.Int).SetString(req.InitialSupply, 10)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_supply", "initialSupply must be a decimal integer")
		return
	}

	result, err := h.orchestrator.CreateToken(r.Context(), services.CreateTokenRequest{
		Account:       common.HexToAddress(req.Account),
		Name:          req.Name,
		Symbol:        req.Symbol,
		InitialSupply: supply,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"txHash": result.TxHash.Hex()})
}

func tokenResponse(t entities.Token) TokenResponse {
	return TokenResponse{
		Address:  t.Address.Hex(),
		Name:     t.Name,
		Symbol:   t.Symbol,
		Decimals: t.Decimals,
	}
}
