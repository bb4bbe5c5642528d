package http

import (
	"net/http"
	"time"

	"dompet/internal/core"
)

type walletResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Kind         string    `json:"kind"`
	BalanceCents int64     `json:"balance_cents"`
	CreatedAt    time.Time `json:"created_at"`
}

func toWalletResponse(w core.Wallet) walletResponse {
	return walletResponse{
		ID:           w.ID,
		Name:         w.Name,
		Kind:         string(w.Kind),
		BalanceCents: w.Balance.Cents,
		CreatedAt:    w.CreatedAt,
	}
}

type createWalletRequest struct {
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	InitialBalance string `json:"initial_balance"`
}

func (s *Server) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	var req createWalletRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	var initial core.Money
	if req.InitialBalance != "" {
		cents, err := core.ParseDecimalToCents(req.InitialBalance)
		if err != nil {
			writeError(w, r, err)
			return
		}
		initial = core.Money{Cents: cents}
	}

	wallet, err := s.ledger.CreateWallet(r.Context(), sanitizeInput(req.Name), core.WalletKind(req.Kind), initial)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReadCaches()
	writeJSON(w, http.StatusCreated, toWalletResponse(wallet))
}

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := s.reports.ListWallets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]walletResponse, 0, len(wallets))
	for _, wallet := range wallets {
		out = append(out, toWalletResponse(wallet))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	wallet, err := s.reports.GetWallet(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWalletResponse(wallet))
}
