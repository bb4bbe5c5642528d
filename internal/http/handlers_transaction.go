package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"dompet/internal/core"
	"dompet/internal/services"
)

type transactionResponse struct {
	ID           int64     `json:"id"`
	Type         string    `json:"type"`
	AmountCents  int64     `json:"amount_cents"`
	CategoryID   *int64    `json:"category_id"`
	WalletID     *int64    `json:"wallet_id"`
	Date         string    `json:"date"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	CategoryName string    `json:"category_name,omitempty"`
	CategoryIcon string    `json:"category_icon,omitempty"`
	WalletName   string    `json:"wallet_name,omitempty"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Type:        string(t.Type),
		AmountCents: t.Amount.Cents,
		CategoryID:  t.CategoryID,
		WalletID:    t.WalletID,
		Date:        t.Date.String(),
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}

type createTransactionRequest struct {
	Type             string `json:"type"`
	Amount           string `json:"amount"`
	CategoryID       *int64 `json:"category_id"`
	WalletID         *int64 `json:"wallet_id"`
	Date             string `json:"date"`
	Description      string `json:"description"`
	AllowOverage     bool   `json:"allow_overage"`
	SourceCategoryID *int64 `json:"source_category_id"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.ledger.CreateTransaction(r.Context(), services.CreateTransactionInput{
		Type:             core.TransactionType(req.Type),
		Amount:           core.Money{Cents: cents},
		CategoryID:       req.CategoryID,
		WalletID:         req.WalletID,
		Date:             date,
		Description:      sanitizeInput(req.Description),
		AllowOverage:     req.AllowOverage,
		SourceCategoryID: req.SourceCategoryID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReadCaches()
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

// transactionSnapshot is the client's pre-edit view of the row, sent along
// with an edit to detect concurrent modification.
type transactionSnapshot struct {
	Type        string `json:"type"`
	AmountCents int64  `json:"amount_cents"`
	CategoryID  *int64 `json:"category_id"`
	WalletID    *int64 `json:"wallet_id"`
	Date        string `json:"date"`
}

type editTransactionRequest struct {
	Type        string               `json:"type"`
	Amount      string               `json:"amount"`
	CategoryID  *int64               `json:"category_id"`
	WalletID    *int64               `json:"wallet_id"`
	Date        string               `json:"date"`
	Description string               `json:"description"`
	Old         *transactionSnapshot `json:"old"`
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	var req editTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var old *services.TransactionSnapshot
	if req.Old != nil {
		oldDate, err := core.ParseDate(req.Old.Date)
		if err != nil {
			writeError(w, r, err)
			return
		}
		old = &services.TransactionSnapshot{
			Type:       core.TransactionType(req.Old.Type),
			Amount:     core.Money{Cents: req.Old.AmountCents},
			CategoryID: req.Old.CategoryID,
			WalletID:   req.Old.WalletID,
			Date:       oldDate,
		}
	}

	updated, err := s.ledger.EditTransaction(r.Context(), id, old, services.EditTransactionInput{
		Type:        core.TransactionType(req.Type),
		Amount:      core.Money{Cents: cents},
		CategoryID:  req.CategoryID,
		WalletID:    req.WalletID,
		Date:        date,
		Description: sanitizeInput(req.Description),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReadCaches()
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReadCaches()
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	t, err := s.reports.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	items, err := s.reports.ListTransactions(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]transactionResponse, 0, len(items))
	for _, item := range items {
		resp := toTransactionResponse(item.Transaction)
		resp.CategoryName = item.CategoryName
		resp.CategoryIcon = item.CategoryIcon
		resp.WalletName = item.WalletName
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}
