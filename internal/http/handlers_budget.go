package http

import (
	"log/slog"
	"net/http"

	"dompet/internal/core"
	"dompet/internal/services"
)

type budgetStatusResponse struct {
	CategoryID     int64 `json:"category_id"`
	Month          int   `json:"month"`
	Year           int   `json:"year"`
	LimitCents     int64 `json:"limit_cents"`
	RolloverCents  int64 `json:"rollover_cents"`
	SpentCents     int64 `json:"spent_cents"`
	RemainingCents int64 `json:"remaining_cents"`
}

func toBudgetStatusResponse(b core.BudgetStatus) budgetStatusResponse {
	return budgetStatusResponse{
		CategoryID:     b.CategoryID,
		Month:          b.Month,
		Year:           b.Year,
		LimitCents:     b.Limit.Cents,
		RolloverCents:  b.Rollover.Cents,
		SpentCents:     b.Spent.Cents,
		RemainingCents: b.Remaining.Cents,
	}
}

type categoryBudgetResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Icon           string `json:"icon"`
	Type           string `json:"type"`
	IsSavings      bool   `json:"is_savings"`
	LimitCents     int64  `json:"limit_cents"`
	RolloverCents  int64  `json:"rollover_cents"`
	SpentCents     int64  `json:"spent_cents"`
	RemainingCents int64  `json:"remaining_cents"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	key := cacheKey(year, month)
	budgets, found := s.budgetsCache.Get(key)
	if !found {
		var err error
		budgets, err = s.reports.ListBudgets(r.Context(), month, year)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.budgetsCache.Set(key, budgets)
	} else {
		slog.DebugContext(r.Context(), "Budgets cache hit", "year", year, "month", month)
	}

	out := make([]categoryBudgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, categoryBudgetResponse{
			ID:             b.ID,
			Name:           b.Name,
			Icon:           b.Icon,
			Type:           string(b.Type),
			IsSavings:      b.IsSavings,
			LimitCents:     b.Limit.Cents,
			RolloverCents:  b.Rollover.Cents,
			SpentCents:     b.Spent.Cents,
			RemainingCents: b.Remaining.Cents,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	year, month := parseYearMonth(r)

	status, err := s.ledger.GetBudgetStatus(r.Context(), id, month, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetStatusResponse(status))
}

type transferBudgetRequest struct {
	SourceCategoryID int64  `json:"source_category_id"`
	TargetCategoryID int64  `json:"target_category_id"`
	Amount           string `json:"amount"`
}

func (s *Server) handleTransferBudget(w http.ResponseWriter, r *http.Request) {
	var req transferBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.ledger.TransferBudget(r.Context(), req.SourceCategoryID, req.TargetCategoryID, core.Money{Cents: cents}); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReadCaches()
	writeJSON(w, http.StatusNoContent, nil)
}

type transferWalletBudgetRequest struct {
	WalletID   int64  `json:"wallet_id"`
	CategoryID int64  `json:"category_id"`
	Amount     string `json:"amount"`
	Direction  string `json:"direction"`
}

func (s *Server) handleTransferWalletBudget(w http.ResponseWriter, r *http.Request) {
	var req transferWalletBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = s.ledger.TransferWalletBudget(r.Context(), req.WalletID, req.CategoryID,
		core.Money{Cents: cents}, services.TransferDirection(req.Direction))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReadCaches()
	writeJSON(w, http.StatusNoContent, nil)
}

type rolloverRequest struct {
	FromMonth int `json:"from_month"`
	FromYear  int `json:"from_year"`
	ToMonth   int `json:"to_month"`
	ToYear    int `json:"to_year"`
}

func (s *Server) handleRollover(w http.ResponseWriter, r *http.Request) {
	var req rolloverRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	if err := s.ledger.Rollover(r.Context(), req.FromMonth, req.FromYear, req.ToMonth, req.ToYear); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReadCaches()
	writeJSON(w, http.StatusNoContent, nil)
}
