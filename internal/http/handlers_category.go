package http

import (
	"net/http"
	"time"

	"dompet/internal/core"
)

type categoryResponse struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Icon             string    `json:"icon"`
	Type             string    `json:"type"`
	BudgetLimitCents int64     `json:"budget_limit_cents"`
	IsSavings        bool      `json:"is_savings"`
	CreatedAt        time.Time `json:"created_at"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:               c.ID,
		Name:             c.Name,
		Icon:             c.Icon,
		Type:             string(c.Type),
		BudgetLimitCents: c.BudgetLimit.Cents,
		IsSavings:        c.IsSavings,
		CreatedAt:        c.CreatedAt,
	}
}

type createCategoryRequest struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Type        string `json:"type"`
	BudgetLimit string `json:"budget_limit"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	var limit core.Money
	if req.BudgetLimit != "" {
		cents, err := core.ParseDecimalToCents(req.BudgetLimit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		limit = core.Money{Cents: cents}
	}

	category, err := s.ledger.CreateCategory(r.Context(),
		sanitizeInput(req.Name), sanitizeInput(req.Icon), core.CategoryType(req.Type), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReadCaches()
	writeJSON(w, http.StatusCreated, toCategoryResponse(category))
}

type updateCategoryRequest struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Type        string `json:"type"`
	BudgetLimit string `json:"budget_limit"`
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	var req updateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	var limit core.Money
	if req.BudgetLimit != "" {
		cents, err := core.ParseDecimalToCents(req.BudgetLimit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		limit = core.Money{Cents: cents}
	}

	category, err := s.ledger.UpdateCategory(r.Context(), id,
		sanitizeInput(req.Name), sanitizeInput(req.Icon), core.CategoryType(req.Type), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReadCaches()
	writeJSON(w, http.StatusOK, toCategoryResponse(category))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.reports.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if err := s.ledger.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReadCaches()
	writeJSON(w, http.StatusNoContent, nil)
}
