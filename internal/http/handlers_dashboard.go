package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dompet/internal/core"
)

type dailyAmountResponse struct {
	Day         int   `json:"day"`
	AmountCents int64 `json:"amount_cents"`
}

type dashboardResponse struct {
	Month            int                   `json:"month"`
	Year             int                   `json:"year"`
	BalanceCents     int64                 `json:"balance_cents"`
	InvestmentCents  int64                 `json:"investment_cents"`
	IncomeCents      int64                 `json:"income_cents"`
	ExpenseCents     int64                 `json:"expense_cents"`
	BudgetLimitCents int64                 `json:"budget_limit_cents"`
	BudgetUsedCents  int64                 `json:"budget_used_cents"`
	Daily            []dailyAmountResponse `json:"daily"`
}

func toDashboardResponse(d core.DashboardSummary) dashboardResponse {
	daily := make([]dailyAmountResponse, 0, len(d.Daily))
	for _, point := range d.Daily {
		daily = append(daily, dailyAmountResponse{Day: point.Day, AmountCents: point.Amount.Cents})
	}
	return dashboardResponse{
		Month:            d.Month,
		Year:             d.Year,
		BalanceCents:     d.Balance.Cents,
		InvestmentCents:  d.Investment.Cents,
		IncomeCents:      d.Income.Cents,
		ExpenseCents:     d.Expense.Cents,
		BudgetLimitCents: d.BudgetLimit.Cents,
		BudgetUsedCents:  d.BudgetUsed.Cents,
		Daily:            daily,
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	key := cacheKey(year, month)
	summary, found := s.dashboardCache.Get(key)
	if !found {
		var err error
		summary, err = s.reports.Dashboard(r.Context(), month, year)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.dashboardCache.Set(key, summary)
	} else {
		slog.DebugContext(r.Context(), "Dashboard cache hit", "year", year, "month", month)
	}

	writeJSON(w, http.StatusOK, toDashboardResponse(summary))
}

type monthlyAmountResponse struct {
	Month        int   `json:"month"`
	IncomeCents  int64 `json:"income_cents"`
	ExpenseCents int64 `json:"expense_cents"`
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}

	trend, err := s.reports.MonthlyTrend(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]monthlyAmountResponse, 0, len(trend))
	for _, m := range trend {
		out = append(out, monthlyAmountResponse{
			Month:        m.Month,
			IncomeCents:  m.Income.Cents,
			ExpenseCents: m.Expense.Cents,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
