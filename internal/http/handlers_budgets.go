package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"tesoretto/internal/core"
	applog "tesoretto/internal/log"
)

type budgetRequest struct {
	Category core.Category `json:"category"`
	Year     int           `json:"year"`
	Month    int           `json:"month"`
	Amount   core.Money    `json:"amount"`
}

// handleListBudgets lists every budget row, or one month's when year and
// month are given. Listing applies any pending month rollover first.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.deps.Budgets.List(r.Context(), s.deps.Clock())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	filter := r.URL.Query().Get("year") != "" || r.URL.Query().Get("month") != ""
	year, month, err := queryYearMonth(r, s.deps.Clock())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	out := make([]core.Budget, 0, len(budgets))
	for _, b := range budgets {
		if filter && (b.Year != year || b.Month != month) {
			continue
		}
		out = append(out, b)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	now := s.deps.Clock()
	if req.Year == 0 {
		req.Year = now.Year()
	}
	if req.Month == 0 {
		req.Month = int(now.Month())
	}
	if req.Month < 1 || req.Month > 12 {
		writeError(w, r, applog.OpUpdate, fmt.Errorf("%w: month %d", core.ErrInvalidDate, req.Month))
		return
	}
	b, err := s.deps.Budgets.Set(r.Context(), core.Category(strings.TrimSpace(string(req.Category))), req.Year, time.Month(req.Month), req.Amount)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// handleDeleteBudget takes ?category=&year=&month=; year and month default
// to the current month.
func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	year, month, err := queryYearMonth(r, s.deps.Clock())
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	category := core.Category(strings.TrimSpace(r.URL.Query().Get("category")))
	if !category.IsValid() {
		writeError(w, r, applog.OpDelete, fmt.Errorf("%w: %q", core.ErrInvalidCategory, category))
		return
	}
	if err := s.deps.Budgets.Remove(r.Context(), category, year, month); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	serve(w, r, s.deps.Analyzer.Budgets)
}
