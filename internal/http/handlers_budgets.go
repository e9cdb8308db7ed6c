package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fintrack/internal/core"
)

type budgetRequest struct {
	CategoryID  string `json:"category_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type budgetResponse struct {
	ID          string  `json:"id"`
	CategoryID  string  `json:"category_id,omitempty"`
	AmountCents int64   `json:"amount_cents"`
	SpentCents  int64   `json:"spent_cents"`
	Currency    string  `json:"currency"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	State       string  `json:"state"`
	Percentage  float64 `json:"percentage"`
	OverBudget  bool    `json:"over_budget"`
	WarningTier string  `json:"warning_tier"`
}

type budgetListResponse struct {
	Budgets []budgetResponse `json:"budgets"`
	Stats   budgetStats      `json:"stats"`
}

type budgetStats struct {
	TotalLimitCents int64   `json:"total_limit_cents"`
	TotalSpentCents int64   `json:"total_spent_cents"`
	OverCount       int     `json:"over_count"`
	Percentage      float64 `json:"percentage"`
}

func toBudgetResponse(b core.Budget, now time.Time) budgetResponse {
	progress := b.Progress()
	return budgetResponse{
		ID:          b.ID,
		CategoryID:  b.CategoryID,
		AmountCents: b.Amount.Cents,
		SpentCents:  b.Spent.Cents,
		Currency:    b.Currency,
		StartDate:   b.StartDate.Format("2006-01-02"),
		EndDate:     b.EndDate.Format("2006-01-02"),
		State:       string(b.State(now)),
		Percentage:  progress.Percentage,
		OverBudget:  progress.IsOverBudget,
		WarningTier: string(progress.Tier),
	}
}

func (req budgetRequest) toDomain(id string) (core.Budget, error) {
	start, err := parseDateParam(req.StartDate)
	if err != nil {
		return core.Budget{}, err
	}
	end, err := parseDateParam(req.EndDate)
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		ID:         id,
		CategoryID: req.CategoryID,
		Amount:     core.Money{Cents: req.AmountCents},
		Currency:   req.Currency,
		StartDate:  start,
		EndDate:    end,
	}, nil
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.repo.ListBudgets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := time.Now()
	out := budgetListResponse{Budgets: make([]budgetResponse, 0, len(budgets))}
	for _, b := range budgets {
		out.Budgets = append(out.Budgets, toBudgetResponse(b, now))
	}
	stats := core.Stats(budgets, now)
	out.Stats = budgetStats{
		TotalLimitCents: stats.TotalLimit.Cents,
		TotalSpentCents: stats.TotalSpent.Cents,
		OverCount:       stats.OverCount,
		Percentage:      stats.Percentage,
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	budget, err := s.repo.GetBudget(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(budget, time.Now()))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	budget, err := req.toDomain(uuid.NewString())
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := budget.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.seedBudgetSpent(r.Context(), &budget); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.repo.CreateBudget(r.Context(), budget); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetResponse(budget, time.Now()))
}

// seedBudgetSpent initializes the spent counter from expenses already in
// the window, so a budget created late still sees prior spending. Forward
// accrual from transaction writes takes over from there.
func (s *Server) seedBudgetSpent(ctx context.Context, b *core.Budget) error {
	if b.CategoryID == "" {
		b.Spent = core.Money{}
		return nil
	}
	spent, err := s.repo.SumExpensesInWindow(ctx, b.CategoryID, b.StartDate, b.EndDate)
	if err != nil {
		return err
	}
	b.Spent = spent
	return nil
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	budget, err := req.toDomain(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := budget.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := s.repo.GetBudget(r.Context(), budget.ID); err != nil {
		writeError(w, r, err)
		return
	}
	// Category or window edits change which expenses count, so the spent
	// counter is recomputed from the transactions rather than carried over.
	if err := s.seedBudgetSpent(r.Context(), &budget); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.repo.UpdateBudget(r.Context(), budget); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(budget, time.Now()))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteBudget(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
