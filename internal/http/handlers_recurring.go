package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type recurringRequest struct {
	AccountID   string `json:"account_id"`
	CategoryID  string `json:"category_id"`
	Type        string `json:"type"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Rule        string `json:"rule"`
	StartDate   string `json:"start_date,omitempty"`
}

type recurringResponse struct {
	ID               string `json:"id"`
	AccountID        string `json:"account_id"`
	CategoryID       string `json:"category_id,omitempty"`
	Type             string `json:"type"`
	AmountCents      int64  `json:"amount_cents"`
	Currency         string `json:"currency"`
	Description      string `json:"description"`
	Rule             string `json:"rule"`
	StartDate        string `json:"start_date"`
	LastMaterialized string `json:"last_materialized,omitempty"`
}

func toRecurringResponse(rec storage.RecurringTransaction) recurringResponse {
	out := recurringResponse{
		ID:          rec.ID,
		AccountID:   rec.AccountID,
		CategoryID:  rec.CategoryID,
		Type:        string(rec.Type),
		AmountCents: rec.Amount.Cents,
		Currency:    rec.Currency,
		Description: rec.Description,
		Rule:        rec.Rule,
		StartDate:   rec.StartDate.Format("2006-01-02"),
	}
	if !rec.LastMaterialized.IsZero() {
		out.LastMaterialized = rec.LastMaterialized.Format("2006-01-02")
	}
	return out
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	recs, err := s.recurring.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]recurringResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toRecurringResponse(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var startDate time.Time
	if req.StartDate != "" {
		var err error
		startDate, err = parseDateParam(req.StartDate)
		if err != nil {
			badRequest(w, "invalid start date")
			return
		}
	}

	created, err := s.recurring.Create(r.Context(), storage.RecurringTransaction{
		ID:          uuid.NewString(),
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Type:        core.TransactionType(req.Type),
		Amount:      core.Money{Cents: req.AmountCents},
		Currency:    req.Currency,
		Description: req.Description,
		Rule:        req.Rule,
		StartDate:   startDate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecurringResponse(created))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := s.recurring.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
