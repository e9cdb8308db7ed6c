package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type transactionRequest struct {
	AccountID   string `json:"account_id"`
	CategoryID  string `json:"category_id"`
	Type        string `json:"type"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type transactionResponse struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	CategoryID  string `json:"category_id,omitempty"`
	Type        string `json:"type"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		AccountID:   tx.AccountID,
		CategoryID:  tx.CategoryID,
		Type:        string(tx.Type),
		AmountCents: tx.Amount.Cents,
		Currency:    tx.Currency,
		Date:        tx.Date.Format("2006-01-02"),
		Description: tx.Description,
	}
}

func (req transactionRequest) toDomain(id string) (core.Transaction, error) {
	date, err := parseDateParam(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          id,
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Type:        core.TransactionType(req.Type),
		Amount:      core.Money{Cents: req.AmountCents},
		Currency:    req.Currency,
		Date:        date,
		Description: req.Description,
	}, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.TransactionFilter{
		AccountID:  q.Get("account_id"),
		CategoryID: q.Get("category_id"),
		Type:       core.TransactionType(q.Get("type")),
	}
	if v := q.Get("from"); v != "" {
		from, err := parseDateParam(v)
		if err != nil {
			badRequest(w, "invalid from date")
			return
		}
		filter.From = from
	}
	if v := q.Get("to"); v != "" {
		to, err := parseDateParam(v)
		if err != nil {
			badRequest(w, "invalid to date")
			return
		}
		filter.To = to
	}

	txs, err := s.txs.List(r.Context(), filter, q.Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.txs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tx, err := req.toDomain("")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	created, err := s.txs.Create(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user, ok := userFrom(r.Context()); ok {
		slog.InfoContext(r.Context(), "Transaction created by user",
			"transaction_id", created.ID, "user_id", user.ID)
	}
	s.reports.Invalidate()
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tx, err := req.toDomain(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	updated, err := s.txs.Update(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.reports.Invalidate()
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.txs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.reports.Invalidate()
	writeJSON(w, http.StatusNoContent, nil)
}

// parseDateParam accepts a plain date or a full RFC 3339 timestamp.
func parseDateParam(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if d, err := time.Parse("2006-01-02", v); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, v)
}
