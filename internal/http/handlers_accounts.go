package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fintrack/internal/core"
)

type accountRequest struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Currency     string `json:"currency"`
	BalanceCents int64  `json:"balance_cents"`
}

type accountResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Currency     string `json:"currency"`
	BalanceCents int64  `json:"balance_cents"`
}

func toAccountResponse(a core.Account) accountResponse {
	return accountResponse{
		ID:           a.ID,
		Name:         a.Name,
		Type:         string(a.Type),
		Currency:     a.Currency,
		BalanceCents: a.Balance.Cents,
	}
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.repo.ListAccounts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.repo.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	account := core.Account{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Type:     core.AccountType(req.Type),
		Currency: req.Currency,
		Balance:  core.Money{Cents: req.BalanceCents},
	}
	if account.Type == "" {
		account.Type = core.AccountBank
	}
	if err := account.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.repo.CreateAccount(r.Context(), account); err != nil {
		writeError(w, r, err)
		return
	}
	s.reports.Invalidate()
	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	account := core.Account{
		ID:       chi.URLParam(r, "id"),
		Name:     req.Name,
		Type:     core.AccountType(req.Type),
		Currency: req.Currency,
		Balance:  core.Money{Cents: req.BalanceCents},
	}
	if err := account.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.repo.UpdateAccount(r.Context(), account); err != nil {
		writeError(w, r, err)
		return
	}
	s.reports.Invalidate()
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.reports.Invalidate()
	writeJSON(w, http.StatusNoContent, nil)
}
