package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/rates"
)

type rateTableResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

func (s *Server) handleGetRates(w http.ResponseWriter, r *http.Request) {
	table, err := s.rates.Table(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rateTableResponse{Base: table.Base, Rates: table.Rates})
}

func (s *Server) handleRefreshRates(w http.ResponseWriter, r *http.Request) {
	table, err := s.rates.Refresh(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.reports.Invalidate()
	writeJSON(w, http.StatusOK, rateTableResponse{Base: table.Base, Rates: table.Rates})
}

func (s *Server) handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	catalog, err := rates.Catalog()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

type settingsPayload struct {
	PreferredCurrency    string `json:"preferred_currency"`
	ShowConvertedAmounts bool   `json:"show_converted_amounts"`
	Timezone             string `json:"timezone"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.repo.GetSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsPayload{
		PreferredCurrency:    settings.PreferredCurrency,
		ShowConvertedAmounts: settings.ShowConvertedAmounts,
		Timezone:             settings.Timezone,
	})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsPayload
	if !decodeBody(w, r, &req) {
		return
	}

	if _, ok := rates.Lookup(req.PreferredCurrency); !ok {
		badRequest(w, "unsupported currency "+req.PreferredCurrency)
		return
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			badRequest(w, "unknown timezone "+req.Timezone)
			return
		}
	}

	settings := core.Settings{
		PreferredCurrency:    req.PreferredCurrency,
		ShowConvertedAmounts: req.ShowConvertedAmounts,
		Timezone:             req.Timezone,
	}
	if err := s.repo.SaveSettings(r.Context(), settings); err != nil {
		writeError(w, r, err)
		return
	}
	s.reports.Invalidate()
	writeJSON(w, http.StatusOK, req)
}
