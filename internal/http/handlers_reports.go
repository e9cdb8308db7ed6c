package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
)

type reportResponse struct {
	Range         string               `json:"range"`
	Currency      string               `json:"currency,omitempty"`
	IncomeCents   int64                `json:"income_cents"`
	ExpenseCents  int64                `json:"expense_cents"`
	BalanceCents  int64                `json:"balance_cents"`
	SavingsRate   float64              `json:"savings_rate"`
	Monthly       []monthPoint         `json:"monthly"`
	TopCategories []categoryTotal      `json:"top_categories"`
	TopExpenses   []transactionResponse `json:"top_expenses"`
	MissingRates  []string             `json:"missing_rates,omitempty"`
}

type monthPoint struct {
	Key          string `json:"key"`
	Label        string `json:"label"`
	IncomeCents  int64  `json:"income_cents"`
	ExpenseCents int64  `json:"expense_cents"`
}

type categoryTotal struct {
	CategoryID  string `json:"category_id"`
	AmountCents int64  `json:"amount_cents"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rng, err := core.ParseRange(chi.URLParam(r, "range"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	report, err := s.reports.Build(r.Context(), rng, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := reportResponse{
		Range:        string(report.Range),
		Currency:     report.Currency,
		IncomeCents:  report.Summary.Income.Cents,
		ExpenseCents: report.Summary.Expenses.Cents,
		BalanceCents: report.Summary.Balance.Cents,
		SavingsRate:  report.Summary.SavingsRate,
		MissingRates: report.MissingRates,
		Monthly:      make([]monthPoint, 0, len(report.Monthly)),
		TopCategories: make([]categoryTotal, 0, len(report.TopCategories)),
		TopExpenses:  make([]transactionResponse, 0, len(report.TopExpenses)),
	}
	for _, p := range report.Monthly {
		out.Monthly = append(out.Monthly, monthPoint{
			Key: p.Key, Label: p.Label,
			IncomeCents: p.Income.Cents, ExpenseCents: p.Expense.Cents,
		})
	}
	for _, c := range report.TopCategories {
		out.TopCategories = append(out.TopCategories, categoryTotal{
			CategoryID: c.CategoryID, AmountCents: c.Amount.Cents,
		})
	}
	for _, tx := range report.TopExpenses {
		out.TopExpenses = append(out.TopExpenses, toTransactionResponse(tx))
	}
	writeJSON(w, http.StatusOK, out)
}

type dayBucket struct {
	Day          int                   `json:"day"`
	IncomeCents  int64                 `json:"income_cents"`
	ExpenseCents int64                 `json:"expense_cents"`
	Transactions []transactionResponse `json:"transactions"`
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1970 || year > 9999 {
		badRequest(w, "invalid year")
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		badRequest(w, "invalid month")
		return
	}

	buckets, err := s.reports.Calendar(r.Context(), year, time.Month(month))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]dayBucket, 0, len(buckets))
	for _, b := range buckets {
		day := dayBucket{
			Day:          b.Day,
			IncomeCents:  b.Income.Cents,
			ExpenseCents: b.Expense.Cents,
			Transactions: make([]transactionResponse, 0, len(b.Transactions)),
		}
		for _, tx := range b.Transactions {
			day.Transactions = append(day.Transactions, toTransactionResponse(tx))
		}
		out = append(out, day)
	}
	writeJSON(w, http.StatusOK, out)
}

type heatmapDay struct {
	Date       string `json:"date"`
	TotalCents int64  `json:"total_cents"`
	Intensity  string `json:"intensity"`
	Future     bool   `json:"future"`
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	weeks := 12
	if v := r.URL.Query().Get("weeks"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 53 {
			badRequest(w, "invalid weeks")
			return
		}
		weeks = n
	}
	mode := core.HeatmapExpenseOnly
	if v := r.URL.Query().Get("mode"); v != "" {
		switch core.HeatmapMode(v) {
		case core.HeatmapAll, core.HeatmapExpenseOnly:
			mode = core.HeatmapMode(v)
		default:
			badRequest(w, "invalid mode")
			return
		}
	}

	days, err := s.reports.HeatmapView(r.Context(), time.Now(), weeks, mode)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]heatmapDay, 0, len(days))
	for _, d := range days {
		out = append(out, heatmapDay{
			Date:       d.Date.Format("2006-01-02"),
			TotalCents: d.Total.Cents,
			Intensity:  string(d.Intensity),
			Future:     d.Future,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type weekdayAmount struct {
	Weekday     string `json:"weekday"`
	AmountCents int64  `json:"amount_cents"`
}

func (s *Server) handleWeekdays(w http.ResponseWriter, r *http.Request) {
	amounts, err := s.reports.Weekdays(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]weekdayAmount, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, weekdayAmount{Weekday: a.Weekday.String(), AmountCents: a.Amount.Cents})
	}
	writeJSON(w, http.StatusOK, out)
}
