package core

import (
	"fmt"
	"sort"
	"time"
)

const (
	Range7Days   TimeRange = "7d"
	Range30Days  TimeRange = "30d"
	Range90Days  TimeRange = "90d"
	Range12Month TimeRange = "12m"
	RangeAll     TimeRange = "all"
)

type (
	TimeRange string

	// Summary is the headline income/expense view for a time window.
	Summary struct {
		Income      Money
		Expenses    Money
		Balance     Money
		SavingsRate float64
	}

	// MonthPoint is one month in a chart series. Key is the sortable
	// YYYY-MM form; Label is derived from it after sorting so month names
	// never sort lexicographically.
	MonthPoint struct {
		Key     string
		Label   string
		Income  Money
		Expense Money
	}

	CategoryTotal struct {
		CategoryID string
		Amount     Money
	}
)

// ParseRange validates a report time-range token.
func ParseRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case Range7Days, Range30Days, Range90Days, Range12Month, RangeAll:
		return TimeRange(s), nil
	}
	return "", fmt.Errorf("unknown time range %q", s)
}

// Cutoff returns the inclusive lower bound for the range anchored at now,
// and whether a bound applies at all.
func (r TimeRange) Cutoff(now time.Time) (time.Time, bool) {
	switch r {
	case Range7Days:
		return now.AddDate(0, 0, -7), true
	case Range30Days:
		return now.AddDate(0, 0, -30), true
	case Range90Days:
		return now.AddDate(0, 0, -90), true
	case Range12Month:
		return now.AddDate(0, -12, 0), true
	default:
		return time.Time{}, false
	}
}

// FilterByRange keeps transactions with date >= now - range. With RangeAll
// the input is returned unfiltered (copied).
func FilterByRange(txs []Transaction, r TimeRange, now time.Time) []Transaction {
	cutoff, bounded := r.Cutoff(now)
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if bounded && tx.Date.Before(cutoff) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// Summarize computes income, expenses, balance and savings rate. A zero
// income yields a zero savings rate, never NaN or Inf.
func Summarize(txs []Transaction) Summary {
	var s Summary
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			s.Income.Cents += tx.Amount.Cents
		case Expense:
			s.Expenses.Cents += tx.Amount.Cents
		}
	}
	s.Balance.Cents = s.Income.Cents - s.Expenses.Cents
	if s.Income.Cents != 0 {
		s.SavingsRate = float64(s.Balance.Cents) / float64(s.Income.Cents) * 100
	}
	return s
}

// MonthlySeries buckets income and expense sums by calendar month, sorted
// ascending by the YYYY-MM key.
func MonthlySeries(txs []Transaction, loc *time.Location) []MonthPoint {
	byKey := make(map[string]*MonthPoint)
	for _, tx := range txs {
		d := tx.Date.In(loc)
		key := d.Format("2006-01")
		p, ok := byKey[key]
		if !ok {
			p = &MonthPoint{Key: key, Label: d.Format("Jan 2006")}
			byKey[key] = p
		}
		switch tx.Type {
		case Income:
			p.Income.Cents += tx.Amount.Cents
		case Expense:
			p.Expense.Cents += tx.Amount.Cents
		}
	}
	out := make([]MonthPoint, 0, len(byKey))
	for _, p := range byKey {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// TopExpenseCategories sums expense transactions by category, descending,
// truncated to limit. Ties break on category ID for deterministic output.
func TopExpenseCategories(txs []Transaction, limit int) []CategoryTotal {
	sums := make(map[string]int64)
	for _, tx := range txs {
		if tx.Type != Expense {
			continue
		}
		sums[tx.CategoryID] += tx.Amount.Cents
	}
	out := make([]CategoryTotal, 0, len(sums))
	for id, cents := range sums {
		out = append(out, CategoryTotal{CategoryID: id, Amount: Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TopExpenses returns the largest expense transactions by absolute amount,
// descending, truncated to limit.
func TopExpenses(txs []Transaction, limit int) []Transaction {
	expenses := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Type == Expense {
			expenses = append(expenses, tx)
		}
	}
	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].Amount.Abs().Cents > expenses[j].Amount.Abs().Cents
	})
	if limit > 0 && len(expenses) > limit {
		expenses = expenses[:limit]
	}
	return expenses
}
