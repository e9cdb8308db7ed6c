package core

import (
	"testing"
	"time"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"7d", false},
		{"30d", false},
		{"90d", false},
		{"12m", false},
		{"all", false},
		{"1y", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseRange(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseRange(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestFilterByRange_7dBoundaries(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	txs := []Transaction{
		tx(Expense, 100, now),                    // exactly now: included
		tx(Expense, 200, now.AddDate(0, 0, -7)),  // exactly at cutoff: included
		tx(Expense, 300, now.AddDate(0, 0, -8)),  // 8 days ago: excluded
	}

	got := FilterByRange(txs, Range7Days, now)
	if len(got) != 2 {
		t.Fatalf("FilterByRange(7d) kept %d, want 2", len(got))
	}
	for _, g := range got {
		if g.Amount.Cents == 300 {
			t.Error("transaction 8 days old must be excluded from 7d")
		}
	}
}

func TestFilterByRange_All(t *testing.T) {
	now := time.Now()
	txs := []Transaction{
		tx(Expense, 100, now.AddDate(-3, 0, 0)),
		tx(Income, 200, now),
	}
	if got := FilterByRange(txs, RangeAll, now); len(got) != 2 {
		t.Errorf("FilterByRange(all) kept %d, want 2", len(got))
	}
}

func TestSummarize(t *testing.T) {
	now := time.Now()

	t.Run("income expense balance and rate", func(t *testing.T) {
		txs := []Transaction{
			tx(Income, 100000, now),
			tx(Expense, 40000, now),
			tx(Expense, 10000, now),
		}
		s := Summarize(txs)
		if s.Income.Cents != 100000 || s.Expenses.Cents != 50000 {
			t.Errorf("Summarize() income=%d expenses=%d", s.Income.Cents, s.Expenses.Cents)
		}
		if s.Balance.Cents != 50000 {
			t.Errorf("Summarize().Balance = %d, want 50000", s.Balance.Cents)
		}
		if s.SavingsRate != 50 {
			t.Errorf("Summarize().SavingsRate = %v, want 50", s.SavingsRate)
		}
	})

	t.Run("zero income guards savings rate", func(t *testing.T) {
		s := Summarize([]Transaction{tx(Expense, 5000, now)})
		if s.SavingsRate != 0 {
			t.Errorf("SavingsRate with zero income = %v, want 0", s.SavingsRate)
		}
	})
}

func TestMonthlySeries_SortedByKey(t *testing.T) {
	loc := time.UTC
	txs := []Transaction{
		tx(Expense, 100, time.Date(2025, 12, 5, 0, 0, 0, 0, loc)),
		tx(Income, 200, time.Date(2026, 1, 10, 0, 0, 0, 0, loc)),
		tx(Expense, 300, time.Date(2025, 4, 1, 0, 0, 0, 0, loc)),
	}

	series := MonthlySeries(txs, loc)
	if len(series) != 3 {
		t.Fatalf("MonthlySeries() has %d points, want 3", len(series))
	}
	// April < December < January-next-year by the numeric key; a sort on
	// display labels would put Apr/Dec/Jan in the wrong order.
	wantKeys := []string{"2025-04", "2025-12", "2026-01"}
	for i, want := range wantKeys {
		if series[i].Key != want {
			t.Errorf("series[%d].Key = %s, want %s", i, series[i].Key, want)
		}
	}
	if series[0].Label != "Apr 2025" {
		t.Errorf("series[0].Label = %s, want Apr 2025", series[0].Label)
	}
}

func TestTopExpenseCategories(t *testing.T) {
	now := time.Now()
	mk := func(cat string, cents int64) Transaction {
		t := tx(Expense, cents, now)
		t.CategoryID = cat
		return t
	}

	var txs []Transaction
	for i := 0; i < 10; i++ {
		txs = append(txs, mk(string(rune('a'+i)), int64(100*(i+1))))
	}
	txs = append(txs, func() Transaction {
		t := tx(Income, 99999, now)
		t.CategoryID = "salary"
		return t
	}())

	got := TopExpenseCategories(txs, 8)
	if len(got) != 8 {
		t.Fatalf("TopExpenseCategories() returned %d, want 8", len(got))
	}
	if got[0].CategoryID != "j" || got[0].Amount.Cents != 1000 {
		t.Errorf("top category = %s/%d, want j/1000", got[0].CategoryID, got[0].Amount.Cents)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Amount.Cents > got[i-1].Amount.Cents {
			t.Error("TopExpenseCategories() not sorted descending")
		}
	}
	for _, c := range got {
		if c.CategoryID == "salary" {
			t.Error("income categories must not appear in expense ranking")
		}
	}
}

func TestTopExpenses(t *testing.T) {
	now := time.Now()
	txs := []Transaction{
		tx(Expense, 500, now),
		tx(Expense, 9000, now),
		tx(Expense, 100, now),
		tx(Expense, 7000, now),
		tx(Expense, 300, now),
		tx(Expense, 8000, now),
		tx(Income, 99999, now),
	}

	got := TopExpenses(txs, 5)
	if len(got) != 5 {
		t.Fatalf("TopExpenses() returned %d, want 5", len(got))
	}
	wantOrder := []int64{9000, 8000, 7000, 500, 300}
	for i, want := range wantOrder {
		if got[i].Amount.Cents != want {
			t.Errorf("TopExpenses()[%d] = %d, want %d", i, got[i].Amount.Cents, want)
		}
	}
}
