package core

import (
	"testing"
	"time"
)

func TestClassifyBudget(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want BudgetState
	}{
		{"before start - upcoming", start.AddDate(0, 0, -1), BudgetUpcoming},
		{"exactly at start - active", start, BudgetActive},
		{"mid range - active", start.AddDate(0, 0, 15), BudgetActive},
		{"exactly at end - active", end, BudgetActive},
		{"after end - expired", end.Add(time.Second), BudgetExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyBudget(start, end, tt.now)
			if got != tt.want {
				t.Errorf("ClassifyBudget() = %v, want %v", got, tt.want)
			}
			// Exactly one state holds by construction; verify the other two
			// are not returned for the same inputs.
			states := map[BudgetState]int{BudgetUpcoming: 0, BudgetActive: 0, BudgetExpired: 0}
			states[got]++
			if states[BudgetUpcoming]+states[BudgetActive]+states[BudgetExpired] != 1 {
				t.Error("classification must yield exactly one state")
			}
		})
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name     string
		spent    int64
		limit    int64
		wantPct  float64
		wantOver bool
		wantTier WarningTier
	}{
		{"over budget fixture", 21500, 20000, 107.5, true, TierOver},
		{"approaching fixture at 95 percent", 19000, 20000, 95, false, TierApproaching},
		{"exactly 90 percent is approaching", 18000, 20000, 90, false, TierApproaching},
		{"just under 90 percent is normal", 17999, 20000, 89.995, false, TierNormal},
		{"zero limit guards division", 5000, 0, 0, true, TierOver},
		{"zero spent zero limit", 0, 0, 0, false, TierNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Progress(Money{Cents: tt.spent}, Money{Cents: tt.limit})
			if got.Percentage != tt.wantPct {
				t.Errorf("Progress().Percentage = %v, want %v", got.Percentage, tt.wantPct)
			}
			if got.IsOverBudget != tt.wantOver {
				t.Errorf("Progress().IsOverBudget = %v, want %v", got.IsOverBudget, tt.wantOver)
			}
			if got.Tier != tt.wantTier {
				t.Errorf("Progress().Tier = %v, want %v", got.Tier, tt.wantTier)
			}
		})
	}
}

func TestStats_ActiveOnly(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	mk := func(startOff, endOff int, limit, spent int64) Budget {
		return Budget{
			Amount:    Money{Cents: limit},
			Spent:     Money{Cents: spent},
			StartDate: now.AddDate(0, 0, startOff),
			EndDate:   now.AddDate(0, 0, endOff),
		}
	}

	budgets := []Budget{
		mk(-10, 10, 20000, 21500), // active, over
		mk(-5, 5, 10000, 4000),    // active
		mk(5, 20, 50000, 0),       // upcoming, excluded
		mk(-30, -10, 50000, 60000), // expired, excluded
	}

	s := Stats(budgets, now)
	if s.TotalLimit.Cents != 30000 {
		t.Errorf("Stats().TotalLimit = %d, want 30000", s.TotalLimit.Cents)
	}
	if s.TotalSpent.Cents != 25500 {
		t.Errorf("Stats().TotalSpent = %d, want 25500", s.TotalSpent.Cents)
	}
	if s.OverCount != 1 {
		t.Errorf("Stats().OverCount = %d, want 1", s.OverCount)
	}
	if s.Percentage != 85 {
		t.Errorf("Stats().Percentage = %v, want 85", s.Percentage)
	}
}

func TestStats_ZeroLimitGuard(t *testing.T) {
	s := Stats(nil, time.Now())
	if s.Percentage != 0 {
		t.Errorf("Stats(nil).Percentage = %v, want 0", s.Percentage)
	}
}
