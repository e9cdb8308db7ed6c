package core

import "time"

const (
	BudgetUpcoming BudgetState = "upcoming"
	BudgetActive   BudgetState = "active"
	BudgetExpired  BudgetState = "expired"
)

const (
	TierNormal      WarningTier = "normal"
	TierApproaching WarningTier = "approaching"
	TierOver        WarningTier = "over"
)

type (
	BudgetState string

	WarningTier string

	// BudgetProgress is the derived spend-versus-limit view for one budget.
	BudgetProgress struct {
		Percentage   float64
		IsOverBudget bool
		Tier         WarningTier
	}

	// BudgetStats aggregates active budgets.
	BudgetStats struct {
		TotalLimit Money
		TotalSpent Money
		OverCount  int
		Percentage float64
	}
)

// ClassifyBudget derives the lifecycle state from the date range and now.
// Both boundaries are inclusive: now == start and now == end are active.
func ClassifyBudget(start, end, now time.Time) BudgetState {
	if now.Before(start) {
		return BudgetUpcoming
	}
	if now.After(end) {
		return BudgetExpired
	}
	return BudgetActive
}

// State classifies the budget relative to now.
func (b Budget) State(now time.Time) BudgetState {
	return ClassifyBudget(b.StartDate, b.EndDate, now)
}

// Progress computes spend percentage and warning tier. A zero limit yields
// zero percent rather than NaN or Inf. The approaching boundary is
// inclusive at 90 percent.
func Progress(spent, limit Money) BudgetProgress {
	p := BudgetProgress{Tier: TierNormal}
	if limit.Cents != 0 {
		p.Percentage = float64(spent.Cents) / float64(limit.Cents) * 100
	}
	if spent.Cents > limit.Cents {
		p.IsOverBudget = true
		p.Tier = TierOver
		return p
	}
	if p.Percentage >= 90 {
		p.Tier = TierApproaching
	}
	return p
}

// Progress reports the budget's own spend against its limit.
func (b Budget) Progress() BudgetProgress {
	return Progress(b.Spent, b.Amount)
}

// Stats aggregates limits and spend across budgets that are active at now.
// Upcoming and expired budgets are excluded entirely.
func Stats(budgets []Budget, now time.Time) BudgetStats {
	var s BudgetStats
	for _, b := range budgets {
		if b.State(now) != BudgetActive {
			continue
		}
		s.TotalLimit.Cents += b.Amount.Cents
		s.TotalSpent.Cents += b.Spent.Cents
		if b.Spent.Cents > b.Amount.Cents {
			s.OverCount++
		}
	}
	if s.TotalLimit.Cents != 0 {
		s.Percentage = float64(s.TotalSpent.Cents) / float64(s.TotalLimit.Cents) * 100
	}
	return s
}
