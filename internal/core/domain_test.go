package core

import (
	"testing"
	"time"
)

func TestTransaction_Normalize(t *testing.T) {
	tests := []struct {
		name       string
		in         Transaction
		wantType   TransactionType
		wantAmount int64
	}{
		{
			name:       "negative amount without type becomes expense magnitude",
			in:         Transaction{Amount: Money{Cents: -4550}},
			wantType:   Expense,
			wantAmount: 4550,
		},
		{
			name:       "positive amount without type becomes income",
			in:         Transaction{Amount: Money{Cents: 12000}},
			wantType:   Income,
			wantAmount: 12000,
		},
		{
			name:       "explicit type wins over sign",
			in:         Transaction{Type: Income, Amount: Money{Cents: -12000}},
			wantType:   Income,
			wantAmount: 12000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Normalize()
			if tt.in.Type != tt.wantType {
				t.Errorf("Normalize() type = %v, want %v", tt.in.Type, tt.wantType)
			}
			if tt.in.Amount.Cents != tt.wantAmount {
				t.Errorf("Normalize() amount = %d, want %d", tt.in.Amount.Cents, tt.wantAmount)
			}
		})
	}
}

func TestBudget_Validate(t *testing.T) {
	base := Budget{
		Amount:    Money{Cents: 10000},
		Currency:  "USD",
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	t.Run("valid budget", func(t *testing.T) {
		if err := base.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("end before start rejected", func(t *testing.T) {
		b := base
		b.EndDate = b.StartDate.AddDate(0, 0, -1)
		if err := b.Validate(); err != ErrDateRange {
			t.Errorf("Validate() = %v, want ErrDateRange", err)
		}
	})

	t.Run("end equal to start rejected", func(t *testing.T) {
		b := base
		b.EndDate = b.StartDate
		if err := b.Validate(); err != ErrDateRange {
			t.Errorf("Validate() = %v, want ErrDateRange", err)
		}
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		b := base
		b.Amount = Money{}
		if err := b.Validate(); err != ErrInvalidAmount {
			t.Errorf("Validate() = %v, want ErrInvalidAmount", err)
		}
	})
}

func TestResolveAppearance(t *testing.T) {
	if got := ResolveIcon("groceries"); got != IconGroceries {
		t.Errorf("ResolveIcon(groceries) = %v", got)
	}
	if got := ResolveIcon("spaceship"); got != IconDefault {
		t.Errorf("ResolveIcon(unknown) = %v, want default", got)
	}
	if got := ResolveColor("teal"); got != ColorTeal {
		t.Errorf("ResolveColor(teal) = %v", got)
	}
	if got := ResolveColor("mauve"); got != ColorGray {
		t.Errorf("ResolveColor(unknown) = %v, want gray", got)
	}
}
