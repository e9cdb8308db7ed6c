package google

import (
	"testing"
)

func TestParseRateRows(t *testing.T) {
	rows := [][]any{
		{"EUR", "0.91"},
		{"GBP", 0.78},
		{"jpy", "147,5"},
		{"# comment", "1.0"},
		{"", "2.0"},
		{"CHF"},
		{"BAD", "not a number"},
		{"NOK", "-3"},
	}

	table := parseRateRows(rows, "USD")

	if table.Base != "USD" {
		t.Errorf("Base = %s, want USD", table.Base)
	}
	if table.Rates["USD"] != 1 {
		t.Errorf("base rate = %v, want 1", table.Rates["USD"])
	}

	want := map[string]float64{"EUR": 0.91, "GBP": 0.78, "JPY": 147.5}
	for code, rate := range want {
		if got := table.Rates[code]; got != rate {
			t.Errorf("Rates[%s] = %v, want %v", code, got, rate)
		}
	}

	for _, code := range []string{"BAD", "NOK", "CHF", "#", "# COMMENT"} {
		if _, ok := table.Rates[code]; ok {
			t.Errorf("Rates should not contain %q", code)
		}
	}
	if len(table.Rates) != 4 {
		t.Errorf("len(Rates) = %d, want 4", len(table.Rates))
	}
}
