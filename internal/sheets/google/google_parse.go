package google

import (
	"fmt"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// parseRateRows turns raw sheet rows into a rate table. Each row holds a
// currency code in the first cell and a decimal rate relative to base in the
// second. Blank rows, comment rows and unparsable rates are skipped.
func parseRateRows(rows [][]any, base string) core.RateTable {
	table := core.RateTable{Base: base, Rates: make(map[string]float64)}
	table.Rates[base] = 1

	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(toString(row[0])))
		if code == "" || strings.HasPrefix(code, "#") || len(code) != 3 {
			continue
		}
		rate, ok := parseRate(toString(row[1]))
		if !ok || rate <= 0 {
			continue
		}
		table.Rates[code] = rate
	}
	return table
}

func parseRate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	// Normalize decimal comma
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
