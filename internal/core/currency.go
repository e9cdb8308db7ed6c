package core

import (
	"fmt"
	"math"
	"sort"
)

// AmountCurrency is a monetary amount tagged with its currency code.
type AmountCurrency struct {
	Amount   Money
	Currency string
}

// RateTable is a point-in-time snapshot of exchange rates. Rates[code] is
// the number of units of that currency per one unit of the base currency.
// The table never updates itself; callers refresh it explicitly.
type RateTable struct {
	Base  string
	Rates map[string]float64
}

// MissingRateError signals a currency code absent from the rate table.
// It is non-fatal: callers omit the currency from converted totals and
// surface the code to the user.
type MissingRateError struct {
	Code string
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("no exchange rate for currency %q", e.Code)
}

// SumByCurrency groups amounts by currency code. An empty input yields an
// empty (non-nil) mapping.
func SumByCurrency(pairs []AmountCurrency) map[string]Money {
	sums := make(map[string]Money, len(pairs))
	for _, p := range pairs {
		s := sums[p.Currency]
		s.Cents += p.Amount.Cents
		sums[p.Currency] = s
	}
	return sums
}

// Convert converts an amount between two currencies in the table:
// amount * rate[to] / rate[from].
func (t RateTable) Convert(amount float64, from, to string) (float64, error) {
	if from == to {
		return amount, nil
	}
	rf, ok := t.Rates[from]
	if !ok || rf == 0 {
		return 0, &MissingRateError{Code: from}
	}
	rt, ok := t.Rates[to]
	if !ok {
		return 0, &MissingRateError{Code: to}
	}
	return amount * (rt / rf), nil
}

// ConvertMoney converts cents between currencies, rounding half away
// from zero.
func (t RateTable) ConvertMoney(m Money, from, to string) (Money, error) {
	v, err := t.Convert(float64(m.Cents), from, to)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: int64(math.Round(v))}, nil
}

// UnifiedTotal converts every amount to the target currency and sums them.
// Currencies missing from the table are left out of the total and reported
// in the second return value, sorted for stable output. An empty input
// yields a zero total.
func (t RateTable) UnifiedTotal(pairs []AmountCurrency, target string) (Money, []string) {
	var total float64
	missingSet := map[string]struct{}{}
	for _, p := range pairs {
		v, err := t.Convert(float64(p.Amount.Cents), p.Currency, target)
		if err != nil {
			missingSet[p.Currency] = struct{}{}
			continue
		}
		total += v
	}
	var missing []string
	for code := range missingSet {
		missing = append(missing, code)
	}
	sort.Strings(missing)
	return Money{Cents: int64(math.Round(total))}, missing
}

// DisplayTotals applies the show-converted policy: when the settings ask
// for converted amounts every value is folded into the preferred currency,
// otherwise the raw per-currency breakdown is returned untouched. Amounts
// in mismatched currencies are never silently summed into one number.
type DisplayTotals struct {
	ByCurrency map[string]Money
	Unified    *Money
	Currency   string
	Missing    []string
}

func TotalsForDisplay(pairs []AmountCurrency, settings Settings, table RateTable) DisplayTotals {
	out := DisplayTotals{ByCurrency: SumByCurrency(pairs)}
	if !settings.ShowConvertedAmounts || settings.PreferredCurrency == "" {
		return out
	}
	total, missing := table.UnifiedTotal(pairs, settings.PreferredCurrency)
	out.Unified = &total
	out.Currency = settings.PreferredCurrency
	out.Missing = missing
	return out
}
