package core

import "time"

const (
	IntensityNone   IntensityTier = "none"
	IntensityLow    IntensityTier = "low"
	IntensityMedium IntensityTier = "medium"
	IntensityHigh   IntensityTier = "high"
)

const (
	HeatmapAll         HeatmapMode = "all"
	HeatmapExpenseOnly HeatmapMode = "expense"
)

type (
	IntensityTier string

	HeatmapMode string

	// DayBucket holds one calendar day's activity. Days without
	// transactions still appear with zero sums and empty lists.
	DayBucket struct {
		Day          int
		Income       Money
		Expense      Money
		Transactions []Transaction
	}

	HeatmapDay struct {
		Date      time.Time
		Total     Money
		Intensity IntensityTier
		Future    bool
	}

	WeekdayAmount struct {
		Weekday time.Weekday
		Amount  Money
	}
)

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthCalendar buckets transactions by day of month for the target
// year/month, evaluated in loc. The result is a dense slice over
// 1..daysInMonth, never sparse; dates outside the month are dropped.
func MonthCalendar(txs []Transaction, year int, month time.Month, loc *time.Location) []DayBucket {
	days := DaysInMonth(year, month)
	buckets := make([]DayBucket, days)
	for i := range buckets {
		buckets[i].Day = i + 1
		buckets[i].Transactions = []Transaction{}
	}
	for _, tx := range txs {
		d := tx.Date.In(loc)
		if d.Year() != year || d.Month() != month {
			continue
		}
		day := d.Day()
		if day < 1 || day > days {
			continue
		}
		b := &buckets[day-1]
		switch tx.Type {
		case Income:
			b.Income.Cents += tx.Amount.Cents
		case Expense:
			b.Expense.Cents += tx.Amount.Cents
		}
		b.Transactions = append(b.Transactions, tx)
	}
	return buckets
}

// Heatmap computes per-day activity over a trailing window of full weeks
// ending with the week containing today. Intensity is relative to the
// busiest day in the window; ties at a threshold resolve upward. Days after
// today are computed identically but flagged Future.
func Heatmap(txs []Transaction, today time.Time, weeks int, mode HeatmapMode, loc *time.Location) []HeatmapDay {
	if weeks < 1 {
		weeks = 1
	}
	today = today.In(loc)
	todayKey := dayKey(today)

	end := startOfWeek(today).AddDate(0, 0, 6)
	start := end.AddDate(0, 0, -(weeks*7 - 1))

	totals := make(map[string]int64)
	for _, tx := range txs {
		d := tx.Date.In(loc)
		if mode == HeatmapExpenseOnly && tx.Type != Expense {
			continue
		}
		totals[dayKey(d)] += tx.Amount.Cents
	}

	out := make([]HeatmapDay, 0, weeks*7)
	var max int64
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if t := totals[dayKey(d)]; t > max {
			max = t
		}
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		total := totals[dayKey(d)]
		out = append(out, HeatmapDay{
			Date:      d,
			Total:     Money{Cents: total},
			Intensity: intensity(total, max),
			Future:    dayKey(d) > todayKey,
		})
	}
	return out
}

func intensity(total, max int64) IntensityTier {
	if total == 0 || max == 0 {
		return IntensityNone
	}
	ratio := float64(total) / float64(max)
	switch {
	case ratio > 0.6:
		return IntensityHigh
	case ratio > 0.3:
		return IntensityMedium
	default:
		return IntensityLow
	}
}

// WeekdayExpenses sums expense amounts into exactly seven buckets, one per
// weekday, Sunday first, regardless of which week a date falls in.
func WeekdayExpenses(txs []Transaction, loc *time.Location) []WeekdayAmount {
	out := make([]WeekdayAmount, 7)
	for i := range out {
		out[i].Weekday = time.Weekday(i)
	}
	for _, tx := range txs {
		if tx.Type != Expense {
			continue
		}
		wd := tx.Date.In(loc).Weekday()
		out[wd].Amount.Cents += tx.Amount.Cents
	}
	return out
}

// startOfWeek returns the Sunday beginning the week of d, at midnight.
func startOfWeek(d time.Time) time.Time {
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func dayKey(d time.Time) string {
	return d.Format("2006-01-02")
}
