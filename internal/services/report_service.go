package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	topCategoryLimit = 8
	topExpenseLimit  = 5

	reportCacheSize = 64
	reportCacheTTL  = 5 * time.Minute
)

// Report is the assembled dashboard view for one time range. When converted
// display is on, all amounts are in Currency and transactions whose currency
// has no rate are excluded and listed in MissingRates.
type Report struct {
	Range         core.TimeRange
	Currency      string
	Summary       core.Summary
	Monthly       []core.MonthPoint
	TopCategories []core.CategoryTotal
	TopExpenses   []core.Transaction
	MissingRates  []string
}

// ReportService derives reports, calendars and heatmaps from the ledger,
// fronted by small TTL caches that writes invalidate wholesale.
type ReportService struct {
	storage *storage.SQLiteRepository
	rates   *RatesService

	reportCache   *cache.LRU[*Report]
	calendarCache *cache.LRU[[]core.DayBucket]
	heatmapCache  *cache.LRU[[]core.HeatmapDay]
}

func NewReportService(storage *storage.SQLiteRepository, rates *RatesService) *ReportService {
	return &ReportService{
		storage:       storage,
		rates:         rates,
		reportCache:   cache.New[*Report](reportCacheSize, reportCacheTTL),
		calendarCache: cache.New[[]core.DayBucket](reportCacheSize, reportCacheTTL),
		heatmapCache:  cache.New[[]core.HeatmapDay](reportCacheSize, reportCacheTTL),
	}
}

// Invalidate drops every cached aggregation. Called after any write.
func (s *ReportService) Invalidate() {
	s.reportCache.Purge()
	s.calendarCache.Purge()
	s.heatmapCache.Purge()
}

// Caches exposes the internal caches for the expiry janitor.
func (s *ReportService) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.reportCache, s.calendarCache, s.heatmapCache}
}

// Build assembles the report for a time range anchored at now.
func (s *ReportService) Build(ctx context.Context, rng core.TimeRange, now time.Time) (*Report, error) {
	settings, err := s.storage.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	key := fmt.Sprintf("report:%s:%s:%s", rng, settings.PreferredCurrency, now.Format("2006-01-02"))
	if cached, ok := s.reportCache.Get(key); ok {
		return cached, nil
	}

	txs, err := s.storage.ListTransactions(ctx, storage.TransactionFilter{})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	txs = core.FilterByRange(txs, rng, now)

	report := &Report{Range: rng}
	if settings.ShowConvertedAmounts && settings.PreferredCurrency != "" {
		table, err := s.rates.Table(ctx)
		if err != nil {
			return nil, err
		}
		txs, report.MissingRates = convertAll(txs, table, settings.PreferredCurrency)
		report.Currency = settings.PreferredCurrency
	}

	loc := settings.Location()
	report.Summary = core.Summarize(txs)
	report.Monthly = core.MonthlySeries(txs, loc)
	report.TopCategories = core.TopExpenseCategories(txs, topCategoryLimit)
	report.TopExpenses = core.TopExpenses(txs, topExpenseLimit)

	s.reportCache.Set(key, report)
	return report, nil
}

// Calendar returns the dense per-day buckets for one month.
func (s *ReportService) Calendar(ctx context.Context, year int, month time.Month) ([]core.DayBucket, error) {
	settings, err := s.storage.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	loc := settings.Location()

	key := fmt.Sprintf("calendar:%d-%02d:%s", year, month, settings.Timezone)
	if cached, ok := s.calendarCache.Get(key); ok {
		return cached, nil
	}

	// Widen the window a day on either side so timezone shifts at the month
	// boundary cannot drop rows.
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc).AddDate(0, 0, -1)
	to := time.Date(year, month+1, 1, 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	txs, err := s.storage.ListTransactions(ctx, storage.TransactionFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	buckets := core.MonthCalendar(txs, year, month, loc)
	s.calendarCache.Set(key, buckets)
	return buckets, nil
}

// HeatmapView returns trailing-weeks daily activity ending with the current
// week.
func (s *ReportService) HeatmapView(ctx context.Context, now time.Time, weeks int, mode core.HeatmapMode) ([]core.HeatmapDay, error) {
	settings, err := s.storage.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	loc := settings.Location()

	key := fmt.Sprintf("heatmap:%d:%s:%s:%s", weeks, mode, now.In(loc).Format("2006-01-02"), settings.Timezone)
	if cached, ok := s.heatmapCache.Get(key); ok {
		return cached, nil
	}

	from := now.In(loc).AddDate(0, 0, -(weeks*7 + 7))
	txs, err := s.storage.ListTransactions(ctx, storage.TransactionFilter{From: from})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	days := core.Heatmap(txs, now, weeks, mode, loc)
	s.heatmapCache.Set(key, days)
	return days, nil
}

// Weekdays sums expenses per weekday over the whole ledger.
func (s *ReportService) Weekdays(ctx context.Context) ([]core.WeekdayAmount, error) {
	settings, err := s.storage.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	txs, err := s.storage.ListTransactions(ctx, storage.TransactionFilter{})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return core.WeekdayExpenses(txs, settings.Location()), nil
}

// convertAll rewrites every transaction amount into the target currency.
// Rows whose currency is missing from the table are dropped and their codes
// returned, sorted.
func convertAll(txs []core.Transaction, table core.RateTable, target string) ([]core.Transaction, []string) {
	out := make([]core.Transaction, 0, len(txs))
	missingSet := map[string]struct{}{}
	for _, tx := range txs {
		converted, err := table.ConvertMoney(tx.Amount, tx.Currency, target)
		if err != nil {
			var missing *core.MissingRateError
			if errors.As(err, &missing) {
				missingSet[missing.Code] = struct{}{}
				continue
			}
			slog.Warn("Unexpected conversion failure", "currency", tx.Currency, "error", err)
			continue
		}
		tx.Amount = converted
		tx.Currency = target
		out = append(out, tx)
	}
	var missing []string
	for code := range missingSet {
		missing = append(missing, code)
	}
	sort.Strings(missing)
	return out, missing
}
