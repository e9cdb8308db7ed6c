package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// RatesService serves the exchange rate table from local storage and
// refreshes it from the external source only when asked. Conversions are
// always done against the last stored snapshot.
type RatesService struct {
	storage      *storage.SQLiteRepository
	source       sheets.RateReader
	baseCurrency string

	lastRefresh time.Time
}

func NewRatesService(storage *storage.SQLiteRepository, source sheets.RateReader, baseCurrency string) *RatesService {
	return &RatesService{
		storage:      storage,
		source:       source,
		baseCurrency: baseCurrency,
	}
}

// Table returns the stored rate table. With nothing stored yet it returns a
// base-only table, so same-currency conversions still work.
func (s *RatesService) Table(ctx context.Context) (core.RateTable, error) {
	table, err := s.storage.GetRateTable(ctx)
	if err != nil {
		return core.RateTable{}, fmt.Errorf("load rate table: %w", err)
	}
	if len(table.Rates) == 0 {
		table = core.RateTable{
			Base:  s.baseCurrency,
			Rates: map[string]float64{s.baseCurrency: 1},
		}
	}
	return table, nil
}

// Refresh pulls a fresh table from the source and stores it.
func (s *RatesService) Refresh(ctx context.Context) (core.RateTable, error) {
	if s.source == nil {
		return core.RateTable{}, fmt.Errorf("no rate source configured")
	}

	table, err := s.source.ReadRates(ctx)
	if err != nil {
		return core.RateTable{}, fmt.Errorf("fetch rates: %w", err)
	}
	if err := s.storage.SaveRateTable(ctx, table); err != nil {
		return core.RateTable{}, fmt.Errorf("store rates: %w", err)
	}

	s.lastRefresh = time.Now()
	slog.InfoContext(ctx, "Exchange rates refreshed",
		"base", table.Base,
		"count", len(table.Rates))
	return table, nil
}

// LastRefresh reports when Refresh last succeeded in this process.
func (s *RatesService) LastRefresh() time.Time {
	return s.lastRefresh
}
