package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teambition/rrule-go"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// backfillWindow bounds how far back a never-materialized template is
// expanded, so a template created long ago does not flood the ledger.
const backfillWindow = 31 * 24 * time.Hour

var ErrInvalidRule = errors.New("invalid recurrence rule")

// RecurringService expands recurrence rules into real transactions.
type RecurringService struct {
	storage *storage.SQLiteRepository
	txs     *TransactionService
}

func NewRecurringService(storage *storage.SQLiteRepository, txs *TransactionService) *RecurringService {
	return &RecurringService{
		storage: storage,
		txs:     txs,
	}
}

// Create validates the recurrence rule and stores the template.
func (s *RecurringService) Create(ctx context.Context, rec storage.RecurringTransaction) (storage.RecurringTransaction, error) {
	if _, err := rrule.StrToRRule(rec.Rule); err != nil {
		return storage.RecurringTransaction{}, fmt.Errorf("%w %q: %v", ErrInvalidRule, rec.Rule, err)
	}
	if rec.Amount.Cents <= 0 {
		return storage.RecurringTransaction{}, core.ErrInvalidAmount
	}
	if !rec.Type.Valid() {
		return storage.RecurringTransaction{}, core.ErrInvalidType
	}
	if rec.StartDate.IsZero() {
		rec.StartDate = time.Now().UTC()
	}
	if err := s.storage.CreateRecurring(ctx, rec); err != nil {
		return storage.RecurringTransaction{}, err
	}
	return rec, nil
}

func (s *RecurringService) List(ctx context.Context) ([]storage.RecurringTransaction, error) {
	return s.storage.ListRecurring(ctx)
}

func (s *RecurringService) Delete(ctx context.Context, id string) error {
	return s.storage.DeleteRecurring(ctx, id)
}

// MaterializeDue creates transactions for every occurrence of every
// template that falls due at or before now. Failures on one template are
// logged and do not stop the others.
func (s *RecurringService) MaterializeDue(ctx context.Context, now time.Time) (int, error) {
	recs, err := s.storage.ListRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring transactions: %w", err)
	}

	created := 0
	for _, rec := range recs {
		n, err := s.materialize(ctx, rec, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to materialize recurring transaction",
				"id", rec.ID, "rule", rec.Rule, "error", err)
			continue
		}
		created += n
	}
	return created, nil
}

func (s *RecurringService) materialize(ctx context.Context, rec storage.RecurringTransaction, now time.Time) (int, error) {
	r, err := rrule.StrToRRule(rec.Rule)
	if err != nil {
		return 0, fmt.Errorf("parse rule: %w", err)
	}
	// The cadence is anchored to the template's start date, never to the
	// worker's tick time, so occurrence dates stay stable no matter when
	// the worker happens to run.
	r.DTStart(rec.StartDate)

	after := rec.LastMaterialized
	if after.IsZero() {
		after = now.Add(-backfillWindow)
	}

	occurrences := r.Between(after.Add(time.Second), now, true)
	for _, due := range occurrences {
		tx := core.Transaction{
			AccountID:   rec.AccountID,
			CategoryID:  rec.CategoryID,
			Type:        rec.Type,
			Amount:      rec.Amount,
			Currency:    rec.Currency,
			Date:        due,
			Description: rec.Description,
		}
		if _, err := s.txs.Create(ctx, tx); err != nil {
			return 0, fmt.Errorf("create occurrence at %s: %w", due.Format("2006-01-02"), err)
		}
	}

	if len(occurrences) > 0 {
		// Record the last occurrence, not the tick time, so the next run
		// resumes exactly where this one stopped.
		last := occurrences[len(occurrences)-1]
		if err := s.storage.MarkMaterialized(ctx, rec.ID, last); err != nil {
			return len(occurrences), err
		}
		slog.InfoContext(ctx, "Recurring transaction materialized",
			"id", rec.ID,
			"occurrences", len(occurrences))
	}
	return len(occurrences), nil
}
