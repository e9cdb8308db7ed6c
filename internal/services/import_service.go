package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/csvimport"
	"fintrack/internal/storage"
)

// ImportService runs CSV imports. Preview and commit share the csvimport
// mapping pass, so a confirmed preview commits byte for byte.
type ImportService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewImportService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *ImportService {
	return &ImportService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// ImportPreview is the user-facing confirmation view of a pending import.
type ImportPreview struct {
	Headers   []string
	Rows      []csvimport.Row
	RowErrors []*csvimport.RowError
	TotalRows int
}

// ImportResult summarizes a committed import.
type ImportResult struct {
	Imported  int
	RowErrors []*csvimport.RowError
}

// Preview parses and maps the file, returning the first rows for
// confirmation along with every row-level problem found.
func (s *ImportService) Preview(filename string, r io.Reader, mapping csvimport.ColumnMapping) (*ImportPreview, error) {
	f, err := csvimport.Parse(filename, r)
	if err != nil {
		return nil, err
	}
	rows, rowErrs, err := csvimport.Preview(f, mapping)
	if err != nil {
		return nil, err
	}
	return &ImportPreview{
		Headers:   f.Headers,
		Rows:      rows,
		RowErrors: rowErrs,
		TotalRows: len(f.Rows),
	}, nil
}

// Commit maps the file again and persists every valid row as a transaction
// on the target account in a single batch. Rows that fail to map are
// reported and skipped, exactly as the preview showed them.
func (s *ImportService) Commit(ctx context.Context, filename string, r io.Reader, mapping csvimport.ColumnMapping, accountID, currency string) (*ImportResult, error) {
	account, err := s.storage.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}
	if currency == "" {
		currency = account.Currency
	}

	f, err := csvimport.Parse(filename, r)
	if err != nil {
		return nil, err
	}
	rows, rowErrs, err := csvimport.MapRows(f, mapping)
	if err != nil {
		return nil, err
	}

	txs := make([]core.Transaction, 0, len(rows))
	var balanceDelta int64
	for _, row := range rows {
		tx := core.Transaction{
			ID:          uuid.NewString(),
			AccountID:   accountID,
			Type:        row.Type,
			Amount:      row.Amount,
			Currency:    currency,
			Date:        row.Date,
			Description: row.Description,
		}
		tx.Normalize()
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("mapped row invalid: %w", err)
		}
		txs = append(txs, tx)
		if tx.Type == core.Expense {
			balanceDelta -= tx.Amount.Cents
		} else {
			balanceDelta += tx.Amount.Cents
		}
	}

	if len(txs) > 0 {
		err := s.storage.WithTx(ctx, func(store *storage.SQLiteRepository) error {
			if err := store.CreateTransactionsBatch(ctx, txs); err != nil {
				return fmt.Errorf("save imported transactions: %w", err)
			}
			if err := store.AdjustAccountBalance(ctx, accountID, balanceDelta); err != nil {
				return fmt.Errorf("adjust account balance: %w", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	slog.InfoContext(ctx, "CSV import committed",
		"file", filename,
		"row_count", len(txs),
		"error_count", len(rowErrs),
		"account_id", accountID)

	if s.amqpClient != nil {
		if err := s.amqpClient.PublishChange(ctx, amqp.EntityImport, amqp.ActionCommitted, accountID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish import message", "error", err)
		}
	}

	return &ImportResult{Imported: len(txs), RowErrors: rowErrs}, nil
}
