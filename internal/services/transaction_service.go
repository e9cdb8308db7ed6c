package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// TransactionService orchestrates transaction writes across SQLite and AMQP,
// keeping the denormalized account balance, category counters and budget
// spend in step with every change.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewTransactionService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// Create normalizes, validates and saves a transaction, then applies its
// effects and publishes a change message.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Normalize()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	if _, err := s.storage.GetAccount(ctx, tx.AccountID); err != nil {
		return core.Transaction{}, fmt.Errorf("resolve account: %w", err)
	}

	err := s.storage.WithTx(ctx, func(store *storage.SQLiteRepository) error {
		if err := store.CreateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("save transaction: %w", err)
		}
		return applyEffects(ctx, store, tx, 1)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	s.publishChange(ctx, amqp.EntityTransaction, amqp.ActionCreated, tx.ID)
	return tx, nil
}

// Update rewrites a transaction, reversing the old row's effects and
// applying the new ones in one database transaction, so a failure anywhere
// leaves balances and counters untouched.
func (s *TransactionService) Update(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Normalize()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	old, err := s.storage.GetTransaction(ctx, tx.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction: %w", err)
	}
	if _, err := s.storage.GetAccount(ctx, tx.AccountID); err != nil {
		return core.Transaction{}, fmt.Errorf("resolve account: %w", err)
	}

	err = s.storage.WithTx(ctx, func(store *storage.SQLiteRepository) error {
		if err := applyEffects(ctx, store, old, -1); err != nil {
			return err
		}
		if err := store.UpdateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		return applyEffects(ctx, store, tx, 1)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	s.publishChange(ctx, amqp.EntityTransaction, amqp.ActionUpdated, tx.ID)
	return tx, nil
}

// Delete removes a transaction and unwinds its effects atomically.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	old, err := s.storage.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	err = s.storage.WithTx(ctx, func(store *storage.SQLiteRepository) error {
		if err := store.DeleteTransaction(ctx, id); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		return applyEffects(ctx, store, old, -1)
	})
	if err != nil {
		return err
	}

	s.publishChange(ctx, amqp.EntityTransaction, amqp.ActionDeleted, id)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

// List returns transactions matching the filter. A non-empty query further
// narrows the result with fuzzy matching on the description.
func (s *TransactionService) List(ctx context.Context, filter storage.TransactionFilter, query string) ([]core.Transaction, error) {
	txs, err := s.storage.ListTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return txs, nil
	}

	matched := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if fuzzy.MatchNormalizedFold(query, tx.Description) {
			matched = append(matched, tx)
		}
	}
	return matched, nil
}

// applyEffects pushes a transaction's side effects with the given direction:
// +1 when the row comes into existence, -1 when it goes away. It runs
// against the transaction-bound store handed out by WithTx, so the effects
// commit or roll back together with the row write.
func applyEffects(ctx context.Context, store *storage.SQLiteRepository, tx core.Transaction, direction int64) error {
	delta := tx.Amount.Cents * direction
	if tx.Type == core.Expense {
		delta = -delta
	}
	if err := store.AdjustAccountBalance(ctx, tx.AccountID, delta); err != nil {
		return fmt.Errorf("adjust account balance: %w", err)
	}

	if tx.CategoryID != "" {
		if err := store.IncrementCategoryCount(ctx, tx.CategoryID, direction); err != nil {
			return fmt.Errorf("adjust category count: %w", err)
		}
		if tx.Type == core.Expense {
			if err := store.AddBudgetSpent(ctx, tx.CategoryID, tx.Date, tx.Amount.Cents*direction); err != nil {
				return fmt.Errorf("adjust budget spent: %w", err)
			}
		}
	}
	return nil
}

// publishChange is best effort: the write already succeeded locally, so a
// broker outage must not fail the request.
func (s *TransactionService) publishChange(ctx context.Context, entity, action, id string) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping change message")
		return
	}
	if err := s.amqpClient.PublishChange(ctx, entity, action, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"entity", entity, "action", action, "id", id, "error", err)
	}
}

// Close closes both storage and AMQP connections
func (s *TransactionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}

	return nil
}
