package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// ExportWorker copies committed transactions into the external spreadsheet.
// Change notifications drive the common path; ProcessPending sweeps up rows
// whose notification was lost.
type ExportWorker struct {
	storage   *storage.SQLiteRepository
	appender  sheets.TransactionAppender
	batchSize int
}

func NewExportWorker(storage *storage.SQLiteRepository, appender sheets.TransactionAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleChange reacts to a single change notification. Only transaction
// creates, updates, and committed imports trigger an export; everything else
// is acknowledged and dropped.
func (w *ExportWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	switch {
	case msg.Entity == amqp.EntityTransaction && (msg.Action == amqp.ActionCreated || msg.Action == amqp.ActionUpdated):
		return w.exportByID(ctx, msg.ID)
	case msg.Entity == amqp.EntityImport && msg.Action == amqp.ActionCommitted:
		_, err := w.ProcessPending(ctx)
		return err
	default:
		slog.DebugContext(ctx, "Ignoring change notification",
			"entity", msg.Entity, "action", msg.Action, "id", msg.ID)
		return nil
	}
}

func (w *ExportWorker) exportByID(ctx context.Context, id string) error {
	tx, err := w.storage.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Deleted between notification and processing. Nothing to export.
			slog.WarnContext(ctx, "Transaction gone before export", "id", id)
			return nil
		}
		return fmt.Errorf("load transaction %s: %w", id, err)
	}
	return w.export(ctx, tx)
}

func (w *ExportWorker) export(ctx context.Context, tx core.Transaction) error {
	rowRef, err := w.appender.AppendTransaction(ctx, tx)
	if err != nil {
		if markErr := w.storage.MarkExportError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record export error", "id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("append transaction %s: %w", tx.ID, err)
	}
	if err := w.storage.MarkExported(ctx, tx.ID); err != nil {
		return fmt.Errorf("mark exported %s: %w", tx.ID, err)
	}
	slog.InfoContext(ctx, "Transaction exported", "id", tx.ID, "row", rowRef)
	return nil
}

// ProcessPending exports unexported transactions in batches until none are
// left. A failed row is marked and skipped, so one bad row cannot wedge the
// queue.
func (w *ExportWorker) ProcessPending(ctx context.Context) (int, error) {
	exported := 0
	for {
		pending, err := w.storage.ListUnexported(ctx, w.batchSize)
		if err != nil {
			return exported, fmt.Errorf("list unexported: %w", err)
		}
		if len(pending) == 0 {
			return exported, nil
		}

		slog.InfoContext(ctx, "Exporting pending transactions", "count", len(pending))
		progressed := false
		for _, tx := range pending {
			if err := ctx.Err(); err != nil {
				return exported, err
			}
			if err := w.export(ctx, tx); err != nil {
				slog.ErrorContext(ctx, "Failed to export transaction", "id", tx.ID, "error", err)
				continue
			}
			exported++
			progressed = true
		}
		if !progressed {
			// Every row in the batch failed and was marked, the next
			// ListUnexported call would return a fresh batch. Stop here
			// rather than hammering a broken sink.
			return exported, nil
		}
	}
}

// Supervisor runs the worker's long-lived loops: the change consumer, the
// pending-export sweep, and recurring transaction materialization. Any loop
// failing tears the rest down.
type Supervisor struct {
	exporter  *ExportWorker
	recurring *services.RecurringService
	consumer  *amqp.Client

	exportInterval    time.Duration
	recurringInterval time.Duration
}

// SupervisorOpts wires the loops. Exporter, consumer, and recurring are each
// optional; a nil field skips that loop.
type SupervisorOpts struct {
	Exporter  *ExportWorker
	Recurring *services.RecurringService
	Consumer  *amqp.Client

	ExportInterval    time.Duration
	RecurringInterval time.Duration
}

func NewSupervisor(opts SupervisorOpts) *Supervisor {
	if opts.ExportInterval <= 0 {
		opts.ExportInterval = 5 * time.Minute
	}
	if opts.RecurringInterval <= 0 {
		opts.RecurringInterval = time.Hour
	}
	return &Supervisor{
		exporter:          opts.Exporter,
		recurring:         opts.Recurring,
		consumer:          opts.Consumer,
		exportInterval:    opts.ExportInterval,
		recurringInterval: opts.RecurringInterval,
	}
}

// Run blocks until the context is cancelled or a loop fails.
func (s *Supervisor) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if s.exporter != nil && s.consumer != nil {
		g.Go(func() error {
			if err := s.consumer.ConsumeChanges(ctx, s.exporter.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("consume changes: %w", err)
			}
			return nil
		})
	}

	if s.exporter != nil {
		g.Go(func() error {
			ticker := time.NewTicker(s.exportInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if n, err := s.exporter.ProcessPending(ctx); err != nil {
						slog.ErrorContext(ctx, "Pending export sweep failed", "error", err)
					} else if n > 0 {
						slog.InfoContext(ctx, "Pending export sweep complete", "exported", n)
					}
				}
			}
		})
	}

	if s.recurring != nil {
		g.Go(func() error {
			ticker := time.NewTicker(s.recurringInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case now := <-ticker.C:
					if n, err := s.recurring.MaterializeDue(ctx, now); err != nil {
						slog.ErrorContext(ctx, "Recurring materialization failed", "error", err)
					} else if n > 0 {
						slog.InfoContext(ctx, "Recurring materialization complete", "created", n)
					}
				}
			}
		})
	}

	return g.Wait()
}
