package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// every repository method works both standalone and inside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type SQLiteRepository struct {
	db   dbtx
	pool *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, pool: db}, nil
}

// Ping verifies the database connection is alive.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.pool.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.pool != nil {
		return r.pool.Close()
	}
	return nil
}

// WithTx runs fn against a repository view bound to a single database
// transaction. An error from fn rolls the whole transaction back. Nested
// calls reuse the surrounding transaction.
func (r *SQLiteRepository) WithTx(ctx context.Context, fn func(*SQLiteRepository) error) error {
	if r.pool == nil {
		return fn(r)
	}
	dbTx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := fn(&SQLiteRepository{db: dbTx}); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// --- accounts ---

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, type, currency, balance_cents) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Name, string(a.Type), a.Currency, a.Balance.Cents)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	slog.InfoContext(ctx, "Account saved",
		"id", a.ID,
		"name", a.Name,
		"type", a.Type,
		"currency", a.Currency)
	return nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	var a core.Account
	var accountType string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, type, currency, balance_cents FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &accountType, &a.Currency, &a.Balance.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %s: %w", id, err)
	}
	a.Type = core.AccountType(accountType)
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, currency, balance_cents FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		var accountType string
		if err := rows.Scan(&a.ID, &a.Name, &accountType, &a.Currency, &a.Balance.Cents); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Type = core.AccountType(accountType)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, type = ?, currency = ?, balance_cents = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		a.Name, string(a.Type), a.Currency, a.Balance.Cents, a.ID)
	if err != nil {
		return fmt.Errorf("update account %s: %w", a.ID, err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}
	return requireRow(res)
}

// AdjustAccountBalance applies a signed delta to the stored balance.
func (r *SQLiteRepository) AdjustAccountBalance(ctx context.Context, id string, deltaCents int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		deltaCents, id)
	if err != nil {
		return fmt.Errorf("adjust account balance %s: %w", id, err)
	}
	return requireRow(res)
}

// --- categories ---

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, type, icon, color) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, string(c.Type), string(c.Icon), string(c.Color))
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category saved", "id", c.ID, "name", c.Name)
	return nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	c, err := r.scanCategory(r.db.QueryRowContext(ctx,
		`SELECT id, name, type, icon, color, transaction_count FROM categories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, icon, color, transaction_count FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := r.scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, type = ?, icon = ?, color = ? WHERE id = ?`,
		c.Name, string(c.Type), string(c.Icon), string(c.Color), c.ID)
	if err != nil {
		return fmt.Errorf("update category %s: %w", c.ID, err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return requireRow(res)
}

// IncrementCategoryCount adjusts the denormalized usage counter; delta may
// be negative when a transaction is deleted or recategorized.
func (r *SQLiteRepository) IncrementCategoryCount(ctx context.Context, id string, delta int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE categories SET transaction_count = MAX(0, transaction_count + ?) WHERE id = ?`,
		delta, id)
	if err != nil {
		return fmt.Errorf("increment category count %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteRepository) scanCategory(row rowScanner) (core.Category, error) {
	var c core.Category
	var categoryType, icon, color string
	if err := row.Scan(&c.ID, &c.Name, &categoryType, &icon, &color, &c.TransactionCount); err != nil {
		return core.Category{}, err
	}
	c.Type = core.TransactionType(categoryType)
	c.Icon = core.ResolveIcon(core.IconKey(icon))
	c.Color = core.ResolveColor(core.ColorToken(color))
	return c, nil
}

// --- transactions ---

// TransactionFilter narrows ListTransactions. Zero fields match everything.
type TransactionFilter struct {
	AccountID  string
	CategoryID string
	Type       core.TransactionType
	From       time.Time
	To         time.Time
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, account_id, category_id, type, amount_cents, currency, date, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.AccountID, nullable(tx.CategoryID), string(tx.Type),
		tx.Amount.Cents, tx.Currency, tx.Date.UTC(), tx.Description)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"description", tx.Description,
		"amount_cents", tx.Amount.Cents,
		"type", tx.Type)
	return nil
}

// CreateTransactionsBatch inserts all rows in one database transaction. An
// error on any row rolls back the whole batch.
func (r *SQLiteRepository) CreateTransactionsBatch(ctx context.Context, txs []core.Transaction) error {
	err := r.WithTx(ctx, func(store *SQLiteRepository) error {
		stmt, err := store.db.PrepareContext(ctx,
			`INSERT INTO transactions (id, account_id, category_id, type, amount_cents, currency, date, description)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare batch insert: %w", err)
		}
		defer stmt.Close()

		for _, tx := range txs {
			if _, err := stmt.ExecContext(ctx,
				tx.ID, tx.AccountID, nullable(tx.CategoryID), string(tx.Type),
				tx.Amount.Cents, tx.Currency, tx.Date.UTC(), tx.Description); err != nil {
				return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction batch saved", "row_count", len(txs))
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	tx, err := scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT id, account_id, category_id, type, amount_cents, currency, date, description
		 FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return tx, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, filter TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT id, account_id, category_id, type, amount_cents, currency, date, description FROM transactions`
	var conds []string
	var args []any

	if filter.AccountID != "" {
		conds = append(conds, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.CategoryID != "" {
		conds = append(conds, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(filter.Type))
	}
	if !filter.From.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, filter.To.UTC())
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date DESC, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET account_id = ?, category_id = ?, type = ?, amount_cents = ?,
		 currency = ?, date = ?, description = ?, exported = 0, export_error = 0
		 WHERE id = ?`,
		tx.AccountID, nullable(tx.CategoryID), string(tx.Type), tx.Amount.Cents,
		tx.Currency, tx.Date.UTC(), tx.Description, tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", tx.ID, err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return requireRow(res)
}

// ListUnexported returns transactions not yet pushed to the export sheet,
// oldest first, skipping rows that previously failed.
func (r *SQLiteRepository) ListUnexported(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, category_id, type, amount_cents, currency, date, description
		 FROM transactions WHERE exported = 0 AND export_error = 0
		 ORDER BY date ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unexported transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *SQLiteRepository) MarkExported(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET exported = 1, export_error = 0, exported_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark transaction exported %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) MarkExportError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET export_error = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark transaction export error %s: %w", id, err)
	}
	return nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var tx core.Transaction
	var categoryID sql.NullString
	var txType string
	if err := row.Scan(&tx.ID, &tx.AccountID, &categoryID, &txType,
		&tx.Amount.Cents, &tx.Currency, &tx.Date, &tx.Description); err != nil {
		return core.Transaction{}, err
	}
	tx.CategoryID = categoryID.String
	tx.Type = core.TransactionType(txType)
	return tx, nil
}

// --- budgets ---

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (id, category_id, amount_cents, spent_cents, currency, start_date, end_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, nullable(b.CategoryID), b.Amount.Cents, b.Spent.Cents,
		b.Currency, b.StartDate.UTC(), b.EndDate.UTC())
	if err != nil {
		return fmt.Errorf("create budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved",
		"id", b.ID,
		"category_id", b.CategoryID,
		"amount_cents", b.Amount.Cents)
	return nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx,
		`SELECT id, category_id, amount_cents, spent_cents, currency, start_date, end_date
		 FROM budgets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %s: %w", id, err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category_id, amount_cents, spent_cents, currency, start_date, end_date
		 FROM budgets ORDER BY start_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET category_id = ?, amount_cents = ?, spent_cents = ?, currency = ?,
		 start_date = ?, end_date = ? WHERE id = ?`,
		nullable(b.CategoryID), b.Amount.Cents, b.Spent.Cents, b.Currency,
		b.StartDate.UTC(), b.EndDate.UTC(), b.ID)
	if err != nil {
		return fmt.Errorf("update budget %s: %w", b.ID, err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	return requireRow(res)
}

// AddBudgetSpent applies a signed delta to budgets overlapping the given
// category and date. Deletes pass a negative delta to unwind their effect.
func (r *SQLiteRepository) AddBudgetSpent(ctx context.Context, categoryID string, date time.Time, deltaCents int64) error {
	if categoryID == "" {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET spent_cents = spent_cents + ?
		 WHERE category_id = ? AND start_date <= ? AND end_date >= ?`,
		deltaCents, categoryID, date.UTC(), date.UTC())
	if err != nil {
		return fmt.Errorf("add budget spent for category %s: %w", categoryID, err)
	}
	return nil
}

// SumExpensesInWindow totals expense amounts for a category between two
// dates inclusive. Budget writes seed their spent counter from it, so a
// budget created after the spending still reflects it.
func (r *SQLiteRepository) SumExpensesInWindow(ctx context.Context, categoryID string, from, to time.Time) (core.Money, error) {
	var cents sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(amount_cents) FROM transactions
		 WHERE category_id = ? AND type = ? AND date >= ? AND date <= ?`,
		categoryID, string(core.Expense), from.UTC(), to.UTC()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses for category %s: %w", categoryID, err)
	}
	return core.Money{Cents: cents.Int64}, nil
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var b core.Budget
	var categoryID sql.NullString
	if err := row.Scan(&b.ID, &categoryID, &b.Amount.Cents, &b.Spent.Cents,
		&b.Currency, &b.StartDate, &b.EndDate); err != nil {
		return core.Budget{}, err
	}
	b.CategoryID = categoryID.String
	return b, nil
}

// --- settings ---

func (r *SQLiteRepository) GetSettings(ctx context.Context) (core.Settings, error) {
	var s core.Settings
	var showConverted int64
	err := r.db.QueryRowContext(ctx,
		`SELECT preferred_currency, show_converted_amounts, timezone FROM settings WHERE id = 1`).
		Scan(&s.PreferredCurrency, &showConverted, &s.Timezone)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{PreferredCurrency: "USD", ShowConvertedAmounts: true, Timezone: "UTC"}, nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	s.ShowConvertedAmounts = showConverted != 0
	return s, nil
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, s core.Settings) error {
	showConverted := 0
	if s.ShowConvertedAmounts {
		showConverted = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (id, preferred_currency, show_converted_amounts, timezone)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET preferred_currency = excluded.preferred_currency,
		 show_converted_amounts = excluded.show_converted_amounts, timezone = excluded.timezone`,
		s.PreferredCurrency, showConverted, s.Timezone)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// --- rates ---

// SaveRateTable replaces the stored rate table atomically.
func (r *SQLiteRepository) SaveRateTable(ctx context.Context, table core.RateTable) error {
	err := r.WithTx(ctx, func(store *SQLiteRepository) error {
		if _, err := store.db.ExecContext(ctx, `DELETE FROM rates`); err != nil {
			return fmt.Errorf("clear rates: %w", err)
		}
		for code, rate := range table.Rates {
			if _, err := store.db.ExecContext(ctx,
				`INSERT INTO rates (code, rate, base) VALUES (?, ?, ?)`,
				code, rate, table.Base); err != nil {
				return fmt.Errorf("insert rate %s: %w", code, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Rate table saved", "base", table.Base, "count", len(table.Rates))
	return nil
}

func (r *SQLiteRepository) GetRateTable(ctx context.Context) (core.RateTable, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, rate, base FROM rates`)
	if err != nil {
		return core.RateTable{}, fmt.Errorf("get rate table: %w", err)
	}
	defer rows.Close()

	table := core.RateTable{Rates: make(map[string]float64)}
	for rows.Next() {
		var code, base string
		var rate float64
		if err := rows.Scan(&code, &rate, &base); err != nil {
			return core.RateTable{}, fmt.Errorf("scan rate: %w", err)
		}
		table.Base = base
		table.Rates[code] = rate
	}
	return table, rows.Err()
}

// --- recurring transactions ---

// RecurringTransaction is a template materialized into real transactions
// by the worker according to its recurrence rule.
type RecurringTransaction struct {
	ID               string
	AccountID        string
	CategoryID       string
	Type             core.TransactionType
	Amount           core.Money
	Currency         string
	Description      string
	Rule             string
	StartDate        time.Time
	LastMaterialized time.Time
}

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rec RecurringTransaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_transactions (id, account_id, category_id, type, amount_cents, currency, description, rule, start_date, last_materialized)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.AccountID, nullable(rec.CategoryID), string(rec.Type),
		rec.Amount.Cents, rec.Currency, rec.Description, rec.Rule,
		rec.StartDate.UTC(), nullTime(rec.LastMaterialized))
	if err != nil {
		return fmt.Errorf("create recurring transaction: %w", err)
	}

	slog.InfoContext(ctx, "Recurring transaction saved", "id", rec.ID, "rule", rec.Rule)
	return nil
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context) ([]RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, category_id, type, amount_cents, currency, description, rule, start_date, last_materialized
		 FROM recurring_transactions`)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	defer rows.Close()

	var recs []RecurringTransaction
	for rows.Next() {
		var rec RecurringTransaction
		var categoryID sql.NullString
		var recType string
		var last sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.AccountID, &categoryID, &recType,
			&rec.Amount.Cents, &rec.Currency, &rec.Description, &rec.Rule,
			&rec.StartDate, &last); err != nil {
			return nil, fmt.Errorf("scan recurring transaction: %w", err)
		}
		rec.CategoryID = categoryID.String
		rec.Type = core.TransactionType(recType)
		rec.LastMaterialized = last.Time
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (r *SQLiteRepository) MarkMaterialized(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET last_materialized = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("mark recurring materialized %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring transaction %s: %w", id, err)
	}
	return requireRow(res)
}

// --- helpers ---

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
