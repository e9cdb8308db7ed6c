package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testAccount(t *testing.T, repo *SQLiteRepository) core.Account {
	t.Helper()
	a := core.Account{ID: "acc-1", Name: "Checking", Type: core.AccountBank, Currency: "USD"}
	if err := repo.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	return a
}

func TestWithTxRollsBackOnError(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	a := testAccount(t, repo)

	failed := errors.New("boom")
	err := repo.WithTx(ctx, func(store *SQLiteRepository) error {
		if err := store.AdjustAccountBalance(ctx, a.ID, 500); err != nil {
			return err
		}
		return failed
	})
	if !errors.Is(err, failed) {
		t.Fatalf("WithTx() error = %v, want the callback error", err)
	}

	got, _ := repo.GetAccount(ctx, a.ID)
	if got.Balance.Cents != 0 {
		t.Errorf("Balance = %d, want 0 after rollback", got.Balance.Cents)
	}

	err = repo.WithTx(ctx, func(store *SQLiteRepository) error {
		return store.AdjustAccountBalance(ctx, a.ID, 500)
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}
	got, _ = repo.GetAccount(ctx, a.ID)
	if got.Balance.Cents != 500 {
		t.Errorf("Balance = %d, want 500 after commit", got.Balance.Cents)
	}
}

func TestAccountCRUD(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	a := testAccount(t, repo)

	got, err := repo.GetAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if got != a {
		t.Errorf("GetAccount() = %+v, want %+v", got, a)
	}

	if err := repo.AdjustAccountBalance(ctx, a.ID, 1500); err != nil {
		t.Fatalf("AdjustAccountBalance() error = %v", err)
	}
	if err := repo.AdjustAccountBalance(ctx, a.ID, -500); err != nil {
		t.Fatalf("AdjustAccountBalance() error = %v", err)
	}
	got, _ = repo.GetAccount(ctx, a.ID)
	if got.Balance.Cents != 1000 {
		t.Errorf("Balance = %d, want 1000", got.Balance.Cents)
	}

	if err := repo.DeleteAccount(ctx, a.ID); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}
	if _, err := repo.GetAccount(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAccount() after delete = %v, want ErrNotFound", err)
	}
}

func TestUpdateMissingRowReturnsNotFound(t *testing.T) {
	repo := testRepo(t)
	err := repo.UpdateAccount(context.Background(), core.Account{ID: "nope", Name: "x", Type: core.AccountCash, Currency: "USD"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateAccount() = %v, want ErrNotFound", err)
	}
}

func TestTransactionFilters(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	a := testAccount(t, repo)

	day := func(d int) time.Time { return time.Date(2025, 3, d, 12, 0, 0, 0, time.UTC) }
	txs := []core.Transaction{
		{ID: "t1", AccountID: a.ID, Type: core.Expense, Amount: core.Money{Cents: 500}, Currency: "USD", Date: day(1), Description: "coffee"},
		{ID: "t2", AccountID: a.ID, Type: core.Income, Amount: core.Money{Cents: 100000}, Currency: "USD", Date: day(5), Description: "salary"},
		{ID: "t3", AccountID: a.ID, Type: core.Expense, Amount: core.Money{Cents: 2500}, Currency: "USD", Date: day(20), Description: "books"},
	}
	if err := repo.CreateTransactionsBatch(ctx, txs); err != nil {
		t.Fatalf("CreateTransactionsBatch() error = %v", err)
	}

	tests := []struct {
		name   string
		filter TransactionFilter
		want   int
	}{
		{"no filter", TransactionFilter{}, 3},
		{"by type", TransactionFilter{Type: core.Expense}, 2},
		{"by range", TransactionFilter{From: day(2), To: day(10)}, 1},
		{"by account", TransactionFilter{AccountID: a.ID}, 3},
		{"wrong account", TransactionFilter{AccountID: "other"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListTransactions(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListTransactions() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("ListTransactions() returned %d rows, want %d", len(got), tt.want)
			}
		})
	}
}

func TestExportTracking(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	a := testAccount(t, repo)

	tx := core.Transaction{
		ID: "t1", AccountID: a.ID, Type: core.Expense,
		Amount: core.Money{Cents: 999}, Currency: "USD",
		Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Description: "lunch",
	}
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	pending, err := repo.ListUnexported(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnexported() error = %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("ListUnexported() = %d rows, want 1", len(pending))
	}

	if err := repo.MarkExported(ctx, tx.ID); err != nil {
		t.Fatalf("MarkExported() error = %v", err)
	}
	pending, _ = repo.ListUnexported(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("ListUnexported() after export = %d rows, want 0", len(pending))
	}

	// Updating a row re-queues it for export.
	tx.Description = "lunch (edited)"
	if err := repo.UpdateTransaction(ctx, tx); err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	pending, _ = repo.ListUnexported(ctx, 10)
	if len(pending) != 1 {
		t.Errorf("ListUnexported() after update = %d rows, want 1", len(pending))
	}

	// Failed rows are skipped until cleared.
	if err := repo.MarkExportError(ctx, tx.ID); err != nil {
		t.Fatalf("MarkExportError() error = %v", err)
	}
	pending, _ = repo.ListUnexported(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("ListUnexported() after error = %d rows, want 0", len(pending))
	}
}

func TestBudgetSpentOverlap(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	cat := core.Category{ID: "cat-1", Name: "Groceries", Type: core.Expense}
	if err := repo.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}

	b := core.Budget{
		ID: "b1", CategoryID: cat.ID,
		Amount: core.Money{Cents: 20000}, Currency: "USD",
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.CreateBudget(ctx, b); err != nil {
		t.Fatalf("CreateBudget() error = %v", err)
	}

	inWindow := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	outOfWindow := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)

	if err := repo.AddBudgetSpent(ctx, cat.ID, inWindow, 4500); err != nil {
		t.Fatalf("AddBudgetSpent() error = %v", err)
	}
	if err := repo.AddBudgetSpent(ctx, cat.ID, outOfWindow, 9999); err != nil {
		t.Fatalf("AddBudgetSpent() error = %v", err)
	}

	got, err := repo.GetBudget(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBudget() error = %v", err)
	}
	if got.Spent.Cents != 4500 {
		t.Errorf("Spent = %d, want 4500 (out-of-window delta must not apply)", got.Spent.Cents)
	}
}

func TestCategoryCountNeverNegative(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	cat := core.Category{ID: "cat-1", Name: "Misc", Type: core.Expense}
	if err := repo.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}

	if err := repo.IncrementCategoryCount(ctx, cat.ID, -3); err != nil {
		t.Fatalf("IncrementCategoryCount() error = %v", err)
	}
	got, err := repo.GetCategory(ctx, cat.ID)
	if err != nil {
		t.Fatalf("GetCategory() error = %v", err)
	}
	if got.TransactionCount != 0 {
		t.Errorf("TransactionCount = %d, want 0", got.TransactionCount)
	}
}

func TestSettingsDefaultsAndRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	s, err := repo.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if s.PreferredCurrency != "USD" || !s.ShowConvertedAmounts {
		t.Errorf("default settings = %+v", s)
	}

	want := core.Settings{PreferredCurrency: "EUR", ShowConvertedAmounts: false, Timezone: "Europe/Rome"}
	if err := repo.SaveSettings(ctx, want); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	got, err := repo.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if got != want {
		t.Errorf("GetSettings() = %+v, want %+v", got, want)
	}
}

func TestRateTableRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	table := core.RateTable{Base: "USD", Rates: map[string]float64{"USD": 1, "EUR": 0.91, "GBP": 0.78}}
	if err := repo.SaveRateTable(ctx, table); err != nil {
		t.Fatalf("SaveRateTable() error = %v", err)
	}

	got, err := repo.GetRateTable(ctx)
	if err != nil {
		t.Fatalf("GetRateTable() error = %v", err)
	}
	if got.Base != "USD" || len(got.Rates) != 3 || got.Rates["EUR"] != 0.91 {
		t.Errorf("GetRateTable() = %+v", got)
	}

	// A second save replaces rather than appends.
	if err := repo.SaveRateTable(ctx, core.RateTable{Base: "EUR", Rates: map[string]float64{"EUR": 1}}); err != nil {
		t.Fatalf("SaveRateTable() error = %v", err)
	}
	got, _ = repo.GetRateTable(ctx)
	if got.Base != "EUR" || len(got.Rates) != 1 {
		t.Errorf("GetRateTable() after replace = %+v", got)
	}
}

func TestRecurringLifecycle(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	a := testAccount(t, repo)

	rec := RecurringTransaction{
		ID: "r1", AccountID: a.ID, Type: core.Expense,
		Amount: core.Money{Cents: 1200}, Currency: "USD",
		Description: "streaming", Rule: "FREQ=MONTHLY;BYMONTHDAY=1",
		StartDate: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.CreateRecurring(ctx, rec); err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	recs, err := repo.ListRecurring(ctx)
	if err != nil {
		t.Fatalf("ListRecurring() error = %v", err)
	}
	if len(recs) != 1 || recs[0].Rule != rec.Rule {
		t.Fatalf("ListRecurring() = %+v", recs)
	}
	if !recs[0].StartDate.Equal(rec.StartDate) {
		t.Errorf("StartDate = %v, want %v", recs[0].StartDate, rec.StartDate)
	}
	if !recs[0].LastMaterialized.IsZero() {
		t.Error("LastMaterialized should start zero")
	}

	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.MarkMaterialized(ctx, rec.ID, at); err != nil {
		t.Fatalf("MarkMaterialized() error = %v", err)
	}
	recs, _ = repo.ListRecurring(ctx)
	if !recs[0].LastMaterialized.Equal(at) {
		t.Errorf("LastMaterialized = %v, want %v", recs[0].LastMaterialized, at)
	}

	if err := repo.DeleteRecurring(ctx, rec.ID); err != nil {
		t.Fatalf("DeleteRecurring() error = %v", err)
	}
	recs, _ = repo.ListRecurring(ctx)
	if len(recs) != 0 {
		t.Errorf("ListRecurring() after delete = %d rows", len(recs))
	}
}
