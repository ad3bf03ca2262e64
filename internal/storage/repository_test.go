package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seedTxns(t *testing.T, repo *SQLiteRepository) []core.Transaction {
	t.Helper()
	txns := []core.Transaction{
		{Date: core.NewDay(2026, 1, 14), Description: "E-DEPOSIT 1", Credit: decimal.RequireFromString("16826.00"), Balance: decimal.RequireFromString("245000.00")},
		{Date: core.NewDay(2026, 1, 15), Description: "CHECK 55866", Debit: decimal.RequireFromString("182.76")},
		{Date: core.NewDay(2026, 1, 16), Description: "ACH PMT VENDOR", Debit: decimal.RequireFromString("5000.00")},
	}
	n, err := repo.InsertTransactions(context.Background(), txns)
	if err != nil {
		t.Fatalf("InsertTransactions() error = %v", err)
	}
	if n != len(txns) {
		t.Fatalf("InsertTransactions() = %d, want %d", n, len(txns))
	}
	return txns
}

func TestRepository_InsertAndList(t *testing.T) {
	repo := testRepo(t)
	seedTxns(t, repo)

	got, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListAll() returned %d transactions, want 3", len(got))
	}
	if got[0].Description != "E-DEPOSIT 1" || !got[0].Credit.Equal(decimal.RequireFromString("16826.00")) {
		t.Errorf("first row = %+v, want the Jan 14 deposit", got[0])
	}
	if got[0].ID == 0 || got[1].ID == 0 {
		t.Error("stored transactions have no assigned ids")
	}
	if !got[0].Balance.Equal(decimal.RequireFromString("245000.00")) {
		t.Errorf("balance round trip = %s, want 245000.00", got[0].Balance)
	}
	if got[1].HasBalance() {
		t.Errorf("unbalanced row came back with balance %s", got[1].Balance)
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("created_at not populated")
	}
}

func TestRepository_ListSince(t *testing.T) {
	repo := testRepo(t)
	seedTxns(t, repo)

	got, err := repo.ListSince(context.Background(), core.NewDay(2026, 1, 15))
	if err != nil {
		t.Fatalf("ListSince() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListSince() returned %d transactions, want 2", len(got))
	}
	for _, txn := range got {
		if txn.Date.Before(core.NewDay(2026, 1, 15)) {
			t.Errorf("ListSince() returned %s, before the cutoff", txn.Date)
		}
	}
}

func TestRepository_ListRange(t *testing.T) {
	repo := testRepo(t)
	seedTxns(t, repo)

	got, err := repo.ListRange(context.Background(), core.NewDay(2026, 1, 15), core.NewDay(2026, 1, 15))
	if err != nil {
		t.Fatalf("ListRange() error = %v", err)
	}
	if len(got) != 1 || got[0].Description != "CHECK 55866" {
		t.Fatalf("ListRange() = %+v, want only the Jan 15 check", got)
	}
}

func TestRepository_UpdateBalance(t *testing.T) {
	repo := testRepo(t)
	seedTxns(t, repo)

	all, _ := repo.ListAll(context.Background())
	want := decimal.RequireFromString("244817.24")
	if err := repo.UpdateBalance(context.Background(), all[1].ID, want); err != nil {
		t.Fatalf("UpdateBalance() error = %v", err)
	}

	all, _ = repo.ListAll(context.Background())
	if !all[1].Balance.Equal(want) {
		t.Errorf("balance after update = %s, want %s", all[1].Balance, want)
	}
	if all[1].Description != "CHECK 55866" {
		t.Errorf("update touched the description: %q", all[1].Description)
	}
}

func TestRepository_Deletes(t *testing.T) {
	ctx := context.Background()

	t.Run("by date range", func(t *testing.T) {
		repo := testRepo(t)
		seedTxns(t, repo)
		n, err := repo.DeleteByDateRange(ctx, core.NewDay(2026, 1, 15), core.NewDay(2026, 1, 16))
		if err != nil {
			t.Fatalf("DeleteByDateRange() error = %v", err)
		}
		if n != 2 {
			t.Errorf("DeleteByDateRange() = %d, want 2", n)
		}
		left, _ := repo.ListAll(ctx)
		if len(left) != 1 {
			t.Errorf("%d transactions left, want 1", len(left))
		}
	})

	t.Run("by ids", func(t *testing.T) {
		repo := testRepo(t)
		seedTxns(t, repo)
		all, _ := repo.ListAll(ctx)
		n, err := repo.DeleteByIDs(ctx, []int64{all[0].ID, all[2].ID})
		if err != nil {
			t.Fatalf("DeleteByIDs() error = %v", err)
		}
		if n != 2 {
			t.Errorf("DeleteByIDs() = %d, want 2", n)
		}
		if n, err := repo.DeleteByIDs(ctx, nil); err != nil || n != 0 {
			t.Errorf("DeleteByIDs(nil) = (%d, %v), want (0, nil)", n, err)
		}
	})

	t.Run("by content", func(t *testing.T) {
		repo := testRepo(t)
		seedTxns(t, repo)
		n, err := repo.DeleteByContent(ctx, "CHECK", decimal.RequireFromString("182.76"))
		if err != nil {
			t.Fatalf("DeleteByContent() error = %v", err)
		}
		if n != 1 {
			t.Errorf("DeleteByContent() = %d, want 1", n)
		}
		n, err = repo.DeleteByContent(ctx, "CHECK", decimal.RequireFromString("999.99"))
		if err != nil {
			t.Fatalf("DeleteByContent() error = %v", err)
		}
		if n != 0 {
			t.Errorf("amount mismatch deleted %d rows, want 0", n)
		}
	})
}

func TestRepository_ForecastRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	entries := []core.ForecastEntry{
		{Date: core.NewDay(2026, 1, 14), Balance: decimal.RequireFromString("245000.00"), Note: "Current balance"},
		{Date: core.NewDay(2026, 1, 15), Balance: decimal.RequireFromString("252000.00")},
		{Date: core.NewDay(2026, 1, 16), Balance: decimal.RequireFromString("146000.00"), Note: "LOW POINT; AmEx payment"},
	}
	if err := repo.ReplaceForecastFrom(ctx, entries[0].Date, entries); err != nil {
		t.Fatalf("ReplaceForecastFrom() error = %v", err)
	}

	got, err := repo.GetForecast(ctx)
	if err != nil {
		t.Fatalf("GetForecast() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("GetForecast() returned %d entries, want 3", len(got))
	}
	if !got[2].Balance.Equal(decimal.RequireFromString("146000.00")) || got[2].Note != "LOW POINT; AmEx payment" {
		t.Errorf("last entry = %+v, want the Jan 16 low point", got[2])
	}

	n, err := repo.CountForecast(ctx)
	if err != nil {
		t.Fatalf("CountForecast() error = %v", err)
	}
	if n != 3 {
		t.Errorf("CountForecast() = %d, want 3", n)
	}

	entry, err := repo.GetForecastEntry(ctx, core.NewDay(2026, 1, 15))
	if err != nil {
		t.Fatalf("GetForecastEntry() error = %v", err)
	}
	if entry == nil || !entry.Balance.Equal(decimal.RequireFromString("252000.00")) {
		t.Errorf("GetForecastEntry() = %+v, want the Jan 15 balance", entry)
	}

	entry, err = repo.GetForecastEntry(ctx, core.NewDay(2026, 3, 1))
	if err != nil {
		t.Fatalf("GetForecastEntry() error = %v", err)
	}
	if entry != nil {
		t.Errorf("GetForecastEntry() for an absent day = %+v, want nil", entry)
	}
}

func TestRepository_ReplaceForecastPreservesHistory(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	past := core.ForecastEntry{Date: core.NewDay(2026, 1, 10), Balance: decimal.RequireFromString("230000.00"), Note: "history"}
	if err := repo.ReplaceForecastFrom(ctx, past.Date, []core.ForecastEntry{past}); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	rebuild := []core.ForecastEntry{
		{Date: core.NewDay(2026, 1, 14), Balance: decimal.RequireFromString("245000.00")},
		{Date: core.NewDay(2026, 1, 15), Balance: decimal.RequireFromString("252000.00")},
	}
	if err := repo.ReplaceForecastFrom(ctx, core.NewDay(2026, 1, 14), rebuild); err != nil {
		t.Fatalf("ReplaceForecastFrom() error = %v", err)
	}

	got, err := repo.GetForecast(ctx)
	if err != nil {
		t.Fatalf("GetForecast() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("GetForecast() returned %d entries, want history plus 2 rebuilt", len(got))
	}
	if got[0].Note != "history" {
		t.Errorf("historical entry rewritten: %+v", got[0])
	}
}

func TestRepository_UpsertForecastEntry(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	day := core.NewDay(2026, 1, 20)
	if err := repo.UpsertForecastEntry(ctx, core.ForecastEntry{Date: day, Balance: decimal.RequireFromString("184000.00")}); err != nil {
		t.Fatalf("UpsertForecastEntry() error = %v", err)
	}
	if err := repo.UpsertForecastEntry(ctx, core.ForecastEntry{Date: day, Balance: decimal.RequireFromString("189000.00"), Note: "revised"}); err != nil {
		t.Fatalf("UpsertForecastEntry() second write error = %v", err)
	}

	entry, err := repo.GetForecastEntry(ctx, day)
	if err != nil {
		t.Fatalf("GetForecastEntry() error = %v", err)
	}
	if entry == nil || !entry.Balance.Equal(decimal.RequireFromString("189000.00")) || entry.Note != "revised" {
		t.Errorf("entry after upsert = %+v, want the revised balance", entry)
	}

	if n, _ := repo.CountForecast(ctx); n != 1 {
		t.Errorf("CountForecast() = %d, want 1", n)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first RunMigrations() error = %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}
}
