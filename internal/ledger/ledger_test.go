package ledger

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

// memStore is an in-memory Store used across the package tests.
type memStore struct {
	txns   []core.Transaction
	nextID int64
}

func (m *memStore) InsertTransactions(_ context.Context, txns []core.Transaction) (int, error) {
	for _, t := range txns {
		m.nextID++
		t.ID = m.nextID
		m.txns = append(m.txns, t)
	}
	return len(txns), nil
}

func (m *memStore) sorted() []core.Transaction {
	out := make([]core.Transaction, len(m.txns))
	copy(out, m.txns)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memStore) ListAll(_ context.Context) ([]core.Transaction, error) {
	return m.sorted(), nil
}

func (m *memStore) ListSince(_ context.Context, from core.Day) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range m.sorted() {
		if !t.Date.Before(from) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) UpdateBalance(_ context.Context, id int64, balance decimal.Decimal) error {
	for i := range m.txns {
		if m.txns[i].ID == id {
			m.txns[i].Balance = balance
			return nil
		}
	}
	return errors.New("no such transaction")
}

func (m *memStore) DeleteByDateRange(_ context.Context, from, to core.Day) (int, error) {
	return m.deleteWhere(func(t core.Transaction) bool {
		return !t.Date.Before(from) && !t.Date.After(to)
	}), nil
}

func (m *memStore) DeleteByIDs(_ context.Context, ids []int64) (int, error) {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return m.deleteWhere(func(t core.Transaction) bool {
		_, ok := set[t.ID]
		return ok
	}), nil
}

func (m *memStore) DeleteByContent(_ context.Context, description string, amount decimal.Decimal) (int, error) {
	return m.deleteWhere(func(t core.Transaction) bool {
		if !strings.Contains(t.Description, description) {
			return false
		}
		return amount.IsZero() || t.Debit.Equal(amount) || t.Credit.Equal(amount)
	}), nil
}

func (m *memStore) deleteWhere(match func(core.Transaction) bool) int {
	kept := m.txns[:0]
	removed := 0
	for _, t := range m.txns {
		if match(t) {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	m.txns = kept
	return removed
}

func txn(date core.Day, desc string, debit, credit int64) core.Transaction {
	return core.Transaction{
		Date:        date,
		Description: desc,
		Debit:       decimal.NewFromInt(debit),
		Credit:      decimal.NewFromInt(credit),
	}
}

func TestDedupe(t *testing.T) {
	jan20 := core.NewDay(2026, 1, 20)

	existing := []core.Transaction{
		txn(jan20, "E-DEPOSIT 1", 0, 16826),
	}
	candidates := []core.Transaction{
		txn(jan20, "E-DEPOSIT 1", 0, 16826), // already stored
		txn(jan20, "CHECK 55866", 182, 0),   // new
		txn(jan20, "CHECK 55866", 182, 0),   // duplicated within the paste
	}

	fresh, skipped := Dedupe(candidates, existing)
	if len(fresh) != 1 {
		t.Fatalf("Dedupe() kept %d, want 1", len(fresh))
	}
	if skipped != 2 {
		t.Errorf("Dedupe() skipped %d, want 2", skipped)
	}
	if fresh[0].Description != "CHECK 55866" {
		t.Errorf("kept %q, want the check", fresh[0].Description)
	}
}

func TestDedupe_BalanceDoesNotBlockMatch(t *testing.T) {
	jan20 := core.NewDay(2026, 1, 20)

	stored := txn(jan20, "E-DEPOSIT 1", 0, 16826)
	stored.Balance = decimal.NewFromInt(200000)
	resubmitted := txn(jan20, "E-DEPOSIT 1", 0, 16826) // no balance this time

	fresh, skipped := Dedupe([]core.Transaction{resubmitted}, []core.Transaction{stored})
	if len(fresh) != 0 || skipped != 1 {
		t.Errorf("Dedupe() = %d fresh, %d skipped; want 0 fresh, 1 skipped", len(fresh), skipped)
	}
}

func TestLookbackStart(t *testing.T) {
	candidates := []core.Transaction{
		txn(core.NewDay(2026, 1, 22), "B", 1, 0),
		txn(core.NewDay(2026, 1, 20), "A", 1, 0),
	}
	want := core.NewDay(2026, 1, 13)
	if got := LookbackStart(candidates); !got.Equal(want) {
		t.Errorf("LookbackStart() = %s, want %s", got, want)
	}
}

func TestCalculator_FillForward(t *testing.T) {
	store := &memStore{}
	ctx := context.Background()

	anchored := txn(core.NewDay(2026, 1, 14), "WIRE IN", 0, 45000)
	anchored.Balance = decimal.NewFromInt(245000)
	_, _ = store.InsertTransactions(ctx, []core.Transaction{
		anchored,
		txn(core.NewDay(2026, 1, 15), "CHECK 100", 5000, 0),
		txn(core.NewDay(2026, 1, 16), "E-DEPOSIT", 0, 20000),
	})

	calc := NewCalculator(store)
	updated, err := calc.FillForward(ctx, decimal.Zero)
	if err != nil {
		t.Fatalf("FillForward() error = %v", err)
	}
	if updated != 2 {
		t.Errorf("FillForward() updated %d, want 2", updated)
	}

	txns, _ := store.ListAll(ctx)
	if !txns[1].Balance.Equal(decimal.NewFromInt(240000)) {
		t.Errorf("balance after check = %s, want 240000", txns[1].Balance)
	}
	if !txns[2].Balance.Equal(decimal.NewFromInt(260000)) {
		t.Errorf("balance after deposit = %s, want 260000", txns[2].Balance)
	}
}

func TestCalculator_FillForward_FallbackWhenNoAnchor(t *testing.T) {
	store := &memStore{}
	ctx := context.Background()
	_, _ = store.InsertTransactions(ctx, []core.Transaction{
		txn(core.NewDay(2026, 1, 15), "CHECK 100", 200, 0),
		txn(core.NewDay(2026, 1, 16), "E-DEPOSIT", 0, 100),
	})

	calc := NewCalculator(store)
	if _, err := calc.FillForward(ctx, decimal.NewFromInt(1000)); err != nil {
		t.Fatalf("FillForward() error = %v", err)
	}

	txns, _ := store.ListAll(ctx)
	if !txns[0].Balance.Equal(decimal.NewFromInt(800)) {
		t.Errorf("first balance = %s, want 800", txns[0].Balance)
	}
	if !txns[1].Balance.Equal(decimal.NewFromInt(900)) {
		t.Errorf("second balance = %s, want 900", txns[1].Balance)
	}
}

func TestCalculator_FillForward_DoesNotOverwriteKnown(t *testing.T) {
	store := &memStore{}
	ctx := context.Background()

	known := txn(core.NewDay(2026, 1, 15), "CHECK 100", 200, 0)
	known.Balance = decimal.NewFromInt(5000)
	_, _ = store.InsertTransactions(ctx, []core.Transaction{known})

	calc := NewCalculator(store)
	updated, err := calc.FillForward(ctx, decimal.NewFromInt(999))
	if err != nil {
		t.Fatalf("FillForward() error = %v", err)
	}
	if updated != 0 {
		t.Errorf("FillForward() updated %d, want 0", updated)
	}

	txns, _ := store.ListAll(ctx)
	if !txns[0].Balance.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("stored balance = %s, want untouched 5000", txns[0].Balance)
	}
}

func TestCalculator_AnchorBackward(t *testing.T) {
	store := &memStore{}
	ctx := context.Background()
	_, _ = store.InsertTransactions(ctx, []core.Transaction{
		txn(core.NewDay(2026, 1, 14), "OLD ENTRY", 0, 100),
		txn(core.NewDay(2026, 1, 15), "CHECK 100", 5000, 0),
		txn(core.NewDay(2026, 1, 16), "E-DEPOSIT", 0, 20000),
	})

	calc := NewCalculator(store)
	anchor := decimal.NewFromInt(260000)
	updated, err := calc.AnchorBackward(ctx, anchor, core.NewDay(2026, 1, 15))
	if err != nil {
		t.Fatalf("AnchorBackward() error = %v", err)
	}
	if updated != 2 {
		t.Errorf("AnchorBackward() updated %d, want 2", updated)
	}

	txns, _ := store.ListAll(ctx)
	if txns[0].HasBalance() {
		t.Errorf("entry before the anchor window was touched: %s", txns[0].Balance)
	}
	if !txns[2].Balance.Equal(anchor) {
		t.Errorf("newest balance = %s, want anchor %s", txns[2].Balance, anchor)
	}
	// Forward chaining from the older rewritten balance reproduces the anchor.
	derived := txns[1].Balance.Add(txns[2].Credit).Sub(txns[2].Debit)
	if !derived.Equal(anchor) {
		t.Errorf("forward recompute = %s, want anchor %s", derived, anchor)
	}
}

func TestCalculator_AnchorBackward_EmptyLedger(t *testing.T) {
	calc := NewCalculator(&memStore{})
	_, err := calc.AnchorBackward(context.Background(), decimal.NewFromInt(100), core.NewDay(2026, 1, 15))
	if !errors.Is(err, core.ErrNoTransactions) {
		t.Errorf("AnchorBackward() error = %v, want ErrNoTransactions", err)
	}
}

func TestLatestBalance(t *testing.T) {
	withBal := txn(core.NewDay(2026, 1, 15), "A", 0, 100)
	withBal.Balance = decimal.NewFromInt(500)
	txns := []core.Transaction{
		withBal,
		txn(core.NewDay(2026, 1, 16), "B", 0, 100), // no balance yet
	}

	got, ok := LatestBalance(txns)
	if !ok || !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("LatestBalance() = %s, %v; want 500, true", got, ok)
	}

	if _, ok := LatestBalance(nil); ok {
		t.Error("LatestBalance(nil) reported a balance")
	}
}
