package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

// Store is the transaction storage surface the ledger package needs.
// Listings are ordered by date, then insertion id.
type Store interface {
	InsertTransactions(ctx context.Context, txns []core.Transaction) (int, error)
	ListAll(ctx context.Context) ([]core.Transaction, error)
	ListSince(ctx context.Context, from core.Day) ([]core.Transaction, error)
	UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error
	DeleteByDateRange(ctx context.Context, from, to core.Day) (int, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int, error)
	DeleteByContent(ctx context.Context, description string, amount decimal.Decimal) (int, error)
}

// Calculator assigns balances to transactions that lack one by chaining
// debits and credits from a known anchor.
type Calculator struct {
	store Store
}

func NewCalculator(store Store) *Calculator {
	return &Calculator{store: store}
}

// FillForward walks the ledger oldest to newest, filling in missing
// balances from the most recent known good one. fallback is used as the
// starting balance when no transaction carries a balance at all
// (typically the current forecast balance). A stored balance encountered
// mid-walk becomes the new anchor. Returns how many rows were updated.
func (c *Calculator) FillForward(ctx context.Context, fallback decimal.Decimal) (int, error) {
	txns, err := c.store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}

	running := fallback
	start := 0
	for i := len(txns) - 1; i >= 0; i-- {
		if txns[i].HasBalance() {
			running = txns[i].Balance
			start = i + 1
			break
		}
	}

	updated := 0
	for i := start; i < len(txns); i++ {
		t := txns[i]
		if t.HasBalance() {
			running = t.Balance
			continue
		}
		running = running.Add(t.Credit).Sub(t.Debit)
		if err := c.store.UpdateBalance(ctx, t.ID, running); err != nil {
			return updated, fmt.Errorf("update balance for %d: %w", t.ID, err)
		}
		updated++
	}

	slog.DebugContext(ctx, "Forward balance fill complete",
		"updated", updated,
		"transactions", len(txns))
	return updated, nil
}

// AnchorBackward re-derives balances from an operator-confirmed true
// balance as of a given date, walking newest to oldest and overwriting
// every visited balance unconditionally. Used to correct drift. Reports
// core.ErrNoTransactions against an empty ledger instead of silently
// succeeding.
func (c *Calculator) AnchorBackward(ctx context.Context, anchor decimal.Decimal, asOf core.Day) (int, error) {
	txns, err := c.store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}
	if len(txns) == 0 {
		return 0, core.ErrNoTransactions
	}

	balance := anchor
	updated := 0
	for i := len(txns) - 1; i >= 0; i-- {
		t := txns[i]
		if t.Date.Before(asOf) {
			break
		}
		if err := c.store.UpdateBalance(ctx, t.ID, balance); err != nil {
			return updated, fmt.Errorf("update balance for %d: %w", t.ID, err)
		}
		updated++
		// Balance before this transaction, i.e. after the previous one.
		balance = balance.Add(t.Debit).Sub(t.Credit)
	}

	slog.InfoContext(ctx, "Backward anchor recompute complete",
		"anchor", anchor.String(),
		"as_of", asOf.Key(),
		"updated", updated)
	return updated, nil
}

// LatestBalance returns the most recent known transaction balance, or
// false when the ledger carries none.
func LatestBalance(txns []core.Transaction) (decimal.Decimal, bool) {
	for i := len(txns) - 1; i >= 0; i-- {
		if txns[i].HasBalance() {
			return txns[i].Balance, true
		}
	}
	return decimal.Zero, false
}
