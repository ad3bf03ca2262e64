// Package storage persists the transaction ledger and the daily
// forecast in SQLite. The backing store's transactional guarantees are
// what make one ingestion call one logical unit of work; there is no
// in-memory locking here.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"cashflow/internal/core"
)

type SQLiteRepository struct {
	db *sql.DB
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
		return nil, fmt.Errorf("ping database: %w: %v", core.ErrStoreUnavailable, err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// unavailable tags an error so callers can fall back to the static
// default forecast when the store cannot be reached.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, core.ErrStoreUnavailable, err)
}

// InsertTransactions appends new ledger entries and returns how many
// were written. Content is immutable after this point.
func (r *SQLiteRepository) InsertTransactions(ctx context.Context, txns []core.Transaction) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable("begin insert", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (date, description, debit, credit, balance) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txns {
		if _, err := stmt.ExecContext(ctx,
			t.Date.Key(), t.Description, t.Debit.String(), t.Credit.String(), t.Balance.String()); err != nil {
			return 0, fmt.Errorf("insert transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	return len(txns), nil
}

// ListAll returns the full ledger ordered by date, then insertion id.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Transaction, error) {
	return r.listWhere(ctx, "", nil)
}

// ListSince returns ledger entries on or after the given day.
func (r *SQLiteRepository) ListSince(ctx context.Context, from core.Day) ([]core.Transaction, error) {
	return r.listWhere(ctx, "WHERE date >= ?", []any{from.Key()})
}

// ListRange returns ledger entries in [from, to].
func (r *SQLiteRepository) ListRange(ctx context.Context, from, to core.Day) ([]core.Transaction, error) {
	return r.listWhere(ctx, "WHERE date >= ? AND date <= ?", []any{from.Key(), to.Key()})
}

func (r *SQLiteRepository) listWhere(ctx context.Context, where string, args []any) ([]core.Transaction, error) {
	query := fmt.Sprintf(
		`SELECT id, date, description, debit, credit, balance, created_at FROM transactions %s ORDER BY date, id`, where)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("list transactions", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		var (
			t                    core.Transaction
			date, deb, cred, bal string
			created              time.Time
		)
		if err := rows.Scan(&t.ID, &date, &t.Description, &deb, &cred, &bal, &created); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		day, err := core.ParseDay(date)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", date, err)
		}
		t.Date = day
		t.Debit = mustDecimal(deb)
		t.Credit = mustDecimal(cred)
		t.Balance = mustDecimal(bal)
		t.CreatedAt = created
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// UpdateBalance overwrites the balance-after of one transaction. The
// only mutable column.
func (r *SQLiteRepository) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET balance = ? WHERE id = ?`, balance.String(), id)
	if err != nil {
		return unavailable("update balance", err)
	}
	return nil
}

// DeleteByDateRange removes ledger entries in [from, to].
func (r *SQLiteRepository) DeleteByDateRange(ctx context.Context, from, to core.Day) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE date >= ? AND date <= ?`, from.Key(), to.Key())
	if err != nil {
		return 0, unavailable("delete by range", err)
	}
	return affected(res)
}

// DeleteByIDs removes ledger entries by id.
func (r *SQLiteRepository) DeleteByIDs(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM transactions WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return 0, unavailable("delete by ids", err)
	}
	return affected(res)
}

// DeleteByContent removes ledger entries matching a description
// substring and exact debit or credit amount.
func (r *SQLiteRepository) DeleteByContent(ctx context.Context, description string, amount decimal.Decimal) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE description LIKE ? AND (debit = ? OR credit = ?)`,
		"%"+description+"%", amount.String(), amount.String())
	if err != nil {
		return 0, unavailable("delete by content", err)
	}
	return affected(res)
}

// ReplaceForecastFrom replaces every forecast entry dated on or after
// from with the given entries. Past entries are historical record and
// are never rewritten here.
func (r *SQLiteRepository) ReplaceForecastFrom(ctx context.Context, from core.Day, entries []core.ForecastEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin forecast replace", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM forecast WHERE date >= ?`, from.Key()); err != nil {
		return fmt.Errorf("clear forward entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO forecast (date, balance, note, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(date) DO UPDATE SET balance = excluded.balance, note = excluded.note, updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("prepare forecast insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.Date.Before(from) {
			continue
		}
		if _, err := stmt.ExecContext(ctx, e.Date.Key(), e.Balance.String(), e.Note); err != nil {
			return fmt.Errorf("insert forecast entry: %w", err)
		}
	}
	return tx.Commit()
}

// UpsertForecastEntry writes a single forecast entry.
func (r *SQLiteRepository) UpsertForecastEntry(ctx context.Context, e core.ForecastEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO forecast (date, balance, note, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(date) DO UPDATE SET balance = excluded.balance, note = excluded.note, updated_at = CURRENT_TIMESTAMP`,
		e.Date.Key(), e.Balance.String(), e.Note)
	if err != nil {
		return unavailable("upsert forecast entry", err)
	}
	return nil
}

// GetForecast returns the whole forecast series in date order.
func (r *SQLiteRepository) GetForecast(ctx context.Context) ([]core.ForecastEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, balance, note, updated_at FROM forecast ORDER BY date`)
	if err != nil {
		return nil, unavailable("get forecast", err)
	}
	defer rows.Close()

	var entries []core.ForecastEntry
	for rows.Next() {
		var (
			e         core.ForecastEntry
			date, bal string
			updated   time.Time
		)
		if err := rows.Scan(&date, &bal, &e.Note, &updated); err != nil {
			return nil, fmt.Errorf("scan forecast entry: %w", err)
		}
		day, err := core.ParseDay(date)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", date, err)
		}
		e.Date = day
		e.Balance = mustDecimal(bal)
		e.UpdatedAt = updated
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetForecastEntry returns the entry for one day, or nil.
func (r *SQLiteRepository) GetForecastEntry(ctx context.Context, d core.Day) (*core.ForecastEntry, error) {
	var (
		bal, note string
		updated   time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT balance, note, updated_at FROM forecast WHERE date = ?`, d.Key()).
		Scan(&bal, &note, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get forecast entry", err)
	}
	return &core.ForecastEntry{Date: d, Balance: mustDecimal(bal), Note: note, UpdatedAt: updated}, nil
}

// CountForecast returns how many forecast entries exist.
func (r *SQLiteRepository) CountForecast(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM forecast`).Scan(&n); err != nil {
		return 0, unavailable("count forecast", err)
	}
	return n, nil
}

func affected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// mustDecimal parses a stored decimal string; malformed stored values
// degrade to zero rather than failing a whole listing.
func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
