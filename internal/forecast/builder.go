// Package forecast rebuilds the forward-looking daily balance
// projection by merging routine weekday cash-flow assumptions with the
// scheduled events still pending against real bank activity.
package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
	"cashflow/internal/schedule"
)

// Store is the forecast storage surface. Entries for dates on or after
// the rebuild day are replaced wholesale; past entries are history and
// stay untouched.
type Store interface {
	ReplaceForecastFrom(ctx context.Context, from core.Day, entries []core.ForecastEntry) error
	GetForecast(ctx context.Context) ([]core.ForecastEntry, error)
	GetForecastEntry(ctx context.Context, d core.Day) (*core.ForecastEntry, error)
	CountForecast(ctx context.Context) (int, error)
}

// Summary is the headline result of a rebuild.
type Summary struct {
	LowPoint      core.ForecastEntry
	HighPoint     core.ForecastEntry
	DaysProjected int
}

// Builder walks forward day by day from today and persists the
// projected balance series.
type Builder struct {
	store        Store
	cfg          schedule.Config
	matcher      *schedule.Matcher
	lookbackDays int
}

func NewBuilder(store Store, cfg schedule.Config, matcher *schedule.Matcher, lookbackDays int) *Builder {
	return &Builder{
		store:        store,
		cfg:          cfg,
		matcher:      matcher,
		lookbackDays: lookbackDays,
	}
}

// Rebuild projects balances for [today, today+daysAhead] starting from
// the supplied balance, which already reflects today's cleared activity.
// ledger is the recent real activity consulted for event clearance.
func (b *Builder) Rebuild(ctx context.Context, starting decimal.Decimal, today core.Day, daysAhead int, ledger []core.Transaction) (Summary, error) {
	pending := b.matcher.Pending(ledger, today, b.lookbackDays)

	entries := make([]core.ForecastEntry, 0, daysAhead+1)
	entries = append(entries, core.ForecastEntry{
		Date:    today,
		Balance: starting,
		Note:    "Current balance",
	})

	balance := starting
	lowIdx, highIdx := 0, 0
	for i := 1; i <= daysAhead; i++ {
		day := today.AddDays(i)
		if day.IsBusinessDay(b.cfg.Holidays) {
			balance = balance.Add(b.cfg.RoutineNet(day))
		}

		var material []string
		for _, ev := range pending[day.Key()] {
			balance = balance.Add(ev.Amount)
			if ev.Amount.Abs().GreaterThanOrEqual(b.cfg.MaterialityThreshold) {
				material = append(material, ev.Description)
			}
		}

		note := b.bandLabel(balance)
		if len(material) > 0 {
			note = strings.Join(material, "; ")
		}
		entries = append(entries, core.ForecastEntry{Date: day, Balance: balance, Note: note})

		if balance.LessThan(entries[lowIdx].Balance) {
			lowIdx = i
		}
		if balance.GreaterThan(entries[highIdx].Balance) {
			highIdx = i
		}
	}

	if lowIdx != 0 {
		entries[lowIdx].Note = "LOW POINT; " + entries[lowIdx].Note
	}

	if err := b.store.ReplaceForecastFrom(ctx, today, entries); err != nil {
		return Summary{}, fmt.Errorf("persist forecast: %w", err)
	}

	slog.InfoContext(ctx, "Forecast rebuilt",
		"from", today.Key(),
		"days", daysAhead,
		"low_date", entries[lowIdx].Date.Key(),
		"low_balance", entries[lowIdx].Balance.String(),
		"high_date", entries[highIdx].Date.Key(),
		"high_balance", entries[highIdx].Balance.String())

	return Summary{
		LowPoint:      entries[lowIdx],
		HighPoint:     entries[highIdx],
		DaysProjected: daysAhead + 1,
	}, nil
}

// CurrentBalance returns today's persisted forecast balance, or zero
// when none exists yet.
func (b *Builder) CurrentBalance(ctx context.Context, today core.Day) (decimal.Decimal, error) {
	entry, err := b.store.GetForecastEntry(ctx, today)
	if err != nil {
		return decimal.Zero, err
	}
	if entry == nil {
		return decimal.Zero, nil
	}
	return entry.Balance, nil
}

// SeedIfEmpty installs the static default table when the forecast store
// holds nothing, so read endpoints have an answer before the first
// rebuild.
func (b *Builder) SeedIfEmpty(ctx context.Context) error {
	n, err := b.store.CountForecast(ctx)
	if err != nil {
		return fmt.Errorf("count forecast: %w", err)
	}
	if n > 0 {
		return nil
	}
	if len(b.cfg.DefaultForecast) == 0 {
		return nil
	}
	first := b.cfg.DefaultForecast[0].Date
	if err := b.store.ReplaceForecastFrom(ctx, first, b.cfg.DefaultForecast); err != nil {
		return fmt.Errorf("seed forecast: %w", err)
	}
	slog.InfoContext(ctx, "Seeded forecast store from default table",
		"entries", len(b.cfg.DefaultForecast))
	return nil
}

func (b *Builder) bandLabel(balance decimal.Decimal) string {
	switch {
	case balance.LessThan(b.cfg.LowWatermark):
		return "LOW — watch closely"
	case balance.GreaterThan(b.cfg.HighWatermark):
		return "Peak — good for distribution"
	default:
		return "Normal operations"
	}
}
