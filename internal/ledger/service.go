package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
	"cashflow/internal/forecast"
	"cashflow/internal/parser"
	"cashflow/internal/schedule"
)

// Notifier publishes best-effort messages about ledger activity.
// Failures are always swallowed by the callers: notifications must never
// block or fail the ingestion path.
type Notifier interface {
	PublishLedgerUpdated(ctx context.Context, inserted, skipped int) error
	PublishManualReview(ctx context.Context, raw string) error
}

// Outcome is the structured result of a statement submission. A
// submission that parsed nothing is not an error: it is queued for
// manual review instead.
type Outcome struct {
	Inserted       int  `json:"inserted"`
	Skipped        int  `json:"skipped"`
	BalancesFilled int  `json:"balances_filled"`
	Queued         bool `json:"queued_for_review"`
}

// Service runs the ingestion workflow: parse, dedupe, insert, recompute
// balances, rebuild the forecast, notify. One call is one logical unit
// of work against the shared stores.
type Service struct {
	store        Store
	calc         *Calculator
	builder      *forecast.Builder
	matcher      *schedule.Matcher
	notifier     Notifier // nil disables notifications
	forecastDays int
	lookbackDays int
}

func NewService(store Store, builder *forecast.Builder, matcher *schedule.Matcher, notifier Notifier, forecastDays, lookbackDays int) *Service {
	return &Service{
		store:        store,
		calc:         NewCalculator(store),
		builder:      builder,
		matcher:      matcher,
		notifier:     notifier,
		forecastDays: forecastDays,
		lookbackDays: lookbackDays,
	}
}

// IngestStatement processes one pasted statement submission.
func (s *Service) IngestStatement(ctx context.Context, raw string, today core.Day) (Outcome, error) {
	candidates := parser.Parse(raw, today)
	if len(candidates) == 0 {
		slog.WarnContext(ctx, "Nothing parseable in submission, escalating for manual review",
			"bytes", len(raw))
		s.escalate(ctx, raw)
		return Outcome{Queued: true}, nil
	}

	existing, err := s.store.ListSince(ctx, LookbackStart(candidates))
	if err != nil {
		return Outcome{}, fmt.Errorf("load dedup window: %w", err)
	}
	fresh, skipped := Dedupe(candidates, existing)

	inserted := 0
	if len(fresh) > 0 {
		inserted, err = s.store.InsertTransactions(ctx, fresh)
		if err != nil {
			return Outcome{}, fmt.Errorf("insert transactions: %w", err)
		}
	}

	fallback, err := s.builder.CurrentBalance(ctx, today)
	if err != nil {
		slog.WarnContext(ctx, "No current forecast balance available", "error", err)
		fallback = decimal.Zero
	}
	filled, err := s.calc.FillForward(ctx, fallback)
	if err != nil {
		return Outcome{}, fmt.Errorf("fill balances: %w", err)
	}

	if _, err := s.rebuild(ctx, today, fallback); err != nil {
		return Outcome{}, err
	}

	s.notifyUpdated(ctx, inserted, skipped)

	slog.InfoContext(ctx, "Statement ingested",
		"parsed", len(candidates),
		"inserted", inserted,
		"skipped", skipped,
		"balances_filled", filled)
	return Outcome{Inserted: inserted, Skipped: skipped, BalancesFilled: filled}, nil
}

// SetAnchorBalance applies an operator-confirmed true balance as of a
// date, re-derives all balances backward from it and rebuilds the
// forecast from the anchor.
func (s *Service) SetAnchorBalance(ctx context.Context, anchor decimal.Decimal, asOf, today core.Day) (int, error) {
	updated, err := s.calc.AnchorBackward(ctx, anchor, asOf)
	if err != nil {
		return 0, err
	}
	if _, err := s.RebuildForecast(ctx, anchor, today, s.forecastDays); err != nil {
		return updated, err
	}
	return updated, nil
}

// RebuildForecast projects daysAhead days forward from the given
// starting balance and persists the result.
func (s *Service) RebuildForecast(ctx context.Context, starting decimal.Decimal, today core.Day, daysAhead int) (forecast.Summary, error) {
	window, err := s.store.ListSince(ctx, s.matcher.LedgerWindowStart(today, s.lookbackDays))
	if err != nil {
		return forecast.Summary{}, fmt.Errorf("load clearance window: %w", err)
	}
	return s.builder.Rebuild(ctx, starting, today, daysAhead, window)
}

// PendingEvents returns the scheduled events still pending against real
// bank activity, keyed by date.
func (s *Service) PendingEvents(ctx context.Context, today core.Day, lookbackDays int) (map[string][]core.ScheduledEvent, error) {
	window, err := s.store.ListSince(ctx, s.matcher.LedgerWindowStart(today, lookbackDays))
	if err != nil {
		return nil, fmt.Errorf("load clearance window: %w", err)
	}
	return s.matcher.Pending(window, today, lookbackDays), nil
}

// DeleteRange removes transactions in [from, to] and rebuilds downstream
// state. Administrative correction path.
func (s *Service) DeleteRange(ctx context.Context, from, to, today core.Day) (int, error) {
	n, err := s.store.DeleteByDateRange(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("delete by range: %w", err)
	}
	return n, s.rebuildAfterDelete(ctx, today)
}

// DeleteIDs removes transactions by id list.
func (s *Service) DeleteIDs(ctx context.Context, ids []int64, today core.Day) (int, error) {
	n, err := s.store.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete by ids: %w", err)
	}
	return n, s.rebuildAfterDelete(ctx, today)
}

// DeleteMatching removes transactions matching a description and amount.
func (s *Service) DeleteMatching(ctx context.Context, description string, amount decimal.Decimal, today core.Day) (int, error) {
	n, err := s.store.DeleteByContent(ctx, description, amount)
	if err != nil {
		return 0, fmt.Errorf("delete by content: %w", err)
	}
	return n, s.rebuildAfterDelete(ctx, today)
}

func (s *Service) rebuildAfterDelete(ctx context.Context, today core.Day) error {
	fallback, err := s.builder.CurrentBalance(ctx, today)
	if err != nil {
		fallback = decimal.Zero
	}
	_, err = s.rebuild(ctx, today, fallback)
	return err
}

// rebuild picks the starting balance, preferring the most recent known
// ledger balance over the forecast fallback, and projects forward.
func (s *Service) rebuild(ctx context.Context, today core.Day, fallback decimal.Decimal) (forecast.Summary, error) {
	txns, err := s.store.ListAll(ctx)
	if err != nil {
		return forecast.Summary{}, fmt.Errorf("load ledger: %w", err)
	}
	starting := fallback
	if latest, ok := LatestBalance(txns); ok {
		starting = latest
	}
	return s.RebuildForecast(ctx, starting, today, s.forecastDays)
}

func (s *Service) notifyUpdated(ctx context.Context, inserted, skipped int) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishLedgerUpdated(ctx, inserted, skipped); err != nil {
		slog.WarnContext(ctx, "Failed to publish ledger update notification", "error", err)
	}
}

func (s *Service) escalate(ctx context.Context, raw string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishManualReview(ctx, raw); err != nil {
		slog.WarnContext(ctx, "Failed to publish manual review escalation", "error", err)
	}
}
