package forecast

import (
	"context"
	"fmt"

	"cashflow/internal/core"
)

// Series returns the persisted forecast in date order.
func (b *Builder) Series(ctx context.Context) ([]core.ForecastEntry, error) {
	entries, err := b.store.GetForecast(ctx)
	if err != nil {
		return nil, fmt.Errorf("load forecast: %w", err)
	}
	return entries, nil
}

// Entry returns the projection for one day, or nil when none exists.
func (b *Builder) Entry(ctx context.Context, d core.Day) (*core.ForecastEntry, error) {
	e, err := b.store.GetForecastEntry(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("load forecast entry: %w", err)
	}
	return e, nil
}

// LowPoint scans the persisted forecast for the smallest projected
// balance. Returns nil when the store is empty.
func (b *Builder) LowPoint(ctx context.Context) (*core.ForecastEntry, error) {
	entries, err := b.store.GetForecast(ctx)
	if err != nil {
		return nil, fmt.Errorf("load forecast: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	low := entries[0]
	for _, e := range entries[1:] {
		if e.Balance.LessThan(low.Balance) {
			low = e
		}
	}
	return &low, nil
}

// HighPoint scans the persisted forecast for the largest projected
// balance. Returns nil when the store is empty.
func (b *Builder) HighPoint(ctx context.Context) (*core.ForecastEntry, error) {
	entries, err := b.store.GetForecast(ctx)
	if err != nil {
		return nil, fmt.Errorf("load forecast: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	high := entries[0]
	for _, e := range entries[1:] {
		if e.Balance.GreaterThan(high.Balance) {
			high = e
		}
	}
	return &high, nil
}

// Turning returns the alternating local extremes of the persisted
// forecast series.
func (b *Builder) Turning(ctx context.Context) ([]TurningPoint, error) {
	entries, err := b.store.GetForecast(ctx)
	if err != nil {
		return nil, fmt.Errorf("load forecast: %w", err)
	}
	return TurningPoints(entries), nil
}
