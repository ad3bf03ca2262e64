// Package schedule holds the hand-maintained calendar of expected cash
// events and decides, against real bank activity, which of them are
// still pending. Everything tunable lives in Config so tests can
// substitute fixtures without touching process state.
package schedule

import (
	"time"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

// MatchRule describes how real bank activity is recognized as a given
// scheduled event type: a keyword gate, a relative amount tolerance and
// the date window searched around the scheduled date.
type MatchRule struct {
	Keywords   []string
	Tolerance  decimal.Decimal // fraction of the scheduled amount
	DaysBefore int
	DaysAfter  int
}

/// Config is the full recurring-schedule model: the event calendar, the
// per-type matching rules and the routine weekday cash-flow assumptions
// used by the forecast builder.
type Config struct {
	Events []core.ScheduledEvent
	Rules  map[core.EventType]MatchRule

	// Routine business-day assumptions.
	RoutineDeposits map[time.Weekday]decimal.Decimal
	CardRevenue     decimal.Decimal
	WireIncome      decimal.Decimal
	DailyOps        decimal.Decimal
	Holidays        []core.Day

	// A past event not confirmed cleared is kept in projections for at
	// most this many days before it is assumed rescheduled.
	StaleAfterDays int

	// Forecast annotation thresholds.
	MaterialityThreshold decimal.Decimal
	LowWatermark         decimal.Decimal
	HighWatermark        decimal.Decimal

	// Static forecast served/seeded when the store is empty.
	DefaultForecast []core.ForecastEntry
}

// RoutineNet returns the expected routine net cash movement for one
// business day: weekday e-deposits plus card-processor revenue and wire
// income, minus routine operational debits.
func (c Config) RoutineNet(d core.Day) decimal.Decimal {
	deposits := c.RoutineDeposits[d.Weekday()]
	return deposits.Add(c.CardRevenue).Add(c.WireIncome).Sub(c.DailyOps)
}

// Rule returns the matching rule for an event type, falling back to the
// generic "other" rule.
func (c Config) Rule(t core.EventType) MatchRule {
	if r, ok := c.Rules[t]; ok {
		return r
	}
	return c.Rules[core.EventOther]
}

func dollars(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func pct(n int64) decimal.Decimal { return decimal.New(n, -2) }

// Default returns the operating schedule as maintained for the account:
// the Jan–Feb 2026 payment calendar and the routine daily assumptions
// last reviewed in mid January 2026.
func Default() Config {
	return Config{
		Events: []core.ScheduledEvent{
			{Date: core.NewDay(2026, 1, 16), Type: core.EventCardPayment, Amount: dollars(-106000), Description: "AmEx payment"},
			{Date: core.NewDay(2026, 1, 20), Type: core.EventPayroll, Amount: dollars(-103000), Description: "Payroll #1"},
			{Date: core.NewDay(2026, 1, 22), Type: core.EventPayrollTax, Amount: dollars(-31000), Description: "Payroll tax remittance"},
			{Date: core.NewDay(2026, 1, 28), Type: core.EventCheckRun, Amount: dollars(-12000), Description: "Vendor check run"},
			{Date: core.NewDay(2026, 1, 30), Type: core.EventCardPayment, Amount: dollars(-130000), Description: "AmEx payment"},
			{Date: core.NewDay(2026, 2, 1), Type: core.EventInsurance, Amount: dollars(-8500), Description: "Insurance premium"},
			{Date: core.NewDay(2026, 2, 3), Type: core.EventPayroll, Amount: dollars(-103000), Description: "Payroll #2"},
			{Date: core.NewDay(2026, 2, 5), Type: core.EventPayrollTax, Amount: dollars(-31000), Description: "Payroll tax remittance"},
			{Date: core.NewDay(2026, 2, 10), Type: core.EventIncome, Amount: dollars(45000), Description: "Wholesale wire expected"},
			{Date: core.NewDay(2026, 2, 13), Type: core.EventCardPayment, Amount: dollars(-100000), Description: "AmEx payment"},
			{Date: core.NewDay(2026, 2, 18), Type: core.EventPayroll, Amount: dollars(-103000), Description: "Payroll #3"},
			{Date: core.NewDay(2026, 2, 20), Type: core.EventPayrollTax, Amount: dollars(-31000), Description: "Payroll tax remittance"},
		},
		Rules: map[core.EventType]MatchRule{
			core.EventCardPayment: {Keywords: []string{"AMEX", "AMERICAN EXPRESS"}, Tolerance: pct(30), DaysBefore: 3, DaysAfter: 2},
			core.EventPayroll:     {Keywords: []string{"PAYROLL", "ADP", "GUSTO", "DIRECT DEP"}, Tolerance: pct(15), DaysBefore: 3, DaysAfter: 2},
			core.EventPayrollTax:  {Keywords: []string{"ADP TAX", "EFTPS", "USATAXPYMT", "TAX"}, Tolerance: pct(20), DaysBefore: 3, DaysAfter: 2},
			core.EventCheckRun:    {Keywords: []string{"CHECK"}, Tolerance: pct(10), DaysBefore: 3, DaysAfter: 2},
			core.EventInsurance:   {Keywords: []string{"INSURANCE", "PREMIUM"}, Tolerance: pct(15), DaysBefore: 3, DaysAfter: 2},
			core.EventIncome:      {Keywords: []string{"WIRE", "DEPOSIT"}, Tolerance: pct(25), DaysBefore: 3, DaysAfter: 2},
			core.EventOther:       {Tolerance: pct(20), DaysBefore: 3, DaysAfter: 2},
		},
		RoutineDeposits: map[time.Weekday]decimal.Decimal{
			time.Monday:    dollars(10000),
			time.Tuesday:   dollars(26000),
			time.Wednesday: dollars(26000),
			time.Thursday:  dollars(16000),
			time.Friday:    dollars(20000),
		},
		CardRevenue: dollars(20000),
		WireIncome:  dollars(3000),
		DailyOps:    dollars(15000),
		Holidays: []core.Day{
			core.NewDay(2026, 1, 19), // MLK Day
			core.NewDay(2026, 2, 16), // Presidents Day
		},
		StaleAfterDays:       2,
		MaterialityThreshold: dollars(25000),
		LowWatermark:         dollars(150000),
		HighWatermark:        dollars(300000),
		DefaultForecast: []core.ForecastEntry{
			{Date: core.NewDay(2026, 1, 14), Balance: dollars(279000), Note: "Current balance"},
			{Date: core.NewDay(2026, 1, 15), Balance: dollars(278000), Note: "Normal operations"},
			{Date: core.NewDay(2026, 1, 16), Balance: dollars(200000), Note: "AmEx payment"},
			{Date: core.NewDay(2026, 1, 20), Balance: dollars(184000), Note: "LOW POINT"},
			{Date: core.NewDay(2026, 1, 21), Balance: dollars(189000), Note: "Normal operations"},
			{Date: core.NewDay(2026, 1, 22), Balance: dollars(188000), Note: "Normal operations"},
			{Date: core.NewDay(2026, 1, 23), Balance: dollars(216000), Note: "Normal operations"},
			{Date: core.NewDay(2026, 1, 30), Balance: dollars(224000), Note: "AmEx payment"},
			{Date: core.NewDay(2026, 1, 31), Balance: dollars(224000), Note: "Normal operations"},
			{Date: core.NewDay(2026, 2, 3), Balance: dollars(226000), Note: "Payroll #2"},
			{Date: core.NewDay(2026, 2, 13), Balance: dollars(297000), Note: "AmEx payment"},
			{Date: core.NewDay(2026, 2, 20), Balance: dollars(289000), Note: "Payroll #3"},
			{Date: core.NewDay(2026, 2, 24), Balance: dollars(341000), Note: "Peak — good for distribution"},
		},
	}
}
