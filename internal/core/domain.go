package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventCardPayment EventType = "card-payment"
	EventPayroll     EventType = "payroll"
	EventPayrollTax  EventType = "payroll-tax"
	EventCheckRun    EventType = "check-run"
	EventInsurance   EventType = "insurance"
	EventIncome      EventType = "income"
	EventOther       EventType = "other"
)

type (
	// EventType is the semantic category of a scheduled cash event.
	EventType string

	// Day is a calendar day without a time component. All constructors
	// normalize to UTC midnight so Day values are directly comparable.
	Day struct {
		time.Time
	}

	// Transaction is one stored ledger entry. Date, Description, Debit and
	// Credit are immutable once inserted; only Balance is recomputed.
	Transaction struct {
		ID          int64
		Date        Day
		Description string
		Debit       decimal.Decimal
		Credit      decimal.Decimal
		Balance     decimal.Decimal // zero means unknown
		CreatedAt   time.Time
	}

	// ForecastEntry is one projected (or historical) daily balance.
	ForecastEntry struct {
		Date      Day
		Balance   decimal.Decimal
		Note      string
		UpdatedAt time.Time
	}

	// ScheduledEvent is an expected cash movement from the recurring
	// calendar. Amount is signed: negative for outflows.
	ScheduledEvent struct {
		Date        Day
		Type        EventType
		Amount      decimal.Decimal
		Description string
	}

	// PendingEvent pairs a scheduled event with its clearance state.
	PendingEvent struct {
		Event   ScheduledEvent
		Cleared bool
	}
)

var (
	ErrNoTransactions    = errors.New("no transactions in ledger")
	ErrNothingParsed     = errors.New("nothing parseable in submission")
	ErrStoreUnavailable  = errors.New("storage not available")
	ErrEmptyDescription  = errors.New("empty description")
	ErrNegativeAmount    = errors.New("negative amount")
	ErrInvalidDate       = errors.New("invalid date")
)

// NewDay creates a Day from year, month, day.
func NewDay(year, month, day int) Day {
	return Day{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates a timestamp to its calendar day.
func DayOf(t time.Time) Day {
	return NewDay(t.Year(), int(t.Month()), t.Day())
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Day{}, ErrInvalidDate
	}
	return DayOf(t), nil
}

// AddDays returns the day shifted by n calendar days.
func (d Day) AddDays(n int) Day {
	return DayOf(d.Time.AddDate(0, 0, n))
}

// Key returns the canonical YYYY-MM-DD form, used as storage key.
func (d Day) Key() string {
	return d.Time.Format("2006-01-02")
}

func (d Day) String() string { return d.Key() }

// Before reports whether d falls on an earlier calendar day than other.
func (d Day) Before(other Day) bool { return d.Time.Before(other.Time) }

// After reports whether d falls on a later calendar day than other.
func (d Day) After(other Day) bool { return d.Time.After(other.Time) }

// Equal reports whether both values name the same calendar day.
func (d Day) Equal(other Day) bool { return d.Time.Equal(other.Time) }

// DaysSince returns d - other in whole days.
func (d Day) DaysSince(other Day) int {
	return int(d.Time.Sub(other.Time).Hours() / 24)
}

// IsBusinessDay reports whether d is a weekday outside the holiday list.
func (d Day) IsBusinessDay(holidays []Day) bool {
	wd := d.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	for _, h := range holidays {
		if d.Equal(h) {
			return false
		}
	}
	return true
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if t.Debit.IsNegative() || t.Credit.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// HasBalance reports whether a balance-after has been assigned.
func (t Transaction) HasBalance() bool {
	return !t.Balance.IsZero()
}

// Net returns credit minus debit.
func (t Transaction) Net() decimal.Decimal {
	return t.Credit.Sub(t.Debit)
}
