package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2026-01-20")
	if err != nil {
		t.Fatalf("ParseDay() error = %v", err)
	}
	if !d.Equal(NewDay(2026, 1, 20)) {
		t.Errorf("ParseDay() = %s, want 2026-01-20", d)
	}

	if _, err := ParseDay("01/20/2026"); err == nil {
		t.Error("ParseDay() accepted a non-ISO date")
	}
}

func TestDayOf_NormalizesTime(t *testing.T) {
	late := time.Date(2026, 1, 20, 23, 59, 58, 0, time.UTC)
	if !DayOf(late).Equal(NewDay(2026, 1, 20)) {
		t.Errorf("DayOf(%v) = %s, want 2026-01-20", late, DayOf(late))
	}
}

func TestDay_DaysSince(t *testing.T) {
	a := NewDay(2026, 1, 25)
	b := NewDay(2026, 1, 20)
	if got := a.DaysSince(b); got != 5 {
		t.Errorf("DaysSince() = %d, want 5", got)
	}
	if got := b.DaysSince(a); got != -5 {
		t.Errorf("DaysSince() reversed = %d, want -5", got)
	}
}

func TestDay_IsBusinessDay(t *testing.T) {
	holidays := []Day{NewDay(2026, 1, 19)} // MLK Day

	tests := []struct {
		name string
		day  Day
		want bool
	}{
		{name: "regular weekday", day: NewDay(2026, 1, 20), want: true}, // Tuesday
		{name: "saturday", day: NewDay(2026, 1, 17), want: false},
		{name: "sunday", day: NewDay(2026, 1, 18), want: false},
		{name: "holiday monday", day: NewDay(2026, 1, 19), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.day.IsBusinessDay(holidays); got != tt.want {
				t.Errorf("IsBusinessDay(%s) = %v, want %v", tt.day, got, tt.want)
			}
		})
	}
}

func TestTransaction_Validate(t *testing.T) {
	valid := Transaction{
		Date:        NewDay(2026, 1, 20),
		Description: "E-DEPOSIT",
		Credit:      decimal.NewFromInt(100),
	}

	tests := []struct {
		name    string
		mutate  func(tr *Transaction)
		wantErr error
	}{
		{name: "valid", mutate: func(tr *Transaction) {}, wantErr: nil},
		{name: "zero date", mutate: func(tr *Transaction) { tr.Date = Day{} }, wantErr: ErrInvalidDate},
		{name: "blank description", mutate: func(tr *Transaction) { tr.Description = "   " }, wantErr: ErrEmptyDescription},
		{name: "negative debit", mutate: func(tr *Transaction) { tr.Debit = decimal.NewFromInt(-5) }, wantErr: ErrNegativeAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := valid
			tt.mutate(&tr)
			if err := tr.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransaction_Net(t *testing.T) {
	tr := Transaction{
		Debit:  decimal.NewFromInt(30),
		Credit: decimal.NewFromInt(100),
	}
	if !tr.Net().Equal(decimal.NewFromInt(70)) {
		t.Errorf("Net() = %s, want 70", tr.Net())
	}
}
