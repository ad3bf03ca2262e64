package forecast

import (
	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

const (
	TurnLow  = "LOW"
	TurnHigh = "HIGH"
)

// TurningPoint is a local extreme in the projected balance series.
type TurningPoint struct {
	Date    core.Day
	Balance string
	Kind    string
	index   int
}

// TurningPoints finds local lows and highs in a balance series. Flat
// plateaus (weekends project the same balance for consecutive days) are
// handled by comparing each point against the nearest unequal neighbor
// on each side, and the result is post-processed so LOW and HIGH labels
// strictly alternate.
func TurningPoints(entries []core.ForecastEntry) []TurningPoint {
	var raw []TurningPoint
	for i := range entries {
		v := entries[i].Balance

		// Only the first point of a plateau is a candidate.
		if i > 0 && entries[i-1].Balance.Equal(v) {
			continue
		}

		prev, okPrev := nearestUnequal(entries, i, -1)
		next, okNext := nearestUnequal(entries, i, +1)
		if !okPrev || !okNext {
			continue
		}

		switch {
		case prev.GreaterThan(v) && next.GreaterThan(v):
			raw = append(raw, TurningPoint{Date: entries[i].Date, Balance: v.String(), Kind: TurnLow, index: i})
		case prev.LessThan(v) && next.LessThan(v):
			raw = append(raw, TurningPoint{Date: entries[i].Date, Balance: v.String(), Kind: TurnHigh, index: i})
		}
	}
	return alternate(entries, raw)
}

// alternate enforces strict LOW/HIGH alternation: between two adjacent
// same-kind points the opposite extreme found between them is inserted;
// when nothing lies between, only the more extreme of the pair is kept.
func alternate(entries []core.ForecastEntry, raw []TurningPoint) []TurningPoint {
	var out []TurningPoint
	for _, tp := range raw {
		if len(out) == 0 || out[len(out)-1].Kind != tp.Kind {
			out = append(out, tp)
			continue
		}
		last := out[len(out)-1]
		if between, ok := extremeBetween(entries, last.index, tp.index, opposite(tp.Kind)); ok {
			out = append(out, between, tp)
			continue
		}
		// Nothing in between: keep whichever of the pair is stronger.
		if stronger(entries, tp, last) {
			out[len(out)-1] = tp
		}
	}
	return out
}

func opposite(kind string) string {
	if kind == TurnLow {
		return TurnHigh
	}
	return TurnLow
}

func stronger(entries []core.ForecastEntry, a, b TurningPoint) bool {
	av, bv := entries[a.index].Balance, entries[b.index].Balance
	if a.Kind == TurnLow {
		return av.LessThan(bv)
	}
	return av.GreaterThan(bv)
}

// extremeBetween finds the most extreme balance strictly between two
// series indexes and returns it as a turning point of the wanted kind.
func extremeBetween(entries []core.ForecastEntry, from, to int, kind string) (TurningPoint, bool) {
	best := -1
	for i := from + 1; i < to; i++ {
		if best == -1 {
			best = i
			continue
		}
		if kind == TurnHigh && entries[i].Balance.GreaterThan(entries[best].Balance) {
			best = i
		}
		if kind == TurnLow && entries[i].Balance.LessThan(entries[best].Balance) {
			best = i
		}
	}
	if best == -1 {
		return TurningPoint{}, false
	}
	return TurningPoint{
		Date:    entries[best].Date,
		Balance: entries[best].Balance.String(),
		Kind:    kind,
		index:   best,
	}, true
}

// nearestUnequal scans from index i in the given direction for the
// first balance different from entries[i].
func nearestUnequal(entries []core.ForecastEntry, i, step int) (decimal.Decimal, bool) {
	v := entries[i].Balance
	for j := i + step; j >= 0 && j < len(entries); j += step {
		if !entries[j].Balance.Equal(v) {
			return entries[j].Balance, true
		}
	}
	return decimal.Zero, false
}
