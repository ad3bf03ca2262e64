// Package ledger owns the stored transaction ledger: duplicate
// filtering of newly parsed submissions, running-balance computation and
// the ingestion workflow that ties parsing, storage, forecasting and
// notification together.
package ledger

import (
	"cashflow/internal/core"
)

// dedupeLookbackDays is how far before the earliest new transaction the
// existing ledger is consulted for duplicates.
const dedupeLookbackDays = 7

// Dedupe filters candidates already present in the existing window and
// returns the survivors plus the number of duplicates skipped.
// Signatures of accepted candidates join the exclusion set immediately,
// so duplicate rows within one paste are caught too.
func Dedupe(candidates, existing []core.Transaction) ([]core.Transaction, int) {
	seen := make(map[string]struct{}, len(existing)+len(candidates))
	for _, t := range existing {
		seen[t.Signature()] = struct{}{}
	}

	fresh := make([]core.Transaction, 0, len(candidates))
	skipped := 0
	for _, t := range candidates {
		sig := t.Signature()
		if _, dup := seen[sig]; dup {
			skipped++
			continue
		}
		seen[sig] = struct{}{}
		fresh = append(fresh, t)
	}
	return fresh, skipped
}

// LookbackStart returns the first day of the dedup window for a batch of
// candidates: seven days before the earliest candidate date.
func LookbackStart(candidates []core.Transaction) core.Day {
	earliest := candidates[0].Date
	for _, t := range candidates[1:] {
		if t.Date.Before(earliest) {
			earliest = t.Date
		}
	}
	return earliest.AddDays(-dedupeLookbackDays)
}
