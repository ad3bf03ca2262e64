// Package parser turns raw pasted bank-statement text into candidate
// ledger transactions. Statements arrive copy-pasted by an operator in
// several inconsistent layouts, so parsing is a priority-ordered list of
// format strategies: the first strategy that recognizes anything wins.
package parser

import (
	"cashflow/internal/core"
)

// strategy is one statement layout. tryParse returns nil when the text
// does not look like this layout.
type strategy interface {
	name() string
	tryParse(text string, fallback core.Day) []core.Transaction
}

var strategies = []strategy{
	delimitedWithDate{},
	delimitedSections{},
	stackedLines{},
	simpleLines{},
}

// Parse extracts candidate transactions from a pasted statement excerpt.
// fallback is the date assigned to rows when the text carries no date
// marker of its own. Parse is pure: malformed lines and tokens are
// skipped, never fatal, and a transaction that states no amount at all
// is discarded.
func Parse(raw string, fallback core.Day) []core.Transaction {
	for _, s := range strategies {
		txns := s.tryParse(raw, fallback)
		if len(txns) == 0 {
			continue
		}
		kept := txns[:0]
		for _, t := range txns {
			if t.Debit.IsZero() && t.Credit.IsZero() {
				continue
			}
			kept = append(kept, t)
		}
		if len(kept) > 0 {
			return kept
		}
	}
	return nil
}
