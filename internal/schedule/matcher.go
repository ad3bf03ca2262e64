package schedule

import (
	"strings"

	"cashflow/internal/core"
)

// Matcher decides whether a scheduled event has already posted to the
// real account. This is what keeps the forecast from double-counting a
// payment that cleared under a different description or date than
// scheduled.
type Matcher struct {
	cfg Config
}

func NewMatcher(cfg Config) *Matcher {
	return &Matcher{cfg: cfg}
}

// IsCleared reports whether real bank activity already reflects the
// scheduled event. Candidates are restricted to the rule's date window
// around the scheduled date, then gated by the type's keyword list and
// amount tolerance. The first match wins.
func (m *Matcher) IsCleared(ev core.ScheduledEvent, txns []core.Transaction) bool {
	rule := m.cfg.Rule(ev.Type)
	from := ev.Date.AddDays(-rule.DaysBefore)
	to := ev.Date.AddDays(rule.DaysAfter)

	scheduled := ev.Amount.Abs()
	if scheduled.IsZero() {
		return false
	}
	band := scheduled.Mul(rule.Tolerance)

	for _, t := range txns {
		if t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		actual := t.Credit
		if ev.Amount.IsNegative() {
			actual = t.Debit
		}
		if actual.IsZero() {
			continue
		}
		if actual.Sub(scheduled).Abs().GreaterThan(band) {
			continue
		}
		if m.descriptionMatches(rule, ev, t) {
			return true
		}
	}
	return false
}

func (m *Matcher) descriptionMatches(rule MatchRule, ev core.ScheduledEvent, t core.Transaction) bool {
	upper := strings.ToUpper(t.Description)
	if len(rule.Keywords) > 0 {
		for _, kw := range rule.Keywords {
			if strings.Contains(upper, kw) {
				return true
			}
		}
		return false
	}
	// Untyped events: require any substantial word of the scheduled
	// description to appear in the bank description.
	for _, word := range strings.Fields(strings.ToUpper(ev.Description)) {
		if len(word) >= 4 && strings.Contains(upper, word) {
			return true
		}
	}
	return false
}

// Pending returns the scheduled events that must still be projected,
// keyed by date. An event is pending when it has not cleared in real
// activity and, if already past due, has not gone stale: past the
// configured grace period the event is assumed rescheduled and dropped
// so the projection does not over-subtract forever.
func (m *Matcher) Pending(txns []core.Transaction, today core.Day, lookbackDays int) map[string][]core.ScheduledEvent {
	pending := make(map[string][]core.ScheduledEvent)
	for _, ev := range m.eventsInWindow(today, lookbackDays) {
		if m.IsCleared(ev, txns) {
			continue
		}
		if ev.Date.Before(today) && today.DaysSince(ev.Date) > m.cfg.StaleAfterDays {
			continue
		}
		pending[ev.Date.Key()] = append(pending[ev.Date.Key()], ev)
	}
	return pending
}

// View reports clearance state for every scheduled event in the
// lookback window, cleared and pending alike.
func (m *Matcher) View(txns []core.Transaction, today core.Day, lookbackDays int) []core.PendingEvent {
	events := m.eventsInWindow(today, lookbackDays)
	view := make([]core.PendingEvent, 0, len(events))
	for _, ev := range events {
		view = append(view, core.PendingEvent{
			Event:   ev,
			Cleared: m.IsCleared(ev, txns),
		})
	}
	return view
}

func (m *Matcher) eventsInWindow(today core.Day, lookbackDays int) []core.ScheduledEvent {
	cutoff := today.AddDays(-lookbackDays)
	var events []core.ScheduledEvent
	for _, ev := range m.cfg.Events {
		if ev.Date.Before(cutoff) {
			continue
		}
		events = append(events, ev)
	}
	return events
}

// LedgerWindowStart returns how far back real transactions are needed to
// evaluate clearance for the given lookback, accounting for the widest
// pre-date match window.
func (m *Matcher) LedgerWindowStart(today core.Day, lookbackDays int) core.Day {
	widest := 0
	for _, r := range m.cfg.Rules {
		if r.DaysBefore > widest {
			widest = r.DaysBefore
		}
	}
	return today.AddDays(-(lookbackDays + widest))
}
