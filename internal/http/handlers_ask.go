package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"cashflow/internal/core"
	applog "cashflow/internal/log"
)

type askRequest struct {
	Question string `json:"question"`
}

const askFallback = "Try asking about: current balance, low point, a specific date, payroll dates, or card payments"

// handleAsk answers simple keyword questions against the persisted
// forecast and the recurring payment calendar.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	question := strings.ToLower(sanitizeInput(req.Question))
	if question == "" {
		writeError(w, http.StatusBadRequest, "empty question")
		return
	}

	answer, err := s.answer(r, question)
	if err != nil {
		s.logger.Error("question lookup failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not answer")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *Server) answer(r *http.Request, question string) (string, error) {
	if strings.Contains(question, "low") || strings.Contains(question, "minimum") {
		entry, err := s.builder.LowPoint(r.Context())
		if err != nil {
			return "", err
		}
		if entry == nil {
			return "No forecast available yet", nil
		}
		return "Low point is " + formatDollars(entry.Balance) + " on " + entry.Date.Format("Jan 2"), nil
	}

	if strings.Contains(question, "current") || strings.Contains(question, "today") || strings.Contains(question, "now") {
		balance, err := s.builder.CurrentBalance(r.Context(), core.DayOf(time.Now()))
		if err != nil {
			return "", err
		}
		return "Current balance is " + formatDollars(balance), nil
	}

	if strings.Contains(question, "payroll") {
		return s.scheduleAnswer("Upcoming payrolls: ", core.EventPayroll), nil
	}

	if strings.Contains(question, "amex") || strings.Contains(question, "american express") || strings.Contains(question, "card") {
		return s.scheduleAnswer("Card payments: ", core.EventCardPayment), nil
	}

	// A date mention like "feb 24" resolves against the forecast series.
	if answer, ok, err := s.dateAnswer(r, question); err != nil {
		return "", err
	} else if ok {
		return answer, nil
	}

	return askFallback, nil
}

// scheduleAnswer lists calendar events of one type as "date ($amount)".
func (s *Server) scheduleAnswer(prefix string, kind core.EventType) string {
	var parts []string
	for _, ev := range s.sched.Events {
		if ev.Type != kind {
			continue
		}
		parts = append(parts, ev.Date.Format("Jan 2")+" ("+formatDollars(ev.Amount.Abs())+")")
	}
	if len(parts) == 0 {
		return "No scheduled events of that type"
	}
	return prefix + strings.Join(parts, ", ")
}

// dateAnswer scans the question for a month-day reference present in the
// persisted forecast.
func (s *Server) dateAnswer(r *http.Request, question string) (string, bool, error) {
	compact := dayKey(question)
	entries, _, err := s.loadForecast(r)
	if err != nil {
		return "", false, err
	}
	for _, e := range entries {
		if mentionsDay(compact, keyOf(e.Date)) {
			return "Projected balance on " + e.Date.Format("Jan 2") + " is " + formatDollars(e.Balance), true, nil
		}
	}
	return "", false, nil
}

// mentionsDay reports whether haystack contains key not followed by
// another digit, so "jan2" does not match inside "jan20".
func mentionsDay(haystack, key string) bool {
	for idx := strings.Index(haystack, key); idx != -1; {
		end := idx + len(key)
		if end >= len(haystack) || haystack[end] < '0' || haystack[end] > '9' {
			return true
		}
		rest := strings.Index(haystack[idx+1:], key)
		if rest == -1 {
			return false
		}
		idx += 1 + rest
	}
	return false
}
