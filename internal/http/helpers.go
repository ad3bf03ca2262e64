package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// dayKey normalizes a date reference into a compact lowercase key like
// "jan20". Accepts "Jan 20", "jan-20", "jan20" and "2026-01-20".
func dayKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, ",", "")
	if t, err := time.Parse("20060102", s); err == nil {
		return strings.ToLower(t.Format("Jan2"))
	}
	return s
}

// keyOf renders a Day in the same compact form dayKey produces.
func keyOf(d core.Day) string {
	return strings.ToLower(d.Format("Jan2"))
}

// formatDollars renders an amount with a dollar sign and thousands
// separators, e.g. "$184,000.00".
func formatDollars(amount decimal.Decimal) string {
	neg := amount.IsNegative()
	s := amount.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "$" + b.String() + "." + fracPart
	if neg {
		return "-" + out
	}
	return out
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
