package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

// Date and amount patterns seen across pasted statement layouts.
var (
	// Standalone "JAN 20, 2026" style header line, case-insensitive.
	dateHeaderPattern = regexp.MustCompile(`(?i)^(JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)[A-Z]*\.?\s+(\d{1,2}),?\s+(\d{4})$`)

	// Strict amount line: two decimal places, optional sign and symbols.
	amountLinePattern = regexp.MustCompile(`^-?\$?[\d,]+\.\d{2}$`)

	// "description followed by a trailing amount" fallback row.
	trailingAmountPattern = regexp.MustCompile(`^(.*\S)\s+(-?\$?[\d,]+(?:\.\d{1,2})?)$`)
)

var monthNumbers = map[string]int{
	"JAN": 1, "FEB": 2, "MAR": 3, "APR": 4, "MAY": 5, "JUN": 6,
	"JUL": 7, "AUG": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DEC": 12,
}

// Keywords that mark a lone positive amount as money going out.
var debitKeywords = []string{"CHECK", "DEBIT", "WITHDRAWAL", "FEE", "ACH PMT"}

var dateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"2006-01-02",
	"01-02-2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
}

// parseRowDate parses a date token under any of the supported layouts.
func parseRowDate(s string) (core.Day, bool) {
	s = normalizeMonthCase(strings.TrimSpace(s))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DayOf(t), true
		}
	}
	return core.Day{}, false
}

// parseHeaderDate parses a "JAN 20, 2026" style header line.
func parseHeaderDate(line string) (core.Day, bool) {
	m := dateHeaderPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return core.Day{}, false
	}
	month := monthNumbers[strings.ToUpper(m[1])[:3]]
	day := atoi(m[2])
	year := atoi(m[3])
	if day < 1 || day > 31 {
		return core.Day{}, false
	}
	return core.NewDay(year, month, day), true
}

// parseAmount converts "1,234.56", "-$182.76" or "$16,826.00" to a
// decimal. Reports false for anything that is not a clean number.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" || s == "-" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// amountOrZero is parseAmount for positional fields where an empty or
// malformed cell simply means "no amount stated".
func amountOrZero(s string) decimal.Decimal {
	if d, ok := parseAmount(s); ok {
		return d
	}
	return decimal.Zero
}

// splitDelimited splits a row on the first field delimiter present.
// Comma is tried last because it also appears inside formatted amounts.
func splitDelimited(line string) []string {
	for _, delim := range []string{"\t", "|", ";", ","} {
		if strings.Contains(line, delim) {
			parts := strings.Split(line, delim)
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return parts
		}
	}
	return []string{strings.TrimSpace(line)}
}

// looksLikeDebit reports whether a description suggests money going out.
func looksLikeDebit(desc string) bool {
	upper := strings.ToUpper(desc)
	for _, kw := range debitKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// classify assigns a signed amount to the debit or credit column using
// sign first, then description keywords for a lone positive amount.
func classify(desc string, amount decimal.Decimal) (debit, credit decimal.Decimal) {
	if amount.IsNegative() {
		return amount.Abs(), decimal.Zero
	}
	if looksLikeDebit(desc) {
		return amount, decimal.Zero
	}
	return decimal.Zero, amount
}

// normalizeMonthCase upcases the first letter and downcases the rest of
// each alphabetic run so "JAN 20, 2026" parses under time layouts.
func normalizeMonthCase(s string) string {
	var b strings.Builder
	startOfRun := true
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		switch {
		case isAlpha && startOfRun:
			b.WriteRune(upper(r))
			startOfRun = false
		case isAlpha:
			b.WriteRune(lower(r))
		default:
			b.WriteRune(r)
			startOfRun = true
		}
	}
	return b.String()
}

func upper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 32
	}
	return r
}

func lower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + 32
	}
	return r
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}
