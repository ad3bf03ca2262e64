package parser

import (
	"strings"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

// delimitedWithDate handles exports where every row is a full record:
// date, description, debit, credit, balance separated by a delimiter.
type delimitedWithDate struct{}

func (delimitedWithDate) name() string { return "delimited-with-date" }

func (delimitedWithDate) tryParse(text string, _ core.Day) []core.Transaction {
	var txns []core.Transaction
	for _, line := range splitLines(text) {
		fields := splitDelimited(line)
		if len(fields) < 5 {
			continue
		}
		date, ok := parseRowDate(fields[0])
		if !ok {
			continue
		}
		txns = append(txns, core.Transaction{
			Date:        date,
			Description: fields[1],
			Debit:       amountOrZero(fields[2]),
			Credit:      amountOrZero(fields[3]),
			Balance:     amountOrZero(fields[4]),
		})
	}
	return txns
}

// delimitedSections handles layouts where a standalone date header line
// ("JAN 20, 2026") sets the date for the delimited rows that follow it.
// Rows carry a description plus one to three numeric fields,
// disambiguated by count.
type delimitedSections struct{}

func (delimitedSections) name() string { return "delimited-sections" }

func (delimitedSections) tryParse(text string, fallback core.Day) []core.Transaction {
	var txns []core.Transaction
	current := fallback
	sawHeader := false
	for _, line := range splitLines(text) {
		if d, ok := parseHeaderDate(line); ok {
			current = d
			sawHeader = true
			continue
		}
		fields := splitDelimited(line)
		if len(fields) < 2 {
			continue
		}

		// Numeric fields stack up at the end of the row; everything
		// before them is description.
		var nums []decimal.Decimal
		split := len(fields)
		for split > 1 && len(nums) < 3 {
			d, ok := parseAmount(fields[split-1])
			if !ok {
				break
			}
			nums = append([]decimal.Decimal{d}, nums...)
			split--
		}
		desc := strings.Join(fields[:split], " ")
		if desc == "" {
			continue
		}
		// A row whose "description" is itself numeric is a formatted
		// amount that the delimiter split apart, not a real row.
		if _, ok := parseAmount(desc); ok {
			continue
		}

		var txn core.Transaction
		txn.Date = current
		txn.Description = desc
		switch len(nums) {
		case 3:
			txn.Debit, txn.Credit, txn.Balance = nums[0], nums[1], nums[2]
		case 2:
			txn.Debit, txn.Credit = classify(desc, nums[0])
			txn.Balance = nums[1]
		case 1:
			txn.Debit, txn.Credit = classify(desc, nums[0])
		default:
			continue
		}
		txns = append(txns, txn)
	}
	if !sawHeader {
		return nil
	}
	return txns
}

// stackedLines handles pastes where a transaction spans several lines:
// one or more description lines followed by a standalone amount line
// that closes the transaction. Negative amounts are debits.
type stackedLines struct{}

func (stackedLines) name() string { return "stacked-lines" }

func (stackedLines) tryParse(text string, fallback core.Day) []core.Transaction {
	var txns []core.Transaction
	current := fallback
	var descParts []string
	for _, line := range splitLines(text) {
		if d, ok := parseHeaderDate(line); ok {
			current = d
			descParts = nil
			continue
		}
		if strings.EqualFold(line, "pending") {
			continue
		}
		if amountLinePattern.MatchString(line) {
			amount, ok := parseAmount(line)
			if !ok || len(descParts) == 0 {
				descParts = nil
				continue
			}
			txn := core.Transaction{
				Date:        current,
				Description: strings.Join(descParts, " "),
			}
			if amount.IsNegative() {
				txn.Debit = amount.Abs()
			} else {
				txn.Credit = amount
			}
			txns = append(txns, txn)
			descParts = nil
			continue
		}
		descParts = append(descParts, line)
	}
	return txns
}

// simpleLines is the last-resort layout: each line is a description with
// a trailing amount.
type simpleLines struct{}

func (simpleLines) name() string { return "simple-lines" }

func (simpleLines) tryParse(text string, fallback core.Day) []core.Transaction {
	var txns []core.Transaction
	for _, line := range splitLines(text) {
		m := trailingAmountPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		amount, ok := parseAmount(m[2])
		if !ok {
			continue
		}
		txn := core.Transaction{
			Date:        fallback,
			Description: strings.TrimSpace(m[1]),
		}
		txn.Debit, txn.Credit = classify(txn.Description, amount)
		txns = append(txns, txn)
	}
	return txns
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
