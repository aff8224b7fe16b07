package interpret

import (
	"strconv"
	"strings"
)

// Candidates outside this range are treated as OCR misreads and
// dropped.
const (
	minPlausibleAmount = 0.01
	maxPlausibleAmount = 10000.00
)

// amountMatcher is one named strategy for locating candidate amounts.
// Matchers run in order against lowercased text and every candidate
// from every matcher is pooled before the max-wins selection.
type amountMatcher struct {
	name string
	find func(text string) []float64
}

var amountMatchers = []amountMatcher{
	{"total-label", labeledAmounts("total")},
	{"amount-label", labeledAmounts("amount")},
	{"subtotal-label", labeledAmounts("subtotal")},
	{"dollar-sign", dollarAmounts},
	{"line-end-decimal", lineEndAmounts},
}

// ParseAmount extracts the most plausible total from receipt text. All
// candidates within [0.01, 10000.00] are pooled and the maximum wins:
// the total is usually the largest plausible figure on a receipt.
// Returns nil when no candidate survives.
func ParseAmount(text string) *float64 {
	text = strings.ToLower(text)

	var best *float64
	for _, m := range amountMatchers {
		for _, v := range m.find(text) {
			if v < minPlausibleAmount || v > maxPlausibleAmount {
				continue
			}
			if best == nil || v > *best {
				candidate := v
				best = &candidate
			}
		}
	}
	return best
}

// labeledAmounts matches numbers following a label such as "total",
// with optional ":" and "$" in between. The label matches as a
// substring, so "subtotal" lines also feed the "total" matcher; that
// is harmless under the max-wins policy.
func labeledAmounts(label string) func(string) []float64 {
	return func(text string) []float64 {
		var out []float64
		for from := 0; ; {
			idx := strings.Index(text[from:], label)
			if idx < 0 {
				break
			}
			pos := from + idx + len(label)
			if v, ok := amountAfterLabel(text, pos); ok {
				out = append(out, v)
			}
			from += idx + len(label)
		}
		return out
	}
}

// amountAfterLabel scans past optional whitespace, ":" and "$"
// starting at pos and parses a number if one follows directly.
func amountAfterLabel(text string, pos int) (float64, bool) {
	i := skipSpace(text, pos)
	if i < len(text) && text[i] == ':' {
		i = skipSpace(text, i+1)
	}
	if i < len(text) && text[i] == '$' {
		i++
	}
	return scanNumber(text, i)
}

// dollarAmounts matches any "$" immediately followed by a number.
func dollarAmounts(text string) []float64 {
	var out []float64
	for i := 0; i < len(text); i++ {
		if text[i] != '$' {
			continue
		}
		if v, ok := scanNumber(text, i+1); ok {
			out = append(out, v)
		}
	}
	return out
}

// lineEndAmounts matches a bare D+.DD token at the end of a line, the
// usual shape of an itemized price column.
func lineEndAmounts(text string) []float64 {
	var out []float64
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if v, ok := trailingDecimal(line); ok {
			out = append(out, v)
		}
	}
	return out
}

// trailingDecimal matches digits, a dot, and exactly two decimals at
// the very end of a line.
func trailingDecimal(line string) (float64, bool) {
	n := len(line)
	if n < 4 || !isDigit(line[n-1]) || !isDigit(line[n-2]) || line[n-3] != '.' {
		return 0, false
	}
	start := n - 3
	for start > 0 && isDigit(line[start-1]) {
		start--
	}
	if start == n-3 {
		return 0, false // dot with no integer part
	}
	v, err := strconv.ParseFloat(line[start:], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// scanNumber parses a decimal of the shape D+ or D+.D* starting at i.
func scanNumber(text string, i int) (float64, bool) {
	start := i
	for i < len(text) && isDigit(text[i]) {
		i++
	}
	if i == start {
		return 0, false
	}
	if i < len(text) && text[i] == '.' {
		i++
		for i < len(text) && isDigit(text[i]) {
			i++
		}
	}
	v, err := strconv.ParseFloat(text[start:i], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func skipSpace(text string, i int) int {
	for i < len(text) {
		switch text[i] {
		case ' ', '\t', '\r', '\n', '\f', '\v':
			i++
		default:
			return i
		}
	}
	return i
}
