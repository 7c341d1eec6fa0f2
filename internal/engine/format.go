package engine

import (
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/govalues/decimal"
)

// ErrorText is displayed, and recorded as a result, when an evaluation fails.
const ErrorText = "Error"

// FormatNumber renders d for the display: comma-grouped integer part, the
// fractional digits exactly as held by d.
func FormatNumber(d decimal.Decimal) string {
	s := d.String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, hasFrac := strings.Cut(s, ".")
	n, ok := new(big.Int).SetString(intPart, 10)
	if ok {
		intPart = humanize.BigComma(n)
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(intPart)
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// appendDigitText appends d to the raw entry text, collapsing a lone
// leading zero.
func appendDigitText(text string, d Digit) string {
	switch text {
	case "0":
		return d.String()
	case "-0":
		return "-" + d.String()
	}
	return text + d.String()
}

// significantDigits counts the digits of a raw entry text, ignoring a
// leading zero integer part.
func significantDigits(text string) int {
	text = strings.TrimPrefix(text, "-")
	text = strings.TrimLeft(text, "0")
	return len(text) - strings.Count(text, ".")
}
