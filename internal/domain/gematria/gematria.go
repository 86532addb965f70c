// Package gematria formats integers as Hebrew numerals the way daf numbers are printed.
package gematria

import "strings"

const (
	geresh    = "׳"
	gershayim = "״"
)

var (
	units    = [...]string{"", "א", "ב", "ג", "ד", "ה", "ו", "ז", "ח", "ט"}
	tens     = [...]string{"", "י", "כ", "ל", "מ", "נ", "ס", "ע", "פ", "צ"}
	hundreds = [...]string{"", "ק", "ר", "ש", "ת"}
)

// FirstDaf is the number of the first daf in every tractate.
const FirstDaf = 2

// Number renders n as a Hebrew numeral. A single letter is followed by a
// geresh; longer results carry a gershayim before the final letter.
// Numbers ending in 15 or 16 use the ט״ו / ט״ז forms. Values below 1 render
// as the empty string.
func Number(n int) string {
	if n <= 0 {
		return ""
	}

	var b strings.Builder
	h := n / 100
	for h > 4 {
		b.WriteString(hundreds[4])
		h -= 4
	}
	b.WriteString(hundreds[h])

	rest := n % 100
	switch rest {
	case 15:
		b.WriteString(units[9] + units[6])
	case 16:
		b.WriteString(units[9] + units[7])
	default:
		b.WriteString(tens[rest/10])
		b.WriteString(units[rest%10])
	}

	return punctuate(b.String())
}

// DafLabel returns the label of the page at the zero-based index within a tractate.
func DafLabel(index int) string {
	return Number(index + FirstDaf)
}

func punctuate(letters string) string {
	runes := []rune(letters)
	switch len(runes) {
	case 0:
		return ""
	case 1:
		return letters + geresh
	default:
		last := len(runes) - 1
		return string(runes[:last]) + gershayim + string(runes[last])
	}
}
