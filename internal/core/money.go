// Package core provides amount parsing and display helpers.
//
// Amounts are float64 and follow number-input semantics: whatever decimal
// prefix the text carries is used, and text without one becomes NaN rather
// than an error.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts user text to an amount.
//
// Leading whitespace is skipped and the longest valid decimal prefix is
// parsed, so trailing garbage is ignored. "Infinity" with an optional sign is
// accepted. Text without any numeric prefix yields NaN.
//
// Examples:
//   ParseAmount("500")     -> 500
//   ParseAmount(" 12.5kg") -> 12.5
//   ParseAmount("-3")      -> -3
//   ParseAmount("1e3")     -> 1000
//   ParseAmount("abc")     -> NaN
func ParseAmount(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	if s == "" {
		return math.NaN()
	}

	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return math.NaN()
	}
	end := i

	// Exponent only counts when followed by at least one digit.
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			end = k
		}
	}

	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		// Out of range values come back as ±Inf together with ErrRange.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return v
		}
		return math.NaN()
	}
	return v
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// FormatAmount renders an amount the way a number prints in the list: no
// trailing zeros, integers without a decimal point. Magnitudes of 1e21 and
// above or below 1e-6 use exponent form, e.g. "1e+21" and "1.5e-7".
func FormatAmount(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	if v == 0 {
		return "0"
	}
	if abs := math.Abs(v); abs >= 1e21 || abs < 1e-6 {
		return exponent(v)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// exponent formats v with the shortest mantissa and an unpadded, signed
// exponent.
func exponent(v float64) string {
	s := strconv.FormatFloat(v, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + sign + digits
}
