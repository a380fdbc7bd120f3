package sheet

import (
	"math"
	"strconv"
	"strings"
)

var currencyReplacer = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "")

// CoerceFloat converts an arbitrary cell value into a finite float64.
// Currency symbols, thousands separators and parenthesized negatives are
// handled; anything unparseable becomes 0. It never panics.
func CoerceFloat(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	case float32:
		return CoerceFloat(float64(n))
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		return coerceString(n)
	default:
		return 0
	}
}

func coerceString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	// Symbols come off first so that the minus is visible wherever the
	// locale puts it ("-$5.00" and "$-5.00" both read as negative).
	// Accountants also write negatives as "(500)".
	s = currencyReplacer.Replace(s)
	negative := strings.Contains(s, "(") || strings.HasPrefix(s, "-")

	s = strings.ReplaceAll(s, "(", "")
	s = strings.ReplaceAll(s, ")", "")
	s = strings.TrimPrefix(s, "-")

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if negative {
		return -math.Abs(f)
	}
	return f
}
