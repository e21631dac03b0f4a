// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatMoney formats an amount with two decimals and comma separators.
// e.g., 1234567.5 -> "1,234,567.50"
func FormatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")
	n, _ := strconv.ParseInt(whole, 10, 64)
	out := FormatNumber(n) + "." + frac
	if d.IsNegative() && !d.Round(2).IsZero() {
		return "-" + out
	}
	return out
}

// FormatCompactMoney shortens large amounts for narrow columns.
// e.g., 1234 -> "1.2K", 2500000 -> "2.5M"
func FormatCompactMoney(d decimal.Decimal) string {
	f := d.InexactFloat64()
	abs := f
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", f/1_000_000)
	case abs >= 10_000:
		return fmt.Sprintf("%.1fK", f/1_000)
	default:
		return FormatMoney(d)
	}
}

// FormatSigned formats a delta with an explicit sign.
func FormatSigned(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + FormatMoney(d.Neg())
	}
	return "+" + FormatMoney(d)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-100 value as a percentage string.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatDate formats a calendar date.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

// FormatDatePtr formats an optional date, "-" when unset.
func FormatDatePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return FormatDate(*t)
}

// FormatDays describes a day offset relative to today.
// e.g., 0 -> "today", 1 -> "tomorrow", 5 -> "in 5d", -2 -> "2d ago"
func FormatDays(days int) string {
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days < 0:
		return fmt.Sprintf("%dd ago", -days)
	default:
		return fmt.Sprintf("in %dd", days)
	}
}

// FormatMask renders a card number suffix.
func FormatMask(lastFour string) string {
	if lastFour == "" {
		return ""
	}
	return "•••• " + lastFour
}

// Truncate cuts s to n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
