package cli

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"9.99", "9.99"},
		{"1234.5", "1,234.50"},
		{"1234567.891", "1,234,567.89"},
		{"-42", "-42.00"},
		{"-0.001", "0.00"},
	}
	for _, tt := range tests {
		if got := FormatMoney(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCompactMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"950", "950.00"},
		{"9999", "9,999.00"},
		{"12500", "12.5K"},
		{"2500000", "2.5M"},
	}
	for _, tt := range tests {
		if got := FormatCompactMoney(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatCompactMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatSigned(t *testing.T) {
	if got := FormatSigned(decimal.RequireFromString("12.5")); got != "+12.50" {
		t.Errorf("FormatSigned(12.5) = %q", got)
	}
	if got := FormatSigned(decimal.RequireFromString("-3")); got != "-3.00" {
		t.Errorf("FormatSigned(-3) = %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-12345, "-12,345"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDays(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "today"},
		{1, "tomorrow"},
		{-1, "yesterday"},
		{5, "in 5d"},
		{-3, "3d ago"},
	}
	for _, tt := range tests {
		if got := FormatDays(tt.in); got != tt.want {
			t.Errorf("FormatDays(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDates(t *testing.T) {
	d := time.Date(2024, 2, 29, 15, 0, 0, 0, time.UTC)
	if got := FormatDate(d); got != "2024-02-29" {
		t.Errorf("FormatDate = %q", got)
	}
	if got := FormatDate(time.Time{}); got != "-" {
		t.Errorf("FormatDate(zero) = %q", got)
	}
	if got := FormatDatePtr(nil); got != "-" {
		t.Errorf("FormatDatePtr(nil) = %q", got)
	}
	if got := FormatDatePtr(&d); got != "2024-02-29" {
		t.Errorf("FormatDatePtr = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Groceries", 5); got != "Groc…" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("Gas", 5); got != "Gas" {
		t.Errorf("Truncate short = %q", got)
	}
	if got := FormatMask("4242"); got != "•••• 4242" {
		t.Errorf("FormatMask = %q", got)
	}
}
