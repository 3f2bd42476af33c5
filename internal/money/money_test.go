package money

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"500.00", 50000},
		{"500", 50000},
		{"19.9", 1990},
		{"0.01", 1},
		{"0", 0},
		{" 12.50 ", 1250},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if err != nil {
			t.Fatalf("ParseAmount(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseAmount(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseAmountRejectsMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		".",
		".50",
		"12.",
		"12.345",
		"-5.00",
		"+5.00",
		"1,000.00",
		"1e3",
		"abc",
		"12.x0",
		"9223372036854775807.99",
	} {
		if _, err := ParseAmount(in); !errors.Is(err, ErrMalformedAmount) {
			t.Fatalf("ParseAmount(%q): expected malformed amount, got %v", in, err)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{50000, "500.00"},
		{1990, "19.90"},
		{1, "0.01"},
		{0, "0.00"},
		{-1250, "-12.50"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.in); got != tc.want {
			t.Fatalf("FormatAmount(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, minor := range []int64{0, 1, 99, 100, 50000, 123456789} {
		parsed, err := ParseAmount(FormatAmount(minor))
		if err != nil {
			t.Fatalf("round trip %d: %v", minor, err)
		}
		if parsed != minor {
			t.Fatalf("round trip %d: got %d", minor, parsed)
		}
	}
}
