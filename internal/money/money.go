// Package money parses and formats fixed-point currency amounts. Amounts
// travel as decimal strings on the wire and as int64 minor units
// internally, so no float ever touches a balance.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrMalformedAmount = errors.New("malformed_amount")

// ParseAmount converts a decimal string like "500.00" or "19.9" into
// minor units. At most two fraction digits are accepted; signs,
// exponents and grouping separators are not.
func ParseAmount(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrMalformedAmount
	}

	whole, frac, hasFrac := strings.Cut(raw, ".")
	if whole == "" || !isDigits(whole) {
		return 0, ErrMalformedAmount
	}
	if hasFrac && (frac == "" || len(frac) > 2 || !isDigits(frac)) {
		return 0, ErrMalformedAmount
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrMalformedAmount
	}

	var cents int64
	if hasFrac {
		for len(frac) < 2 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, ErrMalformedAmount
		}
	}

	if units > (math.MaxInt64-cents)/100 {
		return 0, ErrMalformedAmount
	}
	return units*100 + cents, nil
}

// isDigits reports whether s consists solely of ASCII digits.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatAmount renders minor units as a decimal string with two fraction
// digits, the inverse of ParseAmount.
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
