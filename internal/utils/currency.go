package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatVND renders an amount the way Vietnamese users expect:
// dot-separated thousands and the đồng sign, e.g. 1234567 -> "1.234.567 ₫".
// Đồng has no fractional unit, so the amount is rounded to a whole number.
func FormatVND(amount float64) string {
	negative := amount < 0
	whole := int64(math.Round(math.Abs(amount)))

	digits := fmt.Sprintf("%d", whole)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	formatted := strings.Join(groups, ".") + " ₫"
	if negative {
		formatted = "-" + formatted
	}
	return formatted
}
