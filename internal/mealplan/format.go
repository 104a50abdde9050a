package mealplan

import (
	"fmt"
	"math"
)

// FormatDelta renders a signed relative error as a percentage, e.g. "+3.2%".
func FormatDelta(v float64) string {
	pct := math.Round(v*1000) / 10
	switch {
	case pct > 0:
		return fmt.Sprintf("+%.1f%%", pct)
	case pct < 0:
		return fmt.Sprintf("%.1f%%", pct)
	default:
		return "0.0%"
	}
}
