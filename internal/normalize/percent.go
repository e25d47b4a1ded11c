// Package normalize converts locale-formatted yield figures from external
// sources into canonical percent values (3.69 means 3.69%).
package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Percent parses a yield string as displayed by an external source and
// returns its canonical numeric value rounded to two decimals.
// Accepted inputs use ',' or '.' as the decimal separator and may carry a
// trailing '%'. ok is false when the input is empty, non-numeric, or not a
// finite number; Percent never panics on garbled input.
func Percent(raw string) (value float64, ok bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return Round(v), true
}

// FromRatio converts a yield supplied as a 0–1 fraction (0.0369 → 3.69)
// into percent units. Values >= 1.0 are passed through rounded, with
// alreadyPercent set so the caller can flag the unit-convention mismatch;
// such values usually mean the source already reported percent units.
func FromRatio(v float64) (value float64, alreadyPercent bool) {
	if v < 1.0 {
		return Round(v * 100), false
	}
	return Round(v), true
}

// Round rounds to two decimal places, the precision yields are displayed at.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}
