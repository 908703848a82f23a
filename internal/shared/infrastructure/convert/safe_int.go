// Package convert holds overflow-checked integer conversions.
package convert

import (
	"fmt"
	"math"
)

// IntToInt32 converts v, failing when it does not fit.
func IntToInt32(v int) (int32, error) {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("int %d overflows int32", v)
	}
	return int32(v), nil
}

// IntToInt32Clamped converts v, saturating at the int32 bounds.
func IntToInt32Clamped(v int) int32 {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}
