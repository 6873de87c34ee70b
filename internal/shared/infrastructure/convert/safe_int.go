// Package convert provides overflow-checked integer conversions for values
// read from configuration.
package convert

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("integer overflow")

// IntToInt32 converts v, failing when it is out of int32 range.
func IntToInt32(v int) (int32, error) {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("%w: %d does not fit int32", ErrOverflow, v)
	}
	return int32(v), nil
}

// IntToUint32 converts v, failing when it is negative or too large.
func IntToUint32(v int) (uint32, error) {
	if v < 0 || uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d does not fit uint32", ErrOverflow, v)
	}
	return uint32(v), nil
}
