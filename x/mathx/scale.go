package mathx

import "golang.org/x/exp/constraints"

// Scale maps v in [0, inMax] onto [0, outMax], rounding to nearest.
// v above inMax saturates at outMax; inMax == 0 yields 0.
func Scale[T constraints.Unsigned](v, inMax, outMax T) T {
	if inMax == 0 {
		return 0
	}
	if v >= inMax {
		return outMax
	}
	num := uint64(v)*uint64(outMax) + uint64(inMax)/2
	return T(num / uint64(inMax))
}

// Threshold reports whether v is in the upper half of [0, max].
func Threshold[T constraints.Unsigned](v, max T) bool {
	return v > max/2
}
