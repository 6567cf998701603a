package common

// Coalesce returns the first of values that is not the zero value of T.
//
// Parameters:
//   - values: candidates in priority order
//
// Returns:
//   - T: the first non-zero candidate, or the zero value when every candidate is zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Clamp limits v to [lo, hi].
func Clamp[T ~int | ~int32 | ~float32 | ~float64](v, lo, hi T) T {
	return max(lo, min(v, hi))
}
