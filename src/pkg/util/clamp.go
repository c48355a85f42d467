package util

import "cmp"

// Clamp limits v to [lo, hi].
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return max(lo, min(v, hi))
}

/*
ClampOrDefault is Clamp, except that the zero value means "not set" and yields def.
Used for page sizes and limits read from flags or fixtures.
*/
func ClampOrDefault[T cmp.Ordered](v, def, lo, hi T) T {
	var zero T
	if v == zero {
		return def
	}
	return Clamp(v, lo, hi)
}
