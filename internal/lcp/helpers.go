package lcp

import "golang.org/x/exp/constraints"

// clamp restricts a value to a range
func clamp[T constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs[T constraints.Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
