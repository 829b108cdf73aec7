package slicex

import "golang.org/x/exp/constraints"

// LowerBoundFunc returns an index of the first element whose key,
// extracted with the given function, is not less than value.
//
// The slice must be sorted ascending by that key.
func LowerBoundFunc[T any, K constraints.Ordered](s []T, e K, key func(T) K) int {
	l, r := 0, len(s)
	for l < r {
		m := l + (r-l)/2
		if key(s[m]) < e {
			l = m + 1
		} else {
			r = m
		}
	}
	return l
}
