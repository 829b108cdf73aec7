package slicex

import "golang.org/x/exp/constraints"

// LowerBound returns an index of the first element that is not less than value.
func LowerBound[T constraints.Ordered](s []T, e T) int {
	l, r := 0, len(s)
	for l < r {
		m := l + (r-l)/2
		if s[m] < e {
			l = m + 1
		} else {
			r = m
		}
	}
	return l
}

// UpperBound returns an index of the first element that is greater than value.
func UpperBound[T constraints.Ordered](s []T, e T) int {
	l, r := 0, len(s)
	for l < r {
		m := l + (r-l)/2
		if s[m] <= e {
			l = m + 1
		} else {
			r = m
		}
	}
	return l
}
