package funcx

// MustNoError returns the given value,
// and panics if the given error is not nil.
func MustNoError[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// NoError drops the given error.
func NoError[T any](v T, _ error) T {
	return v
}
