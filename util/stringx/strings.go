package stringx

import "unsafe"

// ToBytes converts the given string to a byte slice without copying.
//
// The result must not be mutated.
func ToBytes(s *string) []byte {
	if s == nil || *s == "" {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(*s), len(*s))
}

// FromBytes converts the given byte slice to a string without copying.
//
// The input must not be mutated afterwards.
func FromBytes(bs *[]byte) string {
	if bs == nil || len(*bs) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(*bs), len(*bs))
}
