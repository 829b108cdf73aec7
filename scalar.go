package weight_inspect

import (
	"errors"

	"github.com/dustin/go-humanize"
)

// BytesScalar is the scalar for bytes.
type BytesScalar uint64

// ParseBytesScalar parses the BytesScalar from the string,
// accepting both IEC ("10MiB") and SI ("10MB") suffixes.
func ParseBytesScalar(s string) (BytesScalar, error) {
	if s == "" {
		return 0, errors.New("invalid BytesScalar")
	}
	v, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return BytesScalar(v), nil
}

func (s BytesScalar) String() string {
	return humanize.IBytes(uint64(s))
}
