package weight_inspect

import "errors"

// Parse-time failures. Every parser returns exactly one of these,
// wrapped with positional context; a failed parse never yields a
// partial Artifact.
var (
	// ErrInvalidMagic reports that the first four bytes of a GGUF file
	// do not spell the GGUF magic.
	ErrInvalidMagic = errors.New("invalid magic")

	// ErrTruncated reports that the buffer ended before a fixed- or
	// variable-length field completed.
	ErrTruncated = errors.New("truncated header")

	// ErrInvalidUTF8 reports that a string field does not hold valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid utf-8 string")

	// ErrInvalidJSON reports that the safetensors header bytes do not
	// parse as a single JSON object.
	ErrInvalidJSON = errors.New("invalid json header")

	// ErrInvalidOffsets reports a safetensors data_offsets pair with
	// start greater than end.
	ErrInvalidOffsets = errors.New("invalid data offsets")

	// ErrNestingTooDeep reports that a GGUF metadata array nests deeper
	// than the decoder allows.
	ErrNestingTooDeep = errors.New("array nesting too deep")

	// ErrHeaderTooLarge reports a header record count or length beyond
	// the decoder limits.
	ErrHeaderTooLarge = errors.New("header exceeds limits")
)
