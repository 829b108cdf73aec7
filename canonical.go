package weight_inspect

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/weightops/weight-inspect-go/util/bytex"
)

// Canonicalize renders the Artifact into its canonical byte form,
// the sole input of Hash.
//
// The form is a deterministic JSON subset: object keys sorted by byte
// order of their NFC-normalized form, no insignificant whitespace,
// integers in plain decimal, floats as bit-pattern objects so that no
// decimal rendering ambiguity exists, and the minimal JSON string
// escapes. Two Artifacts produce the same bytes exactly when they are
// structurally identical.
func Canonicalize(af *Artifact) []byte {
	sb := bytex.GetBuffer()
	defer bytex.Put(sb)

	sb.WriteString(`{"format":`)
	canonicalizeString(sb, af.Format.String())
	if af.Format == FormatGGUF {
		sb.WriteString(`,"gguf_version":`)
		sb.WriteString(strconv.FormatUint(uint64(af.GGUFVersion), 10))
	}

	sb.WriteString(`,"metadata":{`)
	for i := range af.Metadata {
		if i > 0 {
			sb.WriteByte(',')
		}
		canonicalizeString(sb, af.Metadata[i].Key)
		sb.WriteByte(':')
		canonicalizeValue(sb, af.Metadata[i].Value)
	}
	sb.WriteByte('}')

	sb.WriteString(`,"tensors":{`)
	for i := range af.Tensors {
		ti := &af.Tensors[i]
		if i > 0 {
			sb.WriteByte(',')
		}
		canonicalizeString(sb, ti.Name)
		sb.WriteString(`:{"byte_length":`)
		sb.WriteString(strconv.FormatUint(ti.ByteLength, 10))
		sb.WriteString(`,"dtype":`)
		canonicalizeString(sb, ti.Dtype)
		sb.WriteString(`,"shape":[`)
		for j := range ti.Shape {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatUint(ti.Shape[j], 10))
		}
		sb.WriteString(`]}`)
	}
	sb.WriteString(`}}`)

	return bytes.Clone(sb.Bytes())
}

func canonicalizeValue(sb bytex.BytesBuffer, v CanonicalValue) {
	switch v.Kind {
	case ValueKindUint:
		sb.WriteString(strconv.FormatUint(v.Uint, 10))
	case ValueKindInt:
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	case ValueKindFloat32:
		sb.WriteString(`{"f32_bits":`)
		sb.WriteString(strconv.FormatUint(uint64(math.Float32bits(v.F32)), 10))
		sb.WriteByte('}')
	case ValueKindFloat64:
		sb.WriteString(`{"f64_bits":`)
		sb.WriteString(strconv.FormatUint(math.Float64bits(v.F64), 10))
		sb.WriteByte('}')
	case ValueKindBool:
		if v.Bool {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case ValueKindString:
		canonicalizeString(sb, v.Str)
	case ValueKindArray:
		sb.WriteByte('[')
		for i := range v.Arr {
			if i > 0 {
				sb.WriteByte(',')
			}
			canonicalizeValue(sb, v.Arr[i])
		}
		sb.WriteByte(']')
	case ValueKindUnsupported:
		sb.WriteString(`{"unsupported_type":`)
		sb.WriteString(strconv.FormatUint(uint64(v.Tag), 10))
		sb.WriteByte('}')
	default:
		// Should not happen.
		panic(fmt.Errorf("invalid kind: %v", v.Kind))
	}
}

// canonicalizeString writes s as a JSON string using only the escapes
// JSON requires: the two-character forms for quote, backslash and the
// common control characters, and lowercase \u00xx for the rest of the
// C0 range. Everything else passes through as raw UTF-8.
func canonicalizeString(sb bytex.BytesBuffer, s string) {
	const hex = "0123456789abcdef"

	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			sb.WriteString(`\"`)
		case c == '\\':
			sb.WriteString(`\\`)
		case c == '\b':
			sb.WriteString(`\b`)
		case c == '\f':
			sb.WriteString(`\f`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c < 0x20:
			sb.WriteString(`\u00`)
			sb.WriteByte(hex[c>>4])
			sb.WriteByte(hex[c&0xF])
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
}
