package weight_inspect

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
	"golang.org/x/text/unicode/norm"

	"github.com/weightops/weight-inspect-go/util/json"
	"github.com/weightops/weight-inspect-go/util/ptr"
)

// ValueKind is the discriminant of a CanonicalValue.
type ValueKind uint32

// ValueKind constants.
const (
	ValueKindUint        ValueKind = iota // uint
	ValueKindInt                          // int
	ValueKindFloat32                      // f32
	ValueKindFloat64                      // f64
	ValueKindBool                         // bool
	ValueKindString                       // string
	ValueKindArray                        // array
	ValueKindUnsupported                  // unsupported
	_ValueKindCount                       // Unknown
)

// CanonicalValue is one metadata value in its canonical in-memory form.
//
// It is a closed tagged union: Kind selects which of the payload fields
// is meaningful, and every consumer switches exhaustively over Kind.
// Integers carry the bit width of their source encoding, floats carry
// their exact bit pattern via the native float types, and strings are
// normalized to Unicode NFC on construction. Unknown GGUF value-type
// tags survive as ValueKindUnsupported so that their presence remains
// visible to hashing and diffing.
type CanonicalValue struct {
	Kind ValueKind

	// Width is the bit width of the source integer encoding
	// (8, 16, 32 or 64); meaningful for ValueKindUint and ValueKindInt.
	Width uint8

	Uint uint64
	Int  int64
	F32  float32
	F64  float64
	Bool bool
	Str  string
	Arr  []CanonicalValue

	// Tag is the raw GGUF value-type tag; meaningful for ValueKindUnsupported.
	Tag uint32
}

// UintValue returns an unsigned integer value with the given source bit width.
func UintValue(v uint64, width uint8) CanonicalValue {
	return CanonicalValue{Kind: ValueKindUint, Uint: v, Width: width}
}

// IntValue returns a signed integer value with the given source bit width.
func IntValue(v int64, width uint8) CanonicalValue {
	return CanonicalValue{Kind: ValueKindInt, Int: v, Width: width}
}

// Float32Value returns a 32-bit float value.
func Float32Value(v float32) CanonicalValue {
	return CanonicalValue{Kind: ValueKindFloat32, F32: v}
}

// Float64Value returns a 64-bit float value.
func Float64Value(v float64) CanonicalValue {
	return CanonicalValue{Kind: ValueKindFloat64, F64: v}
}

// BoolValue returns a boolean value.
func BoolValue(v bool) CanonicalValue {
	return CanonicalValue{Kind: ValueKindBool, Bool: v}
}

// StringValue returns a string value, normalized to Unicode NFC.
func StringValue(v string) CanonicalValue {
	return CanonicalValue{Kind: ValueKindString, Str: norm.NFC.String(v)}
}

// ArrayValue returns an ordered array value.
func ArrayValue(items []CanonicalValue) CanonicalValue {
	return CanonicalValue{Kind: ValueKindArray, Arr: items}
}

// UnsupportedValue returns a placeholder for a value whose GGUF type tag
// is outside the known set.
func UnsupportedValue(tag uint32) CanonicalValue {
	return CanonicalValue{Kind: ValueKindUnsupported, Tag: tag}
}

// Equal reports whether two values are structurally equal.
//
// Equality matches canonical-bytes equality exactly: integers compare by
// sign and magnitude regardless of source width or signedness, floats
// compare by width and bit pattern, arrays compare element-wise in order.
func (v CanonicalValue) Equal(o CanonicalValue) bool {
	if v.isInteger() && o.isInteger() {
		vn, vm := v.integer()
		on, om := o.integer()
		return vn == on && vm == om
	}
	if v.Kind != o.Kind {
		return false
	}

	switch v.Kind {
	case ValueKindFloat32:
		return math.Float32bits(v.F32) == math.Float32bits(o.F32)
	case ValueKindFloat64:
		return math.Float64bits(v.F64) == math.Float64bits(o.F64)
	case ValueKindBool:
		return v.Bool == o.Bool
	case ValueKindString:
		return v.Str == o.Str
	case ValueKindArray:
		if len(v.Arr) != len(o.Arr) {
			return false
		}
		for i := range v.Arr {
			if !v.Arr[i].Equal(o.Arr[i]) {
				return false
			}
		}
		return true
	case ValueKindUnsupported:
		return v.Tag == o.Tag
	default:
		// Should not happen.
		panic(fmt.Errorf("invalid kind: %v", v.Kind))
	}
}

func (v CanonicalValue) isInteger() bool {
	return v.Kind == ValueKindUint || v.Kind == ValueKindInt
}

// integer returns the sign and magnitude of an integer value.
func (v CanonicalValue) integer() (negative bool, magnitude uint64) {
	if v.Kind == ValueKindUint {
		return false, v.Uint
	}
	if v.Int < 0 {
		return true, uint64(-v.Int)
	}
	return false, uint64(v.Int)
}

// Numeric returns the value cast to the given numeric type,
// and panics if the value is not numeric.
func Numeric[T constraints.Integer | constraints.Float](v CanonicalValue) T {
	switch v.Kind {
	case ValueKindUint:
		return T(v.Uint)
	case ValueKindInt:
		return T(v.Int)
	case ValueKindFloat32:
		return T(v.F32)
	case ValueKindFloat64:
		return T(v.F64)
	default:
	}
	panic(fmt.Errorf("invalid kind: %v", v.Kind))
}

// String renders the value for display.
//
// The canonical serialization lives in Canonicalize; this form is for
// human-readable output only.
func (v CanonicalValue) String() string {
	switch v.Kind {
	case ValueKindUint:
		return strconv.FormatUint(v.Uint, 10)
	case ValueKindInt:
		return strconv.FormatInt(v.Int, 10)
	case ValueKindFloat32:
		return strconv.FormatFloat(float64(v.F32), 'g', -1, 32)
	case ValueKindFloat64:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case ValueKindBool:
		return strconv.FormatBool(v.Bool)
	case ValueKindString:
		return v.Str
	case ValueKindArray:
		var sb strings.Builder
		sb.WriteByte('[')
		for i := range v.Arr {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(v.Arr[i].String())
		}
		sb.WriteByte(']')
		return sb.String()
	case ValueKindUnsupported:
		return fmt.Sprintf("unsupported(%d)", v.Tag)
	default:
		return fmt.Sprintf("invalid(%d)", uint32(v.Kind))
	}
}

// _CanonicalValueJSON is the cache/interchange encoding of a CanonicalValue.
type _CanonicalValueJSON struct {
	Type  string           `json:"type"`
	Width uint8            `json:"width,omitempty"`
	Uint  *uint64          `json:"uint,omitempty"`
	Int   *int64           `json:"int,omitempty"`
	Bits  *uint64          `json:"bits,omitempty"`
	Bool  *bool            `json:"bool,omitempty"`
	Str   *string          `json:"string,omitempty"`
	Items []CanonicalValue `json:"items,omitempty"`
	Tag   uint32           `json:"tag,omitempty"`
}

func (v CanonicalValue) MarshalJSON() ([]byte, error) {
	j := _CanonicalValueJSON{Type: v.Kind.String(), Width: v.Width}
	switch v.Kind {
	case ValueKindUint:
		j.Uint = ptr.To(v.Uint)
	case ValueKindInt:
		j.Int = ptr.To(v.Int)
	case ValueKindFloat32:
		j.Bits = ptr.To(uint64(math.Float32bits(v.F32)))
	case ValueKindFloat64:
		j.Bits = ptr.To(math.Float64bits(v.F64))
	case ValueKindBool:
		j.Bool = ptr.To(v.Bool)
	case ValueKindString:
		j.Str = ptr.To(v.Str)
	case ValueKindArray:
		j.Items = v.Arr
		if j.Items == nil {
			j.Items = []CanonicalValue{}
		}
	case ValueKindUnsupported:
		j.Tag = v.Tag
	default:
		return nil, fmt.Errorf("invalid kind: %v", v.Kind)
	}
	return json.Marshal(j)
}

func (v *CanonicalValue) UnmarshalJSON(bs []byte) error {
	var j _CanonicalValueJSON
	if err := json.Unmarshal(bs, &j); err != nil {
		return err
	}

	switch j.Type {
	case "uint":
		*v = UintValue(ptr.Deref(j.Uint, 0), j.Width)
	case "int":
		*v = IntValue(ptr.Deref(j.Int, 0), j.Width)
	case "f32":
		*v = Float32Value(math.Float32frombits(uint32(ptr.Deref(j.Bits, 0))))
	case "f64":
		*v = Float64Value(math.Float64frombits(ptr.Deref(j.Bits, 0)))
	case "bool":
		*v = BoolValue(ptr.Deref(j.Bool, false))
	case "string":
		*v = StringValue(ptr.Deref(j.Str, ""))
	case "array":
		items := j.Items
		if items == nil {
			items = []CanonicalValue{}
		}
		*v = ArrayValue(items)
	case "unsupported":
		*v = UnsupportedValue(j.Tag)
	default:
		return fmt.Errorf("invalid kind: %q", j.Type)
	}
	return nil
}
