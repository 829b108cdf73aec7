package weight_inspect

import (
	"fmt"
	"math"
)

// Types for GGMLType.
type (
	// GGMLType is a type of GGML tensor,
	// see https://github.com/ggerganov/ggml/blob/master/docs/gguf.md#file-structure.
	GGMLType uint32

	// GGMLTypeTrait holds the block geometry of a GGMLType:
	// how many elements share one block and how many bytes one block takes.
	GGMLTypeTrait struct {
		BlockSize uint64
		TypeSize  uint64
		Quantized bool
	}
)

// GGMLType constants.
//
// GGMLTypeQ4_2, GGMLTypeQ4_3, GGMLTypeQ4_0_4_4, GGMLTypeQ4_0_4_8, GGMLTypeQ4_0_8_8,
// GGMLTypeIQ4_NL_4_4, GGMLTypeIQ4_NL_4_8 and GGMLTypeIQ4_NL_8_8 are deprecated.
const (
	GGMLTypeF32        GGMLType = iota // f32
	GGMLTypeF16                        // f16
	GGMLTypeQ4_0                       // q4_0
	GGMLTypeQ4_1                       // q4_1
	GGMLTypeQ4_2                       // q4_2
	GGMLTypeQ4_3                       // q4_3
	GGMLTypeQ5_0                       // q5_0
	GGMLTypeQ5_1                       // q5_1
	GGMLTypeQ8_0                       // q8_0
	GGMLTypeQ8_1                       // q8_1
	GGMLTypeQ2_K                       // q2_k
	GGMLTypeQ3_K                       // q3_k
	GGMLTypeQ4_K                       // q4_k
	GGMLTypeQ5_K                       // q5_k
	GGMLTypeQ6_K                       // q6_k
	GGMLTypeQ8_K                       // q8_k
	GGMLTypeIQ2_XXS                    // iq2_xxs
	GGMLTypeIQ2_XS                     // iq2_xs
	GGMLTypeIQ3_XXS                    // iq3_xxs
	GGMLTypeIQ1_S                      // iq1_s
	GGMLTypeIQ4_NL                     // iq4_nl
	GGMLTypeIQ3_S                      // iq3_s
	GGMLTypeIQ2_S                      // iq2_s
	GGMLTypeIQ4_XS                     // iq4_xs
	GGMLTypeI8                         // i8
	GGMLTypeI16                        // i16
	GGMLTypeI32                        // i32
	GGMLTypeI64                        // i64
	GGMLTypeF64                        // f64
	GGMLTypeIQ1_M                      // iq1_m
	GGMLTypeBF16                       // bf16
	GGMLTypeQ4_0_4_4                   // q4_0_4_4
	GGMLTypeQ4_0_4_8                   // q4_0_4_8
	GGMLTypeQ4_0_8_8                   // q4_0_8_8
	GGMLTypeTQ1_0                      // tq1_0
	GGMLTypeTQ2_0                      // tq2_0
	GGMLTypeIQ4_NL_4_4                 // iq4_nl_4_4
	GGMLTypeIQ4_NL_4_8                 // iq4_nl_4_8
	GGMLTypeIQ4_NL_8_8                 // iq4_nl_8_8
	GGMLTypeMXFP4                      // mxfp4
	_GGMLTypeCount                     // Unknown
)

// _GGMLTypeTraits is a table of GGMLTypeTrait for GGMLType,
// see https://github.com/ggerganov/ggml/blob/0cbb7c0e053f5419cfbebb46fbf4d4ed60182cf5/src/ggml.c#L564-L918.
var _GGMLTypeTraits = map[GGMLType]GGMLTypeTrait{
	GGMLTypeF32:     {BlockSize: 1, TypeSize: 4},
	GGMLTypeF16:     {BlockSize: 1, TypeSize: 2},
	GGMLTypeQ4_0:    {BlockSize: 32, TypeSize: 18, Quantized: true},
	GGMLTypeQ4_1:    {BlockSize: 32, TypeSize: 20, Quantized: true},
	GGMLTypeQ5_0:    {BlockSize: 32, TypeSize: 22, Quantized: true},
	GGMLTypeQ5_1:    {BlockSize: 32, TypeSize: 24, Quantized: true},
	GGMLTypeQ8_0:    {BlockSize: 32, TypeSize: 34, Quantized: true},
	GGMLTypeQ8_1:    {BlockSize: 32, TypeSize: 36, Quantized: true},
	GGMLTypeQ2_K:    {BlockSize: 256, TypeSize: 84, Quantized: true},
	GGMLTypeQ3_K:    {BlockSize: 256, TypeSize: 110, Quantized: true},
	GGMLTypeQ4_K:    {BlockSize: 256, TypeSize: 144, Quantized: true},
	GGMLTypeQ5_K:    {BlockSize: 256, TypeSize: 176, Quantized: true},
	GGMLTypeQ6_K:    {BlockSize: 256, TypeSize: 210, Quantized: true},
	GGMLTypeQ8_K:    {BlockSize: 256, TypeSize: 292, Quantized: true},
	GGMLTypeIQ2_XXS: {BlockSize: 256, TypeSize: 66, Quantized: true},
	GGMLTypeIQ2_XS:  {BlockSize: 256, TypeSize: 74, Quantized: true},
	GGMLTypeIQ3_XXS: {BlockSize: 256, TypeSize: 98, Quantized: true},
	GGMLTypeIQ1_S:   {BlockSize: 256, TypeSize: 50, Quantized: true},
	GGMLTypeIQ4_NL:  {BlockSize: 32, TypeSize: 18, Quantized: true},
	GGMLTypeIQ3_S:   {BlockSize: 256, TypeSize: 110, Quantized: true},
	GGMLTypeIQ2_S:   {BlockSize: 256, TypeSize: 82, Quantized: true},
	GGMLTypeIQ4_XS:  {BlockSize: 256, TypeSize: 136, Quantized: true},
	GGMLTypeI8:      {BlockSize: 1, TypeSize: 1},
	GGMLTypeI16:     {BlockSize: 1, TypeSize: 2},
	GGMLTypeI32:     {BlockSize: 1, TypeSize: 4},
	GGMLTypeI64:     {BlockSize: 1, TypeSize: 8},
	GGMLTypeF64:     {BlockSize: 1, TypeSize: 8},
	GGMLTypeIQ1_M:   {BlockSize: 256, TypeSize: 56, Quantized: true},
	GGMLTypeBF16:    {BlockSize: 1, TypeSize: 2},
	GGMLTypeTQ1_0:   {BlockSize: 256, TypeSize: 54, Quantized: true},
	GGMLTypeTQ2_0:   {BlockSize: 256, TypeSize: 66, Quantized: true},
	GGMLTypeMXFP4:   {BlockSize: 32, TypeSize: 17, Quantized: true},
}

// Trait returns the GGMLTypeTrait of the GGMLType,
// and false for deprecated or unknown types.
func (t GGMLType) Trait() (GGMLTypeTrait, bool) {
	tt, ok := _GGMLTypeTraits[t]
	return tt, ok
}

// Dtype returns the normalized lowercase dtype name of the GGMLType,
// or "unknown_N" for a type outside the known set.
func (t GGMLType) Dtype() string {
	if t >= _GGMLTypeCount {
		return fmt.Sprintf("unknown_%d", uint32(t))
	}
	return t.String()
}

// BytesFor returns the storage size in bytes of a tensor with the given
// dimensions, derived from the type's block geometry:
// ceil(elements / blockSize) * typeSize.
//
// Deprecated and unknown types, and shapes whose element product
// overflows, yield 0.
func (t GGMLType) BytesFor(shape []uint64) uint64 {
	tt, ok := t.Trait()
	if !ok || tt.BlockSize == 0 {
		return 0
	}

	elements := uint64(1)
	for i := range shape {
		if shape[i] != 0 && elements > math.MaxUint64/shape[i] {
			return 0
		}
		elements *= shape[i]
	}

	blocks := (elements + tt.BlockSize - 1) / tt.BlockSize
	return blocks * tt.TypeSize
}
