package weight_inspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGGMLType_BytesFor(t *testing.T) {
	cases := []struct {
		name     string
		given    GGMLType
		shape    []uint64
		expected uint64
	}{
		{"f32", GGMLTypeF32, []uint64{2, 2}, 16},
		{"f16", GGMLTypeF16, []uint64{4}, 8},
		{"scalar", GGMLTypeF32, []uint64{}, 4},
		{"q4_k full block", GGMLTypeQ4_K, []uint64{256}, 144},
		{"q4_0 partial block", GGMLTypeQ4_0, []uint64{33}, 36},
		{"q8_0", GGMLTypeQ8_0, []uint64{4096, 32}, 139264},
		{"tq1_0", GGMLTypeTQ1_0, []uint64{256}, 54},
		{"tq2_0", GGMLTypeTQ2_0, []uint64{512}, 132},
		{"mxfp4", GGMLTypeMXFP4, []uint64{32}, 17},
		{"bf16", GGMLTypeBF16, []uint64{3}, 6},
		{"deprecated", GGMLTypeQ4_2, []uint64{32}, 0},
		{"unknown", GGMLType(99), []uint64{32}, 0},
		{"zero dimension", GGMLTypeF32, []uint64{0, 4}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.given.BytesFor(tc.shape))
		})
	}
}

func TestGGMLType_Dtype(t *testing.T) {
	assert.Equal(t, "f32", GGMLTypeF32.Dtype())
	assert.Equal(t, "q4_k", GGMLTypeQ4_K.Dtype())
	assert.Equal(t, "bf16", GGMLTypeBF16.Dtype())
	assert.Equal(t, "mxfp4", GGMLTypeMXFP4.Dtype())
	assert.Equal(t, "unknown_99", GGMLType(99).Dtype())
}

func TestGGMLType_Trait(t *testing.T) {
	tt, ok := GGMLTypeQ4_K.Trait()
	assert.True(t, ok)
	assert.Equal(t, GGMLTypeTrait{BlockSize: 256, TypeSize: 144, Quantized: true}, tt)

	_, ok = GGMLTypeQ4_3.Trait()
	assert.False(t, ok, "deprecated types carry no trait")

	_, ok = GGMLType(99).Trait()
	assert.False(t, ok)
}
