package weight_inspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	af := &Artifact{
		Format:      FormatGGUF,
		GGUFVersion: 3,
		Metadata: Metadata{
			{Key: "general.architecture", Value: StringValue("llama")},
			{Key: "llama.block_count", Value: UintValue(32, 32)},
		},
		Tensors: Tensors{
			{Name: "a.weight", Dtype: "f32", Shape: []uint64{2, 2}, ByteLength: 16},
		},
	}

	assert.Equal(t,
		`{"format":"gguf","gguf_version":3,`+
			`"metadata":{"general.architecture":"llama","llama.block_count":32},`+
			`"tensors":{"a.weight":{"byte_length":16,"dtype":"f32","shape":[2,2]}}}`,
		string(Canonicalize(af)))
}

func TestCanonicalize_safetensors(t *testing.T) {
	af := &Artifact{
		Format: FormatSafetensors,
		Metadata: Metadata{
			{Key: "k", Value: StringValue("v")},
		},
		Tensors: Tensors{
			{Name: "t", Dtype: "f32", Shape: []uint64{2}, ByteLength: 8},
		},
	}

	// No gguf_version key outside GGUF.
	assert.Equal(t,
		`{"format":"safetensors",`+
			`"metadata":{"k":"v"},`+
			`"tensors":{"t":{"byte_length":8,"dtype":"f32","shape":[2]}}}`,
		string(Canonicalize(af)))
}

func TestCanonicalize_floatBits(t *testing.T) {
	cases := []struct {
		name     string
		given    CanonicalValue
		expected string
	}{
		{"f64 two", Float64Value(2.0), `{"f64_bits":4611686018427387904}`},
		{"f64 zero", Float64Value(0.0), `{"f64_bits":0}`},
		{"f32 one", Float32Value(1.0), `{"f32_bits":1065353216}`},
		{"f32 negative", Float32Value(-2.5), `{"f32_bits":3223322624}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			af := &Artifact{
				Format:   FormatSafetensors,
				Metadata: Metadata{{Key: "x", Value: tc.given}},
			}
			assert.Equal(t,
				`{"format":"safetensors","metadata":{"x":`+tc.expected+`},"tensors":{}}`,
				string(Canonicalize(af)))
		})
	}
}

func TestCanonicalize_nfcEquivalence(t *testing.T) {
	// "é" precomposed vs "e" + combining acute accent.
	precomposed := "café"
	decomposed := "café"

	x := &Artifact{
		Format:   FormatSafetensors,
		Metadata: Metadata{{Key: "name", Value: StringValue(precomposed)}},
	}
	y := &Artifact{
		Format:   FormatSafetensors,
		Metadata: Metadata{{Key: "name", Value: StringValue(decomposed)}},
	}

	assert.Equal(t, Canonicalize(x), Canonicalize(y))
	assert.Equal(t, Hash(x), Hash(y))
	assert.False(t, Diff(x, y).HasChanges())
}

func TestCanonicalize_stringEscapes(t *testing.T) {
	af := &Artifact{
		Format:   FormatSafetensors,
		Metadata: Metadata{{Key: "x", Value: StringValue("a\"b\\c\nd\x01e")}},
	}

	assert.Equal(t,
		`{"format":"safetensors","metadata":{"x":"a\"b\\c\nd\u0001e"},"tensors":{}}`,
		string(Canonicalize(af)))
}

func TestCanonicalize_array(t *testing.T) {
	af := &Artifact{
		Format: FormatSafetensors,
		Metadata: Metadata{
			{Key: "xs", Value: ArrayValue([]CanonicalValue{
				IntValue(-1, 32),
				UintValue(2, 8),
				BoolValue(true),
				StringValue("s"),
			})},
		},
	}

	assert.Equal(t,
		`{"format":"safetensors","metadata":{"xs":[-1,2,true,"s"]},"tensors":{}}`,
		string(Canonicalize(af)))
}

func TestCanonicalize_deterministic(t *testing.T) {
	bs := testGGUFBytes(3,
		[]_TestGGUFKV{
			testGGUFStringKV("general.architecture", "llama"),
			testGGUFUint32KV("llama.block_count", 32),
		},
		[]_TestGGUFTensor{
			{Name: "a.weight", Shape: []uint64{2, 2}, Type: uint32(GGMLTypeF32)},
		})

	af, err := ParseGGUF(bs)
	if err != nil {
		t.Fatal(err)
		return
	}

	first := Canonicalize(af)
	for i := 0; i < 16; i++ {
		assert.Equal(t, first, Canonicalize(af))
	}
}
