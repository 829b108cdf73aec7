package weight_inspect

import (
	"encoding/binary"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
)

type (
	_TestGGUFKV struct {
		Key     string
		Type    uint32
		Payload []byte
	}

	_TestGGUFTensor struct {
		Name   string
		Shape  []uint64
		Type   uint32
		Offset uint64
	}
)

func testGGUFString(b []byte, s string) []byte {
	b = binary.LittleEndian.AppendUint64(b, uint64(len(s)))
	return append(b, s...)
}

func testGGUFBytes(version uint32, kvs []_TestGGUFKV, tensors []_TestGGUFTensor) []byte {
	b := binary.LittleEndian.AppendUint32(nil, uint32(GGUFMagicGGUFLe))
	b = binary.LittleEndian.AppendUint32(b, version)
	b = binary.LittleEndian.AppendUint64(b, uint64(len(tensors)))
	b = binary.LittleEndian.AppendUint64(b, uint64(len(kvs)))
	for _, kv := range kvs {
		b = testGGUFString(b, kv.Key)
		b = binary.LittleEndian.AppendUint32(b, kv.Type)
		b = append(b, kv.Payload...)
	}
	for _, ti := range tensors {
		b = testGGUFString(b, ti.Name)
		b = binary.LittleEndian.AppendUint32(b, uint32(len(ti.Shape)))
		for _, d := range ti.Shape {
			b = binary.LittleEndian.AppendUint64(b, d)
		}
		b = binary.LittleEndian.AppendUint32(b, ti.Type)
		b = binary.LittleEndian.AppendUint64(b, ti.Offset)
	}
	return b
}

func testGGUFStringKV(key, value string) _TestGGUFKV {
	return _TestGGUFKV{
		Key:     key,
		Type:    uint32(GGUFMetadataValueTypeString),
		Payload: testGGUFString(nil, value),
	}
}

func testGGUFUint32KV(key string, value uint32) _TestGGUFKV {
	return _TestGGUFKV{
		Key:     key,
		Type:    uint32(GGUFMetadataValueTypeUint32),
		Payload: binary.LittleEndian.AppendUint32(nil, value),
	}
}

func TestParseGGUF(t *testing.T) {
	bs := testGGUFBytes(3,
		[]_TestGGUFKV{
			testGGUFStringKV("general.architecture", "llama"),
		},
		[]_TestGGUFTensor{
			{Name: "a.weight", Shape: []uint64{2, 2}, Type: uint32(GGMLTypeF32)},
		})

	af, err := ParseGGUF(bs)
	if err != nil {
		t.Fatal(err)
		return
	}

	t.Log("\n", spew.Sdump(af), "\n")

	assert.Equal(t, FormatGGUF, af.Format)
	assert.Equal(t, uint32(3), af.GGUFVersion)
	assert.Len(t, af.Metadata, 1)
	assert.Len(t, af.Tensors, 1)

	v, ok := af.Metadata.Get("general.architecture")
	assert.True(t, ok)
	assert.Equal(t, StringValue("llama"), v)

	ti, ok := af.Tensors.Get("a.weight")
	assert.True(t, ok)
	assert.Equal(t, "f32", ti.Dtype)
	assert.Equal(t, []uint64{2, 2}, ti.Shape)
	assert.Equal(t, uint64(16), ti.ByteLength)

	// Re-parsing yields the identical hash.
	af2, err := ParseGGUF(bs)
	if err != nil {
		t.Fatal(err)
		return
	}
	assert.Equal(t, Hash(af), Hash(af2))
}

func TestParseGGUF_invalidMagic(t *testing.T) {
	cases := []struct {
		name  string
		given []byte
	}{
		{"garbage", []byte("XXXX")},
		{"empty", nil},
		{"short", []byte("GG")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			af, err := ParseGGUF(tc.given)
			assert.Nil(t, af)
			assert.Error(t, err)
		})
	}

	_, err := ParseGGUF([]byte("XXXX"))
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestParseGGUF_truncated(t *testing.T) {
	bs := testGGUFBytes(3,
		[]_TestGGUFKV{
			testGGUFStringKV("general.architecture", "llama"),
		},
		[]_TestGGUFTensor{
			{Name: "a.weight", Shape: []uint64{2, 2}, Type: uint32(GGMLTypeF32)},
		})

	// Every strict prefix of the header fails with ErrTruncated,
	// never with a partial Artifact.
	for i := 8; i < len(bs); i++ {
		af, err := ParseGGUF(bs[:i])
		assert.Nil(t, af, "prefix %d", i)
		assert.ErrorIs(t, err, ErrTruncated, "prefix %d", i)
	}
}

func TestParseGGUF_invalidUTF8(t *testing.T) {
	bs := testGGUFBytes(3,
		[]_TestGGUFKV{
			testGGUFStringKV("general.name", "\xff\xfe"),
		},
		nil)

	_, err := ParseGGUF(bs)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestParseGGUF_orderIndependence(t *testing.T) {
	kvA := testGGUFStringKV("general.architecture", "llama")
	kvB := testGGUFUint32KV("llama.block_count", 32)
	tiA := _TestGGUFTensor{Name: "a.weight", Shape: []uint64{2, 2}, Type: uint32(GGMLTypeF32)}
	tiB := _TestGGUFTensor{Name: "b.weight", Shape: []uint64{4}, Type: uint32(GGMLTypeF16)}

	x, err := ParseGGUF(testGGUFBytes(3, []_TestGGUFKV{kvA, kvB}, []_TestGGUFTensor{tiA, tiB}))
	if err != nil {
		t.Fatal(err)
		return
	}
	y, err := ParseGGUF(testGGUFBytes(3, []_TestGGUFKV{kvB, kvA}, []_TestGGUFTensor{tiB, tiA}))
	if err != nil {
		t.Fatal(err)
		return
	}

	assert.Equal(t, Hash(x), Hash(y))
	assert.False(t, Diff(x, y).HasChanges())
}

func TestParseGGUF_array(t *testing.T) {
	// Array of two int32 values: element type, length, payload.
	payload := binary.LittleEndian.AppendUint32(nil, uint32(GGUFMetadataValueTypeInt32))
	payload = binary.LittleEndian.AppendUint64(payload, 2)
	payload = binary.LittleEndian.AppendUint32(payload, 7)
	payload = binary.LittleEndian.AppendUint32(payload, 0xFFFFFFFF) // -1

	bs := testGGUFBytes(3,
		[]_TestGGUFKV{
			{Key: "tokenizer.ggml.token_type", Type: uint32(GGUFMetadataValueTypeArray), Payload: payload},
		},
		nil)

	af, err := ParseGGUF(bs)
	if err != nil {
		t.Fatal(err)
		return
	}

	v, ok := af.Metadata.Get("tokenizer.ggml.token_type")
	assert.True(t, ok)
	assert.Equal(t, ValueKindArray, v.Kind)
	assert.Len(t, v.Arr, 2)
	assert.True(t, v.Arr[0].Equal(IntValue(7, 32)))
	assert.True(t, v.Arr[1].Equal(IntValue(-1, 32)))
}

func TestParseGGUF_nestedArray(t *testing.T) {
	// Array of two inner arrays, each carrying its own item type and length.
	inner := func(vs ...uint32) []byte {
		b := binary.LittleEndian.AppendUint32(nil, uint32(GGUFMetadataValueTypeUint32))
		b = binary.LittleEndian.AppendUint64(b, uint64(len(vs)))
		for _, v := range vs {
			b = binary.LittleEndian.AppendUint32(b, v)
		}
		return b
	}
	payload := binary.LittleEndian.AppendUint32(nil, uint32(GGUFMetadataValueTypeArray))
	payload = binary.LittleEndian.AppendUint64(payload, 2)
	payload = append(payload, inner(1, 2)...)
	payload = append(payload, inner(3)...)

	bs := testGGUFBytes(3,
		[]_TestGGUFKV{
			{Key: "tokenizer.chat_templates", Type: uint32(GGUFMetadataValueTypeArray), Payload: payload},
		},
		nil)

	af, err := ParseGGUF(bs)
	if err != nil {
		t.Fatal(err)
		return
	}

	v, ok := af.Metadata.Get("tokenizer.chat_templates")
	assert.True(t, ok)
	assert.Equal(t, ValueKindArray, v.Kind)
	assert.Len(t, v.Arr, 2)
	assert.True(t, v.Arr[0].Equal(ArrayValue([]CanonicalValue{UintValue(1, 32), UintValue(2, 32)})))
	assert.True(t, v.Arr[1].Equal(ArrayValue([]CanonicalValue{UintValue(3, 32)})))

	assert.Contains(t, string(Canonicalize(af)), `"tokenizer.chat_templates":[[1,2],[3]]`)
}

func TestParseGGUF_nestingTooDeep(t *testing.T) {
	// Each level contributes an array header whose single item is the
	// next array, so the payload is a run of identical headers.
	var payload []byte
	for i := 0; i < 40; i++ {
		payload = binary.LittleEndian.AppendUint32(payload, uint32(GGUFMetadataValueTypeArray))
		payload = binary.LittleEndian.AppendUint64(payload, 1)
	}

	bs := testGGUFBytes(3,
		[]_TestGGUFKV{
			{Key: "general.nested", Type: uint32(GGUFMetadataValueTypeArray), Payload: payload},
		},
		nil)

	af, err := ParseGGUF(bs)
	assert.ErrorIs(t, err, ErrNestingTooDeep)
	assert.Nil(t, af)
}

func TestParseGGUF_arrayTooLong(t *testing.T) {
	payload := binary.LittleEndian.AppendUint32(nil, uint32(GGUFMetadataValueTypeUint8))
	payload = binary.LittleEndian.AppendUint64(payload, 1<<40)

	bs := testGGUFBytes(3,
		[]_TestGGUFKV{
			{Key: "general.huge", Type: uint32(GGUFMetadataValueTypeArray), Payload: payload},
		},
		nil)

	af, err := ParseGGUF(bs)
	assert.ErrorIs(t, err, ErrHeaderTooLarge)
	assert.Nil(t, af)
}

func TestParseGGUF_stringTooLong(t *testing.T) {
	bs := testGGUFBytes(3,
		[]_TestGGUFKV{
			{Key: "general.huge", Type: uint32(GGUFMetadataValueTypeString), Payload: binary.LittleEndian.AppendUint64(nil, 1<<40)},
		},
		nil)

	af, err := ParseGGUF(bs)
	assert.ErrorIs(t, err, ErrHeaderTooLarge)
	assert.Nil(t, af)
}

func TestParseGGUF_unsupportedValueTag(t *testing.T) {
	bs := testGGUFBytes(3,
		[]_TestGGUFKV{
			{Key: "general.something", Type: 99, Payload: nil},
		},
		nil)

	af, err := ParseGGUF(bs)
	if err != nil {
		t.Fatal(err)
		return
	}

	v, ok := af.Metadata.Get("general.something")
	assert.True(t, ok)
	assert.Equal(t, ValueKindUnsupported, v.Kind)
	assert.Equal(t, uint32(99), v.Tag)

	// The unknown tag stays visible in the canonical form.
	assert.Contains(t, string(Canonicalize(af)), `{"unsupported_type":99}`)
}

func TestParseGGUF_headerTooLarge(t *testing.T) {
	b := binary.LittleEndian.AppendUint32(nil, uint32(GGUFMagicGGUFLe))
	b = binary.LittleEndian.AppendUint32(b, 3)
	b = binary.LittleEndian.AppendUint64(b, 1<<40) // tensor count
	b = binary.LittleEndian.AppendUint64(b, 0)

	_, err := ParseGGUF(b)
	assert.ErrorIs(t, err, ErrHeaderTooLarge)
}

func TestParseGGUF_duplicateKeys(t *testing.T) {
	bs := testGGUFBytes(3,
		[]_TestGGUFKV{
			testGGUFStringKV("general.name", "first"),
			testGGUFStringKV("general.name", "second"),
		},
		nil)

	af, err := ParseGGUF(bs)
	if err != nil {
		t.Fatal(err)
		return
	}

	assert.Len(t, af.Metadata, 1)
	v, _ := af.Metadata.Get("general.name")
	assert.Equal(t, StringValue("second"), v)
}
