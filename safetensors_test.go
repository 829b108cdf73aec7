package weight_inspect

import (
	"encoding/binary"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
)

func testSafetensorsBytes(header string) []byte {
	b := binary.LittleEndian.AppendUint64(nil, uint64(len(header)))
	return append(b, header...)
}

func TestParseSafetensors(t *testing.T) {
	bs := testSafetensorsBytes(`{"t":{"dtype":"F32","shape":[2],"data_offsets":[0,8]},"__metadata__":{"k":"v"}}`)

	af, err := ParseSafetensors(bs)
	if err != nil {
		t.Fatal(err)
		return
	}

	t.Log("\n", spew.Sdump(af), "\n")

	assert.Equal(t, FormatSafetensors, af.Format)
	assert.Equal(t, uint32(0), af.GGUFVersion)
	assert.Len(t, af.Metadata, 1)
	assert.Len(t, af.Tensors, 1)

	v, ok := af.Metadata.Get("k")
	assert.True(t, ok)
	assert.Equal(t, StringValue("v"), v)

	ti, ok := af.Tensors.Get("t")
	assert.True(t, ok)
	assert.Equal(t, "f32", ti.Dtype)
	assert.Equal(t, []uint64{2}, ti.Shape)
	assert.Equal(t, uint64(8), ti.ByteLength)
}

func TestParseSafetensors_invalidOffsets(t *testing.T) {
	bs := testSafetensorsBytes(`{"t":{"dtype":"F32","shape":[2],"data_offsets":[8,0]}}`)

	af, err := ParseSafetensors(bs)
	assert.Nil(t, af)
	assert.ErrorIs(t, err, ErrInvalidOffsets)
}

func TestParseSafetensors_invalidJSON(t *testing.T) {
	cases := []struct {
		name  string
		given []byte
	}{
		{"not json", testSafetensorsBytes(`not json at all`)},
		{"unclosed object", testSafetensorsBytes(`{"t":`)},
		{"empty header", testSafetensorsBytes(``)},
		{"wrong metadata shape", testSafetensorsBytes(`{"__metadata__":{"k":1}}`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			af, err := ParseSafetensors(tc.given)
			assert.Nil(t, af)
			assert.ErrorIs(t, err, ErrInvalidJSON)
		})
	}
}

func TestParseSafetensors_truncated(t *testing.T) {
	// Header size claims more bytes than the buffer holds.
	bs := binary.LittleEndian.AppendUint64(nil, 100)
	bs = append(bs, `{"t":{}}`...)

	af, err := ParseSafetensors(bs)
	assert.Nil(t, af)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestParseSafetensors_scalarTensor(t *testing.T) {
	bs := testSafetensorsBytes(`{"s":{"dtype":"F64","shape":[],"data_offsets":[0,8]}}`)

	af, err := ParseSafetensors(bs)
	if err != nil {
		t.Fatal(err)
		return
	}

	ti, ok := af.Tensors.Get("s")
	assert.True(t, ok)
	assert.Equal(t, "f64", ti.Dtype)
	assert.Equal(t, []uint64{}, ti.Shape)
	assert.Equal(t, uint64(8), ti.ByteLength)
}

func TestParseSafetensors_hashAgreesWithGGUF(t *testing.T) {
	// The same structural content in two different containers still
	// differs, the format is part of the identity.
	st, err := ParseSafetensors(testSafetensorsBytes(`{"a.weight":{"dtype":"F32","shape":[2,2],"data_offsets":[0,16]}}`))
	if err != nil {
		t.Fatal(err)
		return
	}
	gf, err := ParseGGUF(testGGUFBytes(3, nil,
		[]_TestGGUFTensor{{Name: "a.weight", Shape: []uint64{2, 2}, Type: uint32(GGMLTypeF32)}}))
	if err != nil {
		t.Fatal(err)
		return
	}

	assert.NotEqual(t, Hash(st), Hash(gf))
	r := Diff(st, gf)
	assert.False(t, r.FormatEqual)
	assert.True(t, r.HasChanges())
}
