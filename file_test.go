package weight_inspect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/weightops/weight-inspect-go/util/osx"
)

func TestDetectFormat(t *testing.T) {
	gguf := testGGUFBytes(3, nil, nil)
	st := testSafetensorsBytes(`{"__metadata__":{}}`)

	fm, err := DetectFormat(gguf)
	assert.NoError(t, err)
	assert.Equal(t, FormatGGUF, fm)

	fm, err = DetectFormat(st)
	assert.NoError(t, err)
	assert.Equal(t, FormatSafetensors, fm)

	_, err = DetectFormat([]byte("XXXX"))
	assert.ErrorIs(t, err, ErrInvalidMagic)

	_, err = DetectFormat(nil)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestParseBytes(t *testing.T) {
	af, err := ParseBytes(testGGUFBytes(3,
		[]_TestGGUFKV{testGGUFStringKV("general.architecture", "llama")},
		nil))
	if err != nil {
		t.Fatal(err)
		return
	}
	assert.Equal(t, FormatGGUF, af.Format)

	af, err = ParseBytes(testSafetensorsBytes(`{"t":{"dtype":"F32","shape":[2],"data_offsets":[0,8]}}`))
	if err != nil {
		t.Fatal(err)
		return
	}
	assert.Equal(t, FormatSafetensors, af.Format)
}

func TestParseFile(t *testing.T) {
	d := t.TempDir()

	gp := filepath.Join(d, "model.gguf")
	gb := testGGUFBytes(3,
		[]_TestGGUFKV{testGGUFStringKV("general.architecture", "llama")},
		[]_TestGGUFTensor{{Name: "a.weight", Shape: []uint64{2, 2}, Type: uint32(GGMLTypeF32)}})
	if err := os.WriteFile(gp, gb, 0o600); err != nil {
		t.Fatal(err)
		return
	}

	sp := filepath.Join(d, "model.safetensors")
	sb := testSafetensorsBytes(`{"t":{"dtype":"F32","shape":[2],"data_offsets":[0,8]}}`)
	if err := os.WriteFile(sp, sb, 0o600); err != nil {
		t.Fatal(err)
		return
	}

	ga, err := ParseFile(gp)
	if err != nil {
		t.Fatal(err)
		return
	}
	assert.Equal(t, FormatGGUF, ga.Format)

	sa, err := ParseFile(sp)
	if err != nil {
		t.Fatal(err)
		return
	}
	assert.Equal(t, FormatSafetensors, sa.Format)

	// The open path never changes the parse result.
	gm, err := ParseFile(gp, UseMMap())
	if err != nil {
		t.Fatal(err)
		return
	}
	assert.Equal(t, Hash(ga), Hash(gm))

	gg, err := ParseGGUFFile(gp)
	if err != nil {
		t.Fatal(err)
		return
	}
	assert.Equal(t, Hash(ga), Hash(gg))

	ss, err := ParseSafetensorsFile(sp)
	if err != nil {
		t.Fatal(err)
		return
	}
	assert.Equal(t, Hash(sa), Hash(ss))
}

func TestArtifactCache(t *testing.T) {
	c := ArtifactCache(t.TempDir())

	af, err := ParseBytes(testSafetensorsBytes(`{"t":{"dtype":"F32","shape":[2],"data_offsets":[0,8]}}`))
	if err != nil {
		t.Fatal(err)
		return
	}

	const key = "https://example.test/model.safetensors"

	_, err = c.Get(key, 0)
	assert.ErrorIs(t, err, ErrArtifactCacheMissed)

	assert.NoError(t, c.Put(key, af))

	got, err := c.Get(key, 0)
	if err != nil {
		t.Fatal(err)
		return
	}
	assert.Equal(t, Hash(af), Hash(got))

	assert.NoError(t, c.Delete(key))
	_, err = c.Get(key, 0)
	assert.ErrorIs(t, err, ErrArtifactCacheMissed)

	// Disabled cache.
	_, err = ArtifactCache("").Get(key, 0)
	assert.ErrorIs(t, err, ErrArtifactCacheDisabled)
}

func TestArtifactCache_emptyArtifact(t *testing.T) {
	c := ArtifactCache(t.TempDir())

	// A GGUF with zero metadata entries and zero tensors is legal and
	// must survive a cache round trip.
	af, err := ParseGGUF(testGGUFBytes(3, nil, nil))
	if err != nil {
		t.Fatal(err)
		return
	}

	const key = "https://example.test/empty.gguf"

	assert.NoError(t, c.Put(key, af))

	got, err := c.Get(key, 0)
	if err != nil {
		t.Fatal(err)
		return
	}
	assert.Equal(t, Hash(af), Hash(got))
	assert.Empty(t, got.Metadata)
	assert.Empty(t, got.Tensors)
}

func TestArtifactCache_corruptedEntry(t *testing.T) {
	c := ArtifactCache(t.TempDir())

	const key = "https://example.test/model.gguf"

	// JSON that decodes but carries no format field is evicted.
	p := c.getKeyPath(key)
	if err := osx.WriteFile(p, []byte(`{"metadata":null,"tensors":null}`), 0o600); err != nil {
		t.Fatal(err)
		return
	}

	_, err := c.Get(key, 0)
	assert.ErrorIs(t, err, ErrArtifactCacheCorrupted)

	// The entry is gone after eviction.
	_, err = c.Get(key, 0)
	assert.ErrorIs(t, err, ErrArtifactCacheMissed)
}
