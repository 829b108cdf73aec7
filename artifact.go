package weight_inspect

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/weightops/weight-inspect-go/util/json"
	"github.com/weightops/weight-inspect-go/util/slicex"
)

// Format is the container format of a model file.
type Format uint32

// Format constants.
const (
	FormatGGUF        Format = iota // gguf
	FormatSafetensors               // safetensors
)

func (f Format) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *Format) UnmarshalJSON(bs []byte) error {
	var s string
	if err := json.Unmarshal(bs, &s); err != nil {
		return err
	}
	switch s {
	case "gguf":
		*f = FormatGGUF
	case "safetensors":
		*f = FormatSafetensors
	default:
		return fmt.Errorf("invalid format: %q", s)
	}
	return nil
}

// Types for Metadata.
type (
	// MetadataKV is one metadata entry of an Artifact.
	//
	// Key is normalized to Unicode NFC.
	MetadataKV struct {
		Key   string         `json:"key"`
		Value CanonicalValue `json:"value"`
	}

	// Metadata is the metadata of an Artifact,
	// a sorted association list keyed by the byte-wise order of the
	// NFC-normalized keys. Keys are unique.
	Metadata []MetadataKV
)

// Types for Tensors.
type (
	// TensorInfo is the structural record of one tensor:
	// its normalized lowercase dtype, its dimensions in declared order,
	// and its derived byte length. File offsets never survive parsing.
	TensorInfo struct {
		Name       string   `json:"name"`
		Dtype      string   `json:"dtype"`
		Shape      []uint64 `json:"shape"`
		ByteLength uint64   `json:"byteLength"`
	}

	// Tensors is the tensor list of an Artifact,
	// a sorted association list keyed by the byte-wise order of the
	// NFC-normalized names. Names are unique.
	Tensors []TensorInfo
)

// Artifact is the parsed, format-agnostic structural representation of
// one model file's header.
//
// An Artifact is created whole by a parse call and never mutated after;
// a failed parse yields no Artifact at all.
type Artifact struct {
	// Format is the container format the artifact was parsed from.
	Format Format `json:"format"`
	// GGUFVersion is the GGUF file format version,
	// meaningful only when Format is FormatGGUF.
	GGUFVersion uint32 `json:"ggufVersion,omitempty"`
	// Metadata are the metadata entries, sorted by key.
	Metadata Metadata `json:"metadata"`
	// Tensors are the tensor records, sorted by name.
	Tensors Tensors `json:"tensors"`
}

// Get returns the value with the given key,
// and true if found, and false otherwise.
func (m Metadata) Get(key string) (value CanonicalValue, found bool) {
	i := slicex.LowerBoundFunc(m, key, func(kv MetadataKV) string { return kv.Key })
	if i < len(m) && m[i].Key == key {
		return m[i].Value, true
	}
	return CanonicalValue{}, false
}

// HasAll returns true if the Metadata has all the given keys,
// and false otherwise.
func (m Metadata) HasAll(keys []string) bool {
	for i := range keys {
		if _, ok := m.Get(keys[i]); !ok {
			return false
		}
	}
	return true
}

// Search returns a list of entries with the keys that match the given regex.
func (m Metadata) Search(keyRegex *regexp.Regexp) (values []MetadataKV) {
	for i := range m {
		if keyRegex.MatchString(m[i].Key) {
			values = append(values, m[i])
		}
	}
	return values
}

// Index returns a map value to the entries with the given keys,
// and the number of keys found.
func (m Metadata) Index(keys []string) (values map[string]CanonicalValue, found int) {
	values = make(map[string]CanonicalValue)
	for i := range keys {
		if v, ok := m.Get(keys[i]); ok {
			values[keys[i]] = v
			found++
		}
	}
	return values, found
}

// normalize sorts the entries by key and drops duplicate keys,
// keeping the later occurrence.
func (m Metadata) normalize() Metadata {
	sort.SliceStable(m, func(i, j int) bool {
		return m[i].Key < m[j].Key
	})
	out := m[:0]
	for i := range m {
		if len(out) > 0 && out[len(out)-1].Key == m[i].Key {
			out[len(out)-1] = m[i]
			continue
		}
		out = append(out, m[i])
	}
	return out
}

// Get returns the TensorInfo with the given name,
// and true if found, and false otherwise.
func (ts Tensors) Get(name string) (info TensorInfo, found bool) {
	i := slicex.LowerBoundFunc(ts, name, func(ti TensorInfo) string { return ti.Name })
	if i < len(ts) && ts[i].Name == name {
		return ts[i], true
	}
	return TensorInfo{}, false
}

// HasAll returns true if the Tensors has all the given names,
// and false otherwise.
func (ts Tensors) HasAll(names []string) bool {
	for i := range names {
		if _, ok := ts.Get(names[i]); !ok {
			return false
		}
	}
	return true
}

// Search returns a list of TensorInfo with the names that match the given regex.
func (ts Tensors) Search(nameRegex *regexp.Regexp) (infos []TensorInfo) {
	for i := range ts {
		if nameRegex.MatchString(ts[i].Name) {
			infos = append(infos, ts[i])
		}
	}
	return infos
}

// normalize sorts the records by name and drops duplicate names,
// keeping the later occurrence.
func (ts Tensors) normalize() Tensors {
	sort.SliceStable(ts, func(i, j int) bool {
		return ts[i].Name < ts[j].Name
	})
	out := ts[:0]
	for i := range ts {
		if len(out) > 0 && out[len(out)-1].Name == ts[i].Name {
			out[len(out)-1] = ts[i]
			continue
		}
		out = append(out, ts[i])
	}
	return out
}

// Elements returns the number of elements of the TensorInfo.
func (ti TensorInfo) Elements() uint64 {
	ret := uint64(1)
	for i := range ti.Shape {
		ret *= ti.Shape[i]
	}
	return ret
}
