package weight_inspect

import (
	"github.com/weightops/weight-inspect-go/util/ptr"
)

// Types for DiffResult.
type (
	// DiffResult is the structural comparison of two Artifacts.
	//
	// It is computed from the Artifact fields directly, never from the
	// hashes, yet agrees with them: HasChanges returns false exactly
	// when the two hashes are equal.
	DiffResult struct {
		FormatEqual      bool         `json:"formatEqual"`
		GGUFVersionEqual bool         `json:"ggufVersionEqual"`
		Metadata         MetadataDiff `json:"metadata"`
		Tensors          TensorsDiff  `json:"tensors"`
	}

	// MetadataDiff lists the metadata entries that differ,
	// each list in sorted key order.
	MetadataDiff struct {
		Added   []MetadataKV     `json:"added,omitempty"`
		Removed []MetadataKV     `json:"removed,omitempty"`
		Changed []MetadataChange `json:"changed,omitempty"`
	}

	// MetadataChange is one metadata key present on both sides with
	// structurally unequal values.
	MetadataChange struct {
		Key string         `json:"key"`
		Old CanonicalValue `json:"old"`
		New CanonicalValue `json:"new"`
	}

	// TensorsDiff lists the tensor records that differ,
	// each list in sorted name order.
	TensorsDiff struct {
		Added   []TensorInfo   `json:"added,omitempty"`
		Removed []TensorInfo   `json:"removed,omitempty"`
		Changed []TensorChange `json:"changed,omitempty"`
	}

	// TensorChange is one tensor name present on both sides with at
	// least one differing attribute. Only the attributes that actually
	// differ are populated, in the fixed order dtype, shape, byte length.
	TensorChange struct {
		Name       string        `json:"name"`
		Dtype      *StringChange `json:"dtype,omitempty"`
		Shape      *ShapeChange  `json:"shape,omitempty"`
		ByteLength *Uint64Change `json:"byteLength,omitempty"`
	}

	// StringChange is an old/new pair of strings.
	StringChange struct {
		Old string `json:"old"`
		New string `json:"new"`
	}

	// ShapeChange is an old/new pair of tensor shapes.
	ShapeChange struct {
		Old []uint64 `json:"old"`
		New []uint64 `json:"new"`
	}

	// Uint64Change is an old/new pair of unsigned integers.
	Uint64Change struct {
		Old uint64 `json:"old"`
		New uint64 `json:"new"`
	}
)

// Diff compares two Artifacts structurally.
//
// Both Metadata and Tensors are sorted association lists, so the
// comparison is a single linear merge per section; entries only in a
// are removed, only in b are added, on both sides with unequal content
// are changed. Output order is the sorted merge order, never the
// physical order of either source file.
func Diff(a, b *Artifact) DiffResult {
	r := DiffResult{
		FormatEqual: a.Format == b.Format,
	}

	// Version presence follows the format; absent on both sides
	// counts as equal.
	av, bv := a.Format == FormatGGUF, b.Format == FormatGGUF
	switch {
	case !av && !bv:
		r.GGUFVersionEqual = true
	case av && bv:
		r.GGUFVersionEqual = a.GGUFVersion == b.GGUFVersion
	}

	r.Metadata = diffMetadata(a.Metadata, b.Metadata)
	r.Tensors = diffTensors(a.Tensors, b.Tensors)

	return r
}

// HasChanges returns true if any structural difference was found.
func (r DiffResult) HasChanges() bool {
	return !r.FormatEqual || !r.GGUFVersionEqual ||
		len(r.Metadata.Added) != 0 || len(r.Metadata.Removed) != 0 || len(r.Metadata.Changed) != 0 ||
		len(r.Tensors.Added) != 0 || len(r.Tensors.Removed) != 0 || len(r.Tensors.Changed) != 0
}

func diffMetadata(a, b Metadata) (d MetadataDiff) {
	var i, j int
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Key < b[j].Key:
			d.Removed = append(d.Removed, a[i])
			i++
		case a[i].Key > b[j].Key:
			d.Added = append(d.Added, b[j])
			j++
		default:
			if !a[i].Value.Equal(b[j].Value) {
				d.Changed = append(d.Changed, MetadataChange{
					Key: a[i].Key,
					Old: a[i].Value,
					New: b[j].Value,
				})
			}
			i++
			j++
		}
	}
	d.Removed = append(d.Removed, a[i:]...)
	d.Added = append(d.Added, b[j:]...)
	return d
}

func diffTensors(a, b Tensors) (d TensorsDiff) {
	var i, j int
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Name < b[j].Name:
			d.Removed = append(d.Removed, a[i])
			i++
		case a[i].Name > b[j].Name:
			d.Added = append(d.Added, b[j])
			j++
		default:
			if c, changed := diffTensorInfo(a[i], b[j]); changed {
				d.Changed = append(d.Changed, c)
			}
			i++
			j++
		}
	}
	d.Removed = append(d.Removed, a[i:]...)
	d.Added = append(d.Added, b[j:]...)
	return d
}

func diffTensorInfo(a, b TensorInfo) (c TensorChange, changed bool) {
	c.Name = a.Name
	if a.Dtype != b.Dtype {
		c.Dtype = ptr.To(StringChange{Old: a.Dtype, New: b.Dtype})
	}
	if !shapeEqual(a.Shape, b.Shape) {
		c.Shape = ptr.To(ShapeChange{Old: a.Shape, New: b.Shape})
	}
	if a.ByteLength != b.ByteLength {
		c.ByteLength = ptr.To(Uint64Change{Old: a.ByteLength, New: b.ByteLength})
	}
	return c, c.Dtype != nil || c.Shape != nil || c.ByteLength != nil
}

func shapeEqual(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
