package weight_inspect

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/weightops/weight-inspect-go/util/bytex"
)

// Types for GGUF parsing.
type (
	// GGUFMagic is a magic number of GGUF file,
	// see https://github.com/ggerganov/ggml/blob/master/docs/gguf.md#historical-state-of-affairs.
	GGUFMagic uint32

	// GGUFVersion is a version of GGUF file format.
	GGUFVersion uint32

	// GGUFMetadataValueType is a type of GGUF metadata value,
	// see https://github.com/ggerganov/ggml/blob/master/docs/gguf.md#file-structure.
	GGUFMetadataValueType uint32
)

// GGUFMagic constants.
const (
	GGUFMagicGGML   GGUFMagic = 0x67676D6C
	GGUFMagicGGMF   GGUFMagic = 0x67676D66
	GGUFMagicGGJT   GGUFMagic = 0x67676A74
	GGUFMagicGGUFLe GGUFMagic = 0x46554747 // GGUF in little-endian.
	GGUFMagicGGUFBe GGUFMagic = 0x47475546 // GGUF in big-endian.
)

// GGUFVersion constants.
const (
	GGUFVersionV1 GGUFVersion = iota + 1
	GGUFVersionV2
	GGUFVersionV3
)

// GGUFMetadataValueType constants.
const (
	GGUFMetadataValueTypeUint8   GGUFMetadataValueType = iota // uint8
	GGUFMetadataValueTypeInt8                                 // int8
	GGUFMetadataValueTypeUint16                               // uint16
	GGUFMetadataValueTypeInt16                                // int16
	GGUFMetadataValueTypeUint32                               // uint32
	GGUFMetadataValueTypeInt32                                // int32
	GGUFMetadataValueTypeFloat32                              // float32
	GGUFMetadataValueTypeBool                                 // bool
	GGUFMetadataValueTypeString                               // string
	GGUFMetadataValueTypeArray                                // array
	GGUFMetadataValueTypeUint64                               // uint64
	GGUFMetadataValueTypeInt64                                // int64
	GGUFMetadataValueTypeFloat64                              // float64
	_GGUFMetadataValueTypeCount                               // Unknown
)

// Header sanity caps, to bound allocations before trusting
// counts read from the file.
const (
	_GGUFMaxTensorCount     = 100_000
	_GGUFMaxMetadataKVCount = 10_000
	_GGUFMaxDimensions      = 32
	_GGUFMaxStringLength    = 1 << 20
	_GGUFMaxArrayElements   = 100_000
	_GGUFMaxArrayNesting    = 32
)

// ParseGGUF parses the header of a GGUF byte stream,
// and returns an Artifact, or an error if any.
//
// Tensor data is never touched, only the metadata KV section and the
// tensor info section are read.
func ParseGGUF(bs []byte) (*Artifact, error) {
	return parseGGUF(int64(len(bs)), bytes.NewReader(bs))
}

func parseGGUF(s int64, f io.ReadSeeker) (_ *Artifact, err error) {
	var bo binary.ByteOrder = binary.LittleEndian

	// magic
	var magic GGUFMagic
	if err = binary.Read(f, bo, &magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", _EOFToTruncated(err))
	}
	switch magic {
	default:
		return nil, fmt.Errorf("%w: %#x", ErrInvalidMagic, uint32(magic))
	case GGUFMagicGGML, GGUFMagicGGMF, GGUFMagicGGJT:
		return nil, fmt.Errorf("%w: legacy container %#x", ErrInvalidMagic, uint32(magic))
	case GGUFMagicGGUFLe:
	case GGUFMagicGGUFBe:
		bo = binary.BigEndian
	}

	// version
	var version GGUFVersion
	if err = binary.Read(f, bo, &version); err != nil {
		return nil, fmt.Errorf("read version: %w", _EOFToTruncated(err))
	}

	n := s - 8
	rd := _ggufReader{v: version, f: f, bo: bo, n: &n}

	// tensor count
	var tensorCount uint64
	if version <= GGUFVersionV1 {
		tensorCount, err = rd.ReadUint64FromUint32()
	} else {
		tensorCount, err = rd.ReadUint64()
	}
	if err != nil {
		return nil, fmt.Errorf("read tensor count: %w", err)
	}
	if tensorCount > _GGUFMaxTensorCount {
		return nil, fmt.Errorf("%w: %d tensors", ErrHeaderTooLarge, tensorCount)
	}

	// metadata kv count
	var metadataKVCount uint64
	if version <= GGUFVersionV1 {
		metadataKVCount, err = rd.ReadUint64FromUint32()
	} else {
		metadataKVCount, err = rd.ReadUint64()
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata kv count: %w", err)
	}
	if metadataKVCount > _GGUFMaxMetadataKVCount {
		return nil, fmt.Errorf("%w: %d metadata kvs", ErrHeaderTooLarge, metadataKVCount)
	}

	af := Artifact{
		Format:      FormatGGUF,
		GGUFVersion: uint32(version),
	}

	// metadata kv
	{
		rd := _ggufMetadataReader{_ggufReader: rd}
		kvs := make(Metadata, metadataKVCount)
		for i := uint64(0); i < metadataKVCount; i++ {
			kvs[i], err = rd.Read()
			if err != nil {
				return nil, fmt.Errorf("read metadata kv %d: %w", i, err)
			}
		}
		af.Metadata = kvs
	}

	// tensor infos
	{
		rd := _ggufTensorInfoReader{_ggufReader: rd}
		tis := make(Tensors, tensorCount)
		for i := uint64(0); i < tensorCount; i++ {
			tis[i], err = rd.Read()
			if err != nil {
				return nil, fmt.Errorf("read tensor info %d: %w", i, err)
			}
		}
		af.Tensors = tis
	}

	af.Metadata = af.Metadata.normalize()
	af.Tensors = af.Tensors.normalize()

	return &af, nil
}

// _EOFToTruncated folds the io EOF errors that binary.Read and
// io.ReadFull surface into ErrTruncated, keeping everything else as is.
func _EOFToTruncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}

type _ggufReader struct {
	v  GGUFVersion
	f  io.ReadSeeker
	bo binary.ByteOrder
	n  *int64
}

// take reserves l bytes of the remaining input,
// erroring before any allocation happens for an over-claimed length.
func (rd _ggufReader) take(l int64) error {
	if l < 0 || *rd.n < l {
		return ErrTruncated
	}
	*rd.n -= l
	return nil
}

func (rd _ggufReader) ReadUint8() (v uint8, err error) {
	if err = rd.take(1); err == nil {
		err = binary.Read(rd.f, rd.bo, &v)
	}
	if err != nil {
		return 0, fmt.Errorf("read uint8: %w", _EOFToTruncated(err))
	}
	return v, nil
}

func (rd _ggufReader) ReadInt8() (v int8, err error) {
	if err = rd.take(1); err == nil {
		err = binary.Read(rd.f, rd.bo, &v)
	}
	if err != nil {
		return 0, fmt.Errorf("read int8: %w", _EOFToTruncated(err))
	}
	return v, nil
}

func (rd _ggufReader) ReadUint16() (v uint16, err error) {
	if err = rd.take(2); err == nil {
		err = binary.Read(rd.f, rd.bo, &v)
	}
	if err != nil {
		return 0, fmt.Errorf("read uint16: %w", _EOFToTruncated(err))
	}
	return v, nil
}

func (rd _ggufReader) ReadInt16() (v int16, err error) {
	if err = rd.take(2); err == nil {
		err = binary.Read(rd.f, rd.bo, &v)
	}
	if err != nil {
		return 0, fmt.Errorf("read int16: %w", _EOFToTruncated(err))
	}
	return v, nil
}

func (rd _ggufReader) ReadUint32() (v uint32, err error) {
	if err = rd.take(4); err == nil {
		err = binary.Read(rd.f, rd.bo, &v)
	}
	if err != nil {
		return 0, fmt.Errorf("read uint32: %w", _EOFToTruncated(err))
	}
	return v, nil
}

func (rd _ggufReader) ReadUint64FromUint32() (uint64, error) {
	v, err := rd.ReadUint32()
	return uint64(v), err
}

func (rd _ggufReader) ReadInt32() (v int32, err error) {
	if err = rd.take(4); err == nil {
		err = binary.Read(rd.f, rd.bo, &v)
	}
	if err != nil {
		return 0, fmt.Errorf("read int32: %w", _EOFToTruncated(err))
	}
	return v, nil
}

func (rd _ggufReader) ReadUint64() (v uint64, err error) {
	if err = rd.take(8); err == nil {
		err = binary.Read(rd.f, rd.bo, &v)
	}
	if err != nil {
		return 0, fmt.Errorf("read uint64: %w", _EOFToTruncated(err))
	}
	return v, nil
}

func (rd _ggufReader) ReadInt64() (v int64, err error) {
	if err = rd.take(8); err == nil {
		err = binary.Read(rd.f, rd.bo, &v)
	}
	if err != nil {
		return 0, fmt.Errorf("read int64: %w", _EOFToTruncated(err))
	}
	return v, nil
}

func (rd _ggufReader) ReadFloat32() (v float32, err error) {
	if err = rd.take(4); err == nil {
		err = binary.Read(rd.f, rd.bo, &v)
	}
	if err != nil {
		return 0, fmt.Errorf("read float32: %w", _EOFToTruncated(err))
	}
	return v, nil
}

func (rd _ggufReader) ReadFloat64() (v float64, err error) {
	if err = rd.take(8); err == nil {
		err = binary.Read(rd.f, rd.bo, &v)
	}
	if err != nil {
		return 0, fmt.Errorf("read float64: %w", _EOFToTruncated(err))
	}
	return v, nil
}

func (rd _ggufReader) ReadBool() (v bool, err error) {
	b, err := rd.ReadUint8()
	if err != nil {
		return false, fmt.Errorf("read bool: %w", err)
	}
	return b != 0, nil
}

func (rd _ggufReader) ReadString() (v string, err error) {
	var l uint64
	if rd.v <= GGUFVersionV1 {
		l, err = rd.ReadUint64FromUint32()
	} else {
		l, err = rd.ReadUint64()
	}
	if err != nil {
		return "", fmt.Errorf("read string length: %w", err)
	}
	if l > _GGUFMaxStringLength {
		return "", fmt.Errorf("%w: %d bytes string", ErrHeaderTooLarge, l)
	}
	if err = rd.take(int64(l)); err != nil {
		return "", fmt.Errorf("read string: %w", err)
	}
	if l == 0 {
		return "", nil
	}

	b := bytex.GetBytes(l)
	defer bytex.Put(b)
	if _, err = io.ReadFull(rd.f, b); err != nil {
		return "", fmt.Errorf("read string: %w", _EOFToTruncated(err))
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: string", ErrInvalidUTF8)
	}

	// NFC up front, so keys sort and compare in their canonical form.
	return norm.NFC.String(string(b)), nil
}

func (rd _ggufReader) ReadArray(depth int) (v CanonicalValue, err error) {
	if depth >= _GGUFMaxArrayNesting {
		return v, fmt.Errorf("%w: %d levels", ErrNestingTooDeep, depth)
	}

	it, err := rd.ReadUint32()
	if err != nil {
		return v, fmt.Errorf("read array item type: %w", err)
	}

	var l uint64
	if rd.v <= GGUFVersionV1 {
		l, err = rd.ReadUint64FromUint32()
	} else {
		l, err = rd.ReadUint64()
	}
	if err != nil {
		return v, fmt.Errorf("read array length: %w", err)
	}
	if l > _GGUFMaxArrayElements {
		return v, fmt.Errorf("%w: %d array elements", ErrHeaderTooLarge, l)
	}

	vs := make([]CanonicalValue, l)
	for i := uint64(0); i < l; i++ {
		vs[i], err = rd.ReadValue(GGUFMetadataValueType(it), depth+1)
		if err != nil {
			return v, fmt.Errorf("read array item %d: %w", i, err)
		}
	}

	return ArrayValue(vs), nil
}

// ReadValue decodes one metadata value of the given wire type.
// An unrecognized wire type is captured as an unsupported value and
// consumes no payload bytes, so whatever the writer put there is not
// guessed at.
func (rd _ggufReader) ReadValue(vt GGUFMetadataValueType, depth int) (v CanonicalValue, err error) {
	switch vt {
	case GGUFMetadataValueTypeUint8:
		x, err := rd.ReadUint8()
		return UintValue(uint64(x), 8), err
	case GGUFMetadataValueTypeInt8:
		x, err := rd.ReadInt8()
		return IntValue(int64(x), 8), err
	case GGUFMetadataValueTypeUint16:
		x, err := rd.ReadUint16()
		return UintValue(uint64(x), 16), err
	case GGUFMetadataValueTypeInt16:
		x, err := rd.ReadInt16()
		return IntValue(int64(x), 16), err
	case GGUFMetadataValueTypeUint32:
		x, err := rd.ReadUint32()
		return UintValue(uint64(x), 32), err
	case GGUFMetadataValueTypeInt32:
		x, err := rd.ReadInt32()
		return IntValue(int64(x), 32), err
	case GGUFMetadataValueTypeFloat32:
		x, err := rd.ReadFloat32()
		return Float32Value(x), err
	case GGUFMetadataValueTypeBool:
		x, err := rd.ReadBool()
		return BoolValue(x), err
	case GGUFMetadataValueTypeString:
		x, err := rd.ReadString()
		return StringValue(x), err
	case GGUFMetadataValueTypeArray:
		return rd.ReadArray(depth)
	case GGUFMetadataValueTypeUint64:
		x, err := rd.ReadUint64()
		return UintValue(x, 64), err
	case GGUFMetadataValueTypeInt64:
		x, err := rd.ReadInt64()
		return IntValue(x, 64), err
	case GGUFMetadataValueTypeFloat64:
		x, err := rd.ReadFloat64()
		return Float64Value(x), err
	default:
		return UnsupportedValue(uint32(vt)), nil
	}
}

type _ggufMetadataReader struct {
	_ggufReader
}

func (rd _ggufMetadataReader) Read() (kv MetadataKV, err error) {
	kv.Key, err = rd.ReadString()
	if err != nil {
		return kv, fmt.Errorf("read key: %w", err)
	}

	vt, err := rd.ReadUint32()
	if err != nil {
		return kv, fmt.Errorf("read value type: %w", err)
	}

	kv.Value, err = rd.ReadValue(GGUFMetadataValueType(vt), 0)
	if err != nil {
		return kv, fmt.Errorf("read %s value: %w", kv.Key, err)
	}

	return kv, nil
}

type _ggufTensorInfoReader struct {
	_ggufReader
}

func (rd _ggufTensorInfoReader) Read() (ti TensorInfo, err error) {
	ti.Name, err = rd.ReadString()
	if err != nil {
		return ti, fmt.Errorf("read name: %w", err)
	}

	nd, err := rd.ReadUint32()
	if err != nil {
		return ti, fmt.Errorf("read n dimensions: %w", err)
	}
	if nd > _GGUFMaxDimensions {
		return ti, fmt.Errorf("%w: %d dimensions", ErrHeaderTooLarge, nd)
	}

	ti.Shape = make([]uint64, nd)
	for i := uint32(0); i < nd; i++ {
		if rd.v <= GGUFVersionV1 {
			ti.Shape[i], err = rd.ReadUint64FromUint32()
		} else {
			ti.Shape[i], err = rd.ReadUint64()
		}
		if err != nil {
			return ti, fmt.Errorf("read dimension %d: %w", i, err)
		}
	}

	t, err := rd.ReadUint32()
	if err != nil {
		return ti, fmt.Errorf("read type: %w", err)
	}
	ti.Dtype = GGMLType(t).Dtype()
	ti.ByteLength = GGMLType(t).BytesFor(ti.Shape)

	// Offset into the tensor data section, not part of the
	// structural identity.
	if _, err = rd.ReadUint64(); err != nil {
		return ti, fmt.Errorf("read offset: %w", err)
	}

	return ti, nil
}
