package weight_inspect

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/weightops/weight-inspect-go/util/bytex"
	"github.com/weightops/weight-inspect-go/util/json"
)

// _SafetensorsMaxHeaderSize caps the JSON header of a safetensors file,
// the same bound the reference rust implementation of safetensors uses.
const _SafetensorsMaxHeaderSize = 100 << 20

// _safetensorsTensorEntry mirrors one tensor object of the safetensors
// JSON header, see https://github.com/huggingface/safetensors#format.
type _safetensorsTensorEntry struct {
	Dtype       string    `json:"dtype"`
	Shape       []uint64  `json:"shape"`
	DataOffsets [2]uint64 `json:"data_offsets"`
}

// ParseSafetensors parses the header of a safetensors byte stream,
// and returns an Artifact, or an error if any.
//
// Only the 8-byte length prefix and the JSON header are read,
// tensor data is never touched.
func ParseSafetensors(bs []byte) (*Artifact, error) {
	return parseSafetensors(int64(len(bs)), bytes.NewReader(bs))
}

func parseSafetensors(s int64, f io.ReadSeeker) (_ *Artifact, err error) {
	var headerSize uint64
	if err = binary.Read(f, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("read header size: %w", _EOFToTruncated(err))
	}
	if headerSize > _SafetensorsMaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes header", ErrHeaderTooLarge, headerSize)
	}
	if int64(headerSize) > s-8 {
		return nil, fmt.Errorf("%w: %d bytes header, %d bytes remaining", ErrTruncated, headerSize, s-8)
	}
	if headerSize == 0 {
		return nil, fmt.Errorf("%w: empty header", ErrInvalidJSON)
	}

	hb := bytex.GetBytes(headerSize)
	defer bytex.Put(hb)
	if _, err = io.ReadFull(f, hb); err != nil {
		return nil, fmt.Errorf("read header: %w", _EOFToTruncated(err))
	}

	var entries map[string]json.RawMessage
	if err = json.Unmarshal(hb, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	af := Artifact{
		Format:   FormatSafetensors,
		Metadata: make(Metadata, 0),
		Tensors:  make(Tensors, 0, len(entries)),
	}

	for name, raw := range entries {
		if name == "__metadata__" {
			var md map[string]string
			if err = json.Unmarshal(raw, &md); err != nil {
				return nil, fmt.Errorf("%w: __metadata__: %v", ErrInvalidJSON, err)
			}
			for k, v := range md {
				af.Metadata = append(af.Metadata, MetadataKV{
					Key:   norm.NFC.String(k),
					Value: StringValue(v),
				})
			}
			continue
		}

		var e _safetensorsTensorEntry
		if err = json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("%w: tensor %s: %v", ErrInvalidJSON, name, err)
		}
		if e.DataOffsets[0] > e.DataOffsets[1] {
			return nil, fmt.Errorf("%w: tensor %s: [%d, %d]",
				ErrInvalidOffsets, name, e.DataOffsets[0], e.DataOffsets[1])
		}

		shape := e.Shape
		if shape == nil {
			shape = []uint64{}
		}
		af.Tensors = append(af.Tensors, TensorInfo{
			Name:       norm.NFC.String(name),
			Dtype:      strings.ToLower(e.Dtype),
			Shape:      shape,
			ByteLength: e.DataOffsets[1] - e.DataOffsets[0],
		})
	}

	af.Metadata = af.Metadata.normalize()
	af.Tensors = af.Tensors.normalize()

	return &af, nil
}
