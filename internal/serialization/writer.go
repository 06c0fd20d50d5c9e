package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/x448/float16"

	"github.com/born-ml/jaeger/internal/tensor"
)

// Tensors is an ordered collection of named tensors.
type Tensors = orderedmap.OrderedMap[string, *tensor.RawTensor]

// WriteOptions configures Write.
type WriteOptions struct {
	// Float16 stores float32 tensors in half precision.
	Float16 bool
	// Metadata is stored under "__metadata__". The data checksum is added
	// to it.
	Metadata map[string]string
}

// WriteFile writes tensors to path in SafeTensors format.
func WriteFile(path string, tensors *Tensors, opts WriteOptions) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Write(file, tensors, opts); err != nil {
		_ = file.Close() // Best effort close on error
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	slog.Debug("wrote safetensors", "path", path, "tensors", tensors.Len(), "float16", opts.Float16)
	return nil
}

// Write encodes tensors in iteration order.
func Write(w io.Writer, tensors *Tensors, opts WriteOptions) error {
	type entry struct {
		name   string
		header SafeTensorHeader
	}
	entries := make([]entry, 0, tensors.Len())
	var data bytes.Buffer
	for pair := tensors.Oldest(); pair != nil; pair = pair.Next() {
		if err := ValidateTensorName(pair.Key); err != nil {
			return err
		}
		start := int64(data.Len())
		code := encodeTensor(&data, pair.Value, opts.Float16)

		shape := make([]int64, len(pair.Value.Shape()))
		for i, dim := range pair.Value.Shape() {
			shape[i] = int64(dim)
		}
		entries = append(entries, entry{pair.Key, SafeTensorHeader{
			DType:       code,
			Shape:       shape,
			DataOffsets: [2]int64{start, int64(data.Len())},
		}})
	}

	metadata := make(map[string]string, len(opts.Metadata)+1)
	for k, v := range opts.Metadata {
		metadata[k] = v
	}
	sum := ComputeChecksum(data.Bytes())
	metadata[MetaChecksum] = hex.EncodeToString(sum[:])

	header := orderedmap.New[string, any]()
	header.Set(MetadataKey, metadata)
	for _, e := range entries {
		header.Set(e.name, e.header)
	}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if pad := len(headerJSON) % HeaderAlignment; pad != 0 {
		headerJSON = append(headerJSON, bytes.Repeat([]byte{' '}, HeaderAlignment-pad)...)
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(data.Bytes()); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

// encodeTensor appends the little-endian bytes of raw to buf and returns the
// stored dtype code.
func encodeTensor(buf *bytes.Buffer, raw *tensor.RawTensor, half bool) string {
	code := dtypeCode(raw.DType(), half)
	n := raw.NumElements()
	switch code {
	case DTypeF16:
		out := make([]byte, 2*n)
		for i, v := range raw.AsFloat32() {
			binary.LittleEndian.PutUint16(out[2*i:], float16.Fromfloat32(v).Bits())
		}
		buf.Write(out)
	case DTypeF32:
		out := make([]byte, 4*n)
		for i, v := range raw.AsFloat32() {
			binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
		}
		buf.Write(out)
	case DTypeI32:
		out := make([]byte, 4*n)
		for i, v := range raw.AsInt32() {
			binary.LittleEndian.PutUint32(out[4*i:], uint32(v)) //nolint:gosec // two's complement round trip
		}
		buf.Write(out)
	default:
		buf.Write(raw.Data()[:n])
	}
	return code
}
