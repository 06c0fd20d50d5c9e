package serialization

import (
	"encoding/binary"
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

// File is a decoded SafeTensors file.
type File struct {
	// Metadata holds the "__metadata__" entry, if any.
	Metadata map[string]string
	// Tensors holds the decoded tensors in header order. Half precision
	// tensors are widened to float32.
	Tensors *Tensors
	// DTypes maps tensor names to their stored dtype codes.
	DTypes map[string]string
}

// Map returns the tensors keyed by name.
func (f *File) Map() map[string]*tensor.RawTensor {
	m := make(map[string]*tensor.RawTensor, f.Tensors.Len())
	for pair := f.Tensors.Oldest(); pair != nil; pair = pair.Next() {
		m[pair.Key] = pair.Value
	}
	return m
}

// ReadFile memory-maps path and decodes it. The returned tensors own their
// memory; the mapping is released before ReadFile returns.
func ReadFile(path string) (*File, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close() // Best effort close
	}()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.Size() < 8 {
		return nil, fmt.Errorf("%s: %w: %d bytes", path, ErrTruncated, stat.Size())
	}

	data, err := mmapFile(file, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("mmap failed: %w", err)
	}
	defer func() {
		_ = munmapFile(data) // Best effort unmap
	}()

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Debug("read safetensors", "path", path, "tensors", f.Tensors.Len())
	return f, nil
}

// Read decodes a SafeTensors stream.
func Read(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read: %w", err)
	}
	return Parse(data)
}

// Parse decodes a SafeTensors file held in memory. Tensor data is copied,
// so data may be released afterwards.
func Parse(data []byte) (*File, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}
	headerSize := binary.LittleEndian.Uint64(data[:8])
	if headerSize > MaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}
	if headerSize > uint64(len(data)-8) {
		return nil, fmt.Errorf("%w: header of %d bytes in a %d byte file", ErrTruncated, headerSize, len(data))
	}
	body := data[8+headerSize:]

	header := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data[8:8+headerSize], header); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	f := &File{
		Tensors: orderedmap.New[string, *tensor.RawTensor](),
		DTypes:  make(map[string]string, header.Len()),
	}
	entries := make(map[string]SafeTensorHeader, header.Len())
	metas := make([]TensorMeta, 0, header.Len())
	for pair := header.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == MetadataKey {
			if err := json.Unmarshal(pair.Value, &f.Metadata); err != nil {
				return nil, fmt.Errorf("failed to parse metadata: %w", err)
			}
			continue
		}
		meta, entry, err := parseEntry(pair.Key, pair.Value)
		if err != nil {
			return nil, err
		}
		entries[pair.Key] = entry
		metas = append(metas, meta)
	}

	if err := ValidateTensorOffsets(metas, int64(len(body))); err != nil {
		return nil, err
	}
	if digest, ok := f.Metadata[MetaChecksum]; ok {
		if err := ValidateChecksum(body, digest); err != nil {
			return nil, err
		}
	}

	for _, m := range metas {
		entry := entries[m.Name]
		raw, err := decodeTensor(entry, body[m.Offset:m.Offset+m.Size])
		if err != nil {
			return nil, fmt.Errorf("tensor %q: %w", m.Name, err)
		}
		f.Tensors.Set(m.Name, raw)
		f.DTypes[m.Name] = entry.DType
	}
	return f, nil
}

// parseEntry decodes one tensor header and checks that its byte range
// matches its dtype and shape.
func parseEntry(name string, value json.RawMessage) (TensorMeta, SafeTensorHeader, error) {
	var entry SafeTensorHeader
	if err := ValidateTensorName(name); err != nil {
		return TensorMeta{}, entry, err
	}
	if err := json.Unmarshal(value, &entry); err != nil {
		return TensorMeta{}, entry, fmt.Errorf("tensor %q: failed to parse header: %w", name, err)
	}
	size, err := elementSize(entry.DType)
	if err != nil {
		return TensorMeta{}, entry, fmt.Errorf("tensor %q: %w", name, err)
	}

	want := int64(size)
	for _, d := range entry.Shape {
		if d < 0 || (d > 0 && want > math.MaxInt32/d) {
			return TensorMeta{}, entry, &ValidationError{
				Type: "invalid_shape", Tensor: name,
				Details: fmt.Sprintf("shape %v", entry.Shape), Err: ErrSizeMismatch,
			}
		}
		want *= d
	}

	start, end := entry.DataOffsets[0], entry.DataOffsets[1]
	if end-start != want {
		return TensorMeta{}, entry, &ValidationError{
			Type: "size_mismatch", Tensor: name,
			Details: fmt.Sprintf("%s %v needs %d bytes, offsets [%d, %d] hold %d",
				entry.DType, entry.Shape, want, start, end, end-start),
			Err: ErrSizeMismatch,
		}
	}
	return TensorMeta{Name: name, Offset: start, Size: end - start}, entry, nil
}

// decodeTensor copies little-endian tensor bytes into a new RawTensor.
func decodeTensor(entry SafeTensorHeader, data []byte) (*tensor.RawTensor, error) {
	shape := make(tensor.Shape, len(entry.Shape))
	for i, d := range entry.Shape {
		shape[i] = int(d)
	}
	raw, err := tensor.NewRaw(shape, runtimeType(entry.DType), tensor.CPU)
	if err != nil {
		return nil, err
	}

	switch entry.DType {
	case DTypeF16:
		out := raw.AsFloat32()
		for i := range out {
			out[i] = float16.Frombits(binary.LittleEndian.Uint16(data[2*i:])).Float32()
		}
	case DTypeF32:
		out := raw.AsFloat32()
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
		}
	case DTypeI32:
		out := raw.AsInt32()
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(data[4*i:])) //nolint:gosec // two's complement round trip
		}
	default:
		copy(raw.Data(), data)
	}
	return raw, nil
}
