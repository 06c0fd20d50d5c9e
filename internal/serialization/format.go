package serialization

import (
	"fmt"

	"github.com/born-ml/jaeger/internal/tensor"
)

// Format constants.
const (
	HeaderAlignment = 8              // header is space padded to this multiple
	MetadataKey     = "__metadata__" // reserved header entry for string metadata
)

// Metadata keys written by this package.
const (
	MetaFormat   = "format"
	MetaModel    = "model"
	MetaRunID    = "run_id"
	MetaChecksum = "sha256"
)

// SafeTensors dtype codes.
const (
	DTypeF32  = "F32"
	DTypeF16  = "F16"
	DTypeI32  = "I32"
	DTypeBool = "BOOL"
)

// SafeTensorHeader represents a tensor in the SafeTensors header.
type SafeTensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// TensorMeta locates a tensor in the data section.
type TensorMeta struct {
	Name   string
	Offset int64 // bytes from the start of the data section
	Size   int64 // size in bytes
}

// elementSize returns the stored byte width of a dtype code.
func elementSize(code string) (int, error) {
	switch code {
	case DTypeF32, DTypeI32:
		return 4, nil
	case DTypeF16:
		return 2, nil
	case DTypeBool:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrUnsupportedDType, code)
	}
}

// dtypeCode returns the stored dtype for dt.
func dtypeCode(dt tensor.DataType, half bool) string {
	switch dt {
	case tensor.Float32:
		if half {
			return DTypeF16
		}
		return DTypeF32
	case tensor.Int32:
		return DTypeI32
	default:
		return DTypeBool
	}
}

// runtimeType returns the in-memory dtype a stored dtype decodes to.
// Half precision is widened to float32.
func runtimeType(code string) tensor.DataType {
	switch code {
	case DTypeI32:
		return tensor.Int32
	case DTypeBool:
		return tensor.Bool
	default:
		return tensor.Float32
	}
}
