package cpu

import (
	"fmt"

	"github.com/born-ml/jaeger/internal/tensor"
)

// NotEqualScalar returns x != scalar element-wise as a bool tensor.
// int32 inputs compare against the scalar truncated to an integer.
func (cpu *CPUBackend) NotEqualScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	result := tensor.MustNewRaw(x.Shape(), tensor.Bool, cpu.device)
	out := result.AsBool()

	switch x.DType() {
	case tensor.Float32:
		for i, v := range x.AsFloat32() {
			out[i] = v != scalar
		}
	case tensor.Int32:
		s := int32(scalar)
		for i, v := range x.AsInt32() {
			out[i] = v != s
		}
	default:
		panic(fmt.Sprintf("not_equal_scalar: unsupported dtype %s", x.DType()))
	}
	return result
}
