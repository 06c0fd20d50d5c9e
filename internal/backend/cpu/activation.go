package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/jaeger/internal/tensor"
)

// Tanh applies the hyperbolic tangent element-wise.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("tanh", x, func(v float32) float32 { return float32(math.Tanh(float64(v))) })
}

// Sigmoid applies 1/(1+e^-x) element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sigmoid", x, sigmoid)
}

// ReLU applies max(x, 0) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("relu", x, func(v float32) float32 { return max(v, 0) })
}

// GELU applies the exact Gaussian error linear unit, 0.5·x·(1 + erf(x/√2)).
func (cpu *CPUBackend) GELU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("gelu", x, gelu)
}

func gelu(v float32) float32 {
	x := float64(v)
	return float32(0.5 * x * (1 + math.Erf(x/math.Sqrt2)))
}

func sigmoid(v float32) float32 {
	// Split on sign to keep exp from overflowing.
	if v >= 0 {
		return float32(1 / (1 + math.Exp(-float64(v))))
	}
	e := math.Exp(float64(v))
	return float32(e / (1 + e))
}

// Softmax computes a numerically stable softmax along dim.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("softmax: unsupported dtype %s (only float32 supported)", x.DType()))
	}
	shape := x.Shape()
	dim = tensor.NormalizeDim(dim, len(shape))
	outer, size, inner := splitAround(shape, dim)

	result := tensor.MustNewRaw(shape, tensor.Float32, cpu.device)
	in, out := x.AsFloat32(), result.AsFloat32()

	cpu.forRows(outer*inner, func(row int) {
		o, i := row/inner, row%inner
		base := o*size*inner + i

		maxVal := float32(math.Inf(-1))
		for k := 0; k < size; k++ {
			maxVal = max(maxVal, in[base+k*inner])
		}
		var sum float64
		for k := 0; k < size; k++ {
			e := math.Exp(float64(in[base+k*inner] - maxVal))
			out[base+k*inner] = float32(e)
			sum += e
		}
		for k := 0; k < size; k++ {
			out[base+k*inner] = float32(float64(out[base+k*inner]) / sum)
		}
	})
	return result
}
