package cpu

import (
	"fmt"

	"github.com/born-ml/jaeger/internal/tensor"
)

// reduce folds x along dim with f, starting each row from its first element.
func (cpu *CPUBackend) reduce(name string, x *tensor.RawTensor, dim int, keepDim bool,
	f func(acc, v float32) float32, finish func(acc float32, size int) float32,
) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtype %s (only float32 supported)", name, x.DType()))
	}
	shape := x.Shape()
	dim = tensor.NormalizeDim(dim, len(shape))
	outer, size, inner := splitAround(shape, dim)

	result := tensor.MustNewRaw(reducedShape(shape, dim, keepDim), tensor.Float32, cpu.device)
	in, out := x.AsFloat32(), result.AsFloat32()

	cpu.forRows(outer*inner, func(row int) {
		o, i := row/inner, row%inner
		base := o*size*inner + i
		acc := in[base]
		for k := 1; k < size; k++ {
			acc = f(acc, in[base+k*inner])
		}
		if finish != nil {
			acc = finish(acc, size)
		}
		out[row] = acc
	})
	return result
}

// SumDim sums tensor elements along dim (negative dims count from the end).
//
//	x := tensor.Randn(tensor.Shape{2, 3, 4}, nil, backend)
//	backend.SumDim(x.Raw(), -1, true)  // shape: [2, 3, 1]
//	backend.SumDim(x.Raw(), -1, false) // shape: [2, 3]
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduce("sumdim", x, dim, keepDim, func(acc, v float32) float32 { return acc + v }, nil)
}

// MeanDim averages tensor elements along dim.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduce("meandim", x, dim, keepDim,
		func(acc, v float32) float32 { return acc + v },
		func(acc float32, size int) float32 { return acc / float32(size) })
}

// MaxDim takes the maximum along dim.
func (cpu *CPUBackend) MaxDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduce("maxdim", x, dim, keepDim, func(acc, v float32) float32 { return max(acc, v) }, nil)
}

// Argmax returns int32 indices of the first maximum along dim; dim is removed.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("argmax: unsupported dtype %s (only float32 supported)", x.DType()))
	}
	shape := x.Shape()
	dim = tensor.NormalizeDim(dim, len(shape))
	outer, size, inner := splitAround(shape, dim)

	result := tensor.MustNewRaw(reducedShape(shape, dim, false), tensor.Int32, cpu.device)
	in, out := x.AsFloat32(), result.AsInt32()

	for row := 0; row < outer*inner; row++ {
		o, i := row/inner, row%inner
		base := o*size*inner + i
		best := 0
		for k := 1; k < size; k++ {
			if in[base+k*inner] > in[base+best*inner] {
				best = k
			}
		}
		out[row] = int32(best)
	}
	return result
}
