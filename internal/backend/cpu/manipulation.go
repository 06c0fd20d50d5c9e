package cpu

import (
	"fmt"

	"github.com/born-ml/jaeger/internal/tensor"
)

// Cat concatenates tensors along dim. Works for any dtype.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: empty tensor list")
	}
	first := tensors[0].Shape()
	dim = tensor.NormalizeDim(dim, len(first))
	dtype := tensors[0].DType()

	outShape := first.Clone()
	outShape[dim] = 0
	for i, t := range tensors {
		s := t.Shape()
		if len(s) != len(first) || t.DType() != dtype {
			panic(fmt.Sprintf("cat: tensor %d has shape %v/%s, expected rank %d/%s", i, s, t.DType(), len(first), dtype))
		}
		for d := range s {
			if d != dim && s[d] != first[d] {
				panic(fmt.Sprintf("cat: tensor %d shape %v mismatches %v outside dim %d", i, s, first, dim))
			}
		}
		outShape[dim] += s[dim]
	}

	result := tensor.MustNewRaw(outShape, dtype, cpu.device)
	es := dtype.Size()
	outer, total, inner := splitAround(outShape, dim)
	out := result.Data()

	offset := 0
	for _, t := range tensors {
		size := t.Shape()[dim]
		src := t.Data()
		block := size * inner * es
		for o := 0; o < outer; o++ {
			dst := (o*total + offset) * inner * es
			copy(out[dst:dst+block], src[o*block:(o+1)*block])
		}
		offset += size
	}
	return result
}

// Narrow copies length elements of dim starting at start.
func (cpu *CPUBackend) Narrow(x *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	shape := x.Shape()
	dim = tensor.NormalizeDim(dim, len(shape))
	if start < 0 || length < 1 || start+length > shape[dim] {
		panic(fmt.Sprintf("narrow: range [%d, %d) out of bounds for dim %d of %v", start, start+length, dim, shape))
	}

	outShape := shape.Clone()
	outShape[dim] = length
	result := tensor.MustNewRaw(outShape, x.DType(), cpu.device)

	es := x.DType().Size()
	outer, size, inner := splitAround(shape, dim)
	src, out := x.Data(), result.Data()
	block := length * inner * es
	for o := 0; o < outer; o++ {
		from := (o*size + start) * inner * es
		copy(out[o*block:(o+1)*block], src[from:from+block])
	}
	return result
}

// Chunk splits x into n equal parts along dim.
func (cpu *CPUBackend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	shape := x.Shape()
	dim = tensor.NormalizeDim(dim, len(shape))
	if n < 1 || shape[dim]%n != 0 {
		panic(fmt.Sprintf("chunk: dimension %d of size %d is not divisible into %d chunks", dim, shape[dim], n))
	}
	size := shape[dim] / n
	out := make([]*tensor.RawTensor, n)
	for i := range out {
		out[i] = cpu.Narrow(x, dim, i*size, size)
	}
	return out
}

// Unsqueeze inserts a dimension of size 1 at dim (zero-copy).
func (cpu *CPUBackend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = tensor.NormalizeDim(dim, len(shape)+1)
	newShape := make(tensor.Shape, 0, len(shape)+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)
	return x.View(newShape)
}

// Squeeze removes dimension dim, which must have size 1 (zero-copy).
func (cpu *CPUBackend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = tensor.NormalizeDim(dim, len(shape))
	if shape[dim] != 1 {
		panic(fmt.Sprintf("squeeze: dimension %d has size %d, not 1", dim, shape[dim]))
	}
	return x.View(reducedShape(shape, dim, false))
}

// Expand broadcasts x to shape, copying data.
func (cpu *CPUBackend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	outShape, _, err := tensor.BroadcastShapes(x.Shape(), shape)
	if err != nil || !outShape.Equal(shape) {
		panic(fmt.Sprintf("expand: cannot expand %v to %v", x.Shape(), shape))
	}
	result := tensor.MustNewRaw(shape, x.DType(), cpu.device)
	gatherElements(result, x, computeBroadcastStridesForShape(x.Shape(), shape))
	return result
}
