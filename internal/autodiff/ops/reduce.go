package ops

import "github.com/born-ml/jaeger/internal/tensor"

// SumDimOp represents a sum along one dimension.
// Backward broadcasts the gradient back across the reduced dimension.
type SumDimOp struct {
	base
	dim     int
	keepDim bool
}

// NewSumDimOp creates a new SumDimOp.
func NewSumDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{base{[]*tensor.RawTensor{x}, output}, dim, keepDim}
}

// Backward computes the input gradient.
func (op *SumDimOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	dim := tensor.NormalizeDim(op.dim, len(x.Shape()))
	return []*tensor.RawTensor{restoreDim(grad, x.Shape(), dim, op.keepDim, backend)}
}

// MeanDimOp represents a mean along one dimension.
type MeanDimOp struct {
	base
	dim     int
	keepDim bool
}

// NewMeanDimOp creates a new MeanDimOp.
func NewMeanDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *MeanDimOp {
	return &MeanDimOp{base{[]*tensor.RawTensor{x}, output}, dim, keepDim}
}

// Backward computes the input gradient.
func (op *MeanDimOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	dim := tensor.NormalizeDim(op.dim, len(x.Shape()))
	g := restoreDim(grad, x.Shape(), dim, op.keepDim, backend)
	return []*tensor.RawTensor{backend.MulScalar(g, 1/float32(x.Shape()[dim]))}
}

// MaxDimOp represents a max along one dimension.
// Only the first maximal element of each slice receives gradient.
type MaxDimOp struct {
	base
	dim     int
	keepDim bool
}

// NewMaxDimOp creates a new MaxDimOp.
func NewMaxDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *MaxDimOp {
	return &MaxDimOp{base{[]*tensor.RawTensor{x}, output}, dim, keepDim}
}

// Backward computes the input gradient.
func (op *MaxDimOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	shape := x.Shape()
	dim := tensor.NormalizeDim(op.dim, len(shape))

	outer, size, inner := 1, shape[dim], 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}

	result := zerosLike(x)
	dst, src, g := result.AsFloat32(), x.AsFloat32(), grad.AsFloat32()
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			start := o*size*inner + in
			best := start
			for k := 1; k < size; k++ {
				if idx := start + k*inner; src[idx] > src[best] {
					best = idx
				}
			}
			dst[best] = g[o*inner+in]
		}
	}
	return []*tensor.RawTensor{result}
}
