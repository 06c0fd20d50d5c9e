package ops

import "github.com/born-ml/jaeger/internal/tensor"

// CatOp represents concatenation along dim.
// Backward narrows the gradient back into one piece per input.
type CatOp struct {
	base
	dim int
}

// NewCatOp creates a new CatOp.
func NewCatOp(inputs []*tensor.RawTensor, output *tensor.RawTensor, dim int) *CatOp {
	return &CatOp{base{append([]*tensor.RawTensor(nil), inputs...), output}, dim}
}

// Backward computes one gradient per input.
func (op *CatOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	dim := tensor.NormalizeDim(op.dim, len(grad.Shape()))
	grads := make([]*tensor.RawTensor, len(op.inputs))
	offset := 0
	for i, in := range op.inputs {
		n := in.Shape()[dim]
		grads[i] = backend.Narrow(grad, dim, offset, n)
		offset += n
	}
	return grads
}

// NarrowOp represents x[..., start:start+length, ...] along dim.
// Backward pads the gradient with zeros to the input's extent.
type NarrowOp struct {
	base
	dim, start, length int
}

// NewNarrowOp creates a new NarrowOp.
func NewNarrowOp(x, output *tensor.RawTensor, dim, start, length int) *NarrowOp {
	return &NarrowOp{base{[]*tensor.RawTensor{x}, output}, dim, start, length}
}

// Backward computes the input gradient.
func (op *NarrowOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	dim := tensor.NormalizeDim(op.dim, len(x.Shape()))
	total := x.Shape()[dim]
	if op.start == 0 && op.length == total {
		return []*tensor.RawTensor{grad}
	}

	pieces := make([]*tensor.RawTensor, 0, 3)
	if op.start > 0 {
		pieces = append(pieces, zerosAlong(grad, dim, op.start))
	}
	pieces = append(pieces, grad)
	if tail := total - op.start - op.length; tail > 0 {
		pieces = append(pieces, zerosAlong(grad, dim, tail))
	}
	return []*tensor.RawTensor{backend.Cat(pieces, dim)}
}

func zerosAlong(like *tensor.RawTensor, dim, n int) *tensor.RawTensor {
	shape := like.Shape().Clone()
	shape[dim] = n
	return tensor.MustNewRaw(shape, like.DType(), like.Device())
}

// ChunkOp represents splitting x into n equal pieces along dim.
// It has one output per chunk.
type ChunkOp struct {
	input   *tensor.RawTensor
	outputs []*tensor.RawTensor
	dim     int
}

// NewChunkOp creates a new ChunkOp.
func NewChunkOp(x *tensor.RawTensor, outputs []*tensor.RawTensor, dim int) *ChunkOp {
	return &ChunkOp{input: x, outputs: append([]*tensor.RawTensor(nil), outputs...), dim: dim}
}

// Inputs returns the chunked tensor.
func (op *ChunkOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the first chunk.
func (op *ChunkOp) Output() *tensor.RawTensor { return op.outputs[0] }

// Outputs returns every chunk.
func (op *ChunkOp) Outputs() []*tensor.RawTensor { return op.outputs }

// Backward is only valid when a single chunk carries gradient; the tape uses
// BackwardMulti for this op.
func (op *ChunkOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grads := make([]*tensor.RawTensor, len(op.outputs))
	grads[0] = grad
	return op.BackwardMulti(grads, backend)
}

// BackwardMulti concatenates the per-chunk gradients. Missing entries are
// treated as zeros.
func (op *ChunkOp) BackwardMulti(grads []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	pieces := make([]*tensor.RawTensor, len(op.outputs))
	for i, out := range op.outputs {
		if i < len(grads) && grads[i] != nil {
			pieces[i] = grads[i]
		} else {
			pieces[i] = zerosLike(out)
		}
	}
	return []*tensor.RawTensor{backend.Cat(pieces, op.dim)}
}
