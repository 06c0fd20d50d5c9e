package ops

import "github.com/born-ml/jaeger/internal/tensor"

// ReshapeOp records any operation that only reinterprets the layout of its
// input: Reshape, Unsqueeze, Squeeze. Backward reshapes the gradient back.
type ReshapeOp struct{ base }

// NewReshapeOp creates a new ReshapeOp.
func NewReshapeOp(x, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{base{[]*tensor.RawTensor{x}, output}}
}

// Backward computes the input gradient.
func (op *ReshapeOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(grad, op.inputs[0].Shape())}
}

// TransposeOp represents a permutation of axes.
// Backward applies the inverse permutation.
type TransposeOp struct {
	base
	axes []int
}

// NewTransposeOp creates a new TransposeOp. Empty axes means the last two
// dimensions were swapped.
func NewTransposeOp(x, output *tensor.RawTensor, axes []int) *TransposeOp {
	return &TransposeOp{base{[]*tensor.RawTensor{x}, output}, append([]int(nil), axes...)}
}

// Backward computes the input gradient.
func (op *TransposeOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	if len(op.axes) == 0 {
		return []*tensor.RawTensor{backend.Transpose(grad)}
	}
	inverse := make([]int, len(op.axes))
	for i, a := range op.axes {
		inverse[a] = i
	}
	return []*tensor.RawTensor{backend.Transpose(grad, inverse...)}
}

// ExpandOp represents broadcasting x to a larger shape.
// Backward sums the gradient over the broadcast dimensions.
type ExpandOp struct{ base }

// NewExpandOp creates a new ExpandOp.
func NewExpandOp(x, output *tensor.RawTensor) *ExpandOp {
	return &ExpandOp{base{[]*tensor.RawTensor{x}, output}}
}

// Backward computes the input gradient.
func (op *ExpandOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{reduceBroadcast(grad, op.inputs[0].Shape(), backend)}
}
