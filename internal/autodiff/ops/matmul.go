package ops

import "github.com/born-ml/jaeger/internal/tensor"

// MatMulOp represents C = A @ B for 2-D matrices.
//
// Backward:
//
//	dL/dA = dL/dC @ Bᵀ
//	dL/dB = Aᵀ @ dL/dC
type MatMulOp struct{ base }

// NewMatMulOp creates a new MatMulOp.
func NewMatMulOp(a, b, output *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{base{[]*tensor.RawTensor{a, b}, output}}
}

// Backward computes input gradients.
func (op *MatMulOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	return []*tensor.RawTensor{
		backend.MatMul(grad, backend.Transpose(b)),
		backend.MatMul(backend.Transpose(a), grad),
	}
}

// BatchMatMulOp represents batched C = A @ B over leading dimensions.
// The backward pass mirrors MatMulOp with the last two dims transposed.
type BatchMatMulOp struct{ base }

// NewBatchMatMulOp creates a new BatchMatMulOp.
func NewBatchMatMulOp(a, b, output *tensor.RawTensor) *BatchMatMulOp {
	return &BatchMatMulOp{base{[]*tensor.RawTensor{a, b}, output}}
}

// Backward computes input gradients.
func (op *BatchMatMulOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	return []*tensor.RawTensor{
		backend.BatchMatMul(grad, backend.Transpose(b)),
		backend.BatchMatMul(backend.Transpose(a), grad),
	}
}
