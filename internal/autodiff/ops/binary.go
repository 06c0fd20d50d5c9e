package ops

import "github.com/born-ml/jaeger/internal/tensor"

// AddOp represents c = a + b (with broadcasting).
//
// Backward: dL/da = dL/dc, dL/db = dL/dc, each reduced to its input shape.
type AddOp struct{ base }

// NewAddOp creates a new AddOp.
func NewAddOp(a, b, output *tensor.RawTensor) *AddOp {
	return &AddOp{base{[]*tensor.RawTensor{a, b}, output}}
}

// Backward computes input gradients.
func (op *AddOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(grad, op.inputs[0].Shape(), backend),
		reduceBroadcast(grad, op.inputs[1].Shape(), backend),
	}
}

// SubOp represents c = a - b.
//
// Backward: dL/da = dL/dc, dL/db = -dL/dc.
type SubOp struct{ base }

// NewSubOp creates a new SubOp.
func NewSubOp(a, b, output *tensor.RawTensor) *SubOp {
	return &SubOp{base{[]*tensor.RawTensor{a, b}, output}}
}

// Backward computes input gradients.
func (op *SubOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(grad, op.inputs[0].Shape(), backend),
		reduceBroadcast(backend.MulScalar(grad, -1), op.inputs[1].Shape(), backend),
	}
}

// MulOp represents c = a * b.
//
// Backward: dL/da = dL/dc * b, dL/db = dL/dc * a.
type MulOp struct{ base }

// NewMulOp creates a new MulOp.
func NewMulOp(a, b, output *tensor.RawTensor) *MulOp {
	return &MulOp{base{[]*tensor.RawTensor{a, b}, output}}
}

// Backward computes input gradients.
func (op *MulOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	return []*tensor.RawTensor{
		reduceBroadcast(backend.Mul(grad, b), a.Shape(), backend),
		reduceBroadcast(backend.Mul(grad, a), b.Shape(), backend),
	}
}

// DivOp represents c = a / b.
//
// Backward: dL/da = dL/dc / b, dL/db = -dL/dc * c / b.
type DivOp struct{ base }

// NewDivOp creates a new DivOp.
func NewDivOp(a, b, output *tensor.RawTensor) *DivOp {
	return &DivOp{base{[]*tensor.RawTensor{a, b}, output}}
}

// Backward computes input gradients.
func (op *DivOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	gb := backend.MulScalar(backend.Div(backend.Mul(grad, op.output), b), -1)
	return []*tensor.RawTensor{
		reduceBroadcast(backend.Div(grad, b), a.Shape(), backend),
		reduceBroadcast(gb, b.Shape(), backend),
	}
}

// MulScalarOp represents y = x * s.
type MulScalarOp struct {
	base
	scalar float32
}

// NewMulScalarOp creates a new MulScalarOp.
func NewMulScalarOp(x, output *tensor.RawTensor, scalar float32) *MulScalarOp {
	return &MulScalarOp{base{[]*tensor.RawTensor{x}, output}, scalar}
}

// Backward computes the input gradient.
func (op *MulScalarOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MulScalar(grad, op.scalar)}
}

// AddScalarOp represents y = x + s. The gradient passes through unchanged.
type AddScalarOp struct{ base }

// NewAddScalarOp creates a new AddScalarOp.
func NewAddScalarOp(x, output *tensor.RawTensor) *AddScalarOp {
	return &AddScalarOp{base{[]*tensor.RawTensor{x}, output}}
}

// Backward computes the input gradient.
func (op *AddScalarOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{grad}
}
