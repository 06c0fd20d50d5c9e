package ops

import (
	"math"

	"github.com/born-ml/jaeger/internal/tensor"
)

// ExpOp represents y = e^x. Backward: dL/dx = dL/dy * y.
type ExpOp struct{ base }

// NewExpOp creates a new ExpOp.
func NewExpOp(x, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{base{[]*tensor.RawTensor{x}, output}}
}

// Backward computes the input gradient.
func (op *ExpOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(grad, op.output)}
}

// LogOp represents y = ln(x). Backward: dL/dx = dL/dy / x.
type LogOp struct{ base }

// NewLogOp creates a new LogOp.
func NewLogOp(x, output *tensor.RawTensor) *LogOp {
	return &LogOp{base{[]*tensor.RawTensor{x}, output}}
}

// Backward computes the input gradient.
func (op *LogOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(grad, op.inputs[0])}
}

// SqrtOp represents y = √x. Backward: dL/dx = dL/dy * 0.5 / y.
type SqrtOp struct{ base }

// NewSqrtOp creates a new SqrtOp.
func NewSqrtOp(x, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{base{[]*tensor.RawTensor{x}, output}}
}

// Backward computes the input gradient.
func (op *SqrtOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(backend.MulScalar(grad, 0.5), op.output)}
}

// RsqrtOp represents y = 1/√x. Backward: dL/dx = dL/dy * -0.5 * y³.
type RsqrtOp struct{ base }

// NewRsqrtOp creates a new RsqrtOp.
func NewRsqrtOp(x, output *tensor.RawTensor) *RsqrtOp {
	return &RsqrtOp{base{[]*tensor.RawTensor{x}, output}}
}

// Backward computes the input gradient.
func (op *RsqrtOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	y := op.output
	y3 := backend.Mul(backend.Mul(y, y), y)
	return []*tensor.RawTensor{backend.MulScalar(backend.Mul(grad, y3), -0.5)}
}

// TanhOp represents y = tanh(x). Backward: dL/dx = dL/dy * (1 - y²).
type TanhOp struct{ base }

// NewTanhOp creates a new TanhOp.
func NewTanhOp(x, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{base{[]*tensor.RawTensor{x}, output}}
}

// Backward computes the input gradient.
func (op *TanhOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{mapGrad("tanh", op.output, grad, func(y float32) float32 { return 1 - y*y })}
}

// SigmoidOp represents y = σ(x). Backward: dL/dx = dL/dy * y * (1 - y).
type SigmoidOp struct{ base }

// NewSigmoidOp creates a new SigmoidOp.
func NewSigmoidOp(x, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{base{[]*tensor.RawTensor{x}, output}}
}

// Backward computes the input gradient.
func (op *SigmoidOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{mapGrad("sigmoid", op.output, grad, func(y float32) float32 { return y * (1 - y) })}
}

// ReLUOp represents y = max(x, 0). Backward: dL/dx = dL/dy where x > 0.
type ReLUOp struct{ base }

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(x, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{base{[]*tensor.RawTensor{x}, output}}
}

// Backward computes the input gradient.
func (op *ReLUOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{mapGrad("relu", op.inputs[0], grad, func(x float32) float32 {
		if x > 0 {
			return 1
		}
		return 0
	})}
}

// GELUOp represents the exact GELU, y = x·Φ(x).
// Backward: dL/dx = dL/dy * (Φ(x) + x·φ(x)).
type GELUOp struct{ base }

// NewGELUOp creates a new GELUOp.
func NewGELUOp(x, output *tensor.RawTensor) *GELUOp {
	return &GELUOp{base{[]*tensor.RawTensor{x}, output}}
}

// Backward computes the input gradient.
func (op *GELUOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{mapGrad("gelu", op.inputs[0], grad, geluDerivative)}
}

func geluDerivative(v float32) float32 {
	x := float64(v)
	cdf := 0.5 * (1 + math.Erf(x/math.Sqrt2))
	pdf := math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
	return float32(cdf + x*pdf)
}

// SoftmaxOp represents y = softmax(x, dim).
// Backward: dL/dx = y * (dL/dy - Σ_dim(dL/dy * y)).
type SoftmaxOp struct {
	base
	dim int
}

// NewSoftmaxOp creates a new SoftmaxOp.
func NewSoftmaxOp(x, output *tensor.RawTensor, dim int) *SoftmaxOp {
	return &SoftmaxOp{base{[]*tensor.RawTensor{x}, output}, dim}
}

// Backward computes the input gradient.
func (op *SoftmaxOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	y := op.output
	s := backend.SumDim(backend.Mul(grad, y), op.dim, true)
	return []*tensor.RawTensor{backend.Mul(y, backend.Sub(grad, s))}
}
