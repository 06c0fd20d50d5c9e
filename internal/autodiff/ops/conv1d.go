package ops

import "github.com/born-ml/jaeger/internal/tensor"

// Conv1DOp represents a dilated 1D convolution over [N, L, Cin] input with a
// [K, Cin, Cout] kernel.
//
// Backward is pure orchestration: both gradients come from backend kernels.
type Conv1DOp struct {
	base
	params tensor.Conv1DParams
}

// NewConv1DOp creates a new Conv1DOp.
func NewConv1DOp(input, kernel, output *tensor.RawTensor, p tensor.Conv1DParams) *Conv1DOp {
	return &Conv1DOp{base{[]*tensor.RawTensor{input, kernel}, output}, p}
}

// Backward computes gradients for input and kernel.
func (op *Conv1DOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	input, kernel := op.inputs[0], op.inputs[1]
	return []*tensor.RawTensor{
		backend.Conv1DInputBackward(input, kernel, grad, op.params),
		backend.Conv1DKernelBackward(input, kernel, grad, op.params),
	}
}

// MaxPool1DOp represents max pooling over the length axis.
// Gradients flow only to the position that held each window's maximum.
type MaxPool1DOp struct {
	base
	poolSize, stride int
}

// NewMaxPool1DOp creates a new MaxPool1DOp.
func NewMaxPool1DOp(input, output *tensor.RawTensor, poolSize, stride int) *MaxPool1DOp {
	return &MaxPool1DOp{base{[]*tensor.RawTensor{input}, output}, poolSize, stride}
}

// Backward computes the input gradient.
func (op *MaxPool1DOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MaxPool1DBackward(op.inputs[0], grad, op.poolSize, op.stride)}
}
