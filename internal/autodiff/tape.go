package autodiff

import (
	"github.com/born-ml/jaeger/internal/autodiff/ops"
	"github.com/born-ml/jaeger/internal/tensor"
)

// GradientTape records operations in execution order during the forward pass
// and replays them in reverse to compute gradients.
type GradientTape struct {
	operations []ops.Operation
	recording  bool
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]ops.Operation, 0, 256),
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record adds an operation to the tape.
// Only records if the tape is currently recording.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear drops all recorded operations. The recording state is unchanged.
func (t *GradientTape) Clear() {
	clear(t.operations)
	t.operations = t.operations[:0]
}

// Backward walks the tape in reverse, seeding the last recorded output with
// outputGrad. Gradients of tensors used more than once are summed.
func (t *GradientTape) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	if len(t.operations) == 0 {
		return make(map[*tensor.RawTensor]*tensor.RawTensor)
	}
	return t.BackwardFrom(t.operations[len(t.operations)-1].Output(), outputGrad, backend)
}

// BackwardFrom is like Backward but seeds an explicit output tensor, which
// need not be the last one recorded.
//
// Recording is paused for the duration, so backend may be the wrapping
// AutodiffBackend. The returned map is keyed by tensor identity.
func (t *GradientTape) BackwardFrom(output, outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	if len(t.operations) == 0 {
		return grads
	}

	wasRecording := t.recording
	t.recording = false
	defer func() { t.recording = wasRecording }()

	grads[output] = outputGrad
	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		var inputGrads []*tensor.RawTensor
		if multi, ok := op.(ops.MultiOutputOperation); ok {
			inputGrads = multiOutputBackward(multi, grads, backend)
		} else if g, ok := grads[op.Output()]; ok {
			inputGrads = op.Backward(g, backend)
		}
		accumulate(op.Inputs(), inputGrads, grads, backend)
	}
	return grads
}

// multiOutputBackward runs a multi-output op if any of its outputs received
// a gradient. Outputs without one get zeros.
func multiOutputBackward(op ops.MultiOutputOperation, grads map[*tensor.RawTensor]*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	outputs := op.Outputs()
	outGrads := make([]*tensor.RawTensor, len(outputs))
	reached := false
	for j, out := range outputs {
		if g, ok := grads[out]; ok {
			outGrads[j] = g
			reached = true
		}
	}
	if !reached {
		return nil
	}
	for j, out := range outputs {
		if outGrads[j] == nil {
			outGrads[j] = tensor.MustNewRaw(out.Shape(), out.DType(), backend.Device())
		}
	}
	return op.BackwardMulti(outGrads, backend)
}

// accumulate sums inputGrads into grads. A tensor used by several ops
// collects the gradient of each use.
func accumulate(inputs, inputGrads []*tensor.RawTensor, grads map[*tensor.RawTensor]*tensor.RawTensor, backend tensor.Backend) {
	for j, g := range inputGrads {
		if g == nil || j >= len(inputs) {
			continue
		}
		if prev, ok := grads[inputs[j]]; ok {
			g = backend.Add(prev, g)
		}
		grads[inputs[j]] = g
	}
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}
