package nn

import (
	"fmt"

	"github.com/born-ml/jaeger/internal/tensor"
)

// Parameter is a named tensor owned by a layer.
//
// Trainable parameters (weights, biases) are returned by Parameters() and
// receive gradients. Buffers (BatchNorm moving statistics, fixed position
// tables) are created with NewBuffer, appear only in state dicts, and are
// never differentiated.
//
// Example:
//
//	kernel := nn.NewParameter("kernel", nn.HeUniform(k*cin, shape, rng, backend))
//	out := x.Conv1D(kernel.Tensor(), params)
type Parameter[B tensor.Backend] struct {
	name      string
	tensor    *tensor.Tensor[float32, B]
	grad      *tensor.Tensor[float32, B]
	trainable bool
}

// NewParameter creates a new trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:      name,
		tensor:    t,
		trainable: true,
	}
}

// NewBuffer creates a non-trainable state tensor.
func NewBuffer[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Trainable reports whether the parameter receives gradients.
func (p *Parameter[B]) Trainable() bool {
	return p.trainable
}

// Grad returns the gradient tensor, or nil before a backward pass.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}

// CheckLoad reports whether Load would accept raw: it must be float32 with
// the parameter's shape.
func (p *Parameter[B]) CheckLoad(raw *tensor.RawTensor) error {
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("%s: dtype mismatch: expected float32, got %s", p.name, raw.DType())
	}
	if !raw.Shape().Equal(p.tensor.Shape()) {
		return fmt.Errorf("%s: shape mismatch: expected %v, got %v", p.name, p.tensor.Shape(), raw.Shape())
	}
	return nil
}

// Load copies raw into the parameter in place. See CheckLoad.
func (p *Parameter[B]) Load(raw *tensor.RawTensor) error {
	if err := p.CheckLoad(raw); err != nil {
		return err
	}
	copy(p.tensor.Raw().AsFloat32(), raw.AsFloat32())
	return nil
}

// AssignGradients stores the gradients from an autodiff.Backward result on
// the matching parameters and returns how many received one.
func AssignGradients[B tensor.Backend](params []*Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) int {
	n := 0
	for _, p := range params {
		raw, ok := grads[p.tensor.Raw()]
		if !ok {
			continue
		}
		p.grad = tensor.New[float32](raw, p.tensor.Backend())
		n++
	}
	return n
}
