package nn

import (
	"fmt"

	"github.com/born-ml/jaeger/internal/tensor"
)

// ActivationFunc is an element-wise activation.
type ActivationFunc[B tensor.Backend] func(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

// Activation looks up an activation by its Keras name. The empty string and
// "linear" yield nil, meaning identity.
func Activation[B tensor.Backend](name string) ActivationFunc[B] {
	switch name {
	case "", "linear":
		return nil
	case "gelu":
		return (*tensor.Tensor[float32, B]).GELU
	case "relu":
		return (*tensor.Tensor[float32, B]).ReLU
	case "sigmoid":
		return (*tensor.Tensor[float32, B]).Sigmoid
	case "tanh":
		return (*tensor.Tensor[float32, B]).Tanh
	default:
		panic(fmt.Sprintf("activation: unknown activation %q", name))
	}
}

// GELU applies the exact Gaussian error linear unit, x·Φ(x).
//
// This is the erf form used by tf.nn.gelu, not the tanh approximation.
type GELU[B tensor.Backend] struct{}

// NewGELU creates a new GELU activation module.
func NewGELU[B tensor.Backend]() *GELU[B] {
	return &GELU[B]{}
}

// Forward applies GELU.
func (g *GELU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.GELU()
}

// Parameters returns nil (GELU has no trainable parameters).
func (g *GELU[B]) Parameters() []*Parameter[B] {
	return nil
}

// ReLU applies max(0, x).
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies ReLU.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.ReLU()
}

// Parameters returns nil.
func (r *ReLU[B]) Parameters() []*Parameter[B] {
	return nil
}

// Sigmoid applies 1/(1+e^-x).
type Sigmoid[B tensor.Backend] struct{}

// NewSigmoid creates a new Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{}
}

// Forward applies the sigmoid.
func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Sigmoid()
}

// Parameters returns nil.
func (s *Sigmoid[B]) Parameters() []*Parameter[B] {
	return nil
}

// Tanh applies the hyperbolic tangent.
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a new Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies tanh.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Tanh()
}

// Parameters returns nil.
func (t *Tanh[B]) Parameters() []*Parameter[B] {
	return nil
}
