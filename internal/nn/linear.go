package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/jaeger/internal/tensor"
)

// Linear implements a fully connected layer on the last axis.
//
// Performs y = x @ W + b where W is stored [in_features, out_features]
// (the Keras kernel layout). Inputs of any rank >= 2 are accepted:
// [..., in] -> [..., out].
//
// Weights are initialized with Glorot uniform, biases with zeros.
//
// Example:
//
//	layer := nn.NewLinear(128, 4, rng, backend)
//	logits := layer.Forward(features) // [N, 128] -> [N, 4]
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B] // [in_features, out_features]
	bias        *Parameter[B] // [out_features]
}

// NewLinear creates a new Linear layer.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("Linear: features must be positive, got in=%d out=%d", inFeatures, outFeatures))
	}
	w := GlorotUniform(inFeatures, outFeatures, tensor.Shape{inFeatures, outFeatures}, rng, backend)
	return NewLinearWithWeight(w, tensor.Zeros[float32](tensor.Shape{outFeatures}, backend))
}

// NewLinearWithWeight creates a Linear layer around existing tensors.
// bias may be nil.
func NewLinearWithWeight[B tensor.Backend](weight, bias *tensor.Tensor[float32, B]) *Linear[B] {
	shape := weight.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("Linear: weight must be 2D, got shape %v", shape))
	}
	l := &Linear[B]{
		inFeatures:  shape[0],
		outFeatures: shape[1],
		weight:      NewParameter("kernel", weight),
	}
	if bias != nil {
		if !bias.Shape().Equal(tensor.Shape{shape[1]}) {
			panic(fmt.Sprintf("Linear: bias shape %v does not match %d outputs", bias.Shape(), shape[1]))
		}
		l.bias = NewParameter("bias", bias)
	}
	return l
}

// Forward computes x @ W + b over the last axis.
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("Linear.Forward: expected at least 2D input, got shape %v", shape))
	}
	if shape[len(shape)-1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, shape[len(shape)-1]))
	}

	x := input
	if len(shape) > 2 {
		x = input.Reshape(-1, l.inFeatures)
	}
	output := x.MatMul(l.weight.Tensor())
	if l.bias != nil {
		output = output.Add(l.bias.Tensor())
	}

	if len(shape) > 2 {
		outShape := append(shape[:len(shape)-1:len(shape)-1], l.outFeatures)
		output = output.Reshape(outShape...)
	}
	return output
}

// Parameters returns [kernel, bias], or [kernel] without bias.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	if l.bias != nil {
		return []*Parameter[B]{l.weight, l.bias}
	}
	return []*Parameter[B]{l.weight}
}

// Weight returns the kernel parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter, or nil.
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}

// Dense is a Linear layer followed by an optional activation, the building
// block of every classification head in the model zoo.
type Dense[B tensor.Backend] struct {
	*Linear[B]
	activation string
	act        ActivationFunc[B]
}

// NewDense creates a Dense layer. activation is a Keras activation name
// ("gelu", "relu", "sigmoid", "tanh") or "" for none.
func NewDense[B tensor.Backend](inFeatures, units int, activation string, rng *rand.Rand, backend B) *Dense[B] {
	return &Dense[B]{
		Linear:     NewLinear(inFeatures, units, rng, backend),
		activation: activation,
		act:        Activation[B](activation),
	}
}

// Forward applies the projection and the activation.
func (d *Dense[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := d.Linear.Forward(input)
	if d.act != nil {
		out = d.act(out)
	}
	return out
}

// ActivationName returns the configured activation name.
func (d *Dense[B]) ActivationName() string {
	return d.activation
}
