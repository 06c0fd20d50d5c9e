// Package nn implements the neural network layers used by the jaeger models.
//
// Layers are generic over the compute backend. Wrap the backend with
// autodiff.New to make the forward pass differentiable.
//
// Sequence tensors are channels-last, [batch, length, channels], and layer
// defaults (initializers, epsilons, momentum) follow Keras so that weights
// exported from Keras line up one to one.
package nn

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/born-ml/jaeger/internal/tensor"
)

// Module is the base interface for all neural network components.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module, including
	// those of nested modules.
	Parameters() []*Parameter[B]
}

// StateDict maps qualified names to parameters and buffers in a stable order.
type StateDict[B tensor.Backend] = orderedmap.OrderedMap[string, *Parameter[B]]

// NewStateDict returns an empty StateDict.
func NewStateDict[B tensor.Backend]() *StateDict[B] {
	return orderedmap.New[string, *Parameter[B]]()
}

// Stateful is implemented by layers that can enumerate their full state,
// trainable parameters and non-trainable buffers alike.
type Stateful[B tensor.Backend] interface {
	// CollectState adds every tensor of the layer to dst, prefixing names
	// with prefix.
	CollectState(prefix string, dst *StateDict[B])
}

// TrainingMode is implemented by layers whose behaviour differs between
// training and inference (Dropout, BatchNorm and their containers).
type TrainingMode interface {
	SetTraining(training bool)
}

// SetTraining switches m and, if it is a container, its children.
// Modules without a training mode are left alone.
func SetTraining(m any, training bool) {
	if t, ok := m.(TrainingMode); ok {
		t.SetTraining(training)
	}
}

// CollectState adds the state of m to dst. Modules that do not implement
// Stateful contribute their Parameters under their own names.
func CollectState[B tensor.Backend](prefix string, m Module[B], dst *StateDict[B]) {
	if s, ok := m.(Stateful[B]); ok {
		s.CollectState(prefix, dst)
		return
	}
	for _, p := range m.Parameters() {
		dst.Set(prefix+p.Name(), p)
	}
}

// CountParameters returns the number of trainable scalars in params.
func CountParameters[B tensor.Backend](params []*Parameter[B]) int {
	n := 0
	for _, p := range params {
		n += p.Tensor().NumElements()
	}
	return n
}
