package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/jaeger/internal/tensor"
)

// Highway is a highway layer on the last axis:
//
//	H = x W + b
//	T = σ(x W_t + b_t)
//	y = H*T + x*(1-T)
//
// The carry term requires units to equal the input width. Weights are drawn
// from N(0, 0.05), biases start at zero.
type Highway[B tensor.Backend] struct {
	transform *Linear[B]
	gate      *Linear[B]
	units     int
}

// NewHighway creates a Highway layer of the given width.
func NewHighway[B tensor.Backend](units int, rng *rand.Rand, backend B) *Highway[B] {
	if units <= 0 {
		panic(fmt.Sprintf("Highway: units must be positive, got %d", units))
	}
	shape := tensor.Shape{units, units}
	zeros := func() *tensor.Tensor[float32, B] { return tensor.Zeros[float32](tensor.Shape{units}, backend) }
	return &Highway[B]{
		transform: NewLinearWithWeight(tensor.Normal(shape, 0, 0.05, rng, backend), zeros()),
		gate:      NewLinearWithWeight(tensor.Normal(shape, 0, 0.05, rng, backend), zeros()),
		units:     units,
	}
}

// Forward applies the highway transform.
func (h *Highway[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if shape[len(shape)-1] != h.units {
		panic(fmt.Sprintf("Highway.Forward: expected last dimension %d, got shape %v", h.units, shape))
	}
	t := h.gate.Forward(input).Sigmoid()
	carry := t.MulScalar(-1).AddScalar(1)
	return h.transform.Forward(input).Mul(t).Add(input.Mul(carry))
}

// Parameters returns [w, b, w_t, b_t].
func (h *Highway[B]) Parameters() []*Parameter[B] {
	return append(h.transform.Parameters(), h.gate.Parameters()...)
}

// CollectState names the branches transform and gate.
func (h *Highway[B]) CollectState(prefix string, dst *StateDict[B]) {
	CollectState[B](prefix+"transform.", h.transform, dst)
	CollectState[B](prefix+"gate.", h.gate, dst)
}
