package nn

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/born-ml/jaeger/internal/tensor"
)

// MLP is a stack of Dense(units, gelu) + Dropout(rate) pairs, one per entry
// of hidden.
type MLP[B tensor.Backend] struct {
	layers   []*Dense[B]
	dropouts []*Dropout[B]
}

// NewMLP creates an MLP on inputs of width inputDim.
func NewMLP[B tensor.Backend](inputDim int, hidden []int, dropout float32, rng *rand.Rand, backend B) *MLP[B] {
	if len(hidden) == 0 {
		panic("MLP: at least one hidden layer is required")
	}
	m := &MLP[B]{}
	in := inputDim
	for _, units := range hidden {
		m.layers = append(m.layers, NewDense(in, units, "gelu", rng, backend))
		m.dropouts = append(m.dropouts, NewDropout[B](dropout, rng))
		in = units
	}
	return m
}

// OutFeatures returns the width of the last layer.
func (m *MLP[B]) OutFeatures() int {
	return m.layers[len(m.layers)-1].OutFeatures()
}

// SetTraining toggles every dropout.
func (m *MLP[B]) SetTraining(training bool) {
	for _, d := range m.dropouts {
		d.SetTraining(training)
	}
}

// Forward applies the stack.
func (m *MLP[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := input
	for i, l := range m.layers {
		x = m.dropouts[i].Forward(l.Forward(x))
	}
	return x
}

// Parameters returns every Dense parameter in order.
func (m *MLP[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, l := range m.layers {
		params = append(params, l.Parameters()...)
	}
	return params
}

// CollectState names the layers dense_0, dense_1, ...
func (m *MLP[B]) CollectState(prefix string, dst *StateDict[B]) {
	for i, l := range m.layers {
		CollectState[B](prefix+"dense_"+strconv.Itoa(i)+".", l, dst)
	}
}

// String describes the layer widths.
func (m *MLP[B]) String() string {
	widths := make([]int, len(m.layers))
	for i, l := range m.layers {
		widths[i] = l.OutFeatures()
	}
	return fmt.Sprintf("MLP(%v, dropout=%g)", widths, m.dropouts[0].Rate())
}
