package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/jaeger/internal/tensor"
)

// LSTM is a single-layer long short-term memory network over [N, L, in]
// that returns the last hidden state [N, units].
//
// Gates are packed in Keras order (input, forget, cell, output):
//
//	z = x_t W + h_{t-1} U + b
//	i, f, g, o = σ(z_i), σ(z_f), tanh(z_g), σ(z_o)
//	c_t = f*c_{t-1} + i*g
//	h_t = o*tanh(c_t)
//
// W is Glorot uniform, U is orthogonal, and the forget-gate bias starts at 1.
type LSTM[B tensor.Backend] struct {
	Kernel          *Parameter[B] // [in, 4*units]
	RecurrentKernel *Parameter[B] // [units, 4*units]
	Bias            *Parameter[B] // [4*units]

	inputDim    int
	units       int
	goBackwards bool
}

// NewLSTM creates an LSTM. With goBackwards the sequence is consumed from the
// last step to the first.
func NewLSTM[B tensor.Backend](inputDim, units int, goBackwards bool, rng *rand.Rand, backend B) *LSTM[B] {
	if inputDim <= 0 || units <= 0 {
		panic(fmt.Sprintf("LSTM: sizes must be positive, got input=%d units=%d", inputDim, units))
	}
	gates := 4 * units

	bias := tensor.Zeros[float32](tensor.Shape{gates}, backend)
	b := bias.Data()
	for i := units; i < 2*units; i++ {
		b[i] = 1
	}

	return &LSTM[B]{
		Kernel:          NewParameter("kernel", GlorotUniform(inputDim, gates, tensor.Shape{inputDim, gates}, rng, backend)),
		RecurrentKernel: NewParameter("recurrent_kernel", Orthogonal(units, gates, rng, backend)),
		Bias:            NewParameter("bias", bias),
		inputDim:        inputDim,
		units:           units,
		goBackwards:     goBackwards,
	}
}

// Units returns the hidden size.
func (l *LSTM[B]) Units() int {
	return l.units
}

// Forward runs the recurrence and returns the final hidden state.
func (l *LSTM[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 3 || shape[2] != l.inputDim {
		panic(fmt.Sprintf("LSTM.Forward: expected [N, L, %d] input, got shape %v", l.inputDim, shape))
	}
	batch, steps := shape[0], shape[1]
	backend := input.Backend()
	gates := 4 * l.units

	// Input projections for every step at once: [N, L, 4U].
	xw := input.Reshape(-1, l.inputDim).MatMul(l.Kernel.Tensor()).Add(l.Bias.Tensor()).Reshape(batch, steps, gates)

	h := tensor.Zeros[float32](tensor.Shape{batch, l.units}, backend)
	c := tensor.Zeros[float32](tensor.Shape{batch, l.units}, backend)
	for s := 0; s < steps; s++ {
		t := s
		if l.goBackwards {
			t = steps - 1 - s
		}
		z := xw.Narrow(1, t, 1).Reshape(batch, gates).Add(h.MatMul(l.RecurrentKernel.Tensor()))
		parts := z.Chunk(4, 1)
		i, f, g, o := parts[0].Sigmoid(), parts[1].Sigmoid(), parts[2].Tanh(), parts[3].Sigmoid()
		c = f.Mul(c).Add(i.Mul(g))
		h = o.Mul(c.Tanh())
	}
	return h
}

// Parameters returns [kernel, recurrent_kernel, bias].
func (l *LSTM[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.Kernel, l.RecurrentKernel, l.Bias}
}

// Bidirectional runs a forward and a backward LSTM over the same input and
// concatenates their final states: [N, L, in] -> [N, 2*units].
type Bidirectional[B tensor.Backend] struct {
	Fwd *LSTM[B]
	Bwd *LSTM[B]
}

// NewBidirectional creates a Bidirectional LSTM with concat merge.
func NewBidirectional[B tensor.Backend](inputDim, units int, rng *rand.Rand, backend B) *Bidirectional[B] {
	return &Bidirectional[B]{
		Fwd: NewLSTM(inputDim, units, false, rng, backend),
		Bwd: NewLSTM(inputDim, units, true, rng, backend),
	}
}

// Forward returns concat(forward(x), backward(x)) along the feature axis.
func (b *Bidirectional[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return tensor.Cat([]*tensor.Tensor[float32, B]{b.Fwd.Forward(input), b.Bwd.Forward(input)}, 1)
}

// Parameters returns the forward then the backward LSTM parameters.
func (b *Bidirectional[B]) Parameters() []*Parameter[B] {
	return append(b.Fwd.Parameters(), b.Bwd.Parameters()...)
}

// CollectState names the directions forward_lstm and backward_lstm.
func (b *Bidirectional[B]) CollectState(prefix string, dst *StateDict[B]) {
	CollectState[B](prefix+"forward_lstm.", b.Fwd, dst)
	CollectState[B](prefix+"backward_lstm.", b.Bwd, dst)
}
