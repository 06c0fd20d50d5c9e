package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/jaeger/internal/backend/cpu"
	"github.com/born-ml/jaeger/internal/tensor"
)

func TestLinear_NDInput(t *testing.T) {
	b := cpu.New()
	l := NewLinear(5, 7, newRNG(), b)

	require.Equal(t, tensor.Shape{5, 7}, l.Weight().Tensor().Shape())
	require.Equal(t, tensor.Shape{7}, l.Bias().Tensor().Shape())
	assert.Equal(t, "kernel", l.Weight().Name())
	assert.Equal(t, "bias", l.Bias().Name())

	out := l.Forward(tensor.Randn(tensor.Shape{2, 3, 5}, newRNG(), b))
	assert.Equal(t, tensor.Shape{2, 3, 7}, out.Shape())
}

func TestLinear_KnownValues(t *testing.T) {
	b := cpu.New()
	w := fromSlice(b, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	bias := fromSlice(b, []float32{0.5, 0, -1}, 3)
	l := NewLinearWithWeight(w, bias)

	out := l.Forward(fromSlice(b, []float32{1, 1}, 1, 2))
	assert.InDeltaSlice(t, []float32{5.5, 7, 8}, out.Data(), 1e-6)
}

func TestLinear_GlorotBounds(t *testing.T) {
	b := cpu.New()
	l := NewLinear(64, 32, newRNG(), b)
	limit := float32(math.Sqrt(6.0 / 96.0))
	for _, v := range l.Weight().Tensor().Data() {
		assert.LessOrEqual(t, float32(math.Abs(float64(v))), limit)
	}
	for _, v := range l.Bias().Tensor().Data() {
		assert.Zero(t, v)
	}
}

func TestLinear_PanicsOnWidth(t *testing.T) {
	b := cpu.New()
	l := NewLinear(4, 2, newRNG(), b)
	assert.PanicsWithValue(t, "Linear.Forward: expected input with 4 features, got 3", func() {
		l.Forward(tensor.Zeros[float32](tensor.Shape{2, 3}, b))
	})
}

func TestDense_Activation(t *testing.T) {
	b := cpu.New()
	d := NewDense(2, 2, "relu", newRNG(), b)
	copy(d.Weight().Tensor().Data(), []float32{1, 0, 0, 1})

	out := d.Forward(fromSlice(b, []float32{-3, 2}, 1, 2))
	assert.Equal(t, []float32{0, 2}, out.Data())
	assert.Equal(t, "relu", d.ActivationName())
	assert.Len(t, d.Parameters(), 2)
}

func TestActivation_Lookup(t *testing.T) {
	assert.Nil(t, Activation[*cpu.CPUBackend](""))
	assert.Nil(t, Activation[*cpu.CPUBackend]("linear"))
	assert.NotNil(t, Activation[*cpu.CPUBackend]("gelu"))
	assert.Panics(t, func() { Activation[*cpu.CPUBackend]("swish") })
}

func TestGELU_ExactForm(t *testing.T) {
	b := cpu.New()
	out := NewGELU[*cpu.CPUBackend]().Forward(fromSlice(b, []float32{-1, 0, 1}, 3))
	// x·Φ(x) with Φ(1) = 0.8413447
	assert.InDeltaSlice(t, []float32{-0.15865526, 0, 0.8413447}, out.Data(), 1e-6)
}

func TestConv1D_SamePaddingKeepsLength(t *testing.T) {
	b := cpu.New()
	for _, dilation := range []int{1, 2, 3, 7} {
		conv := NewConv1D(Conv1DConfig{InChannels: 4, Filters: 6, KernelSize: 5, Dilation: dilation}, newRNG(), b)
		out := conv.Forward(tensor.Randn(tensor.Shape{2, 17, 4}, newRNG(), b))
		assert.Equal(t, tensor.Shape{2, 17, 6}, out.Shape(), "dilation %d", dilation)
	}
}

func TestConv1D_ValidPaddingShrinks(t *testing.T) {
	b := cpu.New()
	conv := NewConv1D(Conv1DConfig{
		InChannels: 2, Filters: 3, KernelSize: 3, Dilation: 2, Padding: PaddingValid,
	}, newRNG(), b)

	assert.Equal(t, 6, conv.OutputLength(10))
	out := conv.Forward(tensor.Randn(tensor.Shape{1, 10, 2}, newRNG(), b))
	assert.Equal(t, tensor.Shape{1, 6, 3}, out.Shape())
}

func TestConv1D_StridedSame(t *testing.T) {
	b := cpu.New()
	conv := NewConv1D(Conv1DConfig{InChannels: 1, Filters: 1, KernelSize: 3, Stride: 2}, newRNG(), b)
	assert.Equal(t, 5, conv.OutputLength(9))
	assert.Equal(t, 5, conv.OutputLength(10))
}

func TestConv1D_KnownValues(t *testing.T) {
	b := cpu.New()
	conv := NewConv1D(Conv1DConfig{InChannels: 1, Filters: 1, KernelSize: 3}, newRNG(), b)
	copy(conv.Kernel().Tensor().Data(), []float32{1, 1, 1})

	// Same padding with K=3 pads one zero on each side.
	out := conv.Forward(fromSlice(b, []float32{1, 2, 3, 4}, 1, 4, 1))
	assert.InDeltaSlice(t, []float32{3, 6, 9, 7}, out.Data(), 1e-6)
}

func TestConv1D_Defaults(t *testing.T) {
	b := cpu.New()
	conv := NewConv1D(Conv1DConfig{InChannels: 4, Filters: 128, KernelSize: 9}, newRNG(), b)
	cfg := conv.Config()
	assert.Equal(t, 1, cfg.Stride)
	assert.Equal(t, 1, cfg.Dilation)
	assert.Equal(t, PaddingSame, cfg.Padding)
	assert.Equal(t, tensor.Shape{9, 4, 128}, conv.Kernel().Tensor().Shape())

	limit := float32(math.Sqrt(6.0 / 36.0))
	for _, v := range conv.Kernel().Tensor().Data() {
		assert.LessOrEqual(t, float32(math.Abs(float64(v))), limit)
	}
	assert.Contains(t, conv.String(), "filters=128")
}

func TestConv1D_InvalidConfig(t *testing.T) {
	b := cpu.New()
	assert.Panics(t, func() { NewConv1D(Conv1DConfig{InChannels: 1, Filters: 1}, newRNG(), b) })
	assert.Panics(t, func() {
		NewConv1D(Conv1DConfig{InChannels: 1, Filters: 1, KernelSize: 3, Stride: 2, Dilation: 2}, newRNG(), b)
	})
	assert.Panics(t, func() {
		NewConv1D(Conv1DConfig{InChannels: 1, Filters: 1, KernelSize: 3, Padding: "causal"}, newRNG(), b)
	})

	conv := NewConv1D(Conv1DConfig{InChannels: 2, Filters: 1, KernelSize: 3}, newRNG(), b)
	assert.Panics(t, func() { conv.Forward(tensor.Zeros[float32](tensor.Shape{1, 5, 3}, b)) })
}

func TestMaxPool1D(t *testing.T) {
	b := cpu.New()
	pool := NewMaxPool1D[*cpu.CPUBackend](2, 0)
	out := pool.Forward(fromSlice(b, []float32{1, 5, 3, 2, 7, 0, 4}, 1, 7, 1))

	assert.Equal(t, tensor.Shape{1, 3, 1}, out.Shape())
	assert.Equal(t, []float32{5, 3, 7}, out.Data())
	assert.Equal(t, 3, pool.OutputLength(7))
	assert.Equal(t, 0, pool.OutputLength(1))
}

func TestGlobalPooling(t *testing.T) {
	b := cpu.New()
	x := fromSlice(b, []float32{1, -1, 3, 0, 2, 4}, 1, 3, 2)

	assert.Equal(t, []float32{3, 4}, NewGlobalMaxPool1D[*cpu.CPUBackend]().Forward(x).Data())
	assert.InDeltaSlice(t, []float32{2, 1}, NewGlobalAvgPool1D[*cpu.CPUBackend]().Forward(x).Data(), 1e-6)
	assert.Equal(t, tensor.Shape{1, 6}, NewFlatten[*cpu.CPUBackend]().Forward(x).Shape())

	assert.Panics(t, func() { NewGlobalMaxPool1D[*cpu.CPUBackend]().Forward(tensor.Zeros[float32](tensor.Shape{2, 3}, b)) })
}

func TestDropout_Modes(t *testing.T) {
	b := cpu.New()
	x := tensor.Ones[float32](tensor.Shape{4, 64}, b)
	d := NewDropout[*cpu.CPUBackend](0.5, newRNG())

	assert.Same(t, x, d.Forward(x), "inference mode is the identity")

	d.SetTraining(true)
	out := d.Forward(x).Data()
	zeros := 0
	for _, v := range out {
		if v == 0 {
			zeros++
			continue
		}
		assert.InDelta(t, 2, v, 1e-6)
	}
	assert.Greater(t, zeros, 0)
	assert.Less(t, zeros, len(out))

	assert.Panics(t, func() { NewDropout[*cpu.CPUBackend](1, nil) })
}

func TestEmbedding_LookupAndMask(t *testing.T) {
	b := cpu.New()
	e := NewEmbedding(22, 4, true, newRNG(), b)
	ids := tensor.MustFromSlice([]int32{0, 3, 0, 1, 21, 0}, tensor.Shape{2, 3}, b)

	out := e.Forward(ids)
	require.Equal(t, tensor.Shape{2, 3, 4}, out.Shape())
	w := e.Weight.Tensor()
	for j := 0; j < 4; j++ {
		assert.Equal(t, w.At(3, j), out.At(0, 1, j))
		assert.Equal(t, w.At(0, j), out.At(0, 0, j), "padding row is looked up unchanged")
	}

	mask := e.ComputeMask(ids)
	require.NotNil(t, mask)
	assert.Equal(t, []bool{false, true, false, true, true, false}, mask.Data())

	for _, v := range w.Data() {
		assert.LessOrEqual(t, float32(math.Abs(float64(v))), float32(0.05))
	}
}

func TestEmbedding_NoMaskAndFreeze(t *testing.T) {
	b := cpu.New()
	e := NewEmbedding(5, 2, false, newRNG(), b)
	assert.Nil(t, e.ComputeMask(tensor.Zeros[int32](tensor.Shape{1, 2}, b)))
	assert.Len(t, e.Parameters(), 1)

	e.Freeze()
	assert.Empty(t, e.Parameters())
	state := NewStateDict[*cpu.CPUBackend]()
	e.CollectState("emb.", state)
	p, ok := state.Get("emb.embeddings")
	require.True(t, ok)
	assert.False(t, p.Trainable())
}

func TestHighway_ClosedGateCarriesInput(t *testing.T) {
	b := cpu.New()
	h := NewHighway(3, newRNG(), b)
	params := h.Parameters()
	require.Len(t, params, 4)

	// A large negative gate bias drives T to 0, so y = x.
	for i := range params[3].Tensor().Data() {
		params[3].Tensor().Data()[i] = -100
	}
	x := fromSlice(b, []float32{1, -2, 3, 0.5, 0, -1}, 2, 3)
	assert.InDeltaSlice(t, x.Data(), h.Forward(x).Data(), 1e-5)

	state := NewStateDict[*cpu.CPUBackend]()
	h.CollectState("", state)
	_, ok := state.Get("gate.bias")
	assert.True(t, ok)
	assert.Panics(t, func() { h.Forward(tensor.Zeros[float32](tensor.Shape{2, 4}, b)) })
}

func TestHighway_WeightStd(t *testing.T) {
	b := cpu.New()
	h := NewHighway(64, newRNG(), b)
	data := h.Parameters()[0].Tensor().Data()
	var sum, sq float64
	for _, v := range data {
		sum += float64(v)
		sq += float64(v) * float64(v)
	}
	n := float64(len(data))
	std := math.Sqrt(sq/n - (sum/n)*(sum/n))
	assert.InDelta(t, 0.05, std, 0.005)
}

func TestMLP(t *testing.T) {
	b := cpu.New()
	m := NewMLP(5, []int{6, 4}, 0.1, newRNG(), b)

	out := m.Forward(tensor.Randn(tensor.Shape{2, 3, 5}, newRNG(), b))
	assert.Equal(t, tensor.Shape{2, 3, 4}, out.Shape())
	assert.Equal(t, 4, m.OutFeatures())
	assert.Len(t, m.Parameters(), 4)
	assert.Equal(t, "MLP([6 4], dropout=0.1)", m.String())

	state := NewStateDict[*cpu.CPUBackend]()
	m.CollectState("mlp.", state)
	var keys []string
	for pair := state.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"mlp.dense_0.kernel", "mlp.dense_0.bias", "mlp.dense_1.kernel", "mlp.dense_1.bias"}, keys)

	assert.Panics(t, func() { NewMLP(5, nil, 0, newRNG(), b) })
}

func TestSequential(t *testing.T) {
	b := cpu.New()
	bn := NewBatchNorm1D(3, b)
	s := NewSequential[*cpu.CPUBackend](
		NewDense(4, 3, "relu", newRNG(), b),
		NewDropout[*cpu.CPUBackend](0.2, newRNG()),
	)
	s.Add(bn)

	assert.Equal(t, 3, s.Len())
	assert.Same(t, bn, s.Module(2))
	assert.Panics(t, func() { s.Module(3) })

	out := s.Forward(tensor.Randn(tensor.Shape{2, 4}, newRNG(), b))
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Len(t, s.Parameters(), 4)

	s.SetTraining(true)
	assert.True(t, bn.Training())
	s.SetTraining(false)
	assert.False(t, bn.Training())

	state := NewStateDict[*cpu.CPUBackend]()
	s.CollectState("head.", state)
	var keys []string
	for pair := state.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{
		"head.layer_0.kernel", "head.layer_0.bias",
		"head.layer_2.gamma", "head.layer_2.beta", "head.layer_2.moving_mean", "head.layer_2.moving_variance",
	}, keys)
	assert.Equal(t, 4*3+3+3+3, CountParameters(s.Parameters()))
}

func TestParameter_Load(t *testing.T) {
	b := cpu.New()
	p := NewParameter("kernel", tensor.Zeros[float32](tensor.Shape{2, 2}, b))
	assert.True(t, p.Trainable())
	assert.Nil(t, p.Grad())

	require.NoError(t, p.Load(fromSlice(b, []float32{1, 2, 3, 4}, 2, 2).Raw()))
	assert.Equal(t, []float32{1, 2, 3, 4}, p.Tensor().Data())

	err := p.Load(fromSlice(b, []float32{1, 2}, 2).Raw())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shape mismatch")

	err = p.Load(tensor.Zeros[int32](tensor.Shape{2, 2}, b).Raw())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dtype mismatch")

	buf := NewBuffer("moving_mean", tensor.Zeros[float32](tensor.Shape{2}, b))
	assert.False(t, buf.Trainable())
}
