package rc

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/jaeger/internal/autodiff"
	"github.com/born-ml/jaeger/internal/backend/cpu"
	"github.com/born-ml/jaeger/internal/nn"
	"github.com/born-ml/jaeger/internal/tensor"
)

type cpuB = *cpu.CPUBackend

func newRNG() *rand.Rand {
	return rand.New(rand.NewSource(1)) //nolint:gosec // deterministic tests
}

// sameViews returns NumViews headers over one random [n, l, c] tensor.
func sameViews(b cpuB, n, l, c int) Views[cpuB] {
	x := tensor.Randn(tensor.Shape{n, l, c}, newRNG(), b)
	v := make(Views[cpuB], NumViews)
	for i := range v {
		v[i] = x.Clone()
	}
	return v
}

func randomViews(b cpuB, n, l, c int) Views[cpuB] {
	rng := newRNG()
	v := make(Views[cpuB], NumViews)
	for i := range v {
		v[i] = tensor.Randn(tensor.Shape{n, l, c}, rng, b)
	}
	return v
}

func TestViews_SumAndShape(t *testing.T) {
	b := cpu.New()
	v := make(Views[cpuB], NumViews)
	for i := range v {
		v[i] = tensor.Full[float32](tensor.Shape{1, 2, 1}, float32(i), b)
	}
	assert.Equal(t, tensor.Shape{1, 2, 1}, v.Shape())
	assert.Equal(t, []float32{15, 15}, v.Sum().Data())

	v[3] = tensor.Zeros[float32](tensor.Shape{1, 3, 1}, b)
	assert.Panics(t, func() { v.Shape() })
	assert.Panics(t, func() { Views[cpuB]{}.Shape() })
}

func TestEmbed_SharedTable(t *testing.T) {
	b := cpu.New()
	e := nn.NewEmbedding(22, 4, true, newRNG(), b)
	ids := make([]*tensor.Tensor[int32, cpuB], NumViews)
	for i := range ids {
		ids[i] = tensor.MustFromSlice([]int32{int32(i + 1), 0}, tensor.Shape{1, 2}, b)
	}

	v := Embed(e, ids)
	require.Len(t, v, NumViews)
	for i, view := range v {
		assert.Equal(t, tensor.Shape{1, 2, 4}, view.Shape())
		assert.Equal(t, e.Weight.Tensor().At(i+1, 2), view.At(0, 0, 2))
	}
	assert.Panics(t, func() { Embed(e, ids[:5]) })
	assert.Equal(t, "forward_1", ViewNames[0])
	assert.Equal(t, "reverse_3", ViewNames[NumViews-1])
}

func TestShared_SameWeightsForEveryView(t *testing.T) {
	b := cpu.New()
	conv := NewConv(nn.Conv1DConfig{InChannels: 4, Filters: 8, KernelSize: 5}, newRNG(), b)

	out := conv.Forward(sameViews(b, 2, 10, 4))
	require.Len(t, out, NumViews)
	for _, v := range out[1:] {
		assert.Equal(t, out[0].Data(), v.Data())
	}

	single := nn.NewConv1D(nn.Conv1DConfig{InChannels: 4, Filters: 8, KernelSize: 5}, newRNG(), b)
	assert.Equal(t, nn.CountParameters(single.Parameters()), nn.CountParameters(conv.Parameters()),
		"sharing does not multiply parameters by the number of views")
}

func TestShared_BatchNormFoldsEveryView(t *testing.T) {
	b := cpu.New()
	bn := NewBatchNorm(1, b)
	bn.SetTraining(true)

	v := make(Views[cpuB], NumViews)
	for i := range v {
		v[i] = tensor.MustFromSlice([]float32{1, 3}, tensor.Shape{1, 2, 1}, b)
	}
	bn.Forward(v)

	state := nn.NewStateDict[cpuB]()
	bn.CollectState("bn.", state)
	mean, ok := state.Get("bn.moving_mean")
	require.True(t, ok)
	// Six updates towards a batch mean of 2.
	assert.InDelta(t, 2*(1-math.Pow(0.99, 6)), mean.Tensor().Data()[0], 1e-5)
}

func TestShared_PoolAndGELU(t *testing.T) {
	b := cpu.New()
	out := NewGELU[cpuB]().Forward(NewMaxPool[cpuB](2).Forward(randomViews(b, 1, 9, 3)))
	assert.Equal(t, tensor.Shape{1, 4, 3}, out.Shape())
	assert.Empty(t, NewMaxPool[cpuB](2).Parameters())
}

func TestResidualBlock_Projection(t *testing.T) {
	b := cpu.New()
	cases := []struct {
		name      string
		in        int
		filters   []int
		projected bool
	}{
		{"same width", 8, []int{8, 8}, false},
		{"input differs", 4, []int{8, 8}, true},
		{"filters differ", 8, []int{4, 8}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			block, err := NewResidualBlock(ResidualBlockConfig{
				Name: "res", InChannels: c.in, KernelSizes: []int{3, 3}, Dilations: []int{1, 2},
				Filters: c.filters, AddResidual: true,
			}, newRNG(), b)
			require.NoError(t, err)
			assert.Equal(t, c.projected, block.Projected())

			out := block.Forward(randomViews(b, 2, 12, c.in))
			assert.Equal(t, tensor.Shape{2, 12, 8}, out.Shape())
		})
	}
}

func TestResidualBlock_NoResidualHasNoSkip(t *testing.T) {
	b := cpu.New()
	block, err := NewResidualBlock(ResidualBlockConfig{
		Name: "res", InChannels: 4, KernelSizes: []int{3}, Dilations: []int{1}, Filters: []int{6},
	}, newRNG(), b)
	require.NoError(t, err)
	assert.False(t, block.Projected())
	assert.Len(t, block.Parameters(), 4)
	assert.Equal(t, tensor.Shape{1, 5, 6}, block.Forward(randomViews(b, 1, 5, 4)).Shape())
}

func TestResidualBlock_SkipAddsInput(t *testing.T) {
	b := cpu.New()
	block, err := NewResidualBlock(ResidualBlockConfig{
		Name: "res", InChannels: 3, KernelSizes: []int{3, 3}, Dilations: []int{1, 1},
		Filters: []int{3, 3}, AddResidual: true,
	}, newRNG(), b)
	require.NoError(t, err)

	// With zero conv kernels the body is BN(GELU(0)) = 0 in inference, so
	// the block reduces to GELU(x).
	params := block.Parameters()
	for _, i := range []int{0, 4} {
		clear(params[i].Tensor().Data())
	}

	in := randomViews(b, 1, 6, 3)
	out := block.Forward(in)
	for i := range in {
		assert.InDeltaSlice(t, in[i].GELU().Data(), out[i].Data(), 1e-6)
	}
}

func TestResidualBlock_Errors(t *testing.T) {
	b := cpu.New()
	_, err := NewResidualBlock(ResidualBlockConfig{
		Name: "res", InChannels: 4, KernelSizes: []int{3}, Dilations: []int{1, 1}, Filters: []int{4, 4},
	}, newRNG(), b)
	require.ErrorIs(t, err, ErrInvalidBlock)

	_, err = NewResidualBlock(ResidualBlockConfig{
		Name: "res", InChannels: 4, KernelSizes: []int{3}, Dilations: []int{0}, Filters: []int{4},
	}, newRNG(), b)
	require.ErrorIs(t, err, ErrInvalidBlock)

	_, err = NewResidualBlock(ResidualBlockConfig{
		Name: "res", InChannels: 4, KernelSizes: []int{3, 3}, Dilations: []int{1, 1}, Filters: []int{8, 8},
		AddResidual: true, NoProjection: true,
	}, newRNG(), b)
	require.ErrorIs(t, err, ErrChannelMismatch)
	assert.Contains(t, err.Error(), "skip has 4 channels, body has 8")
}

func TestResidualBlock_State(t *testing.T) {
	b := cpu.New()
	block, err := NewResidualBlock(ResidualBlockConfig{
		Name: "block2_0", InChannels: 4, KernelSizes: []int{5, 5}, Dilations: []int{3, 3},
		Filters: []int{8, 8}, AddResidual: true,
	}, newRNG(), b)
	require.NoError(t, err)

	state := nn.NewStateDict[cpuB]()
	block.CollectState("", state)
	for _, key := range []string{
		"block2_01.kernel", "bn_block2_01.gamma", "block2_02.bias",
		"bn_block2_02.moving_variance", "block2_0_skip.kernel", "bn_block2_0_skip.moving_mean",
	} {
		_, ok := state.Get(key)
		assert.True(t, ok, key)
	}
	assert.Equal(t, 3*6, state.Len())
}

func TestTower_Shapes(t *testing.T) {
	b := cpu.New()
	tower, err := NewTower(TowerConfig{InChannels: 4, Filters: 8, NumResBlocks: 2, AddResidual: true}, newRNG(), b)
	require.NoError(t, err)
	assert.Equal(t, 2, tower.NumResBlocks())
	assert.Equal(t, 8, tower.OutChannels())
	assert.Equal(t, 4, tower.OutputLength(17))

	out := tower.Forward(randomViews(b, 2, 17, 4))
	assert.Equal(t, tensor.Shape{2, 4, 8}, out.Shape())

	assert.Panics(t, func() { tower.Forward(randomViews(b, 1, 3, 4)) })
	assert.Panics(t, func() { tower.Forward(randomViews(b, 1, 16, 4)[:5]) })
}

func TestTower_DefaultsAndState(t *testing.T) {
	b := cpu.New()
	tower, err := NewTower(TowerConfig{InChannels: 4}, newRNG(), b)
	require.NoError(t, err)
	assert.Equal(t, 128, tower.OutChannels())

	state := nn.NewStateDict[cpuB]()
	tower.CollectState("tower.", state)
	var keys []string
	for pair := state.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{
		"tower.block1_1.kernel", "tower.block1_1.bias",
		"tower.bn_block1_1.gamma", "tower.bn_block1_1.beta", "tower.bn_block1_1.moving_mean", "tower.bn_block1_1.moving_variance",
		"tower.block1_2.kernel", "tower.block1_2.bias",
		"tower.bn_block1_2.gamma", "tower.bn_block1_2.beta", "tower.bn_block1_2.moving_mean", "tower.bn_block1_2.moving_variance",
	}, keys)

	// conv 9*4*128+128, conv 5*128*128+128, two BN of 2*128.
	assert.Equal(t, 9*4*128+128+5*128*128+128+4*128, nn.CountParameters(tower.Parameters()))

	_, err = NewTower(TowerConfig{InChannels: 0}, newRNG(), b)
	assert.ErrorIs(t, err, ErrInvalidBlock)
}

func TestTower_TrainingModeAndGradients(t *testing.T) {
	b := autodiff.New(cpu.New())
	tower, err := NewTower(TowerConfig{InChannels: 2, Filters: 4, NumResBlocks: 1, AddResidual: true}, newRNG(), b)
	require.NoError(t, err)
	tower.SetTraining(true)

	rng := newRNG()
	v := make(Views[*autodiff.AutodiffBackend[cpuB]], NumViews)
	for i := range v {
		v[i] = tensor.Randn(tensor.Shape{2, 8, 2}, rng, b)
	}

	b.Tape().StartRecording()
	out := tower.Forward(v)
	grads := autodiff.Backward(out.Mul(out), b)

	params := tower.Parameters()
	assert.Equal(t, len(params), nn.AssignGradients(params, grads))
}
