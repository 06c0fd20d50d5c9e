package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/born-ml/jaeger/internal/backend/cpu"
	"github.com/born-ml/jaeger/internal/tensor"
)

// channel extracts channel c of a channels-last buffer as float64.
func channel(data []float32, channels, c int) []float64 {
	out := make([]float64, 0, len(data)/channels)
	for i := c; i < len(data); i += channels {
		out = append(out, float64(data[i]))
	}
	return out
}

func TestBatchNorm1D_TrainingNormalizes(t *testing.T) {
	b := cpu.New()
	bn := NewBatchNorm1D(2, b)
	bn.SetTraining(true)

	x := tensor.Normal(tensor.Shape{4, 8, 2}, 3, 2, newRNG(), b)
	inMean := make([]float64, 2)
	inVar := make([]float64, 2)
	for c := 0; c < 2; c++ {
		inMean[c], inVar[c] = stat.PopMeanVariance(channel(x.Data(), 2, c), nil)
	}

	out := bn.Forward(x)
	require.Equal(t, x.Shape(), out.Shape())
	for c := 0; c < 2; c++ {
		mean, variance := stat.PopMeanVariance(channel(out.Data(), 2, c), nil)
		assert.InDelta(t, 0, mean, 1e-5)
		assert.InDelta(t, inVar[c]/(inVar[c]+1e-3), variance, 1e-4)
	}

	// moving = 0.99*init + 0.01*batch
	for c := 0; c < 2; c++ {
		assert.InDelta(t, 0.01*inMean[c], bn.MovingMean.Tensor().Data()[c], 1e-5)
		assert.InDelta(t, 0.99+0.01*inVar[c], bn.MovingVariance.Tensor().Data()[c], 1e-4)
	}
}

func TestBatchNorm1D_InferenceUsesMovingStats(t *testing.T) {
	b := cpu.New()
	bn := NewBatchNorm1D(2, b)
	copy(bn.MovingMean.Tensor().Data(), []float32{1, -1})
	copy(bn.MovingVariance.Tensor().Data(), []float32{4, 1})
	copy(bn.Gamma.Tensor().Data(), []float32{2, 1})
	copy(bn.Beta.Tensor().Data(), []float32{0, 0.5})

	out := bn.Forward(fromSlice(b, []float32{3, 0, 1, -1}, 1, 2, 2))
	inv0 := 1 / float32(sqrt64(4+1e-3))
	inv1 := 1 / float32(sqrt64(1+1e-3))
	assert.InDeltaSlice(t, []float32{2 * 2 * inv0, inv1 + 0.5, 0, 0.5}, out.Data(), 1e-5)

	// Inference leaves the moving statistics alone.
	assert.Equal(t, []float32{1, -1}, bn.MovingMean.Tensor().Data())
}

func TestBatchNorm1D_State(t *testing.T) {
	b := cpu.New()
	bn := NewBatchNorm1D(3, b)
	assert.Len(t, bn.Parameters(), 2)

	state := NewStateDict[*cpu.CPUBackend]()
	bn.CollectState("bn.", state)
	assert.Equal(t, 4, state.Len())
	mv, ok := state.Get("bn.moving_variance")
	require.True(t, ok)
	assert.False(t, mv.Trainable())
	assert.Equal(t, []float32{1, 1, 1}, mv.Tensor().Data())

	assert.Panics(t, func() { bn.Forward(tensor.Zeros[float32](tensor.Shape{2, 4}, b)) })
	assert.Panics(t, func() { NewBatchNorm1D(0, b) })
}

func TestLayerNorm(t *testing.T) {
	b := cpu.New()
	ln := NewLayerNorm(4, 1e-6, b)

	out := ln.Forward(fromSlice(b, []float32{1, 2, 3, 4, -2, 0, 2, 4}, 2, 4))
	for row := 0; row < 2; row++ {
		vals := make([]float64, 4)
		for j := range vals {
			vals[j] = float64(out.At(row, j))
		}
		mean, variance := stat.PopMeanVariance(vals, nil)
		assert.InDelta(t, 0, mean, 1e-5)
		assert.InDelta(t, 1, variance, 1e-4)
	}
	assert.Len(t, ln.Parameters(), 2)
	assert.Panics(t, func() { ln.Forward(tensor.Zeros[float32](tensor.Shape{2, 3}, b)) })
}
