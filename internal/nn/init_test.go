package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/jaeger/internal/backend/cpu"
	"github.com/born-ml/jaeger/internal/tensor"
)

func sqrt64(v float64) float64 { return math.Sqrt(v) }

func TestOrthogonal_WideHasOrthonormalRows(t *testing.T) {
	b := cpu.New()
	w := Orthogonal(4, 16, newRNG(), b)
	require.Equal(t, tensor.Shape{4, 16}, w.Shape())

	m := mat.NewDense(4, 16, toFloat64(w.Data()))
	var gram mat.Dense
	gram.Mul(m, m.T())
	assert.True(t, mat.EqualApprox(&gram, identity(4), 1e-5))
}

func TestOrthogonal_TallHasOrthonormalColumns(t *testing.T) {
	b := cpu.New()
	w := Orthogonal(8, 3, newRNG(), b)

	m := mat.NewDense(8, 3, toFloat64(w.Data()))
	var gram mat.Dense
	gram.Mul(m.T(), m)
	assert.True(t, mat.EqualApprox(&gram, identity(3), 1e-5))
}

func TestHeUniform_Bounds(t *testing.T) {
	b := cpu.New()
	w := HeUniform(10, tensor.Shape{5, 2, 8}, newRNG(), b)
	limit := float32(math.Sqrt(0.6))
	for _, v := range w.Data() {
		assert.LessOrEqual(t, float32(math.Abs(float64(v))), limit)
	}
}

func toFloat64(data []float32) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
