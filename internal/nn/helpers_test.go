package nn

import (
	"math/rand"

	"github.com/born-ml/jaeger/internal/autodiff"
	"github.com/born-ml/jaeger/internal/backend/cpu"
	"github.com/born-ml/jaeger/internal/tensor"
)

type cpuTensor = tensor.Tensor[float32, *cpu.CPUBackend]

type adBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newRNG() *rand.Rand {
	return rand.New(rand.NewSource(42)) //nolint:gosec // deterministic tests
}

func fromSlice(b *cpu.CPUBackend, data []float32, shape ...int) *cpuTensor {
	return tensor.MustFromSlice(data, tensor.Shape(shape), b)
}

// seq returns n distinct values scale*i + offset.
func seq(n int, scale, offset float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = scale*float32(i) + offset
	}
	return out
}
