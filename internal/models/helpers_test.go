package models

import (
	"math/rand"

	"github.com/born-ml/jaeger/internal/backend/cpu"
	"github.com/born-ml/jaeger/internal/rc"
	"github.com/born-ml/jaeger/internal/tensor"
)

type cpuB = *cpu.CPUBackend

func newRNG() *rand.Rand {
	return rand.New(rand.NewSource(7)) //nolint:gosec // deterministic tests
}

// smallConfig keeps every model small enough for unit tests.
func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Filters = 8
	cfg.ResBlocks = 1
	cfg.HeadUnits = []int{6, 5}
	cfg.LSTMUnits = 3
	cfg.Vitra.NumPatches = 3
	cfg.Vitra.TransformerLayers = 1
	cfg.Vitra.NumHeads = 2
	cfg.Vitra.ProjectionDim = 8
	cfg.Vitra.AttHiddenUnits = []int{4, 8}
	cfg.Vitra.MLPHiddenUnits = []int{5}
	return cfg
}

// randomInputs returns the six named [n, l] views with ids in [0, 22).
func randomInputs[B tensor.Backend](n, l int, b B) map[string]*tensor.Tensor[int32, B] {
	rng := newRNG()
	inputs := make(map[string]*tensor.Tensor[int32, B], rc.NumViews)
	for _, name := range rc.ViewNames {
		inputs[name] = tensor.RandInt(tensor.Shape{n, l}, 0, 22, rng, b)
	}
	return inputs
}

func seeded(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic tests
}
