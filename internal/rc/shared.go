package rc

import (
	"math/rand"

	"github.com/born-ml/jaeger/internal/nn"
	"github.com/born-ml/jaeger/internal/tensor"
)

// Shared applies one module, and therefore one set of weights, to every
// view.
//
// BatchNorm in training mode normalizes each view with that view's own batch
// statistics and folds each into the moving averages in turn.
type Shared[B tensor.Backend] struct {
	Module nn.Module[B]
}

// NewShared wraps m.
func NewShared[B tensor.Backend](m nn.Module[B]) *Shared[B] {
	return &Shared[B]{Module: m}
}

// NewConv creates a shared Conv1D.
func NewConv[B tensor.Backend](cfg nn.Conv1DConfig, rng *rand.Rand, backend B) *Shared[B] {
	return NewShared[B](nn.NewConv1D(cfg, rng, backend))
}

// NewBatchNorm creates a shared BatchNorm1D.
func NewBatchNorm[B tensor.Backend](channels int, backend B) *Shared[B] {
	return NewShared[B](nn.NewBatchNorm1D(channels, backend))
}

// NewMaxPool creates a shared MaxPool1D with stride equal to the pool size.
func NewMaxPool[B tensor.Backend](poolSize int) *Shared[B] {
	return NewShared[B](nn.NewMaxPool1D[B](poolSize, 0))
}

// NewGELU creates a shared GELU.
func NewGELU[B tensor.Backend]() *Shared[B] {
	return NewShared[B](nn.NewGELU[B]())
}

// Forward applies the module to each view.
func (s *Shared[B]) Forward(v Views[B]) Views[B] {
	return v.Map(s.Module.Forward)
}

// Parameters returns the module's parameters once, however many views it
// sees.
func (s *Shared[B]) Parameters() []*nn.Parameter[B] {
	return s.Module.Parameters()
}

// SetTraining forwards the mode to the module.
func (s *Shared[B]) SetTraining(training bool) {
	nn.SetTraining(s.Module, training)
}

// CollectState adds the module's state under prefix.
func (s *Shared[B]) CollectState(prefix string, dst *nn.StateDict[B]) {
	nn.CollectState(prefix, s.Module, dst)
}
