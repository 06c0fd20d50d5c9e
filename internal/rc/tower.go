package rc

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/born-ml/jaeger/internal/nn"
	"github.com/born-ml/jaeger/internal/tensor"
)

// TowerConfig configures a convolutional tower.
type TowerConfig struct {
	InChannels   int  // width of the embedded views
	Filters      int  // channels of every conv layer; 0 means 128
	NumResBlocks int  // residual blocks after the stem
	AddResidual  bool // add skip connections in the residual blocks
}

// Tower is the dilated convolutional tower shared by every model:
//
//	conv(k9) -> GELU -> BN -> pool2
//	conv(k5, dilation 2) -> GELU -> BN -> pool2
//	NumResBlocks x residual block (kernels [5, 5], dilations [3+i, 3+i])
//	sum over views
//
// Six [N, L, InChannels] views become one [N, L/4, Filters] tensor.
type Tower[B tensor.Backend] struct {
	cfg    TowerConfig
	stem   []*convUnit[B]
	pool   *Shared[B]
	blocks []*ResidualBlock[B]
}

// NewTower creates a Tower.
func NewTower[B tensor.Backend](cfg TowerConfig, rng *rand.Rand, backend B) (*Tower[B], error) {
	if cfg.Filters == 0 {
		cfg.Filters = 128
	}
	if cfg.InChannels <= 0 || cfg.Filters < 0 || cfg.NumResBlocks < 0 {
		return nil, fmt.Errorf("%w: tower %+v", ErrInvalidBlock, cfg)
	}

	t := &Tower[B]{
		cfg: cfg,
		stem: []*convUnit[B]{
			newConvUnit("block1_1", nn.Conv1DConfig{
				InChannels: cfg.InChannels, Filters: cfg.Filters, KernelSize: 9,
			}, rng, backend),
			newConvUnit("block1_2", nn.Conv1DConfig{
				InChannels: cfg.Filters, Filters: cfg.Filters, KernelSize: 5, Dilation: 2,
			}, rng, backend),
		},
		pool: NewMaxPool[B](2),
	}
	for i := 0; i < cfg.NumResBlocks; i++ {
		block, err := NewResidualBlock(ResidualBlockConfig{
			Name:        fmt.Sprintf("block2_%d", i),
			InChannels:  cfg.Filters,
			KernelSizes: []int{5, 5},
			Dilations:   []int{3 + i, 3 + i},
			Filters:     []int{cfg.Filters, cfg.Filters},
			AddResidual: cfg.AddResidual,
		}, rng, backend)
		if err != nil {
			return nil, fmt.Errorf("tower block %d: %w", i, err)
		}
		t.blocks = append(t.blocks, block)
	}
	slog.Debug("built convolutional tower", "filters", cfg.Filters, "res_blocks", cfg.NumResBlocks, "residual", cfg.AddResidual)
	return t, nil
}

// OutChannels returns the channel count of the tower output.
func (t *Tower[B]) OutChannels() int {
	return t.cfg.Filters
}

// OutputLength returns the output length for views of length l.
func (t *Tower[B]) OutputLength(l int) int {
	return l / 2 / 2
}

// NumResBlocks returns the number of residual blocks.
func (t *Tower[B]) NumResBlocks() int {
	return len(t.blocks)
}

// Forward runs the tower on the views and sums the results.
func (t *Tower[B]) Forward(v Views[B]) *tensor.Tensor[float32, B] {
	if len(v) != NumViews {
		panic(fmt.Sprintf("Tower.Forward: expected %d views, got %d", NumViews, len(v)))
	}
	if l := v.Shape()[1]; t.OutputLength(l) == 0 {
		panic(fmt.Sprintf("Tower.Forward: sequence length %d is too short", l))
	}
	for _, u := range t.stem {
		v = t.pool.Forward(u.forward(v))
	}
	for _, b := range t.blocks {
		v = b.Forward(v)
	}
	return v.Sum()
}

// Parameters returns the stem parameters followed by the blocks'.
func (t *Tower[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, u := range t.stem {
		params = append(params, u.parameters()...)
	}
	for _, b := range t.blocks {
		params = append(params, b.Parameters()...)
	}
	return params
}

// SetTraining switches every BatchNorm in the tower.
func (t *Tower[B]) SetTraining(training bool) {
	for _, u := range t.stem {
		u.setTraining(training)
	}
	for _, b := range t.blocks {
		b.SetTraining(training)
	}
}

// CollectState adds the tower's tensors under their layer names.
func (t *Tower[B]) CollectState(prefix string, dst *nn.StateDict[B]) {
	for _, u := range t.stem {
		u.collectState(prefix, dst)
	}
	for _, b := range t.blocks {
		b.CollectState(prefix, dst)
	}
}
