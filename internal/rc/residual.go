package rc

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/born-ml/jaeger/internal/nn"
	"github.com/born-ml/jaeger/internal/tensor"
)

var (
	// ErrInvalidBlock is returned for inconsistent residual block settings.
	ErrInvalidBlock = errors.New("invalid residual block")

	// ErrChannelMismatch is returned when a residual sum would add tensors
	// with different channel counts.
	ErrChannelMismatch = errors.New("residual channel mismatch")
)

// convUnit is conv -> GELU -> BatchNorm on every view, the repeating unit of
// the tower and the residual blocks.
type convUnit[B tensor.Backend] struct {
	name string
	conv *Shared[B]
	bn   *Shared[B]
}

func newConvUnit[B tensor.Backend](name string, cfg nn.Conv1DConfig, rng *rand.Rand, backend B) *convUnit[B] {
	return &convUnit[B]{
		name: name,
		conv: NewConv(cfg, rng, backend),
		bn:   NewBatchNorm(cfg.Filters, backend),
	}
}

func (u *convUnit[B]) forward(v Views[B]) Views[B] {
	return u.bn.Forward(u.conv.Forward(v).Map((*tensor.Tensor[float32, B]).GELU))
}

func (u *convUnit[B]) parameters() []*nn.Parameter[B] {
	return append(u.conv.Parameters(), u.bn.Parameters()...)
}

func (u *convUnit[B]) setTraining(training bool) {
	u.bn.SetTraining(training)
}

func (u *convUnit[B]) collectState(prefix string, dst *nn.StateDict[B]) {
	u.conv.CollectState(prefix+u.name+".", dst)
	u.bn.CollectState(prefix+"bn_"+u.name+".", dst)
}

// ResidualBlockConfig configures a ResidualBlock. KernelSizes, Dilations
// and Filters give one entry per convolution and must have equal, non-zero
// lengths.
type ResidualBlockConfig struct {
	Name        string
	InChannels  int
	KernelSizes []int
	Dilations   []int
	Filters     []int
	AddResidual bool
	// NoProjection disables the kernel-1 projection of the skip path. A
	// residual sum then requires InChannels to equal the last filter count.
	NoProjection bool
}

// ResidualBlock is a stack of shared conv -> GELU -> BatchNorm units with an
// optional skip connection:
//
//	out = GELU(skip(x) + body(x))   with AddResidual
//	out = GELU(body(x))             without
//
// When the first and last filter counts differ, or the input channels differ
// from the last filter count, the skip path is itself a kernel-1 conv unit.
type ResidualBlock[B tensor.Backend] struct {
	cfg  ResidualBlockConfig
	body []*convUnit[B]
	skip *convUnit[B]
}

// NewResidualBlock creates a ResidualBlock.
func NewResidualBlock[B tensor.Backend](cfg ResidualBlockConfig, rng *rand.Rand, backend B) (*ResidualBlock[B], error) {
	n := len(cfg.Filters)
	if n == 0 || len(cfg.KernelSizes) != n || len(cfg.Dilations) != n {
		return nil, fmt.Errorf("%w %q: need one kernel size, dilation and filter count per layer, got %d, %d, %d",
			ErrInvalidBlock, cfg.Name, len(cfg.KernelSizes), len(cfg.Dilations), n)
	}
	if cfg.InChannels <= 0 {
		return nil, fmt.Errorf("%w %q: input channels must be positive, got %d", ErrInvalidBlock, cfg.Name, cfg.InChannels)
	}
	for i := range cfg.Filters {
		if cfg.Filters[i] <= 0 || cfg.KernelSizes[i] <= 0 || cfg.Dilations[i] <= 0 {
			return nil, fmt.Errorf("%w %q: layer %d has filters %d, kernel %d, dilation %d",
				ErrInvalidBlock, cfg.Name, i, cfg.Filters[i], cfg.KernelSizes[i], cfg.Dilations[i])
		}
	}

	last := cfg.Filters[n-1]
	r := &ResidualBlock[B]{cfg: cfg}
	in := cfg.InChannels
	for i := range cfg.Filters {
		r.body = append(r.body, newConvUnit(fmt.Sprintf("%s%d", cfg.Name, i+1), nn.Conv1DConfig{
			InChannels: in,
			Filters:    cfg.Filters[i],
			KernelSize: cfg.KernelSizes[i],
			Dilation:   cfg.Dilations[i],
		}, rng, backend))
		in = cfg.Filters[i]
	}

	if !cfg.AddResidual {
		return r, nil
	}
	needsProjection := cfg.Filters[0] != last || cfg.InChannels != last
	switch {
	case needsProjection && !cfg.NoProjection:
		r.skip = newConvUnit(cfg.Name+"_skip", nn.Conv1DConfig{
			InChannels: cfg.InChannels,
			Filters:    last,
			KernelSize: 1,
		}, rng, backend)
	case cfg.InChannels != last:
		return nil, fmt.Errorf("%w in %q: skip has %d channels, body has %d",
			ErrChannelMismatch, cfg.Name, cfg.InChannels, last)
	}
	return r, nil
}

// OutChannels returns the channel count of the block's output.
func (r *ResidualBlock[B]) OutChannels() int {
	return r.cfg.Filters[len(r.cfg.Filters)-1]
}

// Projected reports whether the skip path carries a projection.
func (r *ResidualBlock[B]) Projected() bool {
	return r.skip != nil
}

// Forward applies the block to every view.
func (r *ResidualBlock[B]) Forward(v Views[B]) Views[B] {
	if c := v.Shape(); c[len(c)-1] != r.cfg.InChannels {
		panic(fmt.Sprintf("ResidualBlock.Forward: %q expects %d channels, got shape %v", r.cfg.Name, r.cfg.InChannels, c))
	}
	body := v
	for _, u := range r.body {
		body = u.forward(body)
	}
	if !r.cfg.AddResidual {
		return body.Map((*tensor.Tensor[float32, B]).GELU)
	}

	skip := v
	if r.skip != nil {
		skip = r.skip.forward(v)
	}
	out := make(Views[B], len(v))
	for i := range v {
		out[i] = skip[i].Add(body[i]).GELU()
	}
	return out
}

// Parameters returns the body parameters followed by the projection's.
func (r *ResidualBlock[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, u := range r.body {
		params = append(params, u.parameters()...)
	}
	if r.skip != nil {
		params = append(params, r.skip.parameters()...)
	}
	return params
}

// SetTraining switches every BatchNorm in the block.
func (r *ResidualBlock[B]) SetTraining(training bool) {
	for _, u := range r.body {
		u.setTraining(training)
	}
	if r.skip != nil {
		r.skip.setTraining(training)
	}
}

// CollectState adds the block's tensors using its layer names, for example
// block2_01.kernel and bn_block2_01.moving_mean.
func (r *ResidualBlock[B]) CollectState(prefix string, dst *nn.StateDict[B]) {
	for _, u := range r.body {
		u.collectState(prefix, dst)
	}
	if r.skip != nil {
		r.skip.collectState(prefix, dst)
	}
}
