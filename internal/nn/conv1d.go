package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/jaeger/internal/tensor"
)

// Padding modes for Conv1D.
const (
	PaddingSame  = "same"
	PaddingValid = "valid"
)

// Conv1DConfig configures a Conv1D layer. Zero values select the defaults:
// stride 1, dilation 1, same padding, He-uniform kernel, bias on.
type Conv1DConfig struct {
	InChannels int
	Filters    int
	KernelSize int
	Stride     int
	Dilation   int
	Padding    string // "same" or "valid"
	Init       string // "he_uniform" or "glorot_uniform"
	NoBias     bool
}

func (c *Conv1DConfig) setDefaults() {
	if c.Stride == 0 {
		c.Stride = 1
	}
	if c.Dilation == 0 {
		c.Dilation = 1
	}
	if c.Padding == "" {
		c.Padding = PaddingSame
	}
	if c.Init == "" {
		c.Init = "he_uniform"
	}
}

// Conv1D is a dilated 1D convolution over channels-last input.
//
// Shapes:
//   - input:  [N, L, in_channels]
//   - kernel: [kernel_size, in_channels, filters]
//   - output: [N, L', filters]; L' = ceil(L/stride) with same padding.
type Conv1D[B tensor.Backend] struct {
	cfg    Conv1DConfig
	kernel *Parameter[B]
	bias   *Parameter[B]
}

// NewConv1D creates a new Conv1D layer.
func NewConv1D[B tensor.Backend](cfg Conv1DConfig, rng *rand.Rand, backend B) *Conv1D[B] {
	cfg.setDefaults()
	if cfg.InChannels <= 0 || cfg.Filters <= 0 || cfg.KernelSize <= 0 {
		panic(fmt.Sprintf("Conv1D: channels, filters and kernel size must be positive, got %+v", cfg))
	}
	if cfg.Stride < 0 || cfg.Dilation < 0 {
		panic(fmt.Sprintf("Conv1D: stride and dilation must be positive, got %+v", cfg))
	}
	if cfg.Stride > 1 && cfg.Dilation > 1 {
		panic("Conv1D: stride > 1 is incompatible with dilation > 1")
	}
	if cfg.Padding != PaddingSame && cfg.Padding != PaddingValid {
		panic(fmt.Sprintf("Conv1D: unknown padding %q", cfg.Padding))
	}

	shape := tensor.Shape{cfg.KernelSize, cfg.InChannels, cfg.Filters}
	fanIn := cfg.KernelSize * cfg.InChannels
	var k *tensor.Tensor[float32, B]
	switch cfg.Init {
	case "he_uniform":
		k = HeUniform(fanIn, shape, rng, backend)
	case "glorot_uniform":
		k = GlorotUniform(fanIn, cfg.KernelSize*cfg.Filters, shape, rng, backend)
	default:
		panic(fmt.Sprintf("Conv1D: unknown initializer %q", cfg.Init))
	}

	c := &Conv1D[B]{cfg: cfg, kernel: NewParameter("kernel", k)}
	if !cfg.NoBias {
		c.bias = NewParameter("bias", tensor.Zeros[float32](tensor.Shape{cfg.Filters}, backend))
	}
	return c
}

// Params returns the backend convolution parameters for an input of length l.
func (c *Conv1D[B]) Params(l int) tensor.Conv1DParams {
	if c.cfg.Padding == PaddingSame {
		return tensor.SamePadding(l, c.cfg.KernelSize, c.cfg.Stride, c.cfg.Dilation)
	}
	return tensor.ValidPadding(c.cfg.Stride, c.cfg.Dilation)
}

// OutputLength returns the output length for an input of length l.
func (c *Conv1D[B]) OutputLength(l int) int {
	return c.Params(l).OutputLength(l, c.cfg.KernelSize)
}

// Forward applies the convolution.
func (c *Conv1D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("Conv1D.Forward: expected [N, L, C] input, got shape %v", shape))
	}
	if shape[2] != c.cfg.InChannels {
		panic(fmt.Sprintf("Conv1D.Forward: expected %d input channels, got %d", c.cfg.InChannels, shape[2]))
	}
	if c.OutputLength(shape[1]) <= 0 {
		panic(fmt.Sprintf("Conv1D.Forward: input length %d too short for kernel %d dilation %d",
			shape[1], c.cfg.KernelSize, c.cfg.Dilation))
	}

	out := input.Conv1D(c.kernel.Tensor(), c.Params(shape[1]))
	if c.bias != nil {
		out = out.Add(c.bias.Tensor())
	}
	return out
}

// Parameters returns [kernel, bias] or [kernel].
func (c *Conv1D[B]) Parameters() []*Parameter[B] {
	if c.bias != nil {
		return []*Parameter[B]{c.kernel, c.bias}
	}
	return []*Parameter[B]{c.kernel}
}

// Config returns the layer configuration with defaults applied.
func (c *Conv1D[B]) Config() Conv1DConfig {
	return c.cfg
}

// Kernel returns the kernel parameter.
func (c *Conv1D[B]) Kernel() *Parameter[B] {
	return c.kernel
}

// String returns a human-readable description.
func (c *Conv1D[B]) String() string {
	return fmt.Sprintf("Conv1D(in=%d, filters=%d, kernel=%d, stride=%d, dilation=%d, padding=%s)",
		c.cfg.InChannels, c.cfg.Filters, c.cfg.KernelSize, c.cfg.Stride, c.cfg.Dilation, c.cfg.Padding)
}
