package nn

import (
	"fmt"

	"github.com/born-ml/jaeger/internal/tensor"
)

// MaxPool1D downsamples [N, L, C] along L with valid padding:
// L' = (L - pool)/stride + 1.
type MaxPool1D[B tensor.Backend] struct {
	poolSize int
	stride   int
}

// NewMaxPool1D creates a MaxPool1D layer. A stride of 0 means stride = pool.
func NewMaxPool1D[B tensor.Backend](poolSize, stride int) *MaxPool1D[B] {
	if stride == 0 {
		stride = poolSize
	}
	if poolSize <= 0 || stride <= 0 {
		panic(fmt.Sprintf("MaxPool1D: pool size and stride must be positive, got %d, %d", poolSize, stride))
	}
	return &MaxPool1D[B]{poolSize: poolSize, stride: stride}
}

// OutputLength returns the pooled length for an input of length l, or 0 if l
// is shorter than the pool.
func (m *MaxPool1D[B]) OutputLength(l int) int {
	if l < m.poolSize {
		return 0
	}
	return (l-m.poolSize)/m.stride + 1
}

// Forward applies max pooling.
func (m *MaxPool1D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.MaxPool1D(m.poolSize, m.stride)
}

// Parameters returns nil.
func (m *MaxPool1D[B]) Parameters() []*Parameter[B] {
	return nil
}

// GlobalMaxPool1D reduces [N, L, C] to [N, C] by taking the max over L.
type GlobalMaxPool1D[B tensor.Backend] struct{}

// NewGlobalMaxPool1D creates a GlobalMaxPool1D layer.
func NewGlobalMaxPool1D[B tensor.Backend]() *GlobalMaxPool1D[B] {
	return &GlobalMaxPool1D[B]{}
}

// Forward reduces the length axis.
func (g *GlobalMaxPool1D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	checkSequence("GlobalMaxPool1D", input)
	return input.MaxDim(1, false)
}

// Parameters returns nil.
func (g *GlobalMaxPool1D[B]) Parameters() []*Parameter[B] {
	return nil
}

// GlobalAvgPool1D reduces [N, L, C] to [N, C] by averaging over L.
type GlobalAvgPool1D[B tensor.Backend] struct{}

// NewGlobalAvgPool1D creates a GlobalAvgPool1D layer.
func NewGlobalAvgPool1D[B tensor.Backend]() *GlobalAvgPool1D[B] {
	return &GlobalAvgPool1D[B]{}
}

// Forward reduces the length axis.
func (g *GlobalAvgPool1D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	checkSequence("GlobalAvgPool1D", input)
	return input.MeanDim(1, false)
}

// Parameters returns nil.
func (g *GlobalAvgPool1D[B]) Parameters() []*Parameter[B] {
	return nil
}

// Flatten folds every axis after the batch axis: [N, ...] -> [N, prod(...)].
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a Flatten layer.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{}
}

// Forward flattens the input.
func (f *Flatten[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Flatten()
}

// Parameters returns nil.
func (f *Flatten[B]) Parameters() []*Parameter[B] {
	return nil
}

func checkSequence[B tensor.Backend](name string, input *tensor.Tensor[float32, B]) {
	if shape := input.Shape(); len(shape) != 3 {
		panic(fmt.Sprintf("%s.Forward: expected [N, L, C] input, got shape %v", name, shape))
	}
}
