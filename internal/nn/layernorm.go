package nn

import (
	"fmt"

	"github.com/born-ml/jaeger/internal/tensor"
)

// LayerNorm applies Layer Normalization along the last dimension.
//
// Formula: Y = gamma * (X - mean(X)) / sqrt(var(X) + eps) + beta
//
// Example:
//
//	ln := nn.NewLayerNorm[B](128, 1e-6, backend)
//	out := ln.Forward(hidden) // [..., 128] -> [..., 128]
type LayerNorm[B tensor.Backend] struct {
	Gamma   *Parameter[B] // learnable scale [d_model]
	Beta    *Parameter[B] // learnable shift [d_model]
	Epsilon float32
	dim     int
}

// NewLayerNorm creates a new LayerNorm layer. Gamma starts at ones, beta at
// zeros.
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	if normalizedShape <= 0 {
		panic(fmt.Sprintf("LayerNorm: normalized shape must be positive, got %d", normalizedShape))
	}
	return &LayerNorm[B]{
		Gamma:   NewParameter("gamma", tensor.Ones[float32](tensor.Shape{normalizedShape}, backend)),
		Beta:    NewParameter("beta", tensor.Zeros[float32](tensor.Shape{normalizedShape}, backend)),
		Epsilon: epsilon,
		dim:     normalizedShape,
	}
}

// Forward applies LayerNorm to x [..., d_model].
func (l *LayerNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if shape[len(shape)-1] != l.dim {
		panic(fmt.Sprintf("LayerNorm.Forward: expected last dimension %d, got shape %v", l.dim, shape))
	}

	mean := x.MeanDim(-1, true)
	centered := x.Sub(mean)
	variance := centered.Mul(centered).MeanDim(-1, true)
	norm := centered.Mul(variance.AddScalar(l.Epsilon).Rsqrt())

	// [d_model] broadcasts against [..., d_model].
	return norm.Mul(l.Gamma.Tensor()).Add(l.Beta.Tensor())
}

// Parameters returns [gamma, beta].
func (l *LayerNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.Gamma, l.Beta}
}
