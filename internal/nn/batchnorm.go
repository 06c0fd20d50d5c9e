package nn

import (
	"fmt"

	"github.com/born-ml/jaeger/internal/tensor"
)

// BatchNorm1D normalizes the last (channel) axis of its input.
//
// In training mode each call normalizes with the statistics of its own batch
// (all axes but the last) and folds them into the moving statistics:
//
//	moving = moving*momentum + batch*(1-momentum)
//
// In inference mode the moving statistics are used. Variances are biased,
// as in Keras.
type BatchNorm1D[B tensor.Backend] struct {
	Gamma          *Parameter[B] // [C], ones
	Beta           *Parameter[B] // [C], zeros
	MovingMean     *Parameter[B] // [C], zeros, buffer
	MovingVariance *Parameter[B] // [C], ones, buffer
	Momentum       float32
	Epsilon        float32

	channels int
	training bool
}

// NewBatchNorm1D creates a BatchNorm1D with the Keras defaults
// (momentum 0.99, epsilon 1e-3).
func NewBatchNorm1D[B tensor.Backend](channels int, backend B) *BatchNorm1D[B] {
	if channels <= 0 {
		panic(fmt.Sprintf("BatchNorm1D: channels must be positive, got %d", channels))
	}
	shape := tensor.Shape{channels}
	return &BatchNorm1D[B]{
		Gamma:          NewParameter("gamma", tensor.Ones[float32](shape, backend)),
		Beta:           NewParameter("beta", tensor.Zeros[float32](shape, backend)),
		MovingMean:     NewBuffer("moving_mean", tensor.Zeros[float32](shape, backend)),
		MovingVariance: NewBuffer("moving_variance", tensor.Ones[float32](shape, backend)),
		Momentum:       0.99,
		Epsilon:        1e-3,
		channels:       channels,
	}
}

// SetTraining switches between batch and moving statistics.
func (bn *BatchNorm1D[B]) SetTraining(training bool) {
	bn.training = training
}

// Training reports the current mode.
func (bn *BatchNorm1D[B]) Training() bool {
	return bn.training
}

// Forward normalizes input [..., C].
func (bn *BatchNorm1D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) < 2 || shape[len(shape)-1] != bn.channels {
		panic(fmt.Sprintf("BatchNorm1D.Forward: expected [..., %d] input, got shape %v", bn.channels, shape))
	}

	x := input.Reshape(-1, bn.channels)
	var centered, inv *tensor.Tensor[float32, B]
	if bn.training {
		mean := x.MeanDim(0, true)
		centered = x.Sub(mean)
		variance := centered.Mul(centered).MeanDim(0, true)
		inv = variance.AddScalar(bn.Epsilon).Rsqrt()
		bn.updateMoving(mean.Data(), variance.Data())
	} else {
		centered = x.Sub(bn.MovingMean.Tensor().Detach())
		inv = bn.MovingVariance.Tensor().Detach().AddScalar(bn.Epsilon).Rsqrt()
	}

	out := centered.Mul(inv).Mul(bn.Gamma.Tensor()).Add(bn.Beta.Tensor())
	return out.Reshape(shape...)
}

func (bn *BatchNorm1D[B]) updateMoving(mean, variance []float32) {
	mm := bn.MovingMean.Tensor().Data()
	mv := bn.MovingVariance.Tensor().Data()
	for i := range mm {
		mm[i] = mm[i]*bn.Momentum + mean[i]*(1-bn.Momentum)
		mv[i] = mv[i]*bn.Momentum + variance[i]*(1-bn.Momentum)
	}
}

// Parameters returns [gamma, beta]. Moving statistics are buffers.
func (bn *BatchNorm1D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{bn.Gamma, bn.Beta}
}

// CollectState adds gamma, beta and the moving statistics.
func (bn *BatchNorm1D[B]) CollectState(prefix string, dst *StateDict[B]) {
	for _, p := range []*Parameter[B]{bn.Gamma, bn.Beta, bn.MovingMean, bn.MovingVariance} {
		dst.Set(prefix+p.Name(), p)
	}
}
