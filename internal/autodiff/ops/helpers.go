package ops

import (
	"fmt"

	"github.com/born-ml/jaeger/internal/tensor"
)

// reduceBroadcast sums a gradient back down to the shape of an input that
// was broadcast in the forward pass.
//
//	Forward: a[3,1] + b[3,4] -> c[3,4]
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(targetShape) {
		return grad
	}

	// Leading dimensions added by broadcasting.
	for len(grad.Shape()) > len(targetShape) {
		grad = backend.SumDim(grad, 0, false)
	}

	// Dimensions stretched from 1.
	for i, d := range targetShape {
		if d == 1 && grad.Shape()[i] != 1 {
			grad = backend.SumDim(grad, i, true)
		}
	}

	if !grad.Shape().Equal(targetShape) {
		grad = backend.Reshape(grad, targetShape)
	}
	return grad
}

// mapGrad computes grad[i] * f(x[i]) for float32 tensors of equal shape.
func mapGrad(name string, x, grad *tensor.RawTensor, f func(x float32) float32) *tensor.RawTensor {
	if !x.Shape().Equal(grad.Shape()) {
		panic(fmt.Sprintf("%s backward: grad shape %v != input shape %v", name, grad.Shape(), x.Shape()))
	}
	result := tensor.MustNewRaw(x.Shape(), tensor.Float32, x.Device())
	out, xv, gv := result.AsFloat32(), x.AsFloat32(), grad.AsFloat32()
	for i := range out {
		out[i] = gv[i] * f(xv[i])
	}
	return result
}

// restoreDim reinserts a reduced dimension and broadcasts grad to shape.
func restoreDim(grad *tensor.RawTensor, shape tensor.Shape, dim int, keepDim bool, backend tensor.Backend) *tensor.RawTensor {
	if !keepDim {
		grad = backend.Unsqueeze(grad, dim)
	}
	return backend.Expand(grad, shape)
}

// zerosLike allocates a zero tensor with the shape and dtype of t.
func zerosLike(t *tensor.RawTensor) *tensor.RawTensor {
	return tensor.MustNewRaw(t.Shape(), t.DType(), t.Device())
}
