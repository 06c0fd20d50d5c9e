package autodiff

import (
	"fmt"

	"github.com/born-ml/jaeger/internal/tensor"
)

// BackwardCapable is a backend that owns a gradient tape.
type BackwardCapable interface {
	tensor.Backend
	GetTape() *GradientTape
}

// GetTape returns the gradient tape (implements BackwardCapable).
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Backward computes gradients of t with respect to every tensor that
// contributed to it. The seed gradient is all ones, so for a non-scalar t the
// result is the gradient of t's sum.
//
// Example:
//
//	b := autodiff.New(cpu.New())
//	b.Tape().StartRecording()
//	x := tensor.Ones[float32](tensor.Shape{2}, b)
//	y := x.Mul(x)
//	grads := autodiff.Backward(y, b)
//	grads[x.Raw()] // [2, 2]
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.GetTape()
	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}
	if t.DType() != tensor.Float32 {
		panic(fmt.Sprintf("backward: unsupported dtype %s (only float32 is differentiable)", t.DType()))
	}

	seed := tensor.MustNewRaw(t.Shape(), tensor.Float32, backend.Device())
	data := seed.AsFloat32()
	for i := range data {
		data[i] = 1
	}
	return tape.BackwardFrom(t.Raw(), seed, backend)
}
