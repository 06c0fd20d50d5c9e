package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/jaeger/internal/tensor"
)

// Dropout zeroes a fraction rate of its inputs in training mode and scales
// the survivors by 1/(1-rate). It is the identity in inference mode, which is
// the default.
type Dropout[B tensor.Backend] struct {
	rate     float32
	rng      *rand.Rand
	training bool
}

// NewDropout creates a Dropout layer. rng may be nil.
func NewDropout[B tensor.Backend](rate float32, rng *rand.Rand) *Dropout[B] {
	if rate < 0 || rate >= 1 {
		panic(fmt.Sprintf("Dropout: rate must be in [0, 1), got %g", rate))
	}
	return &Dropout[B]{rate: rate, rng: rng}
}

// SetTraining enables or disables dropout.
func (d *Dropout[B]) SetTraining(training bool) {
	d.training = training
}

// Rate returns the drop probability.
func (d *Dropout[B]) Rate() float32 {
	return d.rate
}

// Forward applies dropout.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.rate == 0 {
		return input
	}
	mask := tensor.Zeros[float32](input.Shape(), input.Backend())
	data := mask.Data()
	scale := 1 / (1 - d.rate)
	for i := range data {
		if d.uniform() >= d.rate {
			data[i] = scale
		}
	}
	return input.Mul(mask)
}

func (d *Dropout[B]) uniform() float32 {
	if d.rng == nil {
		return rand.Float32() //nolint:gosec // dropout masks, not crypto
	}
	return d.rng.Float32()
}

// Parameters returns nil.
func (d *Dropout[B]) Parameters() []*Parameter[B] {
	return nil
}
