// Package rc implements reverse-complement weight sharing.
//
// A sequence is fed to the models as six frames: three forward reading
// frames and three reverse-complement frames. Every layer in this package
// holds one set of weights and applies it to each frame independently, so a
// motif is detected the same way on both strands.
package rc

import (
	"fmt"

	"github.com/born-ml/jaeger/internal/nn"
	"github.com/born-ml/jaeger/internal/tensor"
)

// NumViews is the number of frames a sequence is presented as.
const NumViews = 6

// ViewNames lists the frame inputs in the order Views holds them.
var ViewNames = [NumViews]string{"forward_1", "forward_2", "forward_3", "reverse_1", "reverse_2", "reverse_3"}

// Views holds one tensor per frame, all of the same shape.
type Views[B tensor.Backend] []*tensor.Tensor[float32, B]

// Embed looks up the six id tensors with a single shared embedding.
func Embed[B tensor.Backend](e *nn.Embedding[B], ids []*tensor.Tensor[int32, B]) Views[B] {
	if len(ids) != NumViews {
		panic(fmt.Sprintf("rc.Embed: expected %d id tensors, got %d", NumViews, len(ids)))
	}
	out := make(Views[B], len(ids))
	for i, t := range ids {
		out[i] = e.Forward(t)
	}
	return out
}

// Map applies f to every view.
func (v Views[B]) Map(f func(*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]) Views[B] {
	out := make(Views[B], len(v))
	for i, t := range v {
		out[i] = f(t)
	}
	return out
}

// Shape returns the common shape of the views. Panics if they differ.
func (v Views[B]) Shape() tensor.Shape {
	if len(v) == 0 {
		panic("rc.Views: no views")
	}
	shape := v[0].Shape()
	for i, t := range v[1:] {
		if !t.Shape().Equal(shape) {
			panic(fmt.Sprintf("rc.Views: view %d has shape %v, view 0 has %v", i+1, t.Shape(), shape))
		}
	}
	return shape
}

// Sum adds the views element-wise.
func (v Views[B]) Sum() *tensor.Tensor[float32, B] {
	v.Shape()
	out := v[0]
	for _, t := range v[1:] {
		out = out.Add(t)
	}
	return out
}
