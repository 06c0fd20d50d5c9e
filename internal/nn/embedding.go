package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/jaeger/internal/tensor"
)

// Embedding is a lookup table that maps int32 ids to dense vectors.
//
//   - Weight: [NumEmbed, EmbedDim], initialized U(-0.05, 0.05)
//   - Forward: ids [...] -> [..., EmbedDim]
//
// With MaskZero, id 0 is reserved for padding and ComputeMask reports which
// positions hold real tokens. The lookup itself is not altered: consumers
// that honour masks read ComputeMask, the rest see the padding row.
type Embedding[B tensor.Backend] struct {
	Weight   *Parameter[B]
	NumEmbed int
	EmbedDim int
	MaskZero bool
}

// NewEmbedding creates a new Embedding layer.
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, maskZero bool, rng *rand.Rand, backend B) *Embedding[B] {
	if numEmbeddings <= 0 || embeddingDim <= 0 {
		panic(fmt.Sprintf("Embedding: sizes must be positive, got %d x %d", numEmbeddings, embeddingDim))
	}
	w := tensor.Uniform(tensor.Shape{numEmbeddings, embeddingDim}, -0.05, 0.05, rng, backend)
	e := NewEmbeddingWithWeight(w)
	e.MaskZero = maskZero
	return e
}

// NewEmbeddingWithWeight creates an Embedding layer around a pre-initialized
// [numEmbeddings, embeddingDim] weight.
func NewEmbeddingWithWeight[B tensor.Backend](weight *tensor.Tensor[float32, B]) *Embedding[B] {
	shape := weight.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("Embedding: weight must be 2D, got shape %v", shape))
	}
	return &Embedding[B]{
		Weight:   NewParameter("embeddings", weight),
		NumEmbed: shape[0],
		EmbedDim: shape[1],
	}
}

// Forward performs the lookup. Panics if an id is outside [0, NumEmbed).
func (e *Embedding[B]) Forward(indices *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	return e.Weight.Tensor().Embedding(indices)
}

// ComputeMask returns ids != 0 when MaskZero is set, and nil otherwise.
func (e *Embedding[B]) ComputeMask(indices *tensor.Tensor[int32, B]) *tensor.Tensor[bool, B] {
	if !e.MaskZero {
		return nil
	}
	return indices.NotEqualScalar(0)
}

// Parameters returns the weight if it is trainable.
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	if !e.Weight.Trainable() {
		return nil
	}
	return []*Parameter[B]{e.Weight}
}

// CollectState adds the weight, trainable or not.
func (e *Embedding[B]) CollectState(prefix string, dst *StateDict[B]) {
	dst.Set(prefix+e.Weight.Name(), e.Weight)
}

// Freeze turns the weight into a non-trainable buffer.
func (e *Embedding[B]) Freeze() {
	e.Weight = NewBuffer(e.Weight.Name(), e.Weight.Tensor())
}
