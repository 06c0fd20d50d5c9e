package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/jaeger/internal/tensor"
)

// SinusoidTable returns the fixed [seqLen, d] position table
//
//	P[k, 2i]   = sin(k / n^(2i/d))
//	P[k, 2i+1] = cos(k / n^(2i/d))
//
// for i < d/2. When d is odd the last column stays zero. n is usually 10000.
func SinusoidTable[B tensor.Backend](seqLen, d int, n float64, backend B) *tensor.Tensor[float32, B] {
	if seqLen <= 0 || d <= 0 {
		panic(fmt.Sprintf("SinusoidTable: sizes must be positive, got %d x %d", seqLen, d))
	}
	t := tensor.Zeros[float32](tensor.Shape{seqLen, d}, backend)
	data := t.Data()
	for k := 0; k < seqLen; k++ {
		row := data[k*d : (k+1)*d]
		for i := 0; i < d/2; i++ {
			angle := float64(k) / math.Pow(n, float64(2*i)/float64(d))
			row[2*i] = float32(math.Sin(angle))
			row[2*i+1] = float32(math.Cos(angle))
		}
	}
	return t
}

// PositionalEmbedding maps positions 0..L-1 to rows of a fixed sinusoid
// table, where L is the size of the input's last axis:
// [N, ..., L] -> [N, L, D]. Only the input's shape is used.
//
// The table is a non-trainable embedding, so it is saved with the model but
// never updated.
type PositionalEmbedding[B tensor.Backend] struct {
	table  *Embedding[B]
	maxLen int
}

// NewPositionalEmbedding creates a PositionalEmbedding for sequences up to
// maxLen positions.
func NewPositionalEmbedding[B tensor.Backend](maxLen, dim int, backend B) *PositionalEmbedding[B] {
	table := NewEmbeddingWithWeight(SinusoidTable(maxLen, dim, 10000, backend))
	table.Freeze()
	return &PositionalEmbedding[B]{table: table, maxLen: maxLen}
}

// Forward returns the position embeddings for the input's shape.
func (p *PositionalEmbedding[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	return p.Encode(shape[0], shape[len(shape)-1], input.Backend())
}

// Encode returns [batch, length, D] position embeddings.
func (p *PositionalEmbedding[B]) Encode(batch, length int, backend B) *tensor.Tensor[float32, B] {
	if length > p.maxLen {
		panic(fmt.Sprintf("PositionalEmbedding: length %d exceeds table size %d", length, p.maxLen))
	}
	ids := tensor.Zeros[int32](tensor.Shape{batch, length}, backend)
	data := ids.Data()
	for i := range data {
		data[i] = int32(i % length)
	}
	return p.table.Forward(ids)
}

// Parameters returns nil; the table is fixed.
func (p *PositionalEmbedding[B]) Parameters() []*Parameter[B] {
	return nil
}

// CollectState adds the fixed table.
func (p *PositionalEmbedding[B]) CollectState(prefix string, dst *StateDict[B]) {
	p.table.CollectState(prefix, dst)
}
