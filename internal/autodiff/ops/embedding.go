package ops

import "github.com/born-ml/jaeger/internal/tensor"

// EmbeddingOp represents a row lookup into a [vocab, dim] weight table.
//
// Only the weight is differentiable. Backward scatter-adds each output row's
// gradient into the row it was read from, so repeated ids accumulate.
type EmbeddingOp struct {
	base
	indices *tensor.RawTensor
}

// NewEmbeddingOp creates a new EmbeddingOp.
func NewEmbeddingOp(weight, indices, output *tensor.RawTensor) *EmbeddingOp {
	return &EmbeddingOp{base{[]*tensor.RawTensor{weight}, output}, indices}
}

// Backward computes the weight gradient.
func (op *EmbeddingOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	weight := op.inputs[0]
	dim := weight.Shape()[1]

	result := zerosLike(weight)
	dst, g := result.AsFloat32(), grad.AsFloat32()
	for i, id := range op.indices.AsInt32() {
		row := dst[int(id)*dim : int(id+1)*dim]
		src := g[i*dim : (i+1)*dim]
		for j := range row {
			row[j] += src[j]
		}
	}
	return []*tensor.RawTensor{result}
}
