package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/jaeger/internal/tensor"
)

// MultiHeadAttention implements Keras-style multi-head attention.
//
// Unlike the PyTorch layout, the per-head width (key_dim) is independent of
// the model width. Queries, keys and values are each projected to
// num_heads*key_dim, attended per head with scale 1/sqrt(key_dim), and the
// concatenated heads are projected back to the query width.
//
// Example:
//
//	mha := nn.NewMultiHeadAttention[B](nn.MHAConfig{
//	    EmbedDim: 128, NumHeads: 4, KeyDim: 128, Dropout: 0.1,
//	}, rng, backend)
//	out := mha.Forward(x, x, x, nil) // self-attention, [N, L, 128]
type MultiHeadAttention[B tensor.Backend] struct {
	WQ, WK, WV, WO *Linear[B]
	NumHeads       int
	KeyDim         int
	EmbedDim       int
	dropout        *Dropout[B]
}

// MHAConfig configures a MultiHeadAttention layer.
type MHAConfig struct {
	EmbedDim int     // width of query, key, value inputs and of the output
	NumHeads int     // number of heads
	KeyDim   int     // width of each head; also the value width
	Dropout  float32 // dropout on attention probabilities
}

// NewMultiHeadAttention creates a new multi-head attention module.
func NewMultiHeadAttention[B tensor.Backend](cfg MHAConfig, rng *rand.Rand, backend B) *MultiHeadAttention[B] {
	if cfg.EmbedDim <= 0 || cfg.NumHeads <= 0 || cfg.KeyDim <= 0 {
		panic(fmt.Sprintf("MultiHeadAttention: dimensions must be positive, got %+v", cfg))
	}
	inner := cfg.NumHeads * cfg.KeyDim
	return &MultiHeadAttention[B]{
		WQ:       NewLinear(cfg.EmbedDim, inner, rng, backend),
		WK:       NewLinear(cfg.EmbedDim, inner, rng, backend),
		WV:       NewLinear(cfg.EmbedDim, inner, rng, backend),
		WO:       NewLinear(inner, cfg.EmbedDim, rng, backend),
		NumHeads: cfg.NumHeads,
		KeyDim:   cfg.KeyDim,
		EmbedDim: cfg.EmbedDim,
		dropout:  NewDropout[B](cfg.Dropout, rng),
	}
}

// SetTraining toggles attention dropout.
func (m *MultiHeadAttention[B]) SetTraining(training bool) {
	m.dropout.SetTraining(training)
}

// Forward computes attention of query [N, Lq, D] over key/value [N, Lk, D].
// mask is nil or an additive mask broadcastable to [N, heads, Lq, Lk].
func (m *MultiHeadAttention[B]) Forward(
	query, key, value *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
) *tensor.Tensor[float32, B] {
	out, _ := m.ForwardWithWeights(query, key, value, mask)
	return out
}

// ForwardWithWeights is Forward that also returns the attention weights
// [N, heads, Lq, Lk].
func (m *MultiHeadAttention[B]) ForwardWithWeights(
	query, key, value *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	qs, ks := query.Shape(), key.Shape()
	if len(qs) != 3 || len(ks) != 3 {
		panic(fmt.Sprintf("MultiHeadAttention.Forward: expected [N, L, D] inputs, got query %v, key %v", qs, ks))
	}
	batch, seqQ, seqK := qs[0], qs[1], ks[1]

	q := m.split(m.WQ.Forward(query), batch, seqQ)
	k := m.split(m.WK.Forward(key), batch, seqK)
	v := m.split(m.WV.Forward(value), batch, seqK)

	ctx, weights := ScaledDotProductAttention(q, k, v, mask, 0, m.dropout)

	ctx = ctx.Transpose(0, 2, 1, 3).Reshape(batch, seqQ, m.NumHeads*m.KeyDim)
	return m.WO.Forward(ctx), weights
}

// split turns [N, L, heads*key_dim] into [N, heads, L, key_dim].
func (m *MultiHeadAttention[B]) split(x *tensor.Tensor[float32, B], batch, seq int) *tensor.Tensor[float32, B] {
	return x.Reshape(batch, seq, m.NumHeads, m.KeyDim).Transpose(0, 2, 1, 3)
}

// Parameters returns the projection weights and biases in q, k, v, o order.
func (m *MultiHeadAttention[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 8)
	for _, l := range []*Linear[B]{m.WQ, m.WK, m.WV, m.WO} {
		params = append(params, l.Parameters()...)
	}
	return params
}

// CollectState names the projections query, key, value and output.
func (m *MultiHeadAttention[B]) CollectState(prefix string, dst *StateDict[B]) {
	CollectState[B](prefix+"query.", m.WQ, dst)
	CollectState[B](prefix+"key.", m.WK, dst)
	CollectState[B](prefix+"value.", m.WV, dst)
	CollectState[B](prefix+"output.", m.WO, dst)
}
