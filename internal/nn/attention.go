package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/jaeger/internal/tensor"
)

// ScaledDotProductAttention computes
//
//	Attention(Q, K, V) = dropout(softmax(QK^T * scale + mask)) V
//
// Shapes:
//   - query: [batch, heads, seq_q, head_dim]
//   - key, value: [batch, heads, seq_k, head_dim]
//   - mask: nil or additive, broadcastable to [batch, heads, seq_q, seq_k]
//
// A zero scale means 1/sqrt(head_dim). dropout may be nil. Returns the
// attended values and the attention weights (before dropout).
func ScaledDotProductAttention[B tensor.Backend](
	query, key, value *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
	scale float32,
	dropout *Dropout[B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	validateAttentionInputs(query, key, value)

	if scale == 0 {
		scale = float32(1.0 / math.Sqrt(float64(query.Shape()[3])))
	}

	scores := query.BatchMatMul(key.T()).MulScalar(scale)
	if mask != nil {
		scores = scores.Add(mask)
	}
	weights := scores.Softmax(-1)

	probs := weights
	if dropout != nil {
		probs = dropout.Forward(weights)
	}
	return probs.BatchMatMul(value), weights
}

func validateAttentionInputs[B tensor.Backend](query, key, value *tensor.Tensor[float32, B]) {
	q, k, v := query.Shape(), key.Shape(), value.Shape()
	if len(q) != 4 || len(k) != 4 || len(v) != 4 {
		panic(fmt.Sprintf("attention: expected 4D inputs, got query %v, key %v, value %v", q, k, v))
	}
	if q[0] != k[0] || q[1] != k[1] || q[3] != k[3] {
		panic(fmt.Sprintf("attention: query %v and key %v disagree on batch, heads or head_dim", q, k))
	}
	if !k[:3].Equal(v[:3]) {
		panic(fmt.Sprintf("attention: key %v and value %v disagree on batch, heads or length", k, v))
	}
}
