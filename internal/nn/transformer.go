package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/jaeger/internal/tensor"
)

// TransformerConfig defines the configuration for a TransformerBlock.
type TransformerConfig struct {
	EmbedDim   int     // model width
	NumHeads   int     // attention heads
	KeyDim     int     // per-head width; 0 means EmbedDim
	AttDropout float32 // dropout on attention probabilities
	MLPHidden  []int   // widths of the feed-forward MLP; the last must equal EmbedDim
	MLPDropout float32 // dropout after each MLP layer
	NormEps    float32 // LayerNorm epsilon; 0 means 1e-6
}

// TransformerBlock is a pre-norm encoder block:
//
//	x1 = LayerNorm(x)
//	x2 = MHA(x1, x1) + x
//	y  = MLP(LayerNorm(x2)) + x2
type TransformerBlock[B tensor.Backend] struct {
	Config    TransformerConfig
	AttnNorm  *LayerNorm[B]
	Attention *MultiHeadAttention[B]
	MLPNorm   *LayerNorm[B]
	MLP       *MLP[B]
}

// NewTransformerBlock creates a new TransformerBlock.
func NewTransformerBlock[B tensor.Backend](config TransformerConfig, rng *rand.Rand, backend B) *TransformerBlock[B] {
	if config.EmbedDim <= 0 {
		panic(fmt.Sprintf("TransformerBlock: embedDim must be positive, got %d", config.EmbedDim))
	}
	if config.NumHeads <= 0 {
		panic(fmt.Sprintf("TransformerBlock: numHeads must be positive, got %d", config.NumHeads))
	}
	if config.KeyDim == 0 {
		config.KeyDim = config.EmbedDim
	}
	if config.NormEps == 0 {
		config.NormEps = 1e-6
	}
	if n := len(config.MLPHidden); n == 0 || config.MLPHidden[n-1] != config.EmbedDim {
		panic(fmt.Sprintf("TransformerBlock: last MLP width must equal embedDim %d for the residual, got %v",
			config.EmbedDim, config.MLPHidden))
	}

	return &TransformerBlock[B]{
		Config:   config,
		AttnNorm: NewLayerNorm[B](config.EmbedDim, config.NormEps, backend),
		Attention: NewMultiHeadAttention[B](MHAConfig{
			EmbedDim: config.EmbedDim,
			NumHeads: config.NumHeads,
			KeyDim:   config.KeyDim,
			Dropout:  config.AttDropout,
		}, rng, backend),
		MLPNorm: NewLayerNorm[B](config.EmbedDim, config.NormEps, backend),
		MLP:     NewMLP(config.EmbedDim, config.MLPHidden, config.MLPDropout, rng, backend),
	}
}

// SetTraining toggles the attention and MLP dropouts.
func (t *TransformerBlock[B]) SetTraining(training bool) {
	t.Attention.SetTraining(training)
	t.MLP.SetTraining(training)
}

// Forward applies the block to x [N, L, EmbedDim].
func (t *TransformerBlock[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x1 := t.AttnNorm.Forward(x)
	x2 := t.Attention.Forward(x1, x1, x1, nil).Add(x)
	return t.MLP.Forward(t.MLPNorm.Forward(x2)).Add(x2)
}

// Parameters returns all trainable parameters of the block.
func (t *TransformerBlock[B]) Parameters() []*Parameter[B] {
	params := append([]*Parameter[B]{}, t.AttnNorm.Parameters()...)
	params = append(params, t.Attention.Parameters()...)
	params = append(params, t.MLPNorm.Parameters()...)
	return append(params, t.MLP.Parameters()...)
}

// CollectState adds the block's tensors under attention_norm, attention,
// mlp_norm and mlp.
func (t *TransformerBlock[B]) CollectState(prefix string, dst *StateDict[B]) {
	CollectState[B](prefix+"attention_norm.", t.AttnNorm, dst)
	t.Attention.CollectState(prefix+"attention.", dst)
	CollectState[B](prefix+"mlp_norm.", t.MLPNorm, dst)
	t.MLP.CollectState(prefix+"mlp.", dst)
}
