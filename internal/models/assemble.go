package models

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/born-ml/jaeger/internal/nn"
	"github.com/born-ml/jaeger/internal/rc"
	"github.com/born-ml/jaeger/internal/tensor"
)

// Fixed rates of the Vitra representation head.
const (
	vitraRepresentationDropout = 0.1
	vitraHeadDropout           = 0.5
)

// builder appends head layers while tracking the feature width.
type builder[B tensor.Backend] struct {
	m       *Model[B]
	rng     *rand.Rand
	backend B
	width   int
}

// newBuilder validates cfg and creates the embedding and the tower.
func newBuilder[B tensor.Backend](
	name string, spec InputSpec, cfg Config, resBlocks int, residual bool, rng *rand.Rand, backend B,
) (*builder[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if spec.Length < 0 {
		return nil, fmt.Errorf("%w: negative input length %d", ErrInvalidConfig, spec.Length)
	}
	if spec.Length > 0 && spec.Length < 4 {
		return nil, fmt.Errorf("%w: input length %d is too short for the tower", ErrInvalidConfig, spec.Length)
	}

	tower, err := rc.NewTower(rc.TowerConfig{
		InChannels:   cfg.EmbedDim,
		Filters:      cfg.Filters,
		NumResBlocks: resBlocks,
		AddResidual:  residual,
	}, rng, backend)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return &builder[B]{
		m: &Model[B]{
			name:      name,
			spec:      spec,
			cfg:       cfg,
			embedding: nn.NewEmbedding(cfg.VocabSize, cfg.EmbedDim, true, rng, backend),
			tower:     tower,
		},
		rng:     rng,
		backend: backend,
		width:   tower.OutChannels(),
	}, nil
}

func (b *builder[B]) add(name, kind string, module nn.Module[B], shape func(tensor.Shape) tensor.Shape) {
	b.m.head = append(b.m.head, layer[B]{name: name, kind: kind, module: module, shape: shape})
}

func (b *builder[B]) dropout(name string, rate float32) {
	b.add(name, fmt.Sprintf("Dropout(%g)", rate), nn.NewDropout[B](rate, b.rng), sameShape)
}

func (b *builder[B]) dense(name string, units int, activation string) {
	kind := "Dense"
	if activation != "" {
		kind = fmt.Sprintf("Dense(%s)", activation)
	}
	b.add(name, kind, nn.NewDense(b.width, units, activation, b.rng, b.backend), withLast(units))
	b.width = units
}

func (b *builder[B]) globalPool(mode string) {
	switch mode {
	case PoolAverage:
		b.add("global_average_pooling", "GlobalAveragePooling1D", nn.NewGlobalAvgPool1D[B](), pooledShape)
	case PoolFlatten:
		b.add("flatten", "Flatten", nn.NewFlatten[B](), flatShape)
		b.width *= b.m.numPatches
	default:
		b.add("global_max_pooling", "GlobalMaxPooling1D", nn.NewGlobalMaxPool1D[B](), pooledShape)
	}
}

// classifier appends dropout and a GELU dense layer per head unit, then the
// output logits.
func (b *builder[B]) classifier() {
	cfg := b.m.cfg
	for i, units := range cfg.HeadUnits {
		b.dropout(fmt.Sprintf("dropout_%d", i+1), cfg.HeadDropout)
		b.dense(fmt.Sprintf("augdense-%d", i+1), units, "gelu")
	}
	b.dense("outdense", cfg.NumClasses, "")
}

func (b *builder[B]) finish() *Model[B] {
	slog.Debug("assembled model",
		"model", b.m.name,
		"res_blocks", b.m.tower.NumResBlocks(),
		"head_layers", len(b.m.head),
		"params", b.m.NumParameters())
	return b.m
}

// Baseline builds the tower without residual blocks, global max pooling and
// the dense classifier.
func Baseline[B tensor.Backend](spec InputSpec, cfg Config, rng *rand.Rand, backend B) (*Model[B], error) {
	return convolutional("baseline", spec, cfg.withDefaults(), 0, true, rng, backend)
}

// Res builds the tower with residual blocks, global max pooling and the
// dense classifier.
func Res[B tensor.Backend](spec InputSpec, cfg Config, rng *rand.Rand, backend B) (*Model[B], error) {
	cfg = cfg.withDefaults()
	return convolutional("res", spec, cfg, cfg.ResBlocks, true, rng, backend)
}

// WRes is Res with the skip connections removed from the residual blocks.
func WRes[B tensor.Backend](spec InputSpec, cfg Config, rng *rand.Rand, backend B) (*Model[B], error) {
	cfg = cfg.withDefaults()
	return convolutional("wres", spec, cfg, cfg.ResBlocks, false, rng, backend)
}

func convolutional[B tensor.Backend](
	name string, spec InputSpec, cfg Config, resBlocks int, residual bool, rng *rand.Rand, backend B,
) (*Model[B], error) {
	b, err := newBuilder(name, spec, cfg, resBlocks, residual, rng, backend)
	if err != nil {
		return nil, err
	}
	b.globalPool(PoolMax)
	b.classifier()
	return b.finish(), nil
}

// LSTM reads the tower output with a bidirectional LSTM instead of pooling.
func LSTM[B tensor.Backend](spec InputSpec, cfg Config, rng *rand.Rand, backend B) (*Model[B], error) {
	cfg = cfg.withDefaults()
	b, err := newBuilder("lstm", spec, cfg, cfg.ResBlocks, true, rng, backend)
	if err != nil {
		return nil, err
	}
	units := cfg.LSTMUnits
	b.add("bidirlstm", fmt.Sprintf("Bidirectional(LSTM(%d))", units),
		nn.NewBidirectional(b.width, units, b.rng, backend), func(s tensor.Shape) tensor.Shape {
			return tensor.Shape{s[0], 2 * units}
		})
	b.width = 2 * units
	b.classifier()
	return b.finish(), nil
}

// Vitra treats each tower position as a patch and runs a transformer
// encoder over them. Inputs must be exactly 4*NumPatches long.
func Vitra[B tensor.Backend](spec InputSpec, cfg Config, rng *rand.Rand, backend B) (*Model[B], error) {
	cfg = cfg.withDefaults()
	v := cfg.Vitra
	if err := v.Validate(cfg.Filters); err != nil {
		return nil, err
	}
	if spec.Length > 0 && spec.Length != 4*v.NumPatches {
		return nil, fmt.Errorf("%w: vitra input length %d must be 4 x num_patches (%d)",
			ErrInvalidConfig, spec.Length, 4*v.NumPatches)
	}

	b, err := newBuilder("vitra", spec, cfg, cfg.ResBlocks, true, rng, backend)
	if err != nil {
		return nil, err
	}
	b.m.numPatches = v.NumPatches

	b.add("patch_encoder", "PatchEncoder", nn.NewPatchEncoder(nn.PatchEncoderConfig{
		NumPatches:       v.NumPatches,
		ProjectionDim:    v.ProjectionDim,
		InputDim:         b.width,
		EmbedInput:       v.EmbedInput,
		LearnedPositions: v.LearnedPositions,
	}, b.rng, backend), withLast(v.ProjectionDim))
	b.width = v.ProjectionDim

	for i := 0; i < v.TransformerLayers; i++ {
		b.add(fmt.Sprintf("transformer_%d", i), fmt.Sprintf("TransformerBlock(%d heads)", v.NumHeads),
			nn.NewTransformerBlock(nn.TransformerConfig{
				EmbedDim:   v.ProjectionDim,
				NumHeads:   v.NumHeads,
				KeyDim:     v.ProjectionDim,
				AttDropout: v.AttDropout,
				MLPHidden:  v.AttHiddenUnits,
				MLPDropout: v.MLPDropout,
			}, b.rng, backend), sameShape)
	}
	b.add("layer_norm", "LayerNorm", nn.NewLayerNorm(v.ProjectionDim, 1e-6, backend), sameShape)
	b.globalPool(v.Pooling)
	b.dropout("dropout", vitraRepresentationDropout)

	mlp := nn.NewMLP(b.width, v.MLPHiddenUnits, vitraHeadDropout, b.rng, backend)
	b.add("mlp", fmt.Sprintf("MLP%v", v.MLPHiddenUnits), mlp, withLast(mlp.OutFeatures()))
	b.width = mlp.OutFeatures()

	b.dense("outdense", cfg.NumClasses, "")
	return b.finish(), nil
}

func sameShape(s tensor.Shape) tensor.Shape { return s }

func withLast(n int) func(tensor.Shape) tensor.Shape {
	return func(s tensor.Shape) tensor.Shape {
		out := s.Clone()
		out[len(out)-1] = n
		return out
	}
}

// pooledShape drops the length axis of [N, L, C].
func pooledShape(s tensor.Shape) tensor.Shape {
	return tensor.Shape{s[0], s[2]}
}

func flatShape(s tensor.Shape) tensor.Shape {
	if s[1] < 0 {
		return tensor.Shape{s[0], -1}
	}
	return tensor.Shape{s[0], s[1] * s[2]}
}
