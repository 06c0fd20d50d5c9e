package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/jaeger/internal/tensor"
)

// Patches splits [N, L, C] into numPatches consecutive chunks along L and
// flattens each: [N, numPatches, patchSize*C]. L must equal
// numPatches*patchSize.
type Patches[B tensor.Backend] struct {
	numPatches int
	patchSize  int
}

// NewPatches creates a Patches layer.
func NewPatches[B tensor.Backend](numPatches, patchSize int) *Patches[B] {
	if numPatches <= 0 || patchSize <= 0 {
		panic(fmt.Sprintf("Patches: sizes must be positive, got %d patches of %d", numPatches, patchSize))
	}
	return &Patches[B]{numPatches: numPatches, patchSize: patchSize}
}

// Forward splits the input into patches.
func (p *Patches[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("Patches.Forward: expected [N, L, C] input, got shape %v", shape))
	}
	if shape[1] != p.numPatches*p.patchSize {
		panic(fmt.Sprintf("Patches.Forward: length %d is not %d patches of %d", shape[1], p.numPatches, p.patchSize))
	}
	// Row-major layout makes consecutive chunks contiguous.
	return input.Reshape(shape[0], p.numPatches, p.patchSize*shape[2])
}

// Parameters returns nil.
func (p *Patches[B]) Parameters() []*Parameter[B] {
	return nil
}

// PatchEncoderConfig configures a PatchEncoder.
type PatchEncoderConfig struct {
	NumPatches    int
	ProjectionDim int
	// InputDim is the width of incoming patches. It is only used when
	// EmbedInput is set; otherwise it must equal ProjectionDim.
	InputDim int
	// EmbedInput adds a Dense projection from InputDim to ProjectionDim.
	EmbedInput bool
	// LearnedPositions replaces the fixed sinusoid table with a trainable
	// embedding.
	LearnedPositions bool
}

// PatchEncoder adds a position embedding over positions 0..numPatches-1 to
// its (optionally projected) input: [N, P, in] -> [N, P, ProjectionDim].
type PatchEncoder[B tensor.Backend] struct {
	cfg        PatchEncoderConfig
	projection *Linear[B]
	positions  *Embedding[B]
	ids        *tensor.Tensor[int32, B]
}

// NewPatchEncoder creates a PatchEncoder.
func NewPatchEncoder[B tensor.Backend](cfg PatchEncoderConfig, rng *rand.Rand, backend B) *PatchEncoder[B] {
	if cfg.NumPatches <= 0 || cfg.ProjectionDim <= 0 {
		panic(fmt.Sprintf("PatchEncoder: sizes must be positive, got %+v", cfg))
	}
	e := &PatchEncoder[B]{
		cfg: cfg,
		ids: tensor.Arange(0, cfg.NumPatches, backend),
	}
	if cfg.EmbedInput {
		e.projection = NewLinear(cfg.InputDim, cfg.ProjectionDim, rng, backend)
	}
	if cfg.LearnedPositions {
		e.positions = NewEmbedding(cfg.NumPatches, cfg.ProjectionDim, false, rng, backend)
	} else {
		e.positions = NewEmbeddingWithWeight(SinusoidTable(cfg.NumPatches, cfg.ProjectionDim, 10000, backend))
		e.positions.Freeze()
	}
	return e
}

// Forward encodes patches [N, P, in].
func (e *PatchEncoder[B]) Forward(patches *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := patches.Shape()
	if len(shape) != 3 || shape[1] != e.cfg.NumPatches {
		panic(fmt.Sprintf("PatchEncoder.Forward: expected [N, %d, D] input, got shape %v", e.cfg.NumPatches, shape))
	}
	x := patches
	if e.projection != nil {
		x = e.projection.Forward(x)
	}
	if x.Shape()[2] != e.cfg.ProjectionDim {
		panic(fmt.Sprintf("PatchEncoder.Forward: width %d does not match projection dim %d without a projection",
			x.Shape()[2], e.cfg.ProjectionDim))
	}
	// [P, D] broadcasts over the batch.
	return x.Add(e.positions.Forward(e.ids))
}

// Parameters returns the projection and learned position weights, if any.
func (e *PatchEncoder[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	if e.projection != nil {
		params = append(params, e.projection.Parameters()...)
	}
	return append(params, e.positions.Parameters()...)
}

// CollectState adds projection and position tensors.
func (e *PatchEncoder[B]) CollectState(prefix string, dst *StateDict[B]) {
	if e.projection != nil {
		CollectState[B](prefix+"projection.", e.projection, dst)
	}
	e.positions.CollectState(prefix+"position_embedding.", dst)
}
