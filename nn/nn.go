// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/jaeger/internal/nn"
	"github.com/born-ml/jaeger/tensor"
)

// Module interface defines the common interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter is a named trainable tensor or a non-trainable buffer.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// StateDict maps qualified names to parameters and buffers in a stable order.
type StateDict[B tensor.Backend] = nn.StateDict[B]

// NewParameter creates a new trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// SetTraining switches m and its children between training and inference.
func SetTraining(m any, training bool) {
	nn.SetTraining(m, training)
}

// CollectState adds the parameters and buffers of m to dst under prefix.
func CollectState[B tensor.Backend](prefix string, m Module[B], dst *StateDict[B]) {
	nn.CollectState(prefix, m, dst)
}

// NewStateDict returns an empty StateDict.
func NewStateDict[B tensor.Backend]() *StateDict[B] {
	return nn.NewStateDict[B]()
}

// CountParameters returns the number of trainable scalars in params.
func CountParameters[B tensor.Backend](params []*Parameter[B]) int {
	return nn.CountParameters(params)
}

// AssignGradients stores autodiff gradients on the matching parameters.
func AssignGradients[B tensor.Backend](params []*Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) int {
	return nn.AssignGradients(params, grads)
}

// Layers

// Linear computes y = xW + b with a [in, out] kernel.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a Linear layer with Glorot uniform weights.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, rng, backend)
}

// Dense is a Linear layer followed by a named activation.
type Dense[B tensor.Backend] = nn.Dense[B]

// NewDense creates a Dense layer. activation is "gelu", "relu", "sigmoid",
// "tanh" or "" for none.
func NewDense[B tensor.Backend](inFeatures, units int, activation string, rng *rand.Rand, backend B) *Dense[B] {
	return nn.NewDense(inFeatures, units, activation, rng, backend)
}

// Conv1DConfig configures a Conv1D layer.
type Conv1DConfig = nn.Conv1DConfig

// Conv1D is a dilated 1D convolution over [N, L, C] input.
type Conv1D[B tensor.Backend] = nn.Conv1D[B]

// NewConv1D creates a Conv1D layer with He uniform weights.
func NewConv1D[B tensor.Backend](cfg Conv1DConfig, rng *rand.Rand, backend B) *Conv1D[B] {
	return nn.NewConv1D(cfg, rng, backend)
}

// BatchNorm1D normalizes the channel axis.
type BatchNorm1D[B tensor.Backend] = nn.BatchNorm1D[B]

// NewBatchNorm1D creates a BatchNorm1D layer with momentum 0.99 and epsilon 1e-3.
func NewBatchNorm1D[B tensor.Backend](channels int, backend B) *BatchNorm1D[B] {
	return nn.NewBatchNorm1D(channels, backend)
}

// LayerNorm normalizes the last axis.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a LayerNorm layer.
func NewLayerNorm[B tensor.Backend](size int, epsilon float32, backend B) *LayerNorm[B] {
	return nn.NewLayerNorm(size, epsilon, backend)
}

// Embedding maps int32 ids to learned vectors.
type Embedding[B tensor.Backend] = nn.Embedding[B]

// NewEmbedding creates an Embedding. With maskZero, id 0 is padding.
func NewEmbedding[B tensor.Backend](numEmbeddings, dim int, maskZero bool, rng *rand.Rand, backend B) *Embedding[B] {
	return nn.NewEmbedding(numEmbeddings, dim, maskZero, rng, backend)
}

// MaxPool1D pools over the length axis.
type MaxPool1D[B tensor.Backend] = nn.MaxPool1D[B]

// NewMaxPool1D creates a MaxPool1D layer.
func NewMaxPool1D[B tensor.Backend](poolSize, stride int) *MaxPool1D[B] {
	return nn.NewMaxPool1D[B](poolSize, stride)
}

// Dropout zeroes inputs at random in training mode.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a Dropout layer.
func NewDropout[B tensor.Backend](rate float32, rng *rand.Rand) *Dropout[B] {
	return nn.NewDropout[B](rate, rng)
}

// LSTM is a single-direction LSTM returning its final state.
type LSTM[B tensor.Backend] = nn.LSTM[B]

// NewLSTM creates an LSTM layer.
func NewLSTM[B tensor.Backend](inputDim, units int, goBackwards bool, rng *rand.Rand, backend B) *LSTM[B] {
	return nn.NewLSTM(inputDim, units, goBackwards, rng, backend)
}

// Bidirectional runs a forward and a backward LSTM and concatenates them.
type Bidirectional[B tensor.Backend] = nn.Bidirectional[B]

// NewBidirectional creates a Bidirectional LSTM.
func NewBidirectional[B tensor.Backend](inputDim, units int, rng *rand.Rand, backend B) *Bidirectional[B] {
	return nn.NewBidirectional(inputDim, units, rng, backend)
}

// MHAConfig configures a MultiHeadAttention layer.
type MHAConfig = nn.MHAConfig

// MultiHeadAttention is Keras-style multi-head attention.
type MultiHeadAttention[B tensor.Backend] = nn.MultiHeadAttention[B]

// NewMultiHeadAttention creates a MultiHeadAttention layer.
func NewMultiHeadAttention[B tensor.Backend](cfg MHAConfig, rng *rand.Rand, backend B) *MultiHeadAttention[B] {
	return nn.NewMultiHeadAttention(cfg, rng, backend)
}

// TransformerConfig configures a TransformerBlock.
type TransformerConfig = nn.TransformerConfig

// TransformerBlock is a pre-norm transformer encoder block.
type TransformerBlock[B tensor.Backend] = nn.TransformerBlock[B]

// NewTransformerBlock creates a TransformerBlock.
func NewTransformerBlock[B tensor.Backend](cfg TransformerConfig, rng *rand.Rand, backend B) *TransformerBlock[B] {
	return nn.NewTransformerBlock(cfg, rng, backend)
}

// PatchEncoderConfig configures a PatchEncoder.
type PatchEncoderConfig = nn.PatchEncoderConfig

// PatchEncoder adds position embeddings to a sequence of patches.
type PatchEncoder[B tensor.Backend] = nn.PatchEncoder[B]

// NewPatchEncoder creates a PatchEncoder.
func NewPatchEncoder[B tensor.Backend](cfg PatchEncoderConfig, rng *rand.Rand, backend B) *PatchEncoder[B] {
	return nn.NewPatchEncoder(cfg, rng, backend)
}

// Sequential chains modules.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a Sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}
