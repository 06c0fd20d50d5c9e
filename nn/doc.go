// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn exposes the layers the jaeger models are assembled from.
//
// Layers are generic over the backend, channels-last, and use Keras
// defaults for initializers, epsilons and momentum so that state dict
// names and shapes match Keras checkpoints of the same models:
//
//	conv := nn.NewConv1D(nn.Conv1DConfig{InChannels: 4, Filters: 128, KernelSize: 9}, rng, backend)
//	bn := nn.NewBatchNorm1D(128, backend)
//	y := bn.Forward(conv.Forward(x).GELU())
//
// Constructors and Forward panic on invalid sizes or shapes, with messages
// prefixed by the layer name. Layers default to inference mode; use
// SetTraining to enable dropout and batch statistics.
package nn
