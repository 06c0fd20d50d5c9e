// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// It wraps any backend and records operations on a gradient tape while
// recording is enabled.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	m, _ := models.Build("lstm", models.InputSpec{}, models.DefaultConfig(), rng, backend)
//
//	backend.Tape().StartRecording()
//	logits, _ := m.Forward(inputs)
//	grads := autodiff.Backward(logits.Mul(logits), backend)
package autodiff

import (
	"github.com/born-ml/jaeger/internal/autodiff"
	"github.com/born-ml/jaeger/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// BackwardCapable interface for backends that support backpropagation.
type BackwardCapable = autodiff.BackwardCapable

// Backward computes the gradients of t with respect to every recorded input.
// The result is keyed by the inputs' raw tensors.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}
