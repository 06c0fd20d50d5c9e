// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the tensors the jaeger models
// consume and produce.
//
// The package defines:
//   - Tensor[T, B]: generic tensor over an element type and a backend
//   - RawTensor: untyped storage shared by every backend
//   - Backend: the kernel interface implemented by backend/cpu and autodiff
//   - Shape, DataType, Device and Conv1DParams
//
// Sequence tensors are channels-last, [batch, length, channels]. Token ids
// are int32; activations and weights are float32.
//
// Example:
//
//	backend := cpu.New()
//	ids := tensor.RandInt(tensor.Shape{2, 64}, 0, 22, rng, backend)
//	x := tensor.Zeros[float32](tensor.Shape{2, 64, 4}, backend)
package tensor
