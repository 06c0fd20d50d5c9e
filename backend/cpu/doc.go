// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend.
//
// # Overview
//
// The backend implements every kernel the models need, including dilated
// 1D convolution with Keras "same" padding, 1D max pooling, batched matrix
// multiplication and their gradients. Large kernels split their work over
// a bounded set of goroutines, sized by JAEGER_NUM_THREADS.
//
// # Basic Usage
//
//	backend := cpu.New()
//	m, err := models.Build("res", models.InputSpec{}, models.DefaultConfig(), nil, backend)
//
// # Thread Safety
//
// The CPU backend holds no mutable state and is safe for concurrent use.
// Models and the autodiff tape are not.
package cpu
