// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/born-ml/jaeger/internal/tensor"
)

// DType is a constraint for tensor element types: float32, int32 and bool.
type DType = tensor.DType

// DataType represents the runtime element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Int32   DataType = tensor.Int32
	Bool    DataType = tensor.Bool
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// CPU is the only device the models run on.
const CPU Device = tensor.CPU

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// RawTensor is the low-level, untyped tensor representation.
type RawTensor = tensor.RawTensor

// Backend is the interface every compute backend implements.
type Backend = tensor.Backend

// Conv1DParams holds the stride, dilation and padding of a 1D convolution.
type Conv1DParams = tensor.Conv1DParams

// Tensor is a generic type-safe tensor.
//
// T is the element type and B the backend. Wrap the backend with
// autodiff.New to record operations for differentiation.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T, B](shape, b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// Arange creates the int32 tensor [start, start+1, ..., end-1].
func Arange[B Backend](start, end int, b B) *Tensor[int32, B] {
	return tensor.Arange(start, end, b)
}

// Randn creates a tensor drawn from N(0, 1). A nil rng uses the global source.
func Randn[B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[float32, B] {
	return tensor.Randn(shape, rng, b)
}

// Uniform creates a tensor drawn from U(low, high).
func Uniform[B Backend](shape Shape, low, high float32, rng *rand.Rand, b B) *Tensor[float32, B] {
	return tensor.Uniform(shape, low, high, rng, b)
}

// RandInt creates an int32 tensor drawn uniformly from [low, high), for
// example random token ids.
func RandInt[B Backend](shape Shape, low, high int32, rng *rand.Rand, b B) *Tensor[int32, B] {
	return tensor.RandInt(shape, low, high, rng, b)
}

// FromSlice creates a tensor from a Go slice.
//
// Example:
//
//	ids, err := tensor.FromSlice([]int32{1, 5, 0, 0}, tensor.Shape{1, 4}, backend)
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice(data, shape, b)
}

// New wraps a raw tensor.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// NewRaw creates a zero-filled raw tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// Cat concatenates tensors along a dimension.
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	return tensor.Cat(tensors, dim)
}

// SamePadding returns Keras "same" convolution parameters for length l and
// kernel size k: the output length is ceil(l / stride).
func SamePadding(l, k, stride, dilation int) Conv1DParams {
	return tensor.SamePadding(l, k, stride, dilation)
}

// ValidPadding returns unpadded convolution parameters.
func ValidPadding(stride, dilation int) Conv1DParams {
	return tensor.ValidPadding(stride, dilation)
}

// BroadcastShapes computes the NumPy broadcast of two shapes.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
