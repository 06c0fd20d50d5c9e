package cpu

import (
	"fmt"

	"github.com/born-ml/jaeger/internal/tensor"
)

func maxPool1DOutLen(name string, input *tensor.RawTensor, poolSize, stride int) int {
	shape := input.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("%s: input must be 3D [N, L, C], got %v", name, shape))
	}
	if poolSize < 1 || stride < 1 {
		panic(fmt.Sprintf("%s: invalid pool size %d / stride %d", name, poolSize, stride))
	}
	if shape[1] < poolSize {
		panic(fmt.Sprintf("%s: input length %d shorter than pool size %d", name, shape[1], poolSize))
	}
	checkFloat32(name, input)
	return (shape[1]-poolSize)/stride + 1
}

// MaxPool1D takes the maximum over windows of the length axis (valid padding).
func (cpu *CPUBackend) MaxPool1D(input *tensor.RawTensor, poolSize, stride int) *tensor.RawTensor {
	outLen := maxPool1DOutLen("maxpool1d", input, poolSize, stride)
	shape := input.Shape()
	batch, length, channels := shape[0], shape[1], shape[2]

	result := tensor.MustNewRaw(tensor.Shape{batch, outLen, channels}, tensor.Float32, cpu.device)
	x, out := input.AsFloat32(), result.AsFloat32()

	cpu.forRows(batch*outLen, func(row int) {
		n, o := row/outLen, row%outLen
		dst := out[row*channels : (row+1)*channels]
		start := n*length + o*stride
		copy(dst, x[start*channels:(start+1)*channels])
		for j := 1; j < poolSize; j++ {
			src := x[(start+j)*channels : (start+j+1)*channels]
			for c, v := range src {
				if v > dst[c] {
					dst[c] = v
				}
			}
		}
	})
	return result
}

// MaxPool1DBackward routes each output gradient to the first position that
// held the window maximum.
func (cpu *CPUBackend) MaxPool1DBackward(input, grad *tensor.RawTensor, poolSize, stride int) *tensor.RawTensor {
	outLen := maxPool1DOutLen("maxpool1d_backward", input, poolSize, stride)
	shape := input.Shape()
	batch, length, channels := shape[0], shape[1], shape[2]
	if !grad.Shape().Equal(tensor.Shape{batch, outLen, channels}) {
		panic(fmt.Sprintf("maxpool1d_backward: grad shape %v, expected %v", grad.Shape(), []int{batch, outLen, channels}))
	}

	result := tensor.MustNewRaw(shape, tensor.Float32, cpu.device)
	x, g, dx := input.AsFloat32(), grad.AsFloat32(), result.AsFloat32()

	// Windows may overlap when stride < poolSize, so each worker owns a
	// whole (n, c) column.
	cpu.forBatch(batch, channels, func(n, c int) {
		for o := 0; o < outLen; o++ {
			start := n*length + o*stride
			best := start
			for j := 1; j < poolSize; j++ {
				if x[(start+j)*channels+c] > x[best*channels+c] {
					best = start + j
				}
			}
			dx[best*channels+c] += g[(n*outLen+o)*channels+c]
		}
	})
	return result
}
