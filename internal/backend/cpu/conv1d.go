package cpu

import (
	"fmt"

	"github.com/born-ml/jaeger/internal/tensor"
)

// conv1dDims holds the validated geometry of a Conv1D call.
type conv1dDims struct {
	batch, length, cin int
	kernel, cout       int
	outLen             int
}

func checkConv1D(name string, input, kernel *tensor.RawTensor, p tensor.Conv1DParams) conv1dDims {
	in, k := input.Shape(), kernel.Shape()
	if len(in) != 3 {
		panic(fmt.Sprintf("%s: input must be 3D [N, L, C], got %v", name, in))
	}
	if len(k) != 3 {
		panic(fmt.Sprintf("%s: kernel must be 3D [K, Cin, Cout], got %v", name, k))
	}
	if in[2] != k[1] {
		panic(fmt.Sprintf("%s: input channels %d != kernel in_channels %d", name, in[2], k[1]))
	}
	if p.Stride < 1 || p.Dilation < 1 || p.PadLeft < 0 || p.PadRight < 0 {
		panic(fmt.Sprintf("%s: invalid params %+v", name, p))
	}
	checkFloat32(name, input, kernel)

	outLen := p.OutputLength(in[1], k[0])
	if outLen < 1 {
		panic(fmt.Sprintf("%s: input length %d too short for kernel %d with dilation %d", name, in[1], k[0], p.Dilation))
	}
	return conv1dDims{
		batch: in[0], length: in[1], cin: in[2],
		kernel: k[0], cout: k[2],
		outLen: outLen,
	}
}

// Conv1D computes a dilated, strided 1D cross-correlation over channels-last input.
//
//	out[n, o, co] = Σ_k Σ_ci in[n, o·stride + k·dilation - padLeft, ci] · w[k, ci, co]
//
// Positions outside the input read as zero.
func (cpu *CPUBackend) Conv1D(input, kernel *tensor.RawTensor, p tensor.Conv1DParams) *tensor.RawTensor {
	d := checkConv1D("conv1d", input, kernel, p)

	result := tensor.MustNewRaw(tensor.Shape{d.batch, d.outLen, d.cout}, tensor.Float32, cpu.device)
	x, w, out := input.AsFloat32(), kernel.AsFloat32(), result.AsFloat32()

	cpu.forRows(d.batch*d.outLen, func(row int) {
		n, o := row/d.outLen, row%d.outLen
		acc := out[row*d.cout : (row+1)*d.cout]
		for k := 0; k < d.kernel; k++ {
			pos := o*p.Stride + k*p.Dilation - p.PadLeft
			if pos < 0 || pos >= d.length {
				continue
			}
			xRow := x[(n*d.length+pos)*d.cin : (n*d.length+pos+1)*d.cin]
			for ci, xv := range xRow {
				if xv == 0 {
					continue
				}
				wRow := w[(k*d.cin+ci)*d.cout : (k*d.cin+ci+1)*d.cout]
				for co, wv := range wRow {
					acc[co] += xv * wv
				}
			}
		}
	})
	return result
}

// Conv1DInputBackward computes dL/dinput for Conv1D.
func (cpu *CPUBackend) Conv1DInputBackward(input, kernel, grad *tensor.RawTensor, p tensor.Conv1DParams) *tensor.RawTensor {
	d := checkConv1D("conv1d_input_backward", input, kernel, p)
	if !grad.Shape().Equal(tensor.Shape{d.batch, d.outLen, d.cout}) {
		panic(fmt.Sprintf("conv1d_input_backward: grad shape %v, expected %v", grad.Shape(), []int{d.batch, d.outLen, d.cout}))
	}

	result := tensor.MustNewRaw(input.Shape(), tensor.Float32, cpu.device)
	w, g, dx := kernel.AsFloat32(), grad.AsFloat32(), result.AsFloat32()

	// Each (n, ci) pair owns one input channel of one batch element.
	cpu.forBatch(d.batch, d.cin, func(n, ci int) {
		for o := 0; o < d.outLen; o++ {
			gRow := g[(n*d.outLen+o)*d.cout : (n*d.outLen+o+1)*d.cout]
			for k := 0; k < d.kernel; k++ {
				pos := o*p.Stride + k*p.Dilation - p.PadLeft
				if pos < 0 || pos >= d.length {
					continue
				}
				wRow := w[(k*d.cin+ci)*d.cout : (k*d.cin+ci+1)*d.cout]
				var s float32
				for co, gv := range gRow {
					s += gv * wRow[co]
				}
				dx[(n*d.length+pos)*d.cin+ci] += s
			}
		}
	})
	return result
}

// Conv1DKernelBackward computes dL/dkernel for Conv1D.
func (cpu *CPUBackend) Conv1DKernelBackward(input, kernel, grad *tensor.RawTensor, p tensor.Conv1DParams) *tensor.RawTensor {
	d := checkConv1D("conv1d_kernel_backward", input, kernel, p)
	if !grad.Shape().Equal(tensor.Shape{d.batch, d.outLen, d.cout}) {
		panic(fmt.Sprintf("conv1d_kernel_backward: grad shape %v, expected %v", grad.Shape(), []int{d.batch, d.outLen, d.cout}))
	}

	result := tensor.MustNewRaw(kernel.Shape(), tensor.Float32, cpu.device)
	x, g, dw := input.AsFloat32(), grad.AsFloat32(), result.AsFloat32()

	// Each worker owns one (k, ci) row of the kernel gradient.
	cpu.forRows(d.kernel*d.cin, func(row int) {
		k, ci := row/d.cin, row%d.cin
		dwRow := dw[row*d.cout : (row+1)*d.cout]
		for n := 0; n < d.batch; n++ {
			for o := 0; o < d.outLen; o++ {
				pos := o*p.Stride + k*p.Dilation - p.PadLeft
				if pos < 0 || pos >= d.length {
					continue
				}
				xv := x[(n*d.length+pos)*d.cin+ci]
				if xv == 0 {
					continue
				}
				gRow := g[(n*d.outLen+o)*d.cout : (n*d.outLen+o+1)*d.cout]
				for co, gv := range gRow {
					dwRow[co] += xv * gv
				}
			}
		}
	})
	return result
}
