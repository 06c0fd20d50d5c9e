package tensor

// Conv1DParams describes a dilated, strided 1D convolution with explicit
// zero padding on each side of the length axis.
type Conv1DParams struct {
	Stride   int
	Dilation int
	PadLeft  int
	PadRight int
}

// OutputLength returns the convolved length for an input of length l and
// kernel size k.
func (p Conv1DParams) OutputLength(l, k int) int {
	span := l + p.PadLeft + p.PadRight - ((k-1)*p.Dilation + 1)
	if span < 0 {
		return 0
	}
	return span/p.Stride + 1
}

// Backend defines the interface that all compute backends must implement.
//
// Sequence tensors are channels-last: [batch, length, channels]. Convolution
// kernels are laid out as [kernel, in_channels, out_channels].
type Backend interface {
	// Element-wise binary operations (NumPy broadcasting)
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations
	MatMul(a, b *RawTensor) *RawTensor

	// BatchMatMul performs batched matrix multiplication for 3D/4D tensors.
	// For 3D: [B, M, K] @ [B, K, N] -> [B, M, N]
	// For 4D: [B, H, M, K] @ [B, H, K, N] -> [B, H, M, N]
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Convolution and pooling over [N, L, C] inputs, with the kernels their
	// backward passes need.
	Conv1D(input, kernel *RawTensor, p Conv1DParams) *RawTensor
	Conv1DInputBackward(input, kernel, grad *RawTensor, p Conv1DParams) *RawTensor
	Conv1DKernelBackward(input, kernel, grad *RawTensor, p Conv1DParams) *RawTensor
	MaxPool1D(input *RawTensor, poolSize, stride int) *RawTensor
	MaxPool1DBackward(input, grad *RawTensor, poolSize, stride int) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar operations (element-wise with scalar)
	MulScalar(x *RawTensor, scalar float32) *RawTensor
	AddScalar(x *RawTensor, scalar float32) *RawTensor

	// Comparison operations (bool result, not differentiable)
	NotEqualScalar(x *RawTensor, scalar float32) *RawTensor

	// Math operations (element-wise)
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor
	Rsqrt(x *RawTensor) *RawTensor

	// Activation functions
	Tanh(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	ReLU(x *RawTensor) *RawTensor
	GELU(x *RawTensor) *RawTensor // exact (erf) form
	Softmax(x *RawTensor, dim int) *RawTensor

	// Reduction operations
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MaxDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	Argmax(x *RawTensor, dim int) *RawTensor // int32 indices, dim removed

	// Manipulation operations
	Cat(tensors []*RawTensor, dim int) *RawTensor
	Chunk(x *RawTensor, n, dim int) []*RawTensor
	Narrow(x *RawTensor, dim, start, length int) *RawTensor
	Unsqueeze(x *RawTensor, dim int) *RawTensor
	Squeeze(x *RawTensor, dim int) *RawTensor
	Expand(x *RawTensor, shape Shape) *RawTensor

	// Indexing operations
	Embedding(weight, indices *RawTensor) *RawTensor

	// Metadata
	Name() string
	Device() Device
}

// SamePadding returns parameters that reproduce Keras padding='same': the
// output length is ceil(l/stride) and the extra zero on an odd total pad goes
// to the right.
func SamePadding(l, k, stride, dilation int) Conv1DParams {
	out := (l + stride - 1) / stride
	total := max((out-1)*stride+(k-1)*dilation+1-l, 0)
	return Conv1DParams{
		Stride:   stride,
		Dilation: dilation,
		PadLeft:  total / 2,
		PadRight: total - total/2,
	}
}

// ValidPadding returns parameters for an unpadded convolution.
func ValidPadding(stride, dilation int) Conv1DParams {
	return Conv1DParams{Stride: stride, Dilation: dilation}
}
