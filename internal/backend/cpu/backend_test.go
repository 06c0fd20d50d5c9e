package cpu

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/jaeger/internal/parallel"
	"github.com/born-ml/jaeger/internal/tensor"
)

func TestCPUBackend_Metadata(t *testing.T) {
	backend := New()
	assert.Equal(t, "CPU", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
}

func TestAdd_Broadcast(t *testing.T) {
	backend := New()
	a := rawFrom(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := rawFrom(t, []float32{10, 20, 30}, tensor.Shape{3})

	out := backend.Add(a, b)
	require.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, out.AsFloat32())

	// Inputs must be untouched.
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, a.AsFloat32())
}

func TestBinaryOps_SameShape(t *testing.T) {
	backend := New()
	a := rawFrom(t, []float32{6, 8}, tensor.Shape{2})
	b := rawFrom(t, []float32{2, 4}, tensor.Shape{2})

	assert.Equal(t, []float32{4, 4}, backend.Sub(a, b).AsFloat32())
	assert.Equal(t, []float32{12, 32}, backend.Mul(a, b).AsFloat32())
	assert.Equal(t, []float32{3, 2}, backend.Div(a, b).AsFloat32())
}

func TestBinary_IncompatibleShapesPanic(t *testing.T) {
	backend := New()
	a := tensor.MustNewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	b := tensor.MustNewRaw(tensor.Shape{4}, tensor.Float32, tensor.CPU)
	assert.Panics(t, func() { backend.Add(a, b) })
}

func TestReshape_IsView(t *testing.T) {
	backend := New()
	a := rawFrom(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	r := backend.Reshape(a, tensor.Shape{3, 2})

	assert.Equal(t, tensor.Shape{3, 2}, r.Shape())
	assert.Equal(t, a.AsFloat32(), r.AsFloat32())
	assert.NotSame(t, a, r)
	assert.Panics(t, func() { backend.Reshape(a, tensor.Shape{4, 2}) })
}

func TestTranspose(t *testing.T) {
	backend := New()
	a := rawFrom(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	out := backend.Transpose(a)
	require.Equal(t, tensor.Shape{3, 2}, out.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, out.AsFloat32())

	// [1, 2, 3] with axes (1, 0, 2) -> [2, 1, 3]
	b := rawFrom(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{1, 2, 3})
	perm := backend.Transpose(b, 1, 0, 2)
	assert.Equal(t, tensor.Shape{2, 1, 3}, perm.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, perm.AsFloat32())
}

func TestMatMul(t *testing.T) {
	backend := New()
	a := rawFrom(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := rawFrom(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	out := backend.MatMul(a, b)
	require.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float32{58, 64, 139, 154}, out.AsFloat32())
	assert.Panics(t, func() { backend.MatMul(a, a) })
}

func TestBatchMatMul(t *testing.T) {
	backend := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 2, MinChunkSize: 1})
	// Two batches of [1, 2] @ [2, 1].
	a := rawFrom(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 1, 2})
	b := rawFrom(t, []float32{1, 1, 2, 2}, tensor.Shape{2, 2, 1})

	out := backend.BatchMatMul(a, b)
	require.Equal(t, tensor.Shape{2, 1, 1}, out.Shape())
	assert.Equal(t, []float32{3, 14}, out.AsFloat32())
}

func TestSoftmax(t *testing.T) {
	backend := New()
	x := rawFrom(t, []float32{1, 2, 3, 1000, 1000, 1000}, tensor.Shape{2, 3})
	out := backend.Softmax(x, -1).AsFloat32()

	var sum float32
	for _, v := range out[:3] {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.Less(t, out[0], out[1])
	for _, v := range out[3:] {
		assert.InDelta(t, 1.0/3.0, v, 1e-6)
	}
}

func TestSoftmax_MiddleDim(t *testing.T) {
	backend := New()
	x := rawFrom(t, []float32{0, 0, 0, 0}, tensor.Shape{1, 2, 2})
	out := backend.Softmax(x, 1).AsFloat32()
	for _, v := range out {
		assert.InDelta(t, 0.5, v, 1e-6)
	}
}

func TestActivations(t *testing.T) {
	backend := New()
	x := rawFrom(t, []float32{-1, 0, 1}, tensor.Shape{3})

	assert.Equal(t, []float32{0, 0, 1}, backend.ReLU(x).AsFloat32())

	sig := backend.Sigmoid(x).AsFloat32()
	assert.InDelta(t, 0.2689414, sig[0], 1e-6)
	assert.InDelta(t, 0.5, sig[1], 1e-6)

	th := backend.Tanh(x).AsFloat32()
	assert.InDelta(t, math.Tanh(1), th[2], 1e-6)

	// Exact GELU reference values.
	g := backend.GELU(x).AsFloat32()
	assert.InDelta(t, -0.15865526, g[0], 1e-6)
	assert.InDelta(t, 0.0, g[1], 1e-7)
	assert.InDelta(t, 0.84134474, g[2], 1e-6)
}

func TestMathOps(t *testing.T) {
	backend := New()
	x := rawFrom(t, []float32{1, 4}, tensor.Shape{2})

	assert.InDeltaSlice(t, []float32{1, 2}, backend.Sqrt(x).AsFloat32(), 1e-6)
	assert.InDeltaSlice(t, []float32{1, 0.5}, backend.Rsqrt(x).AsFloat32(), 1e-6)
	assert.InDeltaSlice(t, []float32{float32(math.E), float32(math.Exp(4))}, backend.Exp(x).AsFloat32(), 1e-3)
	assert.InDeltaSlice(t, []float32{0, float32(math.Log(4))}, backend.Log(x).AsFloat32(), 1e-6)
	assert.Equal(t, []float32{3, 12}, backend.MulScalar(x, 3).AsFloat32())
	assert.Equal(t, []float32{0.5, 3.5}, backend.AddScalar(x, -0.5).AsFloat32())
}

func TestReductions(t *testing.T) {
	backend := New()
	x := rawFrom(t, []float32{1, 5, 3, 4, 2, 6}, tensor.Shape{2, 3})

	sum := backend.SumDim(x, 1, false)
	assert.Equal(t, tensor.Shape{2}, sum.Shape())
	assert.Equal(t, []float32{9, 12}, sum.AsFloat32())

	mean := backend.MeanDim(x, 0, true)
	assert.Equal(t, tensor.Shape{1, 3}, mean.Shape())
	assert.Equal(t, []float32{2.5, 3.5, 4.5}, mean.AsFloat32())

	mx := backend.MaxDim(x, -1, false)
	assert.Equal(t, []float32{5, 6}, mx.AsFloat32())

	arg := backend.Argmax(x, 1)
	assert.Equal(t, tensor.Int32, arg.DType())
	assert.Equal(t, []int32{1, 2}, arg.AsInt32())
}

func TestMaxPool1D(t *testing.T) {
	backend := New()
	// [1, 5, 2]: channel 0 = 1..5, channel 1 = 5..1
	x := rawFrom(t, []float32{1, 5, 2, 4, 3, 3, 4, 2, 5, 1}, tensor.Shape{1, 5, 2})

	out := backend.MaxPool1D(x, 2, 2)
	require.Equal(t, tensor.Shape{1, 2, 2}, out.Shape())
	assert.Equal(t, []float32{2, 5, 4, 3}, out.AsFloat32())

	grad := rawFrom(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 2, 2})
	dx := backend.MaxPool1DBackward(x, grad, 2, 2)
	// Gradient lands on the max of each window; the trailing position gets none.
	assert.Equal(t, []float32{0, 1, 1, 0, 0, 1, 1, 0, 0, 0}, dx.AsFloat32())

	assert.Panics(t, func() { backend.MaxPool1D(x, 6, 6) })
}

func TestMaxPool1DBackward_OverlappingWindows(t *testing.T) {
	backend := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1})
	// [1, 4, 1]: 1 3 2 0, windows of 2 with stride 1 share position 1.
	x := rawFrom(t, []float32{1, 3, 2, 0}, tensor.Shape{1, 4, 1})
	grad := rawFrom(t, []float32{1, 10, 100}, tensor.Shape{1, 3, 1})

	dx := backend.MaxPool1DBackward(x, grad, 2, 1)
	assert.Equal(t, []float32{0, 11, 100, 0}, dx.AsFloat32())
}

func TestBackwardKernels_ParallelMatchesSequential(t *testing.T) {
	seq := NewWithConfig(parallel.Config{})
	par := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1})
	rng := rand.New(rand.NewSource(11)) //nolint:gosec // deterministic tests

	x := randRaw(rng, tensor.Shape{3, 10, 5})
	k := randRaw(rng, tensor.Shape{3, 5, 4})
	p := tensor.Conv1DParams{Stride: 1, Dilation: 2, PadLeft: 2, PadRight: 2}
	g := randRaw(rng, tensor.Shape{3, 10, 4})
	assert.Equal(t, seq.Conv1DInputBackward(x, k, g, p).AsFloat32(), par.Conv1DInputBackward(x, k, g, p).AsFloat32())
	assert.Equal(t, seq.Conv1DKernelBackward(x, k, g, p).AsFloat32(), par.Conv1DKernelBackward(x, k, g, p).AsFloat32())

	pg := randRaw(rng, tensor.Shape{3, 8, 5})
	assert.Equal(t, seq.MaxPool1DBackward(x, pg, 3, 1).AsFloat32(), par.MaxPool1DBackward(x, pg, 3, 1).AsFloat32())
}

func TestNotEqualScalar(t *testing.T) {
	backend := New()

	x := rawFrom(t, []float32{0, 1.5, 0, -2}, tensor.Shape{2, 2})
	out := backend.NotEqualScalar(x, 0)
	require.Equal(t, tensor.Bool, out.DType())
	require.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []bool{false, true, false, true}, out.AsBool())

	ids := tensor.MustNewRaw(tensor.Shape{5}, tensor.Int32, tensor.CPU)
	copy(ids.AsInt32(), []int32{0, 4, 21, 0, 4})
	assert.Equal(t, []bool{true, false, true, true, false}, backend.NotEqualScalar(ids, 4).AsBool())

	mask := tensor.MustNewRaw(tensor.Shape{1}, tensor.Bool, tensor.CPU)
	assert.Panics(t, func() { backend.NotEqualScalar(mask, 0) })
}

func TestCatNarrowChunk(t *testing.T) {
	backend := New()
	a := rawFrom(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := rawFrom(t, []float32{5, 6}, tensor.Shape{2, 1})

	c := backend.Cat([]*tensor.RawTensor{a, b}, 1)
	require.Equal(t, tensor.Shape{2, 3}, c.Shape())
	assert.Equal(t, []float32{1, 2, 5, 3, 4, 6}, c.AsFloat32())

	n := backend.Narrow(c, 1, 1, 2)
	assert.Equal(t, tensor.Shape{2, 2}, n.Shape())
	assert.Equal(t, []float32{2, 5, 4, 6}, n.AsFloat32())

	parts := backend.Chunk(a, 2, 0)
	require.Len(t, parts, 2)
	assert.Equal(t, []float32{1, 2}, parts[0].AsFloat32())
	assert.Equal(t, []float32{3, 4}, parts[1].AsFloat32())

	assert.Panics(t, func() { backend.Chunk(c, 2, 1) })
	assert.Panics(t, func() { backend.Narrow(c, 1, 2, 2) })
}

func TestSqueezeUnsqueezeExpand(t *testing.T) {
	backend := New()
	a := rawFrom(t, []float32{1, 2}, tensor.Shape{2})

	u := backend.Unsqueeze(a, 0)
	assert.Equal(t, tensor.Shape{1, 2}, u.Shape())
	assert.Equal(t, tensor.Shape{2}, backend.Squeeze(u, 0).Shape())
	assert.Panics(t, func() { backend.Squeeze(a, 0) })

	e := backend.Expand(u, tensor.Shape{3, 2})
	assert.Equal(t, []float32{1, 2, 1, 2, 1, 2}, e.AsFloat32())
	assert.Panics(t, func() { backend.Expand(a, tensor.Shape{3}) })
}

func TestEmbedding(t *testing.T) {
	backend := New()
	weight := rawFrom(t, []float32{0, 0, 1, 1, 2, 2}, tensor.Shape{3, 2})
	idx := tensor.MustNewRaw(tensor.Shape{1, 3}, tensor.Int32, tensor.CPU)
	copy(idx.AsInt32(), []int32{2, 0, 1})

	out := backend.Embedding(weight, idx)
	require.Equal(t, tensor.Shape{1, 3, 2}, out.Shape())
	assert.Equal(t, []float32{2, 2, 0, 0, 1, 1}, out.AsFloat32())

	idx.AsInt32()[0] = 3
	assert.Panics(t, func() { backend.Embedding(weight, idx) })
}
