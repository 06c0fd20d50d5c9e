package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/jaeger/internal/autodiff"
	"github.com/born-ml/jaeger/internal/backend/cpu"
	"github.com/born-ml/jaeger/internal/tensor"
)

type adBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newBackend() adBackend {
	return autodiff.New(cpu.New())
}

func vec(b adBackend, data []float32, shape ...int) *tensor.Tensor[float32, adBackend] {
	return tensor.MustFromSlice(data, tensor.Shape(shape), b)
}

func TestAutodiffBackend_Metadata(t *testing.T) {
	b := newBackend()
	assert.Equal(t, "Autodiff(CPU)", b.Name())
	assert.Equal(t, tensor.CPU, b.Device())
	assert.NotNil(t, b.Inner())
}

func TestTape_Recording(t *testing.T) {
	b := newBackend()
	tape := b.Tape()

	assert.False(t, tape.IsRecording())
	tape.StartRecording()
	assert.True(t, tape.IsRecording())
	tape.StopRecording()
	assert.False(t, tape.IsRecording())
}

func TestTape_Clear(t *testing.T) {
	b := newBackend()
	tape := b.Tape()
	tape.StartRecording()

	vec(b, []float32{1, 2}, 2).Add(vec(b, []float32{3, 4}, 2))
	require.Equal(t, 1, tape.NumOps())

	tape.Clear()
	assert.Equal(t, 0, tape.NumOps())
	assert.True(t, tape.IsRecording(), "Clear keeps the recording state")
}

func TestAutodiffBackend_NoRecording(t *testing.T) {
	b := newBackend()
	vec(b, []float32{1, 2}, 2).Mul(vec(b, []float32{3, 4}, 2))
	assert.Equal(t, 0, b.Tape().NumOps())
}

func TestAutodiffBackend_ArgmaxNotRecorded(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()
	idx := vec(b, []float32{1, 5, 2}, 1, 3).Argmax(1)
	assert.Equal(t, []int32{1}, idx.Data())
	assert.Equal(t, 0, b.Tape().NumOps())
}

func TestNoGrad(t *testing.T) {
	b := newBackend()
	tape := b.Tape()
	tape.StartRecording()

	vec(b, []float32{1}, 1).Add(vec(b, []float32{2}, 1))
	before := tape.NumOps()

	b.NoGrad(func() {
		assert.False(t, tape.IsRecording())
		vec(b, []float32{1}, 1).Mul(vec(b, []float32{2}, 1))
	})
	assert.Equal(t, before, tape.NumOps())
	assert.True(t, tape.IsRecording())

	tape.StopRecording()
	b.NoGrad(func() {})
	assert.False(t, tape.IsRecording(), "NoGrad restores a stopped tape as stopped")
}

func TestBackward_PanicsWithoutOps(t *testing.T) {
	b := newBackend()
	x := vec(b, []float32{1}, 1)
	assert.Panics(t, func() { autodiff.Backward(x, b) })
}

func TestBackward_Square(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := vec(b, []float32{2, -3}, 2)
	y := x.Mul(x)
	grads := autodiff.Backward(y, b)

	assert.InDeltaSlice(t, []float32{4, -6}, grads[x.Raw()].AsFloat32(), 1e-6)
}

func TestBackward_ChainRule(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	// z = (x + y) * x, dz/dx = 2x + y, dz/dy = x
	x := vec(b, []float32{3}, 1)
	y := vec(b, []float32{4}, 1)
	z := x.Add(y).Mul(x)
	grads := autodiff.Backward(z, b)

	assert.InDelta(t, 10, grads[x.Raw()].AsFloat32()[0], 1e-6)
	assert.InDelta(t, 3, grads[y.Raw()].AsFloat32()[0], 1e-6)
}

func TestBackward_SeedsRequestedOutput(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := vec(b, []float32{2}, 1)
	y := x.MulScalar(3)
	_ = x.Exp() // recorded after y, unrelated

	grads := autodiff.Backward(y, b)
	assert.InDelta(t, 3, grads[x.Raw()].AsFloat32()[0], 1e-6)
}

func TestBackward_BroadcastAdd(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := vec(b, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	bias := vec(b, []float32{0, 0, 0}, 3)
	grads := autodiff.Backward(x.Add(bias), b)

	assert.Equal(t, tensor.Shape{3}, grads[bias.Raw()].Shape())
	assert.InDeltaSlice(t, []float32{2, 2, 2}, grads[bias.Raw()].AsFloat32(), 1e-6)
}

func TestBackward_Chunk(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := vec(b, []float32{1, 2, 3, 4}, 1, 4)
	parts := x.Chunk(2, 1)
	y := parts[1].MulScalar(5)
	grads := autodiff.Backward(y, b)

	assert.InDeltaSlice(t, []float32{0, 0, 5, 5}, grads[x.Raw()].AsFloat32(), 1e-6)
}

func TestBackward_Embedding(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	w := vec(b, []float32{1, 1, 2, 2, 3, 3}, 3, 2)
	ids := tensor.MustFromSlice([]int32{2, 0, 2}, tensor.Shape{3}, b)
	out := w.Embedding(ids)
	grads := autodiff.Backward(out, b)

	assert.InDeltaSlice(t, []float32{1, 1, 0, 0, 2, 2}, grads[w.Raw()].AsFloat32(), 1e-6)
}

func TestDetach(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := vec(b, []float32{2}, 1)
	d := x.Detach()
	assert.NotSame(t, x.Raw(), d.Raw())
	assert.Equal(t, x.Data(), d.Data())

	y := d.Mul(d)
	grads := autodiff.Backward(y, b)
	_, ok := grads[x.Raw()]
	assert.False(t, ok, "detached tensor cuts the graph")
}
