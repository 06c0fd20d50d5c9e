package models_test

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/jaeger/backend/cpu"
	"github.com/born-ml/jaeger/models"
	"github.com/born-ml/jaeger/tensor"
)

func smallConfig() models.Config {
	cfg := models.DefaultConfig()
	cfg.Filters = 8
	cfg.ResBlocks = 1
	cfg.HeadUnits = []int{4}
	return cfg
}

func inputs(b *cpu.Backend) map[string]*tensor.Tensor[int32, *cpu.Backend] {
	rng := rand.New(rand.NewSource(3)) //nolint:gosec // deterministic tests
	out := make(map[string]*tensor.Tensor[int32, *cpu.Backend])
	for _, name := range models.InputNames {
		out[name] = tensor.RandInt(tensor.Shape{2, 16}, 0, 22, rng, b)
	}
	return out
}

func TestSaveLoad(t *testing.T) {
	b := cpu.New()
	src, err := models.Build("res", models.InputSpec{}, smallConfig(), rand.New(rand.NewSource(1)), b) //nolint:gosec // deterministic tests
	require.NoError(t, err)
	dst, err := models.Build("res", models.InputSpec{}, smallConfig(), rand.New(rand.NewSource(2)), b) //nolint:gosec // deterministic tests
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "res.safetensors")
	require.NoError(t, models.Save(path, src, models.SaveOptions{}))
	require.NoError(t, models.Load(path, dst))

	want, err := src.Forward(inputs(b))
	require.NoError(t, err)
	got, err := dst.Forward(inputs(b))
	require.NoError(t, err)
	assert.Equal(t, want.Data(), got.Data())
}

func TestSaveLoad_Float16(t *testing.T) {
	b := cpu.New()
	src, err := models.Build("baseline", models.InputSpec{}, smallConfig(), rand.New(rand.NewSource(1)), b) //nolint:gosec // deterministic tests
	require.NoError(t, err)
	dst, err := models.Build("baseline", models.InputSpec{}, smallConfig(), nil, b)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "baseline.safetensors")
	require.NoError(t, models.Save(path, src, models.SaveOptions{Float16: true}))
	require.NoError(t, models.Load(path, dst))

	want, err := src.Forward(inputs(b))
	require.NoError(t, err)
	got, err := dst.Forward(inputs(b))
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.Data(), got.Data(), 0.05)
}

func TestLoad_WrongModel(t *testing.T) {
	b := cpu.New()
	res, err := models.Build("res", models.InputSpec{}, smallConfig(), nil, b)
	require.NoError(t, err)
	wres, err := models.Build("wres", models.InputSpec{}, smallConfig(), nil, b)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "res.safetensors")
	require.NoError(t, models.Save(path, res, models.SaveOptions{}))
	require.ErrorIs(t, models.Load(path, wres), models.ErrInvalidConfig)

	lstm, err := models.Build("lstm", models.InputSpec{}, smallConfig(), nil, b)
	require.NoError(t, err)
	require.NoError(t, models.Save(path, lstm, models.SaveOptions{}))
	require.Error(t, models.Load(path, res))
}

func TestLoad_MismatchLeavesModelUnchanged(t *testing.T) {
	b := cpu.New()
	src, err := models.Build("res", models.InputSpec{}, smallConfig(), rand.New(rand.NewSource(1)), b) //nolint:gosec // deterministic tests
	require.NoError(t, err)
	wide := smallConfig()
	wide.Filters = 12
	dst, err := models.Build("res", models.InputSpec{}, wide, rand.New(rand.NewSource(2)), b) //nolint:gosec // deterministic tests
	require.NoError(t, err)

	before, err := dst.Forward(inputs(b))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "res.safetensors")
	require.NoError(t, models.Save(path, src, models.SaveOptions{}))
	err = models.Load(path, dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shape mismatch")

	after, err := dst.Forward(inputs(b))
	require.NoError(t, err)
	assert.Equal(t, before.Data(), after.Data())
}

func TestBuild_Public(t *testing.T) {
	assert.Len(t, models.Names(), 5)
	_, err := models.Build("bassline", models.InputSpec{}, smallConfig(), nil, cpu.New())
	require.ErrorIs(t, err, models.ErrUnknownModel)
}
