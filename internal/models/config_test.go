package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.Vitra.Validate(cfg.Filters))
	assert.Equal(t, 22, cfg.VocabSize)
	assert.Equal(t, 512, cfg.Vitra.NumPatches)
	assert.Equal(t, PoolMax, cfg.Vitra.Pooling)
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{Filters: 16, HeadDropout: 0.2}.withDefaults()
	assert.Equal(t, 16, cfg.Filters)
	assert.Equal(t, 22, cfg.VocabSize)
	assert.Equal(t, []int{128, 128}, cfg.HeadUnits)
	assert.Equal(t, float32(0.2), cfg.HeadDropout)
	assert.Equal(t, 5, cfg.ResBlocks)
	assert.Equal(t, PoolMax, cfg.Vitra.Pooling)
	assert.Zero(t, cfg.Vitra.MLPDropout)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
filters: 64
res_blocks: 2
head_units: [32]
vitra:
  num_patches: 128
  projection_dim: 64
  att_hidden_units: [64]
  pooling: flatten
`))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Filters)
	assert.Equal(t, 2, cfg.ResBlocks)
	assert.Equal(t, []int{32}, cfg.HeadUnits)
	assert.InDelta(t, 0.1, cfg.HeadDropout, 1e-6)
	assert.Equal(t, 128, cfg.Vitra.NumPatches)
	assert.Equal(t, PoolFlatten, cfg.Vitra.Pooling)
	assert.Equal(t, 4, cfg.Vitra.NumHeads)
	require.NoError(t, cfg.Vitra.Validate(cfg.Filters))
}

func TestParseConfig_Empty(t *testing.T) {
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "filterz: 3"},
		{"bad type", "filters: many"},
		{"tiny vocab", "vocab_size: 1"},
		{"negative res blocks", "res_blocks: -1"},
		{"bad dropout", "head_dropout: 1.5"},
		{"zero head unit", "head_units: [8, 0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			require.Error(t, err)
		})
	}

	_, err := ParseConfig([]byte("vocab_size: 1"))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestVitraConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(v *VitraConfig)
		ok     bool
	}{
		{"default", func(*VitraConfig) {}, true},
		{"average pooling", func(v *VitraConfig) { v.Pooling = PoolAverage }, true},
		{"unknown pooling", func(v *VitraConfig) { v.Pooling = "sum" }, false},
		{"width mismatch", func(v *VitraConfig) { v.ProjectionDim = 64; v.AttHiddenUnits = []int{64} }, false},
		{"width mismatch embedded", func(v *VitraConfig) {
			v.ProjectionDim = 64
			v.AttHiddenUnits = []int{64}
			v.EmbedInput = true
		}, true},
		{"residual width", func(v *VitraConfig) { v.AttHiddenUnits = []int{128, 64} }, false},
		{"no heads", func(v *VitraConfig) { v.NumHeads = 0 }, false},
		{"empty mlp", func(v *VitraConfig) { v.MLPHiddenUnits = nil }, false},
		{"bad attention dropout", func(v *VitraConfig) { v.AttDropout = -0.1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := DefaultConfig().Vitra
			tt.mutate(&v)
			err := v.Validate(128)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lstm_units: 32\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.LSTMUnits)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
