package models

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned for hyperparameters no assembler can build.
var ErrInvalidConfig = errors.New("invalid model config")

// Pooling modes for the Vitra representation.
const (
	PoolMax     = "max"
	PoolAverage = "average"
	PoolFlatten = "flatten"
)

// Config holds the hyperparameters of every assembler. Zero sizes are
// replaced by the defaults; rates are used as given, so start from
// DefaultConfig when building configs in code.
type Config struct {
	VocabSize   int     `yaml:"vocab_size"`   // token alphabet including padding id 0
	EmbedDim    int     `yaml:"embed_dim"`    // width of the shared embedding
	Filters     int     `yaml:"filters"`      // channels of the convolutional tower
	ResBlocks   int     `yaml:"res_blocks"`   // residual blocks in every tower but the baseline's
	HeadUnits   []int   `yaml:"head_units"`   // GELU dense layers of the classification head
	HeadDropout float32 `yaml:"head_dropout"` // dropout before each head dense layer
	NumClasses  int     `yaml:"num_classes"`  // output logits
	LSTMUnits   int     `yaml:"lstm_units"`   // units per direction in the LSTM model

	Vitra VitraConfig `yaml:"vitra"`
}

// VitraConfig holds the transformer hyperparameters of the Vitra model.
type VitraConfig struct {
	NumPatches        int     `yaml:"num_patches"` // tower output length; the input length is 4x this
	TransformerLayers int     `yaml:"transformer_layers"`
	NumHeads          int     `yaml:"num_heads"`
	AttDropout        float32 `yaml:"att_dropout"`
	ProjectionDim     int     `yaml:"projection_dim"` // model width and per-head key width
	AttHiddenUnits    []int   `yaml:"att_hidden_units"`
	MLPHiddenUnits    []int   `yaml:"mlp_hidden_units"`
	MLPDropout        float32 `yaml:"mlp_dropout"`
	Pooling           string  `yaml:"pooling"`           // max, average or flatten
	EmbedInput        bool    `yaml:"embed_input"`       // project tower features to ProjectionDim
	LearnedPositions  bool    `yaml:"learned_positions"` // trainable instead of sinusoid positions
}

// DefaultConfig returns the published hyperparameters.
func DefaultConfig() Config {
	return Config{
		VocabSize:   22,
		EmbedDim:    4,
		Filters:     128,
		ResBlocks:   5,
		HeadUnits:   []int{128, 128},
		HeadDropout: 0.1,
		NumClasses:  4,
		LSTMUnits:   128,
		Vitra: VitraConfig{
			NumPatches:        512,
			TransformerLayers: 4,
			NumHeads:          4,
			AttDropout:        0.1,
			ProjectionDim:     128,
			AttHiddenUnits:    []int{128, 128},
			MLPHiddenUnits:    []int{128, 128},
			MLPDropout:        0.1,
			Pooling:           PoolMax,
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Unknown keys are errors.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// withDefaults fills zero sizes from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	setInt(&c.VocabSize, d.VocabSize)
	setInt(&c.EmbedDim, d.EmbedDim)
	setInt(&c.Filters, d.Filters)
	setInt(&c.ResBlocks, d.ResBlocks)
	setInt(&c.NumClasses, d.NumClasses)
	setInt(&c.LSTMUnits, d.LSTMUnits)
	if len(c.HeadUnits) == 0 {
		c.HeadUnits = d.HeadUnits
	}

	v, dv := &c.Vitra, d.Vitra
	setInt(&v.NumPatches, dv.NumPatches)
	setInt(&v.TransformerLayers, dv.TransformerLayers)
	setInt(&v.NumHeads, dv.NumHeads)
	setInt(&v.ProjectionDim, dv.ProjectionDim)
	if len(v.AttHiddenUnits) == 0 {
		v.AttHiddenUnits = dv.AttHiddenUnits
	}
	if len(v.MLPHiddenUnits) == 0 {
		v.MLPHiddenUnits = dv.MLPHiddenUnits
	}
	if v.Pooling == "" {
		v.Pooling = dv.Pooling
	}
	return c
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

// Validate checks the settings shared by every assembler. The Vitra
// section is checked by VitraConfig.Validate when a Vitra model is built.
func (c Config) Validate() error {
	switch {
	case c.VocabSize < 2:
		return fmt.Errorf("%w: vocab_size must be at least 2, got %d", ErrInvalidConfig, c.VocabSize)
	case c.EmbedDim <= 0 || c.Filters <= 0 || c.NumClasses <= 0 || c.LSTMUnits <= 0:
		return fmt.Errorf("%w: embed_dim, filters, num_classes and lstm_units must be positive", ErrInvalidConfig)
	case c.ResBlocks < 0:
		return fmt.Errorf("%w: res_blocks must not be negative, got %d", ErrInvalidConfig, c.ResBlocks)
	}
	if err := checkUnits("head_units", c.HeadUnits); err != nil {
		return err
	}
	if err := checkRate("head_dropout", c.HeadDropout); err != nil {
		return err
	}
	return nil
}

// Validate checks the Vitra settings against the tower width.
func (v VitraConfig) Validate(filters int) error {
	switch {
	case v.NumPatches <= 0 || v.NumHeads <= 0 || v.ProjectionDim <= 0:
		return fmt.Errorf("%w: vitra num_patches, num_heads and projection_dim must be positive", ErrInvalidConfig)
	case v.TransformerLayers < 0:
		return fmt.Errorf("%w: vitra transformer_layers must not be negative", ErrInvalidConfig)
	case v.Pooling != PoolMax && v.Pooling != PoolAverage && v.Pooling != PoolFlatten:
		return fmt.Errorf("%w: vitra pooling must be %q, %q or %q, got %q",
			ErrInvalidConfig, PoolMax, PoolAverage, PoolFlatten, v.Pooling)
	case !v.EmbedInput && filters != v.ProjectionDim:
		return fmt.Errorf("%w: vitra projection_dim %d must equal filters %d unless embed_input is set",
			ErrInvalidConfig, v.ProjectionDim, filters)
	}
	if err := checkUnits("vitra att_hidden_units", v.AttHiddenUnits); err != nil {
		return err
	}
	if last := v.AttHiddenUnits[len(v.AttHiddenUnits)-1]; last != v.ProjectionDim {
		return fmt.Errorf("%w: last vitra att_hidden_units entry %d must equal projection_dim %d for the residual",
			ErrInvalidConfig, last, v.ProjectionDim)
	}
	if err := checkUnits("vitra mlp_hidden_units", v.MLPHiddenUnits); err != nil {
		return err
	}
	for name, r := range map[string]float32{"vitra att_dropout": v.AttDropout, "vitra mlp_dropout": v.MLPDropout} {
		if err := checkRate(name, r); err != nil {
			return err
		}
	}
	return nil
}

func checkUnits(name string, units []int) error {
	if len(units) == 0 {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidConfig, name)
	}
	for _, u := range units {
		if u <= 0 {
			return fmt.Errorf("%w: %s entries must be positive, got %v", ErrInvalidConfig, name, units)
		}
	}
	return nil
}

func checkRate(name string, r float32) error {
	if r < 0 || r >= 1 {
		return fmt.Errorf("%w: %s must be in [0, 1), got %g", ErrInvalidConfig, name, r)
	}
	return nil
}
