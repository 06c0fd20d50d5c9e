package models

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/born-ml/jaeger/internal/tensor"
)

// ErrUnknownModel is returned by Build for names not in the registry.
var ErrUnknownModel = errors.New("unknown model")

// names lists the registered models in presentation order.
var names = []string{"baseline", "res", "wres", "lstm", "vitra"}

var descriptions = map[string]string{
	"baseline": "convolutional tower without residual blocks, max pooled dense head",
	"res":      "tower with residual blocks, max pooled dense head",
	"wres":     "tower with residual blocks minus skip connections, max pooled dense head",
	"lstm":     "tower with residual blocks read by a bidirectional LSTM",
	"vitra":    "tower with residual blocks feeding a transformer encoder over patches",
}

// Names returns the registered model names.
func Names() []string {
	return append([]string(nil), names...)
}

// Describe returns a one-line description of a registered model.
func Describe(name string) string {
	return descriptions[name]
}

// Build assembles the named model. Names are matched case-insensitively.
func Build[B tensor.Backend](name string, spec InputSpec, cfg Config, rng *rand.Rand, backend B) (*Model[B], error) {
	switch strings.ToLower(name) {
	case "baseline":
		return Baseline(spec, cfg, rng, backend)
	case "res":
		return Res(spec, cfg, rng, backend)
	case "wres":
		return WRes(spec, cfg, rng, backend)
	case "lstm":
		return LSTM(spec, cfg, rng, backend)
	case "vitra":
		return Vitra(spec, cfg, rng, backend)
	}
	if s := suggest(name); s != "" {
		return nil, fmt.Errorf("%w %q, did you mean %q?", ErrUnknownModel, name, s)
	}
	return nil, fmt.Errorf("%w %q, available: %s", ErrUnknownModel, name, strings.Join(names, ", "))
}

// suggest returns the closest registered name within two edits.
func suggest(name string) string {
	best, bestDist := "", 3
	for _, n := range names {
		if d := levenshtein.ComputeDistance(strings.ToLower(name), n); d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}
