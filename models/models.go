// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package models builds the jaeger classifiers and moves their weights in
// and out of SafeTensors files.
//
// Every model takes six int32 inputs, the forward_1..3 and reverse_1..3
// reading frames of a sequence, each [batch, length], and returns
// [batch, 4] logits.
//
// Example:
//
//	backend := cpu.New()
//	m, err := models.Build("res", models.InputSpec{}, models.DefaultConfig(), rng, backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logits, err := m.Forward(map[string]*tensor.Tensor[int32, *cpu.Backend]{
//	    "forward_1": f1, "forward_2": f2, "forward_3": f3,
//	    "reverse_1": r1, "reverse_2": r2, "reverse_3": r3,
//	})
package models

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/jaeger/internal/models"
	"github.com/born-ml/jaeger/internal/rc"
	"github.com/born-ml/jaeger/internal/serialization"
	"github.com/born-ml/jaeger/tensor"
)

// Errors returned by Build, Forward and Load.
var (
	ErrUnknownModel     = models.ErrUnknownModel
	ErrInvalidConfig    = models.ErrInvalidConfig
	ErrMissingInput     = models.ErrMissingInput
	ErrUnexpectedInput  = models.ErrUnexpectedInput
	ErrShapeMismatch    = models.ErrShapeMismatch
	ErrInvalidToken     = models.ErrInvalidToken
	ErrMissingWeight    = models.ErrMissingWeight
	ErrUnexpectedWeight = models.ErrUnexpectedWeight
)

// InputNames are the six model inputs in order.
var InputNames = rc.ViewNames

// Model is an assembled classifier.
type Model[B tensor.Backend] = models.Model[B]

// InputSpec fixes the input length; zero accepts any supported length.
type InputSpec = models.InputSpec

// Config holds the hyperparameters of every architecture.
type Config = models.Config

// VitraConfig holds the transformer hyperparameters.
type VitraConfig = models.VitraConfig

// SummaryRow describes one layer in Model.Summary.
type SummaryRow = models.SummaryRow

// DefaultConfig returns the published hyperparameters.
func DefaultConfig() Config {
	return models.DefaultConfig()
}

// LoadConfig reads YAML hyperparameters over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	return models.LoadConfig(path)
}

// Names returns the available architectures.
func Names() []string {
	return models.Names()
}

// Build assembles the named architecture: baseline, res, wres, lstm or vitra.
func Build[B tensor.Backend](name string, spec InputSpec, cfg Config, rng *rand.Rand, backend B) (*Model[B], error) {
	return models.Build(name, spec, cfg, rng, backend)
}

// SaveOptions configures Save.
type SaveOptions struct {
	// Float16 stores weights in half precision.
	Float16 bool
}

// Save writes the state dict of m to path in SafeTensors format.
func Save[B tensor.Backend](path string, m *Model[B], opts SaveOptions) error {
	return serialization.WriteFile(path, serialization.StateTensors(m.StateDict()), serialization.WriteOptions{
		Float16:  opts.Float16,
		Metadata: serialization.NewMetadata(m.Name()),
	})
}

// Load reads weights written by Save into m. The file must hold exactly
// the tensors of m's state dict.
func Load[B tensor.Backend](path string, m *Model[B]) error {
	f, err := serialization.ReadFile(path)
	if err != nil {
		return err
	}
	if name := f.Metadata[serialization.MetaModel]; name != "" && name != m.Name() {
		return fmt.Errorf("%w: %s holds %q weights, not %q", ErrInvalidConfig, path, name, m.Name())
	}
	return m.LoadStateDict(f.Map())
}
