// Package models assembles the jaeger classifiers: a shared amino acid
// embedding, the convolutional tower over the six reading frames, and one of
// several classification heads.
package models

import (
	"errors"
	"fmt"
	"sort"

	"github.com/born-ml/jaeger/internal/nn"
	"github.com/born-ml/jaeger/internal/rc"
	"github.com/born-ml/jaeger/internal/tensor"
)

// Errors returned by Forward and the state helpers.
var (
	ErrMissingInput     = errors.New("missing input")
	ErrUnexpectedInput  = errors.New("unexpected input")
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrInvalidToken     = errors.New("token id out of range")
	ErrMissingWeight    = errors.New("missing weight")
	ErrUnexpectedWeight = errors.New("unexpected weight")
)

// InputSpec describes the placeholders of a model. Length 0 accepts any
// sequence length the architecture supports.
type InputSpec struct {
	Length int
}

// Input describes one named model input. Shape uses -1 for dimensions
// fixed at call time.
type Input struct {
	Name  string
	DType tensor.DataType
	Shape tensor.Shape
}

// SummaryRow describes one layer of a model.
type SummaryRow struct {
	Name        string
	Kind        string
	OutputShape tensor.Shape
	Params      int
}

// layer is one step of the head. shape maps the input shape to the output
// shape, with -1 marking unknown dimensions.
type layer[B tensor.Backend] struct {
	name   string
	kind   string
	module nn.Module[B]
	shape  func(tensor.Shape) tensor.Shape
}

// Model is an assembled classifier. It maps six [N, L] token id tensors to
// [N, NumClasses] logits.
type Model[B tensor.Backend] struct {
	name       string
	spec       InputSpec
	cfg        Config
	embedding  *nn.Embedding[B]
	tower      *rc.Tower[B]
	head       []layer[B]
	numPatches int // required tower output length, 0 for any
}

// Name returns the registry name of the model.
func (m *Model[B]) Name() string { return m.name }

// Config returns the hyperparameters the model was built with.
func (m *Model[B]) Config() Config { return m.cfg }

// Spec returns the input spec.
func (m *Model[B]) Spec() InputSpec { return m.spec }

// Inputs lists the six placeholders in view order.
func (m *Model[B]) Inputs() []Input {
	length := m.inputLength()
	inputs := make([]Input, rc.NumViews)
	for i, name := range rc.ViewNames {
		inputs[i] = Input{Name: name, DType: tensor.Int32, Shape: tensor.Shape{-1, length}}
	}
	return inputs
}

func (m *Model[B]) inputLength() int {
	switch {
	case m.spec.Length > 0:
		return m.spec.Length
	case m.numPatches > 0:
		return m.numPatches * 4
	default:
		return -1
	}
}

// Forward runs the model on the six named inputs.
func (m *Model[B]) Forward(inputs map[string]*tensor.Tensor[int32, B]) (*tensor.Tensor[float32, B], error) {
	ids, err := m.collect(inputs)
	if err != nil {
		return nil, err
	}
	x := m.tower.Forward(rc.Embed(m.embedding, ids))
	for _, l := range m.head {
		x = l.module.Forward(x)
	}
	return x, nil
}

// collect validates inputs and returns them in view order.
func (m *Model[B]) collect(inputs map[string]*tensor.Tensor[int32, B]) ([]*tensor.Tensor[int32, B], error) {
	ids := make([]*tensor.Tensor[int32, B], rc.NumViews)
	for i, name := range rc.ViewNames {
		t, ok := inputs[name]
		if !ok || t == nil {
			return nil, fmt.Errorf("%s: %w %q", m.name, ErrMissingInput, name)
		}
		ids[i] = t
	}
	if len(inputs) != rc.NumViews {
		extra := make([]string, 0, len(inputs))
		for name := range inputs {
			if !isView(name) {
				extra = append(extra, name)
			}
		}
		sort.Strings(extra)
		return nil, fmt.Errorf("%s: %w %v", m.name, ErrUnexpectedInput, extra)
	}

	shape := ids[0].Shape()
	if len(shape) != 2 || shape[0] <= 0 {
		return nil, fmt.Errorf("%s: %w: %s must be [batch, length], got %v",
			m.name, ErrShapeMismatch, rc.ViewNames[0], shape)
	}
	for i, t := range ids[1:] {
		if !t.Shape().Equal(shape) {
			return nil, fmt.Errorf("%s: %w: %s has shape %v, %s has %v",
				m.name, ErrShapeMismatch, rc.ViewNames[i+1], t.Shape(), rc.ViewNames[0], shape)
		}
	}
	if want := m.inputLength(); want > 0 && shape[1] != want {
		if m.numPatches > 0 {
			return nil, fmt.Errorf("%s: %w: expected length exactly %d (4 x %d patches; lengths %d..%d that pool to the same size are not accepted), got %d",
				m.name, ErrShapeMismatch, want, m.numPatches, want+1, want+3, shape[1])
		}
		return nil, fmt.Errorf("%s: %w: expected length %d, got %d", m.name, ErrShapeMismatch, want, shape[1])
	}
	if m.tower.OutputLength(shape[1]) < 1 {
		return nil, fmt.Errorf("%s: %w: length %d is too short for the tower", m.name, ErrShapeMismatch, shape[1])
	}

	vocab := int32(m.cfg.VocabSize)
	for i, t := range ids {
		for _, id := range t.Data() {
			if id < 0 || id >= vocab {
				return nil, fmt.Errorf("%s: %w: %s contains %d, vocabulary has %d tokens",
					m.name, ErrInvalidToken, rc.ViewNames[i], id, vocab)
			}
		}
	}
	return ids, nil
}

func isView(name string) bool {
	for _, v := range rc.ViewNames {
		if v == name {
			return true
		}
	}
	return false
}

// OutputShape returns the logits shape for a batch of the given size.
func (m *Model[B]) OutputShape(batch int) tensor.Shape {
	rows := m.Summary()
	shape := rows[len(rows)-1].OutputShape.Clone()
	shape[0] = batch
	return shape
}

// Summary lists the embedding, the tower and every head layer with output
// shapes for an unknown batch size.
func (m *Model[B]) Summary() []SummaryRow {
	length := m.inputLength()
	shape := tensor.Shape{-1, length, m.cfg.EmbedDim}
	rows := []SummaryRow{{
		Name:        "aa",
		Kind:        "Embedding",
		OutputShape: shape,
		Params:      nn.CountParameters(m.embedding.Parameters()),
	}}

	out := -1
	if length > 0 {
		out = m.tower.OutputLength(length)
	}
	shape = tensor.Shape{-1, out, m.tower.OutChannels()}
	rows = append(rows, SummaryRow{
		Name:        "tower",
		Kind:        fmt.Sprintf("Tower(%d residual blocks)", m.tower.NumResBlocks()),
		OutputShape: shape,
		Params:      nn.CountParameters(m.tower.Parameters()),
	})

	for _, l := range m.head {
		shape = l.shape(shape)
		rows = append(rows, SummaryRow{
			Name:        l.name,
			Kind:        l.kind,
			OutputShape: shape,
			Params:      nn.CountParameters(l.module.Parameters()),
		})
	}
	return rows
}

// SetTraining switches dropout and batch normalization for every layer.
func (m *Model[B]) SetTraining(training bool) {
	m.tower.SetTraining(training)
	for _, l := range m.head {
		nn.SetTraining(l.module, training)
	}
}

// Parameters returns every trainable parameter in state order.
func (m *Model[B]) Parameters() []*nn.Parameter[B] {
	params := m.embedding.Parameters()
	params = append(params, m.tower.Parameters()...)
	for _, l := range m.head {
		params = append(params, l.module.Parameters()...)
	}
	return params
}

// NumParameters returns the number of trainable scalars.
func (m *Model[B]) NumParameters() int {
	return nn.CountParameters(m.Parameters())
}

// StateDict returns every parameter and buffer, keyed by layer name.
func (m *Model[B]) StateDict() *nn.StateDict[B] {
	dst := nn.NewStateDict[B]()
	m.embedding.CollectState("aa.", dst)
	m.tower.CollectState("", dst)
	for _, l := range m.head {
		nn.CollectState(l.name+".", l.module, dst)
	}
	return dst
}

// LoadStateDict copies weights into the model. Every entry of StateDict
// must be present in src and src must not hold anything else. src is
// checked in full before anything is copied, so on error the model is
// unchanged.
func (m *Model[B]) LoadStateDict(src map[string]*tensor.RawTensor) error {
	state := m.StateDict()
	for pair := state.Oldest(); pair != nil; pair = pair.Next() {
		raw, ok := src[pair.Key]
		if !ok {
			return fmt.Errorf("%s: %w %q", m.name, ErrMissingWeight, pair.Key)
		}
		if err := pair.Value.CheckLoad(raw); err != nil {
			return fmt.Errorf("%s: load %q: %w", m.name, pair.Key, err)
		}
	}
	if len(src) != state.Len() {
		extra := make([]string, 0)
		for name := range src {
			if _, ok := state.Get(name); !ok {
				extra = append(extra, name)
			}
		}
		sort.Strings(extra)
		return fmt.Errorf("%s: %w %v", m.name, ErrUnexpectedWeight, extra)
	}

	for pair := state.Oldest(); pair != nil; pair = pair.Next() {
		if err := pair.Value.Load(src[pair.Key]); err != nil {
			return fmt.Errorf("%s: load %q: %w", m.name, pair.Key, err)
		}
	}
	return nil
}
