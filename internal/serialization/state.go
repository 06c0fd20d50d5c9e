package serialization

import (
	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/born-ml/jaeger/internal/nn"
	"github.com/born-ml/jaeger/internal/tensor"
)

// FormatName is stored under MetaFormat in files written for jaeger models.
const FormatName = "jaeger"

// StateTensors returns the raw tensors of a state dict in its order.
func StateTensors[B tensor.Backend](state *nn.StateDict[B]) *Tensors {
	out := orderedmap.New[string, *tensor.RawTensor](state.Len())
	for pair := state.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value.Tensor().Raw())
	}
	return out
}

// NewMetadata returns the metadata written with a model: format, model name
// and a fresh run id.
func NewMetadata(model string) map[string]string {
	return map[string]string{
		MetaFormat: FormatName,
		MetaModel:  model,
		MetaRunID:  uuid.NewString(),
	}
}
