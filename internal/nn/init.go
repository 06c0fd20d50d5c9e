package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/jaeger/internal/tensor"
)

// GlorotUniform draws from U(-limit, limit) with limit = sqrt(6/(fanIn+fanOut)).
// This is the Keras default for Dense and LSTM input kernels.
func GlorotUniform[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	limit := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	return tensor.Uniform(shape, -limit, limit, rng, backend)
}

// HeUniform draws from U(-limit, limit) with limit = sqrt(6/fanIn).
func HeUniform[B tensor.Backend](fanIn int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	limit := float32(math.Sqrt(6.0 / float64(fanIn)))
	return tensor.Uniform(shape, -limit, limit, rng, backend)
}

// Orthogonal returns a [rows, cols] matrix with orthonormal rows or columns
// (whichever is fewer), built from the QR decomposition of a Gaussian matrix.
// The signs of R's diagonal are folded into Q so the result is uniformly
// distributed.
func Orthogonal[B tensor.Backend](rows, cols int, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	n, m := max(rows, cols), min(rows, cols)
	a := mat.NewDense(n, m, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			a.Set(i, j, normFloat(rng))
		}
	}

	var qr mat.QR
	qr.Factorize(a)
	var q, r mat.Dense
	qr.QTo(&q)
	qr.RTo(&r)

	out := tensor.Zeros[float32](tensor.Shape{rows, cols}, backend)
	data := out.Data()
	for j := 0; j < m; j++ {
		sign := 1.0
		if r.At(j, j) < 0 {
			sign = -1
		}
		for i := 0; i < n; i++ {
			v := float32(sign * q.At(i, j))
			if rows >= cols {
				data[i*cols+j] = v
			} else {
				data[j*cols+i] = v
			}
		}
	}
	return out
}

func normFloat(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.NormFloat64() //nolint:gosec // weight init, not crypto
	}
	return rng.NormFloat64()
}
