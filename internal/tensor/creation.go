package tensor

import "math/rand"

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err)
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var one T
	switch p := any(&one).(type) {
	case *float32:
		*p = 1
	case *int32:
		*p = 1
	case *bool:
		*p = true
	}
	return Full[T, B](shape, one, b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Arange creates a 1-D int32 tensor [start, start+1, ..., end-1].
func Arange[B Backend](start, end int, b B) *Tensor[int32, B] {
	if end <= start {
		panic("arange: end must be greater than start")
	}
	t := Zeros[int32, B](Shape{end - start}, b)
	data := t.Data()
	for i := range data {
		data[i] = int32(start + i)
	}
	return t
}

// Uniform creates a float32 tensor with values drawn from U(low, high).
// A nil rng uses the package-level source.
//
// Note: Uses math/rand (not crypto/rand), which is appropriate for weight init.
func Uniform[B Backend](shape Shape, low, high float32, rng *rand.Rand, b B) *Tensor[float32, B] {
	t := Zeros[float32, B](shape, b)
	data := t.Data()
	span := float64(high - low)
	for i := range data {
		data[i] = low + float32(float64Of(rng)*span)
	}
	return t
}

// Normal creates a float32 tensor with values drawn from N(mean, std²).
// A nil rng uses the package-level source.
func Normal[B Backend](shape Shape, mean, std float32, rng *rand.Rand, b B) *Tensor[float32, B] {
	t := Zeros[float32, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = mean + std*float32(normOf(rng))
	}
	return t
}

// Randn creates a float32 tensor drawn from the standard normal distribution.
func Randn[B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[float32, B] {
	return Normal(shape, 0, 1, rng, b)
}

// RandInt creates an int32 tensor with values drawn uniformly from [low, high).
func RandInt[B Backend](shape Shape, low, high int32, rng *rand.Rand, b B) *Tensor[int32, B] {
	if high <= low {
		panic("randint: high must be greater than low")
	}
	t := Zeros[int32, B](shape, b)
	data := t.Data()
	n := int(high - low)
	for i := range data {
		data[i] = low + int32(intnOf(rng, n))
	}
	return t
}

// Eye creates a 2-D float32 identity matrix.
func Eye[B Backend](n int, b B) *Tensor[float32, B] {
	t := Zeros[float32, B](Shape{n, n}, b)
	data := t.Data()
	for i := 0; i < n; i++ {
		data[i*n+i] = 1
	}
	return t
}

func float64Of(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.Float64() //nolint:gosec // weight init, not crypto
	}
	return rng.Float64()
}

func normOf(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.NormFloat64() //nolint:gosec // weight init, not crypto
	}
	return rng.NormFloat64()
}

func intnOf(rng *rand.Rand, n int) int {
	if rng == nil {
		return rand.Intn(n) //nolint:gosec // synthetic inputs, not crypto
	}
	return rng.Intn(n)
}
