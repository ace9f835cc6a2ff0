package domain

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDistance(t *testing.T) {
	d, err := NewDistance(0.42)
	require.NoError(t, err)
	assert.Equal(t, Distance(0.42), d)

	_, err = NewDistance(math.NaN())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewDistance(-0.001)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewDistance_Zero(t *testing.T) {
	d, err := NewDistance(0)
	require.NoError(t, err)
	assert.Equal(t, Distance(0), d)
}

func TestCosine_IdenticalVectors(t *testing.T) {
	v := []float32{0.3, -0.2, 0.9, 0.1}

	d, err := Cosine(v, v)

	require.NoError(t, err)
	assert.InDelta(t, 0, float64(d), 1e-6)
}

func TestCosine_SelfSimilarityNeverNegative(t *testing.T) {
	// The dot product of a vector with itself computes to a hair under
	// ‖v‖² for many inputs, putting the raw distance at roughly -1e-16.
	// That drift must snap to 0, not surface as a negative-distance error.
	rng := rand.New(rand.NewSource(42))

	for range 5000 {
		v := make([]float32, 1+rng.Intn(64))
		for i := range v {
			v[i] = rng.Float32()*2 - 1
		}

		d, err := Cosine(v, v)
		require.NoError(t, err)
		assert.InDelta(t, 0, float64(d), 1e-6)
	}
}

func TestCosine_ParallelVectors(t *testing.T) {
	a := []float32{0.3, 0.7, 0.11}
	b := []float32{0.6, 1.4, 0.22}

	d, err := Cosine(a, b)

	require.NoError(t, err)
	assert.InDelta(t, 0, float64(d), 1e-6)
}

func TestCosine_OrthogonalVectors(t *testing.T) {
	d, err := Cosine([]float32{1, 0}, []float32{0, 1})

	require.NoError(t, err)
	assert.InDelta(t, 1, float64(d), 1e-6)
}

func TestCosine_Range(t *testing.T) {
	pairs := [][2][]float32{
		{{1, 2, 3}, {3, 2, 1}},
		{{0.5, 0.5}, {0.5, 0.499}},
		{{1, 0, 0}, {1, 1, 1}},
	}

	for _, pair := range pairs {
		d, err := Cosine(pair[0], pair[1])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, float64(d), 0.0)
		assert.LessOrEqual(t, float64(d), 1.0)
	}
}

func TestCosine_DimensionMismatch(t *testing.T) {
	_, err := Cosine([]float32{1, 2}, []float32{1, 2, 3})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCosine_ZeroNormVector(t *testing.T) {
	// A zero vector makes the denominator zero and the value NaN; that is
	// a contract violation, not a distance.
	_, err := Cosine([]float32{0, 0, 0}, []float32{1, 2, 3})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCosine_OppositeVectorsOutOfRange(t *testing.T) {
	// Opposite vectors compute to 2, well past the [0, 1] contract.
	_, err := Cosine([]float32{1, 0}, []float32{-1, 0})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEuclidean(t *testing.T) {
	d, err := Euclidean([]float32{0, 0}, []float32{3, 4})

	require.NoError(t, err)
	assert.InDelta(t, 5, float64(d), 1e-6)
}

func TestEuclidean_IdenticalVectors(t *testing.T) {
	v := []float32{1.5, -2.5, 0}

	d, err := Euclidean(v, v)

	require.NoError(t, err)
	assert.Equal(t, Distance(0), d)
}

func TestEuclidean_DimensionMismatch(t *testing.T) {
	_, err := Euclidean([]float32{1}, []float32{1, 2})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
