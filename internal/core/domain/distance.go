package domain

import (
	"fmt"
	"math"
)

// Distance is a dissimilarity score between two vectors: non-negative,
// never NaN, totally ordered. 0 means identical, larger means less similar.
type Distance float64

// NewDistance validates a raw value as a Distance. NaN and negative values
// are numeric contract violations, not inputs to be clamped.
func NewDistance(v float64) (Distance, error) {
	if math.IsNaN(v) {
		return 0, fmt.Errorf("%w: distance is NaN", ErrInvalidInput)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: distance %v is negative", ErrInvalidInput, v)
	}
	return Distance(v), nil
}

// Metric computes the distance between two equal-dimensionality vectors.
type Metric func(a, b []float32) (Distance, error)

// Cosine returns the cosine distance 1 - (a.b)/(|a||b|), bounded to [0, 1].
// A zero-norm vector produces NaN and is reported as an error rather than
// silently repaired.
func Cosine(a, b []float32) (Distance, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: vector dimensions differ (%d vs %d)", ErrInvalidInput, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	v := 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))

	// Floating error can push the value a hair outside [0, 1] on either
	// side: parallel vectors routinely compute to -1e-16 or so. Snap
	// drift within the tolerance back to the boundary; anything further
	// out violates the metric contract.
	const epsilon = 1e-6
	if v > 1+epsilon {
		return 0, fmt.Errorf("%w: cosine distance %v outside [0, 1]", ErrInvalidInput, v)
	}
	if v < 0 && v >= -epsilon {
		v = 0
	}

	d, err := NewDistance(v)
	if err != nil {
		return 0, fmt.Errorf("cosine distance: %w", err)
	}
	if d > 1 {
		d = 1
	}
	return d, nil
}

// Euclidean returns sqrt(sum((a_i - b_i)^2)), bounded to [0, inf).
func Euclidean(a, b []float32) (Distance, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: vector dimensions differ (%d vs %d)", ErrInvalidInput, len(a), len(b))
	}

	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}

	d, err := NewDistance(math.Sqrt(sum))
	if err != nil {
		return 0, fmt.Errorf("euclidean distance: %w", err)
	}
	return d, nil
}
