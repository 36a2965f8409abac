package ivf

import (
	"github.com/viant/vec/search"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// DistanceFunc computes the distance between two vectors with known magnitudes.
// Smaller values are nearer.
type DistanceFunc func(a, b []float32, ma, mb float32) float64

// Function resolves the distance implementation of a metric.
func Function(metric domain.Metric) DistanceFunc {
	switch metric {
	case domain.MetricL2:
		return SquaredEuclidean
	case domain.MetricIP:
		return NegatedInnerProduct
	case domain.MetricCosine:
		return CosineDistance
	default:
		return nil
	}
}

// Magnitude returns the Euclidean norm of v.
func Magnitude(v []float32) float32 {
	return search.Float32s(v).Magnitude()
}

// SquaredEuclidean returns the squared L2 distance.
func SquaredEuclidean(a, b []float32, _, _ float32) float64 {
	d := float64(search.Float32s(a).EuclideanDistance(b))
	return d * d
}

// CosineDistance returns one minus the cosine similarity, using the
// precomputed magnitudes. Zero vectors are at distance 1 from everything.
func CosineDistance(a, b []float32, ma, mb float32) float64 {
	if ma == 0 || mb == 0 {
		return 1
	}
	return 1 - dot(a, b)/(float64(ma)*float64(mb))
}

// NegatedInnerProduct returns the negated dot product.
func NegatedInnerProduct(a, b []float32, _, _ float32) float64 {
	return -dot(a, b)
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
