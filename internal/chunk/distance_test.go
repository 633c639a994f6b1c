package chunk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarityIdenticalVectorsIsOne(t *testing.T) {
	a := []float64{1, 2, 3}
	got := DistanceFn{Kind: Cosine}.Calculate(a, a)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestCosineSimilarityOrthogonalVectorsIsZero(t *testing.T) {
	got := DistanceFn{Kind: Cosine}.Calculate([]float64{1, 0}, []float64{0, 1})
	assert.InDelta(t, 0.0, got, 1e-9)
}

func TestEuclideanDistanceZeroForIdenticalVectors(t *testing.T) {
	a := []float64{1, 2, 3}
	got := DistanceFn{Kind: Euclidean}.Calculate(a, a)
	assert.InDelta(t, 0.0, got, 1e-9)
}

func TestManhattanDistance(t *testing.T) {
	got := DistanceFn{Kind: Manhattan}.Calculate([]float64{0, 0}, []float64{3, 4})
	assert.InDelta(t, 7.0, got, 1e-9)
}

func TestChebyshevDistance(t *testing.T) {
	got := DistanceFn{Kind: Chebyshev}.Calculate([]float64{0, 0, 0}, []float64{1, 5, 2})
	assert.InDelta(t, 5.0, got, 1e-9)
}

func TestDotProductDistance(t *testing.T) {
	got := DistanceFn{Kind: DotProduct}.Calculate([]float64{1, 2, 3}, []float64{4, 5, 6})
	assert.InDelta(t, 32.0, got, 1e-9)
}

func TestMinkowskiDistanceMatchesEuclideanAtP2(t *testing.T) {
	a := []float64{0, 0}
	b := []float64{3, 4}
	got := DistanceFn{Kind: Minkowski, MinkowskiP: 2}.Calculate(a, b)
	assert.InDelta(t, 5.0, got, 1e-9)
}

func TestAngularDistanceZeroForIdenticalDirection(t *testing.T) {
	got := DistanceFn{Kind: Angular}.Calculate([]float64{2, 0}, []float64{5, 0})
	assert.InDelta(t, 0.0, got, 1e-9)
}

func TestAngularDistanceOneForOppositeDirection(t *testing.T) {
	got := DistanceFn{Kind: Angular}.Calculate([]float64{1, 0}, []float64{-1, 0})
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestParallelSumMatchesSequentialSum(t *testing.T) {
	n := 10000
	got := parallelSum(n, func(i int) float64 { return float64(i) })

	var want float64
	for i := 0; i < n; i++ {
		want += float64(i)
	}
	assert.InDelta(t, want, got, math.Abs(want)*1e-9+1e-6)
}
