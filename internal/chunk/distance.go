package chunk

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DistanceKind names one of the similarity/distance functions the semantic
// chunker can use to decide whether two sentence groups belong together.
type DistanceKind string

const (
	Cosine     DistanceKind = "cosine"
	Euclidean  DistanceKind = "euclidean"
	Manhattan  DistanceKind = "manhattan"
	Angular    DistanceKind = "angular"
	Chebyshev  DistanceKind = "chebyshev"
	DotProduct DistanceKind = "dot_product"
	Minkowski  DistanceKind = "minkowski"
)

// DistanceFn pairs a distance kind with the parameter Minkowski needs. Cosine
// and DotProduct grow as vectors become more similar; the distance-shaped
// kinds (Euclidean, Manhattan, Angular, Chebyshev, Minkowski) return 0 for
// identical vectors and grow as they diverge. Callers always compare against
// a threshold with ">=", so the caller picks a threshold consistent with the
// chosen kind (see DESIGN.md's open-question decisions).
type DistanceFn struct {
	Kind       DistanceKind
	MinkowskiP int
}

// Calculate evaluates the configured distance function over a and b, which
// must be the same length (the shorter length is used otherwise).
func (d DistanceFn) Calculate(a, b []float64) float64 {
	switch d.Kind {
	case Euclidean:
		return euclideanDistance(a, b)
	case Manhattan:
		return manhattanDistance(a, b)
	case Angular:
		return angularDistance(a, b)
	case Chebyshev:
		return chebyshevDistance(a, b)
	case DotProduct:
		return dotProductDistance(a, b)
	case Minkowski:
		return minkowskiDistance(a, b, d.MinkowskiP)
	case Cosine:
		fallthrough
	default:
		return cosineSimilarity(a, b)
	}
}

func minLen(a, b []float64) int {
	if len(a) < len(b) {
		return len(a)
	}
	return len(b)
}

// parallelSum splits the reduction of f over [0, n) across CPU cores,
// mirroring the rayon par_iter().sum() pattern the distance functions use in
// the original implementation.
func parallelSum(n int, f func(i int) float64) float64 {
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		var sum float64
		for i := 0; i < n; i++ {
			sum += f(i)
		}
		return sum
	}

	chunkSize := (n + workers - 1) / workers
	partials := make([]float64, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			start := w * chunkSize
			end := start + chunkSize
			if end > n {
				end = n
			}
			var sum float64
			for i := start; i < end; i++ {
				sum += f(i)
			}
			partials[w] = sum
			return nil
		})
	}
	_ = g.Wait()

	var total float64
	for _, p := range partials {
		total += p
	}
	return total
}

func cosineSimilarity(a, b []float64) float64 {
	n := minLen(a, b)
	if n == 0 {
		return 0
	}
	dot := parallelSum(n, func(i int) float64 { return a[i] * b[i] })
	magA := math.Sqrt(parallelSum(n, func(i int) float64 { return a[i] * a[i] }))
	magB := math.Sqrt(parallelSum(n, func(i int) float64 { return b[i] * b[i] }))
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (magA * magB)
}

func euclideanDistance(a, b []float64) float64 {
	n := minLen(a, b)
	sum := parallelSum(n, func(i int) float64 {
		d := a[i] - b[i]
		return d * d
	})
	return math.Sqrt(sum)
}

func manhattanDistance(a, b []float64) float64 {
	n := minLen(a, b)
	return parallelSum(n, func(i int) float64 { return math.Abs(a[i] - b[i]) })
}

// angularDistance returns the normalized angular distance in [0, 1], where 0
// means identical direction. Like the other distance-shaped kinds here, the
// semantic chunker still compares it against its threshold with ">=" — the
// caller is responsible for choosing a threshold consistent with the kind.
func angularDistance(a, b []float64) float64 {
	cos := cosineSimilarity(a, b)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) / math.Pi
}

func chebyshevDistance(a, b []float64) float64 {
	n := minLen(a, b)
	var max float64
	for i := 0; i < n; i++ {
		if d := math.Abs(a[i] - b[i]); d > max {
			max = d
		}
	}
	return max
}

func dotProductDistance(a, b []float64) float64 {
	n := minLen(a, b)
	return parallelSum(n, func(i int) float64 { return a[i] * b[i] })
}

func minkowskiDistance(a, b []float64, p int) float64 {
	if p <= 0 {
		p = 3
	}
	n := minLen(a, b)
	sum := parallelSum(n, func(i int) float64 {
		return math.Pow(math.Abs(a[i]-b[i]), float64(p))
	})
	return math.Pow(sum, 1.0/float64(p))
}
