package analysis

import (
	"hash/fnv"
	"math/rand/v2"

	"free-shipping-lab/internal/stats"
)

// bootstrapRand derives a per-scope generator so adding a segment does not
// change the intervals of the others.
func bootstrapRand(seed uint64, scope string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(scope))
	return rand.New(rand.NewPCG(seed^h.Sum64(), streamBootstrap))
}

// BootstrapCI returns the percentile bootstrap interval of mean(a) - mean(b).
func BootstrapCI(a, b []float64, iterations int, confidence float64, rng *rand.Rand) (low, high float64) {
	diffs := make([]float64, iterations)
	for i := range diffs {
		diffs[i] = resampleMean(a, rng) - resampleMean(b, rng)
	}
	sorted := stats.Sorted(diffs)
	tail := (1 - confidence) / 2
	return stats.Percentile(sorted, tail), stats.Percentile(sorted, 1-tail)
}

func resampleMean(x []float64, rng *rand.Rand) float64 {
	sum := 0.0
	for range x {
		sum += x[rng.IntN(len(x))]
	}
	return sum / float64(len(x))
}
