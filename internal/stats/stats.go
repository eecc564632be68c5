// Package stats provides descriptive statistics over latency samples.
package stats

import (
	"math"
	"sort"
)

// Mean calculates the arithmetic mean. Returns 0 for an empty slice.
func Mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

// Median calculates the median. Returns 0 for an empty slice.
func Median(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	sorted := sortedCopy(samples)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// StdDev calculates the sample standard deviation. Returns 0 for fewer
// than two samples.
func StdDev(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}

	mean := Mean(samples)
	sumSq := 0.0
	for _, s := range samples {
		d := s - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(samples)-1))
}

// Min returns the smallest sample. Returns 0 for an empty slice.
func Min(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	min := samples[0]
	for _, s := range samples[1:] {
		if s < min {
			min = s
		}
	}
	return min
}

// Max returns the largest sample. Returns 0 for an empty slice.
func Max(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	max := samples[0]
	for _, s := range samples[1:] {
		if s > max {
			max = s
		}
	}
	return max
}

// Percentile calculates the p-th percentile (0-100) using linear
// interpolation between order statistics. Returns 0 for an empty
// slice.
func Percentile(samples []float64, p float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return Min(samples)
	}
	if p >= 100 {
		return Max(samples)
	}

	sorted := sortedCopy(samples)
	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

func sortedCopy(samples []float64) []float64 {
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)
	return sorted
}
