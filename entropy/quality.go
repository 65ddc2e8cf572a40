package entropy

import "math"

// Estimate scores how evenly byte values are spread over pool, 0..100.
// A pool holding every byte value exactly len/256 times scores 100.
// It is a uniformity heuristic, not an entropy measure.
func Estimate(pool []byte) float64 {
	if len(pool) == 0 {
		return 0
	}

	var hist [256]int
	for _, b := range pool {
		hist[b]++
	}

	expected := float64(len(pool)) / 256
	var dev float64
	for _, c := range hist {
		dev += math.Abs(float64(c) - expected)
	}

	return 100 - dev/(float64(len(pool))*256)*100
}

// ratchet raises prev by at most step, never above ceiling, never below prev,
// never above 100.
func ratchet(prev, step, ceiling float64) float64 {
	next := max(prev, min(prev+step, ceiling))
	return min(next, 100)
}
