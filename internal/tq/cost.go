package tq

// SSE returns the sum of squared differences of two equally sized sample
// blocks.
func SSE(a, b []int32) uint64 {
	var sum uint64
	for i, v := range a {
		d := int64(v) - int64(b[i])
		sum += uint64(d * d)
	}
	return sum
}

// Cost combines a sample-domain distortion with a rate in 1/256 bit into
// the fixed-point Lagrangian dist*2^16 + fracBits*lambda, lambda being in
// 1/256 units. Comparisons of costs are exact integer comparisons.
func Cost(dist, fracBits uint64, lambda int64) uint64 {
	return dist<<16 + fracBits*uint64(lambda)
}
