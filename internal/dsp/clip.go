package dsp

// Clip3 clamps v to [lo, hi].
func Clip3(lo, hi, v int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClipPel clamps v to the sample range of the given bit depth.
// Uses unsigned comparison for the single-branch in-range path.
func ClipPel(v int32, bitDepth int) int32 {
	hi := int32(1)<<bitDepth - 1
	if uint32(v) <= uint32(hi) {
		return v
	}
	// Negative values clamp to 0, the rest to hi.
	return ^(v >> 31) & hi
}

// CoeffRange returns the symmetric coefficient range for a dynamic range
// of dynRange bits.
func CoeffRange(dynRange int) (lo, hi int32) {
	return -(int32(1) << dynRange), int32(1)<<dynRange - 1
}

// ResidualMin and ResidualMax bound the output of the second inverse pass.
const (
	ResidualMin = -32768
	ResidualMax = 32767
)
