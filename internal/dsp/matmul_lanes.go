package dsp

// Lane kernels evaluate 4 or 8 transform lines per iteration with 32-bit
// accumulators, the layout a vectorising compiler or hand-written SIMD
// maps onto one register per matrix coefficient. They are only selected
// for inputs of at most 10 bits, where no 32-bit intermediate can
// overflow, and for matrix-based kernels no wider than MaxLaneSize.

// MaxLaneSize is the largest transform size served by lane kernels.
const MaxLaneSize = 32

// laneWidth is the number of lines per lane iteration, 0 when lane kernels
// are disabled. Set once by initLanes.
var laneWidth int

func initLanes() { laneWidth = detectLanes() }

// LaneWidth reports the lane width chosen for this CPU (0, 4 or 8).
func LaneWidth() int { return laneWidth }

func laneMatrix(d Descriptor) *Matrix {
	if laneWidth == 0 || d.Size() > MaxLaneSize {
		return nil
	}
	switch {
	case d.Basis == DST7 && d.SizeLog2 >= 3:
		return &dst7Matrices[d.SizeLog2]
	case d.Basis == KLT && !d.HighPrecision:
		return &kltMatrices[d.SizeLog2]
	}
	return nil
}

func laneForward(d Descriptor) FwdFunc {
	m := laneMatrix(d)
	if m == nil {
		return nil
	}
	w := laneWidth
	return func(src, dst []int32, shift, line, skipLine, skipLine2 int) {
		forwardLanes(m, w, src, dst, shift, line, skipLine, skipLine2)
	}
}

func laneInverse(d Descriptor) InvFunc {
	m := laneMatrix(d)
	if m == nil {
		return nil
	}
	w := laneWidth
	return func(src, dst []int32, shift, line, skipLine, skipLine2 int, outMin, outMax int32) {
		inverseLanes(m, w, src, dst, shift, line, skipLine, skipLine2, outMin, outMax)
	}
}

func roundShift32(v int32, shift int) int32 {
	if shift <= 0 {
		return v
	}
	return (v + int32(1)<<(shift-1)) >> shift
}

func clip32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// forwardLanes is ForwardMM over groups of `lanes` lines. Lines left over
// after the last full group run one at a time.
func forwardLanes(m *Matrix, lanes int, src, dst []int32, shift, line, skipLine, skipLine2 int) {
	n := m.N
	active := line - skipLine
	rows := n - skipLine2

	j := 0
	var acc [8]int32
	for ; j+lanes <= active; j += lanes {
		for k := 0; k < rows; k++ {
			row := m.C[k*n : k*n+n]
			clear(acc[:lanes])
			for i, c := range row {
				for l := 0; l < lanes; l++ {
					acc[l] += c * src[(j+l)*n+i]
				}
			}
			out := dst[k*line+j : k*line+j+lanes]
			for l := range out {
				out[l] = roundShift32(acc[l], shift)
			}
		}
	}
	for ; j < active; j++ {
		in := src[j*n : j*n+n]
		for k := 0; k < rows; k++ {
			var sum int32
			for i, c := range m.C[k*n : k*n+n] {
				sum += c * in[i]
			}
			dst[k*line+j] = roundShift32(sum, shift)
		}
	}
	zeroForwardTail(dst, n, line, active, rows)
}

// inverseLanes is InverseMM over groups of `lanes` columns.
func inverseLanes(m *Matrix, lanes int, src, dst []int32, shift, line, skipLine, skipLine2 int, outMin, outMax int32) {
	n := m.N
	active := line - skipLine
	rows := n - skipLine2

	var acc [8][MaxLaneSize]int32
	j := 0
	for ; j+lanes <= active; j += lanes {
		for l := 0; l < lanes; l++ {
			clear(acc[l][:n])
		}
		for k := 0; k < rows; k++ {
			row := m.C[k*n : k*n+n]
			coef := src[k*line+j : k*line+j+lanes]
			for i, c := range row {
				for l, ck := range coef {
					acc[l][i] += c * ck
				}
			}
		}
		for l := 0; l < lanes; l++ {
			res := dst[(j+l)*n : (j+l)*n+n]
			for i := range res {
				res[i] = clip32(roundShift32(acc[l][i], shift), outMin, outMax)
			}
		}
	}
	for ; j < active; j++ {
		sums := acc[0][:n]
		clear(sums)
		for k := 0; k < rows; k++ {
			ck := src[k*line+j]
			for i, c := range m.C[k*n : k*n+n] {
				sums[i] += c * ck
			}
		}
		res := dst[j*n : j*n+n]
		for i := range res {
			res[i] = clip32(roundShift32(sums[i], shift), outMin, outMax)
		}
	}
	clear(dst[active*n : line*n])
}
