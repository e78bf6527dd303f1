package dsp

// Forward DCT-II partial butterflies.
//
// Every size is built from the same even/odd decomposition: the even half
// of an N-point transform is the N/2-point transform of the folded sums
// x[n]+x[N-1-n], the odd half multiplies the folded differences by the odd
// rows of the N-point matrix. The matrix rows are exactly symmetric or
// antisymmetric, so the butterflies agree bit for bit with ForwardMM.

// roundShift returns (v + rounding) >> shift with the fixed rounding rule
// of all kernels: add 1<<(shift-1) when shift is positive.
func roundShift(v int64, shift int) int64 {
	if shift <= 0 {
		return v
	}
	return (v + int64(1)<<(shift-1)) >> shift
}

// fwdDCT2Core computes the unscaled N-point DCT-II of x into out for the
// first `rows` output rows. x and out hold N entries.
func fwdDCT2Core(log2 int, x, out []int64, rows int) {
	switch log2 {
	case 1:
		out[0] = 64 * (x[0] + x[1])
		if rows > 1 {
			out[1] = 64 * (x[0] - x[1])
		}
		return
	case 2:
		e0, e1 := x[0]+x[3], x[1]+x[2]
		o0, o1 := x[0]-x[3], x[1]-x[2]
		out[0] = 64 * (e0 + e1)
		out[1] = 83*o0 + 36*o1
		out[2] = 64 * (e0 - e1)
		out[3] = 36*o0 - 83*o1
		return
	}

	n := 1 << log2
	half := n >> 1
	var e, o, eo [MaxSize / 2]int64
	for i := 0; i < half; i++ {
		e[i] = x[i] + x[n-1-i]
		o[i] = x[i] - x[n-1-i]
	}
	evenRows := (rows + 1) >> 1
	fwdDCT2Core(log2-1, e[:half], eo[:half], evenRows)
	for k := 0; k < evenRows; k++ {
		out[2*k] = eo[k]
	}

	m := &dct2Matrices[log2]
	for k := 1; k < rows; k += 2 {
		row := m.C[k*n : k*n+half]
		var sum int64
		for i, c := range row {
			sum += int64(c) * o[i]
		}
		out[k] = sum
	}
}

// fwdDCT2 runs the N-point butterfly over `line` input vectors.
func fwdDCT2(log2 int, src, dst []int32, shift, line, skipLine, skipLine2 int) {
	n := 1 << log2
	active := line - skipLine
	rows := n - skipLine2

	var x, out [MaxSize]int64
	for j := 0; j < active; j++ {
		in := src[j*n : j*n+n]
		for i, v := range in {
			x[i] = int64(v)
		}
		fwdDCT2Core(log2, x[:n], out[:n], rows)
		for k := 0; k < rows; k++ {
			dst[k*line+j] = int32(roundShift(out[k], shift))
		}
	}
	zeroForwardTail(dst, n, line, active, rows)
}

// zeroForwardTail clears the skipped input lines of every computed row and
// every skipped frequency row of a [N][line] forward output.
func zeroForwardTail(dst []int32, n, line, active, rows int) {
	if active < line {
		for k := 0; k < rows; k++ {
			clear(dst[k*line+active : (k+1)*line])
		}
	}
	if rows < n {
		clear(dst[rows*line : n*line])
	}
}

func fwdDCT2B2(src, dst []int32, shift, line, skipLine, skipLine2 int) {
	fwdDCT2(1, src, dst, shift, line, skipLine, skipLine2)
}

func fwdDCT2B4(src, dst []int32, shift, line, skipLine, skipLine2 int) {
	fwdDCT2(2, src, dst, shift, line, skipLine, skipLine2)
}

func fwdDCT2B8(src, dst []int32, shift, line, skipLine, skipLine2 int) {
	fwdDCT2(3, src, dst, shift, line, skipLine, skipLine2)
}

func fwdDCT2B16(src, dst []int32, shift, line, skipLine, skipLine2 int) {
	fwdDCT2(4, src, dst, shift, line, skipLine, skipLine2)
}

func fwdDCT2B32(src, dst []int32, shift, line, skipLine, skipLine2 int) {
	fwdDCT2(5, src, dst, shift, line, skipLine, skipLine2)
}

func fwdDCT2B64(src, dst []int32, shift, line, skipLine, skipLine2 int) {
	fwdDCT2(6, src, dst, shift, line, skipLine, skipLine2)
}

func fwdDCT2B128(src, dst []int32, shift, line, skipLine, skipLine2 int) {
	fwdDCT2(7, src, dst, shift, line, skipLine, skipLine2)
}
