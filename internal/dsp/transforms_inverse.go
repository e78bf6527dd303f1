package dsp

// invDCT2Core reconstructs N unscaled samples from the first `rows`
// coefficients of c; the remaining coefficients are treated as zero.
func invDCT2Core(log2 int, c, out []int64, rows int) {
	switch log2 {
	case 1:
		c1 := int64(0)
		if rows > 1 {
			c1 = c[1]
		}
		out[0] = 64 * (c[0] + c1)
		out[1] = 64 * (c[0] - c1)
		return
	case 2:
		var cc [4]int64
		copy(cc[:rows], c[:rows])
		o0 := 83*cc[1] + 36*cc[3]
		o1 := 36*cc[1] - 83*cc[3]
		e0 := 64 * (cc[0] + cc[2])
		e1 := 64 * (cc[0] - cc[2])
		out[0] = e0 + o0
		out[1] = e1 + o1
		out[2] = e1 - o1
		out[3] = e0 - o0
		return
	}

	n := 1 << log2
	half := n >> 1
	var ec, e, o [MaxSize / 2]int64
	evenRows := (rows + 1) >> 1
	for k := 0; k < evenRows; k++ {
		ec[k] = c[2*k]
	}
	invDCT2Core(log2-1, ec[:half], e[:half], evenRows)

	m := &dct2Matrices[log2]
	for k := 1; k < rows; k += 2 {
		ck := c[k]
		if ck == 0 {
			continue
		}
		row := m.C[k*n : k*n+half]
		for i, w := range row {
			o[i] += int64(w) * ck
		}
	}
	for i := 0; i < half; i++ {
		out[i] = e[i] + o[i]
		out[n-1-i] = e[i] - o[i]
	}
}

func clipInt64(v int64, lo, hi int32) int32 {
	if v < int64(lo) {
		return lo
	}
	if v > int64(hi) {
		return hi
	}
	return int32(v)
}

// invDCT2 runs the N-point inverse butterfly over `line` coefficient
// columns and clips every output sample.
func invDCT2(log2 int, src, dst []int32, shift, line, skipLine, skipLine2 int, outMin, outMax int32) {
	n := 1 << log2
	active := line - skipLine
	rows := n - skipLine2

	var c, out [MaxSize]int64
	for j := 0; j < active; j++ {
		for k := 0; k < rows; k++ {
			c[k] = int64(src[k*line+j])
		}
		invDCT2Core(log2, c[:n], out[:n], rows)
		res := dst[j*n : j*n+n]
		for i := range res {
			res[i] = clipInt64(roundShift(out[i], shift), outMin, outMax)
		}
	}
	clear(dst[active*n : line*n])
}

func invDCT2B2(src, dst []int32, shift, line, skipLine, skipLine2 int, outMin, outMax int32) {
	invDCT2(1, src, dst, shift, line, skipLine, skipLine2, outMin, outMax)
}

func invDCT2B4(src, dst []int32, shift, line, skipLine, skipLine2 int, outMin, outMax int32) {
	invDCT2(2, src, dst, shift, line, skipLine, skipLine2, outMin, outMax)
}

func invDCT2B8(src, dst []int32, shift, line, skipLine, skipLine2 int, outMin, outMax int32) {
	invDCT2(3, src, dst, shift, line, skipLine, skipLine2, outMin, outMax)
}

func invDCT2B16(src, dst []int32, shift, line, skipLine, skipLine2 int, outMin, outMax int32) {
	invDCT2(4, src, dst, shift, line, skipLine, skipLine2, outMin, outMax)
}

func invDCT2B32(src, dst []int32, shift, line, skipLine, skipLine2 int, outMin, outMax int32) {
	invDCT2(5, src, dst, shift, line, skipLine, skipLine2, outMin, outMax)
}

func invDCT2B64(src, dst []int32, shift, line, skipLine, skipLine2 int, outMin, outMax int32) {
	invDCT2(6, src, dst, shift, line, skipLine, skipLine2, outMin, outMax)
}

func invDCT2B128(src, dst []int32, shift, line, skipLine, skipLine2 int, outMin, outMax int32) {
	invDCT2(7, src, dst, shift, line, skipLine, skipLine2, outMin, outMax)
}
