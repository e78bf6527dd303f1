package dsp

// ForwardMM is the generic matrix forward kernel: for each of the first
// line-skipLine input vectors it computes every non-skipped output row as a
// dot product with the matrix row. Skipped lines and rows are zeroed.
func ForwardMM(m *Matrix, src, dst []int32, shift, line, skipLine, skipLine2 int) {
	n := m.N
	active := line - skipLine
	rows := n - skipLine2
	for j := 0; j < active; j++ {
		in := src[j*n : j*n+n]
		for k := 0; k < rows; k++ {
			row := m.C[k*n : k*n+n]
			var sum int64
			for i, c := range row {
				sum += int64(c) * int64(in[i])
			}
			dst[k*line+j] = int32(roundShift(sum, shift))
		}
	}
	zeroForwardTail(dst, n, line, active, rows)
}

// InverseMM is the generic matrix inverse kernel. Coefficient rows at or
// beyond n-skipLine2 are assumed zero and not read.
func InverseMM(m *Matrix, src, dst []int32, shift, line, skipLine, skipLine2 int, outMin, outMax int32) {
	n := m.N
	active := line - skipLine
	rows := n - skipLine2
	var acc [MaxSize]int64
	for j := 0; j < active; j++ {
		sums := acc[:n]
		clear(sums)
		for k := 0; k < rows; k++ {
			ck := int64(src[k*line+j])
			if ck == 0 {
				continue
			}
			row := m.C[k*n : k*n+n]
			for i, c := range row {
				sums[i] += int64(c) * ck
			}
		}
		res := dst[j*n : j*n+n]
		for i, s := range sums {
			res[i] = clipInt64(roundShift(s, shift), outMin, outMax)
		}
	}
	clear(dst[active*n : line*n])
}
